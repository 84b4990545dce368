package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/dentaheal/internal/auth"
	"github.com/harentsoaR/dentaheal/internal/metrics"
	"github.com/harentsoaR/dentaheal/internal/models"
	"github.com/harentsoaR/dentaheal/internal/store"
)

const dashboardPath = "/dashboard3"

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates for gin's HTML renderer.
func Templates() (*template.Template, error) {
	return template.New("").
		Funcs(template.FuncMap{
			"datetime": func(t time.Time) string {
				if t.IsZero() {
					return ""
				}
				return t.Format("Mon Jan 2, 15:04")
			},
			"dict": dict,
		}).
		ParseFS(templateFS, "templates/*.html")
}

// dict builds the map passed to the shared header template.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, errors.New("dict: keys must be strings")
		}
		m[key] = kv[i+1]
	}
	return m, nil
}

// guardPage runs before a protected page renders anything. Anonymous callers
// are redirected to login with the original URI; signed-in callers without
// one of roles are sent back to the dashboard. It works whether or not the
// edge gate covers the path.
func (h *Handler) guardPage(c *gin.Context, roles ...auth.Role) (*auth.Identity, bool) {
	id := h.resolver.Resolve(c)
	if id == nil {
		label := "unregistered"
		if h.registry != nil {
			if prefix, ok := h.registry.Match(c.Request.URL.Path); ok {
				label = prefix
			}
		}
		metrics.GateRedirectsTotal.WithLabelValues(label, "page").Inc()
		c.Redirect(http.StatusFound, auth.LoginURL(h.loginPath, requestURI(c)))
		c.Abort()
		return nil, false
	}
	if len(roles) > 0 && auth.Authorize(id, roles...) != nil {
		c.Redirect(http.StatusFound, dashboardPath)
		c.Abort()
		return nil, false
	}
	return id, true
}

func requestURI(c *gin.Context) string {
	if c.Request.RequestURI != "" {
		return c.Request.RequestURI
	}
	return c.Request.URL.RequestURI()
}

func (h *Handler) LoginPage(c *gin.Context) {
	target := auth.SafeRedirect(c.Query(auth.RedirectParam), dashboardPath)
	if h.resolver.Resolve(c) != nil {
		c.Redirect(http.StatusFound, target)
		return
	}
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Email":      "",
		"Error":      "",
		"RedirectTo": c.Query(auth.RedirectParam),
	})
}

// LoginSubmit handles the HTML login form.
func (h *Handler) LoginSubmit(c *gin.Context) {
	email := c.PostForm("email")
	rawTarget := c.PostForm(auth.RedirectParam)
	render := func(status int, msg string) {
		c.HTML(status, "login.html", gin.H{
			"Email":      email,
			"RedirectTo": rawTarget,
			"Error":      msg,
		})
	}

	if retry := h.limiter.Locked(c.ClientIP()); retry > 0 {
		metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		c.Header("Retry-After", retryAfterSeconds(retry))
		render(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
		return
	}

	if strings.TrimSpace(email) == "" || c.PostForm("password") == "" {
		render(http.StatusBadRequest, "Email and password are required.")
		return
	}

	_, id, err := h.authenticate(c, email, c.PostForm("password"))
	if errors.Is(err, errInvalidCredentials) {
		render(http.StatusUnauthorized, "Invalid email or password.")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("form login failed")
		render(http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	if err := auth.StartSession(c, id.ID); err != nil {
		h.log.Error().Err(err).Msg("session start failed")
		render(http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	h.recordLogin(c, id)
	c.Redirect(http.StatusSeeOther, auth.SafeRedirect(rawTarget, dashboardPath))
}

func (h *Handler) LogoutSubmit(c *gin.Context) {
	id := h.resolver.Resolve(c)
	if err := auth.EndSession(c); err != nil {
		h.log.Warn().Err(err).Msg("session clear failed")
	}
	if id != nil {
		h.record(id, models.ActionLogout, models.EntitySession, id.ID, nil, nil)
	}
	c.Redirect(http.StatusSeeOther, h.loginPath)
}

func (h *Handler) DashboardPage(c *gin.Context) {
	id, ok := h.guardPage(c)
	if !ok {
		return
	}

	filter := models.AppointmentFilter{Status: models.AppointmentScheduled, NewestLast: true}
	if id.Is(auth.RolePatient) {
		pid, err := primitive.ObjectIDFromHex(id.ID)
		if err != nil {
			h.pageError(c, err)
			return
		}
		filter.PatientID = &pid
	} else {
		filter.From = time.Now().UTC().Truncate(24 * time.Hour)
	}
	appointments, err := h.appointments.List(c.Request.Context(), filter)
	if err != nil {
		h.pageError(c, err)
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Identity":     id,
		"IsAdmin":      id.Is(auth.RoleAdmin),
		"Appointments": appointments,
	})
}

func (h *Handler) SettingsPage(c *gin.Context) {
	id, ok := h.guardPage(c, auth.RoleAdmin)
	if !ok {
		return
	}
	settings, err := h.settings.Get(c.Request.Context())
	if errors.Is(err, store.ErrNotFound) {
		settings, err = &models.ClinicSettings{}, nil
	}
	if err != nil {
		h.pageError(c, err)
		return
	}
	c.HTML(http.StatusOK, "settings.html", gin.H{
		"Identity": id,
		"IsAdmin":  true,
		"Settings": settings,
	})
}

func (h *Handler) UsersPage(c *gin.Context) {
	id, ok := h.guardPage(c, auth.RoleAdmin)
	if !ok {
		return
	}
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.pageError(c, err)
		return
	}
	c.HTML(http.StatusOK, "users.html", gin.H{
		"Identity": id,
		"IsAdmin":  true,
		"Users":    users,
	})
}

func (h *Handler) AccountPage(c *gin.Context) {
	id, ok := h.guardPage(c)
	if !ok {
		return
	}
	user, err := h.users.FindByID(c.Request.Context(), id.ID)
	if err != nil {
		h.pageError(c, err)
		return
	}
	c.HTML(http.StatusOK, "account.html", gin.H{
		"Identity": id,
		"IsAdmin":  id.Is(auth.RoleAdmin),
		"User":     user,
	})
}

func (h *Handler) pageError(c *gin.Context, err error) {
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("page render failed")
	c.String(http.StatusInternalServerError, "Something went wrong.")
}
