package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/dentaheal/internal/audit"
	"github.com/harentsoaR/dentaheal/internal/auth"
	"github.com/harentsoaR/dentaheal/internal/middleware"
	"github.com/harentsoaR/dentaheal/internal/models"
	"github.com/harentsoaR/dentaheal/internal/store"
	"github.com/harentsoaR/dentaheal/internal/store/memstore"
	"github.com/harentsoaR/dentaheal/internal/utils"
)

const testPassword = "correct-horse-battery"

func init() {
	utils.PasswordCost = bcrypt.MinCost
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (r *recordingAudit) Record(e models.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingAudit) all() []models.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuditEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

type notification struct {
	patient string
	status  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) SendAppointmentSMS(p *models.User, apt *models.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{patient: p.ID.Hex(), status: apt.Status})
}

type testApp struct {
	engine       *gin.Engine
	users        *memstore.Users
	settings     *memstore.Settings
	appointments *memstore.Appointments
	auditLogs    *memstore.AuditLogs
	notifier     *recordingNotifier
	tokens       *utils.TokenIssuer

	admin, dentist, patient models.User
}

func mustHash(t *testing.T) string {
	t.Helper()
	h, err := utils.HashPassword(testPassword)
	require.NoError(t, err)
	return h
}

func newUserDoc(t *testing.T, name, email, role string) models.User {
	return models.User{
		ID:           primitive.NewObjectID(),
		FullName:     name,
		Email:        email,
		PasswordHash: mustHash(t),
		Role:         role,
		Phone:        "+261340000000",
		Active:       true,
	}
}

// newTestApp wires the handlers on a bare engine: sessions and identity
// resolution, but no edge gate, so pages rely on their own guard.
func newTestApp(t *testing.T, recorder audit.Recorder) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := &testApp{
		admin:   newUserDoc(t, "Nirina Admin", "admin@dentaheal.test", "ADMIN"),
		dentist: newUserDoc(t, "Dr. Rakoto", "dentist@dentaheal.test", "DENTIST"),
		patient: newUserDoc(t, "Hery Patient", "patient@dentaheal.test", "client"),
	}
	app.users = memstore.NewUsers(app.admin, app.dentist, app.patient)
	app.settings = memstore.NewSettings(&models.ClinicSettings{ClinicName: "DentaHeal Antananarivo"})
	app.appointments = memstore.NewAppointments()
	app.auditLogs = memstore.NewAuditLogs()
	app.notifier = &recordingNotifier{}
	app.tokens = utils.NewTokenIssuer("test-jwt-secret", time.Hour)

	resolver := auth.NewResolver(app.users, app.tokens, auth.ResolverConfig{})
	registry, err := auth.NewRegistry("test", []string{"/dashboard3", "/account"})
	require.NoError(t, err)

	h := NewHandler(Deps{
		Users:        app.users,
		Settings:     app.settings,
		Appointments: app.appointments,
		AuditLogs:    app.auditLogs,
		Audit:        recorder,
		Notifier:     app.notifier,
		Resolver:     resolver,
		Tokens:       app.tokens,
		Registry:     registry,
		LoginPath:    "/login",
		Probes:       map[string]store.Pinger{"mongodb": memstore.Ping{}},
		Log:          zerolog.Nop(),
	})

	tmpl, err := Templates()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(sessions.Sessions(auth.SessionCookieName, cookie.NewStore([]byte("test-session-secret"))))
	r.Use(middleware.ResolveIdentity(resolver))

	r.GET("/health", h.Liveness)
	r.GET("/health/ready", h.Readiness)
	r.POST("/auth/register", h.RegisterUser)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)

	api := r.Group("/api", middleware.RequireIdentity())
	api.GET("/me", h.GetCurrentUser)
	api.PUT("/me", h.UpdateCurrentUser)
	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", h.UpdateSettings)
	api.GET("/users", h.ListUsers)
	api.POST("/users", h.CreateUser)
	api.PATCH("/users/:id/deactivate", h.DeactivateUser)
	api.PATCH("/users/:id/activate", h.ActivateUser)
	api.PUT("/users/:id/role", h.ChangeUserRole)
	api.POST("/users/:id/reset-password", h.ResetUserPassword)
	api.GET("/audit-logs", h.ListAuditLogs)
	api.GET("/appointments", h.GetAppointments)
	api.POST("/appointments", h.CreateAppointment)
	api.PUT("/appointments/:id", h.UpdateAppointment)
	api.PATCH("/appointments/:id/cancel", h.CancelAppointment)

	r.GET("/login", h.LoginPage)
	r.POST("/login", h.LoginSubmit)
	r.POST("/logout", h.LogoutSubmit)
	r.GET("/dashboard3", h.DashboardPage)
	r.GET("/dashboard3/settings", h.SettingsPage)
	r.GET("/dashboard3/users", h.UsersPage)
	r.GET("/account", h.AccountPage)

	app.engine = r
	return app
}

// call performs a JSON request as user (nil for anonymous).
func (a *testApp) call(t *testing.T, method, target string, user *models.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := a.tokens.Generate(user.ID.Hex(), user.Role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}
