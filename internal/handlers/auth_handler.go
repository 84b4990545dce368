package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentaheal/internal/auth"
	"github.com/harentsoaR/dentaheal/internal/metrics"
	"github.com/harentsoaR/dentaheal/internal/models"
	"github.com/harentsoaR/dentaheal/internal/store"
	"github.com/harentsoaR/dentaheal/internal/utils"
)

type RegisterUserRequest struct {
	FullName string `json:"fullName" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone" binding:"required"`
}

// RegisterUser creates a patient account. Staff accounts are created by an
// administrator through CreateUser.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	user := models.User{
		FullName:     req.FullName,
		Email:        normalizeEmail(req.Email),
		PasswordHash: hashed,
		Role:         auth.RolePatient.String(),
		Phone:        req.Phone,
		Active:       true,
	}
	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		h.respondError(c, messageFor(err, store.ErrDuplicate, "An account with this email already exists"))
		return
	}

	self := &auth.Identity{ID: user.ID.Hex(), Email: user.Email, Name: user.FullName, Role: auth.RolePatient}
	h.record(self, models.ActionUserCreated, models.EntityUser, user.ID.Hex(), nil, gin.H{"email": user.Email, "role": user.Role})

	c.JSON(http.StatusCreated, user)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

var errInvalidCredentials = errors.New("invalid credentials")

// Login checks credentials, starts a cookie session and returns a bearer
// token for API clients.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if retry := h.limiter.Locked(c.ClientIP()); retry > 0 {
		h.tooManyAttempts(c, retry)
		return
	}

	user, id, err := h.authenticate(c, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.respondError(c, err)
		return
	}

	token, err := h.tokens.Generate(id.ID, id.Role.String())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := auth.StartSession(c, id.ID); err != nil {
		h.respondError(c, err)
		return
	}

	h.recordLogin(c, id)

	user.Role = id.Role.String()
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// authenticate is shared by the JSON and form logins. It applies the
// lockout bookkeeping and audits failures; callers audit success once the
// session exists.
func (h *Handler) authenticate(c *gin.Context, email, password string) (*models.User, *auth.Identity, error) {
	ip := c.ClientIP()
	email = normalizeEmail(email)

	user, err := h.users.FindByEmail(c.Request.Context(), email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, err
	}

	var role auth.Role
	valid := err == nil && user.Active && utils.CheckPasswordHash(password, user.PasswordHash)
	if valid {
		if role, err = auth.ParseRole(user.Role); err != nil {
			h.log.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("login refused: unusable role")
			valid = false
		}
	}
	if !valid {
		remaining := h.limiter.Fail(ip)
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		h.record(nil, models.ActionLoginFailed, models.EntitySession, "", nil, gin.H{"email": email, "ip": ip, "remainingAttempts": remaining})
		return nil, nil, errInvalidCredentials
	}

	h.limiter.Reset(ip)
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	id := &auth.Identity{ID: user.ID.Hex(), Email: user.Email, Name: user.FullName, Role: role}
	return user, id, nil
}

func (h *Handler) recordLogin(c *gin.Context, id *auth.Identity) {
	h.record(id, models.ActionLogin, models.EntitySession, id.ID, nil, gin.H{"ip": c.ClientIP()})
}

func (h *Handler) tooManyAttempts(c *gin.Context, retry time.Duration) {
	metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
	c.Header("Retry-After", retryAfterSeconds(retry))
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts. Try again later."})
}

// Logout ends the cookie session. Bearer tokens simply expire.
func (h *Handler) Logout(c *gin.Context) {
	id := identity(c)
	if err := auth.EndSession(c); err != nil {
		h.respondError(c, err)
		return
	}
	if id != nil {
		h.record(id, models.ActionLogout, models.EntitySession, id.ID, nil, nil)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetCurrentUser returns the caller's own profile.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	id := identity(c)
	if err := auth.Authorize(id, auth.RoleAdmin, auth.RoleDentist, auth.RoleAssistant, auth.RolePatient); err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), id.ID)
	if err != nil {
		h.respondError(c, notFound(err, "User not found"))
		return
	}
	user.Role = id.Role.String()
	c.JSON(http.StatusOK, user)
}

type UpdateProfileRequest struct {
	FullName string `json:"fullName" binding:"omitempty,max=120"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
}

// UpdateCurrentUser lets a user edit their own name and phone number.
func (h *Handler) UpdateCurrentUser(c *gin.Context) {
	id := identity(c)
	if id == nil {
		h.respondError(c, auth.ErrUnauthenticated)
		return
	}

	var req UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.FullName == "" && req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No update fields provided"})
		return
	}

	if err := h.users.UpdateProfile(c.Request.Context(), id.ID, req.FullName, req.Phone); err != nil {
		h.respondError(c, notFound(err, "User not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// retryAfterSeconds rounds up so clients never retry before the lock ends.
func retryAfterSeconds(d time.Duration) string {
	return strconv.FormatInt(int64((d+time.Second-1)/time.Second), 10)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
