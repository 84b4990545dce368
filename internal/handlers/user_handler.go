package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentaheal/internal/auth"
	"github.com/harentsoaR/dentaheal/internal/models"
	"github.com/harentsoaR/dentaheal/internal/store"
	"github.com/harentsoaR/dentaheal/internal/utils"
)

// The /api/users routes sit behind RequireRole(ADMIN); the handlers still
// authorize so they stay safe when mounted elsewhere.

func (h *Handler) requireAdmin(c *gin.Context) (*auth.Identity, bool) {
	id := identity(c)
	if err := auth.Authorize(id, auth.RoleAdmin); err != nil {
		h.respondError(c, forbidden(err, msgAdminRequired))
		return nil, false
	}
	return id, true
}

func (h *Handler) ListUsers(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type CreateUserRequest struct {
	FullName string `json:"fullName" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=ADMIN DENTIST ASSISTANT PATIENT"`
	Phone    string `json:"phone"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	actor, ok := h.requireAdmin(c)
	if !ok {
		return
	}
	var req CreateUserRequest
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
		Role:         req.Role,
		Phone:        req.Phone,
		Active:       true,
	}
	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		h.respondError(c, messageFor(err, store.ErrDuplicate, "An account with this email already exists"))
		return
	}

	h.record(actor, models.ActionUserCreated, models.EntityUser, user.ID.Hex(), nil, gin.H{"email": user.Email, "role": user.Role})
	c.JSON(http.StatusCreated, user)
}

// DeactivateUser disables a login. An administrator cannot lock themselves out.
func (h *Handler) DeactivateUser(c *gin.Context) {
	actor, ok := h.requireAdmin(c)
	if !ok {
		return
	}
	targetID := c.Param("id")
	if err := auth.AuthorizeNotSelf(actor, targetID); err != nil {
		h.respondError(c, selfTarget(err, "Cannot deactivate your own account"))
		return
	}

	if err := h.users.SetActive(c.Request.Context(), targetID, false); err != nil {
		h.respondError(c, notFound(err, "User not found"))
		return
	}

	h.record(actor, models.ActionUserDeactivate, models.EntityUser, targetID, gin.H{"active": true}, gin.H{"active": false})
	c.JSON(http.StatusOK, gin.H{"message": "User deactivated"})
}

func (h *Handler) ActivateUser(c *gin.Context) {
	actor, ok := h.requireAdmin(c)
	if !ok {
		return
	}
	targetID := c.Param("id")
	if err := h.users.SetActive(c.Request.Context(), targetID, true); err != nil {
		h.respondError(c, notFound(err, "User not found"))
		return
	}

	h.record(actor, models.ActionUserActivate, models.EntityUser, targetID, gin.H{"active": false}, gin.H{"active": true})
	c.JSON(http.StatusOK, gin.H{"message": "User activated"})
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *Handler) ChangeUserRole(c *gin.Context) {
	actor, ok := h.requireAdmin(c)
	if !ok {
		return
	}
	targetID := c.Param("id")
	if err := auth.AuthorizeNotSelf(actor, targetID); err != nil {
		h.respondError(c, selfTarget(err, "Cannot change your own role"))
		return
	}

	var req ChangeRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be one of: ADMIN DENTIST ASSISTANT PATIENT"})
		return
	}

	target, err := h.users.FindByID(c.Request.Context(), targetID)
	if err != nil {
		h.respondError(c, notFound(err, "User not found"))
		return
	}
	if err := h.users.SetRole(c.Request.Context(), targetID, role.String()); err != nil {
		h.respondError(c, notFound(err, "User not found"))
		return
	}

	h.record(actor, models.ActionRoleChanged, models.EntityUser, targetID, target.Role, role.String())
	c.JSON(http.StatusOK, gin.H{"message": "Role updated", "role": role})
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// ResetUserPassword sets a new password chosen by the administrator. The
// audit entry never carries password material.
func (h *Handler) ResetUserPassword(c *gin.Context) {
	actor, ok := h.requireAdmin(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	var req ResetPasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.users.SetPasswordHash(c.Request.Context(), targetID, hashed); err != nil {
		h.respondError(c, notFound(err, "User not found"))
		return
	}

	h.record(actor, models.ActionPasswordReset, models.EntityUser, targetID, nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Password reset"})
}
