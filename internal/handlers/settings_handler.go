package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentaheal/internal/auth"
	"github.com/harentsoaR/dentaheal/internal/models"
	"github.com/harentsoaR/dentaheal/internal/store"
)

type SettingsRequest struct {
	ClinicName   string `json:"clinicName" binding:"required,max=120"`
	Address      string `json:"address" binding:"max=240"`
	Phone        string `json:"phone" binding:"max=32"`
	Email        string `json:"email" binding:"omitempty,email"`
	OpeningHours string `json:"openingHours" binding:"max=240"`
	Timezone     string `json:"timezone" binding:"omitempty,timezone"`
	BookingURL   string `json:"bookingUrl" binding:"omitempty,url"`
}

// GetSettings returns the clinic settings to any signed-in user.
func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.settings.Get(c.Request.Context())
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, models.ClinicSettings{})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateSettings replaces the clinic settings. Administrators only.
func (h *Handler) UpdateSettings(c *gin.Context) {
	id := identity(c)
	if err := auth.Authorize(id, auth.RoleAdmin); err != nil {
		h.respondError(c, forbidden(err, msgAdminRequired))
		return
	}

	var req SettingsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	next := &models.ClinicSettings{
		ClinicName:   req.ClinicName,
		Address:      req.Address,
		Phone:        req.Phone,
		Email:        req.Email,
		OpeningHours: req.OpeningHours,
		Timezone:     req.Timezone,
		BookingURL:   req.BookingURL,
		UpdatedAt:    time.Now().UTC(),
		UpdatedBy:    id.Email,
	}
	prev, err := h.settings.Replace(c.Request.Context(), next)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.record(id, models.ActionSettingsUpdate, models.EntitySettings, "clinic", prev, next)
	c.JSON(http.StatusOK, next)
}
