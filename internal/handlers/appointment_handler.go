package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/dentaheal/internal/auth"
	"github.com/harentsoaR/dentaheal/internal/models"
)

type CreateAppointmentRequest struct {
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
	Service   string `json:"service" binding:"required,max=120"`
}

// CreateAppointment books an appointment for the calling patient.
func (h *Handler) CreateAppointment(c *gin.Context) {
	id := identity(c)
	if err := auth.Authorize(id, auth.RolePatient); err != nil {
		h.respondError(c, forbidden(err, "Only patients can book appointments."))
		return
	}

	var req CreateAppointmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	startTime, err1 := time.Parse(time.RFC3339, req.StartTime)
	endTime, err2 := time.Parse(time.RFC3339, req.EndTime)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time format, use RFC3339"})
		return
	}
	if !endTime.After(startTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endTime must be after startTime"})
		return
	}

	patient, err := h.users.FindByID(c.Request.Context(), id.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	apt := models.Appointment{
		PatientID:   patient.ID,
		PatientName: patient.FullName,
		StartTime:   startTime.UTC(),
		EndTime:     endTime.UTC(),
		Service:     req.Service,
		Status:      models.AppointmentScheduled,
	}
	if err := h.appointments.Create(c.Request.Context(), &apt); err != nil {
		h.respondError(c, err)
		return
	}

	h.notify(patient, &apt)
	c.JSON(http.StatusCreated, apt)
}

// GetAppointments lists appointments. Patients only ever see their own;
// staff see everything and may narrow by patientId.
// Query: startDate, endDate (YYYY-MM-DD), status, patientId.
func (h *Handler) GetAppointments(c *gin.Context) {
	id := identity(c)
	if id == nil {
		h.respondError(c, auth.ErrUnauthenticated)
		return
	}

	var filter models.AppointmentFilter
	if id.Is(auth.RolePatient) {
		pid, err := primitive.ObjectIDFromHex(id.ID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		filter.PatientID = &pid
	} else if raw := c.Query("patientId"); raw != "" {
		pid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patient ID"})
			return
		}
		filter.PatientID = &pid
	}

	if raw := c.Query("startDate"); raw != "" {
		if d, err := time.Parse(time.DateOnly, raw); err == nil {
			filter.From = d
		}
	}
	if raw := c.Query("endDate"); raw != "" {
		if d, err := time.Parse(time.DateOnly, raw); err == nil {
			filter.To = d.Add(24*time.Hour - time.Second)
		}
	}
	filter.Status = c.Query("status")

	appointments, err := h.appointments.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

type UpdateAppointmentRequest struct {
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
	Service   *string `json:"service,omitempty"`
	Status    *string `json:"status,omitempty" binding:"omitempty,oneof=Scheduled Completed Cancelled"`
}

// UpdateAppointment edits an appointment. Staff only.
func (h *Handler) UpdateAppointment(c *gin.Context) {
	if err := auth.Authorize(identity(c), auth.StaffRoles...); err != nil {
		h.respondError(c, forbidden(err, msgStaffRequired))
		return
	}

	var req UpdateAppointmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if req.Status != nil && *req.Status == models.AppointmentCancelled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Use PATCH /api/appointments/:id/cancel to cancel an appointment"})
		return
	}

	var update models.AppointmentUpdate
	if req.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time format, use RFC3339"})
			return
		}
		update.StartTime = &t
	}
	if req.EndTime != nil {
		t, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time format, use RFC3339"})
			return
		}
		update.EndTime = &t
	}
	if update.StartTime != nil && update.EndTime != nil && !update.EndTime.After(*update.StartTime) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endTime must be after startTime"})
		return
	}
	update.Service = req.Service
	update.Status = req.Status
	if update.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if err := h.appointments.Update(c.Request.Context(), c.Param("id"), update); err != nil {
		h.respondError(c, notFound(err, "Appointment not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment updated successfully"})
}

// CancelAppointment marks an appointment cancelled and notifies the patient.
// Staff only.
func (h *Handler) CancelAppointment(c *gin.Context) {
	actor := identity(c)
	if err := auth.Authorize(actor, auth.StaffRoles...); err != nil {
		h.respondError(c, forbidden(err, msgStaffRequired))
		return
	}

	aptID := c.Param("id")
	apt, err := h.appointments.FindByID(c.Request.Context(), aptID)
	if err != nil {
		h.respondError(c, notFound(err, "Appointment not found"))
		return
	}
	if err := h.appointments.SetStatus(c.Request.Context(), aptID, models.AppointmentCancelled); err != nil {
		h.respondError(c, notFound(err, "Appointment not found"))
		return
	}

	h.record(actor, models.ActionApptCancelled, models.EntityAppointment, aptID, apt.Status, models.AppointmentCancelled)

	if patient, err := h.users.FindByID(c.Request.Context(), apt.PatientID.Hex()); err == nil {
		apt.Status = models.AppointmentCancelled
		h.notify(patient, apt)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled successfully"})
}
