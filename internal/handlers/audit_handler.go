package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentaheal/internal/models"
)

// ListAuditLogs returns recent audit entries, newest first.
// Query: action, entityType, entityId, limit.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	filter := models.AuditFilter{
		Action:     c.Query("action"),
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = limit
	}

	entries, err := h.auditLogs.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
