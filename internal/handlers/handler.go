package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/dentaheal/internal/audit"
	"github.com/harentsoaR/dentaheal/internal/auth"
	"github.com/harentsoaR/dentaheal/internal/models"
	"github.com/harentsoaR/dentaheal/internal/store"
	"github.com/harentsoaR/dentaheal/internal/utils"
)

// Notifier delivers appointment notifications without blocking the caller.
type Notifier interface {
	SendAppointmentSMS(patient *models.User, apt *models.Appointment)
}

// Deps is everything the handlers need.
type Deps struct {
	Users        store.UserRepository
	Settings     store.SettingsRepository
	Appointments store.AppointmentRepository
	AuditLogs    store.AuditRepository
	Audit        audit.Recorder
	Notifier     Notifier
	Resolver     *auth.Resolver
	Tokens       *utils.TokenIssuer
	Limiter      *auth.LoginLimiter
	Registry     *auth.Registry
	LoginPath    string
	// Probes are pinged by the readiness endpoint, keyed by dependency name.
	Probes map[string]store.Pinger
	Log    zerolog.Logger
}

type Handler struct {
	users        store.UserRepository
	settings     store.SettingsRepository
	appointments store.AppointmentRepository
	auditLogs    store.AuditRepository
	audit        audit.Recorder
	notifier     Notifier
	resolver     *auth.Resolver
	tokens       *utils.TokenIssuer
	limiter      *auth.LoginLimiter
	registry     *auth.Registry
	loginPath    string
	probes       map[string]store.Pinger
	log          zerolog.Logger
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		users:        d.Users,
		settings:     d.Settings,
		appointments: d.Appointments,
		auditLogs:    d.AuditLogs,
		audit:        d.Audit,
		notifier:     d.Notifier,
		resolver:     d.Resolver,
		tokens:       d.Tokens,
		limiter:      d.Limiter,
		registry:     d.Registry,
		loginPath:    d.LoginPath,
		probes:       d.Probes,
		log:          d.Log,
	}
	if h.audit == nil {
		h.audit = audit.Discard{}
	}
	if h.limiter == nil {
		h.limiter = auth.NewLoginLimiter(auth.DefaultLockout)
	}
	if h.loginPath == "" {
		h.loginPath = "/login"
	}
	return h
}

// record hands an audit entry to the sink. It never fails.
func (h *Handler) record(actor *auth.Identity, action, entityType, entityID string, prev, next any) {
	entry := models.AuditEntry{
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		PreviousValue: prev,
		NewValue:      next,
	}
	if actor != nil {
		entry.ActorUserID = actor.ID
		entry.ActorEmail = actor.Email
		entry.ActorName = actor.Name
	}
	h.audit.Record(entry)
}

func (h *Handler) notify(patient *models.User, apt *models.Appointment) {
	if h.notifier != nil {
		h.notifier.SendAppointmentSMS(patient, apt)
	}
}

func identity(c *gin.Context) *auth.Identity {
	return auth.IdentityFrom(c)
}
