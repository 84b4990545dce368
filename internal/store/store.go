// Package store defines the persistence contracts used by handlers and the
// session resolver. MongoDB implementations live in store/mongo.
package store

import (
	"context"
	"errors"

	"github.com/harentsoaR/dentaheal/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	ErrInvalidID = errors.New("invalid id")
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id, fullName, phone string) error
	SetActive(ctx context.Context, id string, active bool) error
	SetRole(ctx context.Context, id, role string) error
	SetPasswordHash(ctx context.Context, id, hash string) error
}

type SettingsRepository interface {
	Get(ctx context.Context) (*models.ClinicSettings, error)
	// Replace stores s and returns the document it replaced (zero value when
	// none existed).
	Replace(ctx context.Context, s *models.ClinicSettings) (*models.ClinicSettings, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, apt *models.Appointment) error
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, error)
	Update(ctx context.Context, id string, update models.AppointmentUpdate) error
	SetStatus(ctx context.Context, id, status string) error
}

type AuditRepository interface {
	Insert(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error)
}

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
