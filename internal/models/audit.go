package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit actions.
const (
	ActionLogin          = "auth.login"
	ActionLoginFailed    = "auth.login_failed"
	ActionLogout         = "auth.logout"
	ActionUserCreated    = "user.created"
	ActionUserDeactivate = "user.deactivated"
	ActionUserActivate   = "user.activated"
	ActionPasswordReset  = "user.password_reset"
	ActionRoleChanged    = "user.role_changed"
	ActionSettingsUpdate = "settings.updated"
	ActionApptCancelled  = "appointment.cancelled"
)

// Entity types referenced by audit entries.
const (
	EntityUser        = "user"
	EntitySettings    = "settings"
	EntityAppointment = "appointment"
	EntitySession     = "session"
)

type AuditEntry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActorUserID   string             `bson:"actorUserId" json:"actorUserId"`
	ActorEmail    string             `bson:"actorEmail" json:"actorEmail"`
	ActorName     string             `bson:"actorName,omitempty" json:"actorName,omitempty"`
	Action        string             `bson:"action" json:"action"`
	EntityType    string             `bson:"entityType" json:"entityType"`
	EntityID      string             `bson:"entityId" json:"entityId"`
	PreviousValue any                `bson:"previousValue,omitempty" json:"previousValue,omitempty"`
	NewValue      any                `bson:"newValue,omitempty" json:"newValue,omitempty"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
}

// AuditFilter narrows audit listings. Zero values are ignored.
type AuditFilter struct {
	Action     string
	EntityType string
	EntityID   string
	Limit      int64
}
