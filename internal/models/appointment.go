package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AppointmentScheduled = "Scheduled"
	AppointmentCancelled = "Cancelled"
)

type Appointment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID   primitive.ObjectID `bson:"patientId" json:"patientId"`
	PatientName string             `bson:"patientName" json:"patientName"`
	StartTime   time.Time          `bson:"startTime" json:"startTime"`
	EndTime     time.Time          `bson:"endTime" json:"endTime"`
	Service     string             `bson:"service" json:"service"`
	Status      string             `bson:"status" json:"status"`
}

// AppointmentFilter narrows appointment listings. Zero values are ignored.
type AppointmentFilter struct {
	PatientID  *primitive.ObjectID
	From       time.Time
	To         time.Time
	Status     string
	NewestLast bool
}

// AppointmentUpdate carries the optional fields of a staff edit.
type AppointmentUpdate struct {
	StartTime *time.Time
	EndTime   *time.Time
	Service   *string
	Status    *string
}

func (u AppointmentUpdate) Empty() bool {
	return u.StartTime == nil && u.EndTime == nil && u.Service == nil && u.Status == nil
}
