package models

import "time"

// ClinicSettings is a singleton document holding clinic-wide configuration.
type ClinicSettings struct {
	ClinicName   string    `bson:"clinicName" json:"clinicName"`
	Address      string    `bson:"address" json:"address"`
	Phone        string    `bson:"phone" json:"phone"`
	Email        string    `bson:"email" json:"email"`
	OpeningHours string    `bson:"openingHours" json:"openingHours"`
	Timezone     string    `bson:"timezone" json:"timezone"`
	BookingURL   string    `bson:"bookingUrl" json:"bookingUrl"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
	UpdatedBy    string    `bson:"updatedBy" json:"updatedBy"`
}
