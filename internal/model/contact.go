// internal/model/contact.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Contact is one patient/phone-number entry targeted by a campaign.
type Contact struct {
	ID              uuid.UUID `db:"id" json:"id"`
	CampaignID      uuid.UUID `db:"campaign_id" json:"campaign_id"`
	PatientName     string    `db:"patient_name" json:"patient_name"`
	Phone           string    `db:"phone" json:"phone"` // raw, as uploaded
	AppointmentDate string    `db:"appointment_date" json:"appointment_date"`
	AppointmentTime string    `db:"appointment_time" json:"appointment_time"`
	ProviderName    string    `db:"provider_name" json:"provider_name"`
	OfficeLocation  string    `db:"office_location" json:"office_location"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// NormalizedPhone is the E.164 form of a contact's number.
// Immutable once produced.
type NormalizedPhone struct {
	E164        string `json:"e164"`
	CountryCode int    `json:"country_code"`
}
