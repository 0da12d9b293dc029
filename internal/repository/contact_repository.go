package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
)

// ContactRepositoryInterface is the contact-list store the dispatcher's
// callers read from. The dispatcher core itself never touches storage.
type ContactRepositoryInterface interface {
	BulkInsert(contacts []model.Contact) (int, error)
	ListByCampaign(campaignID uuid.UUID) ([]model.Contact, error)
}

type ContactRepository struct {
	DB *sql.DB
}

func (r *ContactRepository) BulkInsert(contacts []model.Contact) (int, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
        INSERT INTO contacts (id, campaign_id, patient_name, phone, appointment_date,
                              appointment_time, provider_name, office_location, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for i := range contacts {
		c := &contacts[i]
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.CreatedAt = time.Now()
		if _, err := stmt.Exec(c.ID, c.CampaignID, c.PatientName, c.Phone, c.AppointmentDate,
			c.AppointmentTime, c.ProviderName, c.OfficeLocation, c.CreatedAt); err != nil {
			return inserted, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *ContactRepository) ListByCampaign(campaignID uuid.UUID) ([]model.Contact, error) {
	query := `
        SELECT id, campaign_id, patient_name, phone, appointment_date,
               appointment_time, provider_name, office_location, created_at
        FROM contacts WHERE campaign_id=$1 ORDER BY created_at
    `
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.CampaignID, &c.PatientName, &c.Phone, &c.AppointmentDate,
			&c.AppointmentTime, &c.ProviderName, &c.OfficeLocation, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
