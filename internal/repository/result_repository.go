package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
)

// ResultRepositoryInterface is the result store the dispatcher's output
// stream is persisted through.
type ResultRepositoryInterface interface {
	Save(res *model.CampaignResult) error
	ListByCampaign(campaignID uuid.UUID) ([]model.CampaignResult, error)
	GetCampaignStats(campaignID uuid.UUID) (map[string]int, error)
}

type ResultRepository struct {
	DB *sql.DB
}

// Save writes the frozen result and its ordered attempts in one transaction.
func (r *ResultRepository) Save(res *model.CampaignResult) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO call_results (contact_id, campaign_id, patient_name, phone, final_status,
                                  outcome, error_kind, last_error, duration_sec, transcript,
                                  summary, attempt_count, completed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `
	_, err = tx.Exec(query, res.ContactID, res.CampaignID, res.PatientName, res.Phone,
		res.FinalStatus.String(), res.Outcome, res.ErrorKind, res.LastError, res.DurationSec,
		res.Transcript, res.Summary, len(res.Attempts), res.CompletedAt)
	if err != nil {
		return err
	}

	for _, a := range res.Attempts {
		_, err = tx.Exec(`
            INSERT INTO call_attempts (contact_id, campaign_id, attempt_number, call_id,
                                       status, error_kind, last_error, started_at, completed_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        `, a.ContactID, res.CampaignID, a.Number, a.CallID, a.Status.String(), a.ErrorKind,
			a.LastError, a.StartedAt, a.CompletedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *ResultRepository) ListByCampaign(campaignID uuid.UUID) ([]model.CampaignResult, error) {
	query := `
        SELECT contact_id, campaign_id, patient_name, phone, final_status, outcome,
               error_kind, last_error, duration_sec, transcript, summary, completed_at
        FROM call_results WHERE campaign_id=$1 ORDER BY completed_at
    `
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.CampaignResult{}
	for rows.Next() {
		var res model.CampaignResult
		var status string
		if err := rows.Scan(&res.ContactID, &res.CampaignID, &res.PatientName, &res.Phone,
			&status, &res.Outcome, &res.ErrorKind, &res.LastError, &res.DurationSec,
			&res.Transcript, &res.Summary, &res.CompletedAt); err != nil {
			return nil, err
		}
		res.FinalStatus = model.FinalStatus(status)
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *ResultRepository) GetCampaignStats(campaignID uuid.UUID) (map[string]int, error) {
	query := `SELECT final_status, COUNT(*) FROM call_results WHERE campaign_id=$1 GROUP BY final_status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		"total":         0,
		"succeeded":     0,
		"invalid_phone": 0,
		"gave_up":       0,
		"failed":        0,
		"cancelled":     0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		if _, ok := stats[status]; ok {
			stats[status] = count
		}
		stats["total"] += count
	}
	return stats, rows.Err()
}
