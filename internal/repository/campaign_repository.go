package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/sneha-eps/Bland-AI-Caller/internal/errors"
	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id uuid.UUID) (*model.Campaign, error)
	ListCampaigns(offset, limit int, clientID, status string) ([]*model.Campaign, int, error)
	UpdateStatus(campaignID uuid.UUID, status string) error
}

type CampaignRepository struct {
	DB *sql.DB
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = "draft"
	}
	query := `
        INSERT INTO campaigns (id, client_id, name, status, max_attempts, retry_interval,
                               country_code, concurrency_limit, rate_limit_per_minute, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := r.DB.Exec(query, c.ID, c.ClientID, c.Name, c.Status, c.MaxAttempts, c.RetryInterval,
		c.CountryCode, c.ConcurrencyLimit, c.RateLimitPerMinute, c.CreatedAt)
	return err
}

func (r *CampaignRepository) GetByID(id uuid.UUID) (*model.Campaign, error) {
	query := `
        SELECT id, client_id, name, status, max_attempts, retry_interval,
               country_code, concurrency_limit, rate_limit_per_minute, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.ClientID, &c.Name, &c.Status, &c.MaxAttempts,
		&c.RetryInterval, &c.CountryCode, &c.ConcurrencyLimit, &c.RateLimitPerMinute, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, clientID, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `
        SELECT id, client_id, name, status, max_attempts, retry_interval,
               country_code, concurrency_limit, rate_limit_per_minute, created_at, updated_at
        FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if clientID != "" {
		query += fmt.Sprintf(" AND client_id=$%d", argPos)
		args = append(args, clientID)
		argPos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.ClientID, &c.Name, &c.Status, &c.MaxAttempts, &c.RetryInterval,
			&c.CountryCode, &c.ConcurrencyLimit, &c.RateLimitPerMinute, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	argPosCount := 1
	if clientID != "" {
		countQuery += fmt.Sprintf(" AND client_id=$%d", argPosCount)
		argsCount = append(argsCount, clientID)
		argPosCount++
	}
	if status != "" {
		countQuery += fmt.Sprintf(" AND status=$%d", argPosCount)
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(campaignID uuid.UUID, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, status, time.Now(), campaignID)
	return err
}
