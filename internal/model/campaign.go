// internal/model/campaign.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Campaign struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	ClientID           uuid.UUID  `db:"client_id" json:"client_id"`
	Name               string     `db:"name" json:"name"`
	Status             string     `db:"status" json:"status"` // draft, queued, running, completed, aborted
	MaxAttempts        int        `db:"max_attempts" json:"max_attempts"`
	RetryInterval      int        `db:"retry_interval" json:"retry_interval"` // seconds, backoff base
	CountryCode        string     `db:"country_code" json:"country_code"`     // dial prefix, e.g. "+1"
	ConcurrencyLimit   int        `db:"concurrency_limit" json:"concurrency_limit"`
	RateLimitPerMinute int        `db:"rate_limit_per_minute" json:"rate_limit_per_minute"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
