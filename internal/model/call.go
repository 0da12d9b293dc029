// internal/model/call.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus is the lifecycle state of a single call attempt.
type AttemptStatus string

const (
	AttemptPending    AttemptStatus = "pending"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSucceeded  AttemptStatus = "succeeded"
	AttemptFailed     AttemptStatus = "failed"
	AttemptTimedOut   AttemptStatus = "timed_out"
)

func (s AttemptStatus) String() string { return string(s) }

// Terminal reports whether the attempt can no longer change.
func (s AttemptStatus) Terminal() bool {
	switch s {
	case AttemptSucceeded, AttemptFailed, AttemptTimedOut:
		return true
	}
	return false
}

// CallAttempt records one try at placing a call to a contact.
type CallAttempt struct {
	ContactID   uuid.UUID     `db:"contact_id" json:"contact_id"`
	Number      int           `db:"attempt_number" json:"attempt_number"` // 1-based
	CallID      string        `db:"call_id" json:"call_id,omitempty"`     // remote call id
	Status      AttemptStatus `db:"status" json:"status"`
	ErrorKind   string        `db:"error_kind" json:"error_kind,omitempty"`
	LastError   string        `db:"last_error" json:"last_error,omitempty"`
	StartedAt   time.Time     `db:"started_at" json:"started_at"`
	CompletedAt *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
}

// FinalStatus is the per-contact outcome of a campaign run.
type FinalStatus string

const (
	FinalSucceeded    FinalStatus = "succeeded"
	FinalInvalidPhone FinalStatus = "invalid_phone"
	FinalGaveUp       FinalStatus = "gave_up"
	FinalFailed       FinalStatus = "failed" // campaign-level abort, e.g. bad credentials
	FinalCancelled    FinalStatus = "cancelled"
)

func (s FinalStatus) String() string { return string(s) }

func (s FinalStatus) IsValid() bool {
	switch s {
	case FinalSucceeded, FinalInvalidPhone, FinalGaveUp, FinalFailed, FinalCancelled:
		return true
	}
	return false
}

// CampaignResult is the frozen outcome for one contact: final status plus
// the ordered attempts that led to it.
type CampaignResult struct {
	ContactID   uuid.UUID     `db:"contact_id" json:"contact_id"`
	CampaignID  uuid.UUID     `db:"campaign_id" json:"campaign_id"`
	PatientName string        `db:"patient_name" json:"patient_name"`
	Phone       string        `db:"phone" json:"phone"` // E.164 once normalized
	FinalStatus FinalStatus   `db:"final_status" json:"final_status"`
	Outcome     string        `db:"outcome" json:"outcome,omitempty"` // confirmed, cancelled, rescheduled, busy_voicemail
	ErrorKind   string        `db:"error_kind" json:"error_kind,omitempty"`
	LastError   string        `db:"last_error" json:"last_error,omitempty"`
	DurationSec int           `db:"duration_sec" json:"duration_sec"`
	Transcript  string        `db:"transcript" json:"transcript,omitempty"`
	Summary     string        `db:"summary" json:"summary,omitempty"`
	Attempts    []CallAttempt `json:"attempts,omitempty"`
	CompletedAt time.Time     `db:"completed_at" json:"completed_at"`
}
