// internal/blandai/blandai.go
package blandai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
)

// CallState is the remote view of a placed call.
type CallState string

const (
	StatePending   CallState = "pending"
	StateSucceeded CallState = "succeeded"
	StateFailed    CallState = "failed"
)

// CallHandle identifies a call on the provider side.
type CallHandle struct {
	CallID string `json:"call_id"`
}

// CallDetails carries the post-call payload for a succeeded call.
type CallDetails struct {
	Transcript  string
	DurationSec int
}

// ScriptConfig is the fixed, validated request shape for initiating a call.
type ScriptConfig struct {
	Task              string `json:"task"`
	Voice             string `json:"voice"`
	Language          string `json:"language"`
	MaxDurationSec    int    `json:"max_duration"`
	AnsweredByEnabled bool   `json:"answered_by_enabled"`
	WaitForGreeting   bool   `json:"wait_for_greeting"`
	Record            bool   `json:"record"`
	AMD               bool   `json:"amd"`
}

// DefaultScriptConfig mirrors the production call settings.
func DefaultScriptConfig(task string) ScriptConfig {
	return ScriptConfig{
		Task:              task,
		Voice:             "maya",
		Language:          "en-US",
		MaxDurationSec:    300,
		AnsweredByEnabled: true,
		WaitForGreeting:   true,
		Record:            true,
		AMD:               true,
	}
}

// Validate rejects configs that the API would bounce.
func (c ScriptConfig) Validate() error {
	if strings.TrimSpace(c.Task) == "" {
		return fmt.Errorf("script config: task is empty")
	}
	if c.MaxDurationSec <= 0 {
		return fmt.Errorf("script config: max_duration must be positive, got %d", c.MaxDurationSec)
	}
	if c.Voice == "" {
		return fmt.Errorf("script config: voice is empty")
	}
	if c.Language == "" {
		return fmt.Errorf("script config: language is empty")
	}
	return nil
}

// Caller is the only seam touching the calling provider's network API.
type Caller interface {
	// StartCall initiates an outbound call. Errors are classified
	// appErrors.CallError values: auth_error, rate_limited, or
	// service_unavailable.
	StartCall(ctx context.Context, phone model.NormalizedPhone, script ScriptConfig) (CallHandle, error)
	// CallStatus polls remote state. Idempotent, read-only.
	CallStatus(ctx context.Context, h CallHandle) (CallState, error)
	// Transcript fetches the transcript and duration. Only valid after
	// CallStatus returned StateSucceeded.
	Transcript(ctx context.Context, h CallHandle) (CallDetails, error)
	// SendVoicemail drops a voicemail message without the interactive flow.
	SendVoicemail(ctx context.Context, phoneE164, message string) (CallHandle, error)
}

// AnalyzeTranscript classifies a transcript into the appointment outcome
// buckets. An empty transcript means nobody picked up.
func AnalyzeTranscript(transcript string) string {
	if strings.TrimSpace(transcript) == "" {
		return "busy_voicemail"
	}
	lower := strings.ToLower(transcript)

	for _, w := range []string{"yes", "confirm", "will be there", "see you", "attend"} {
		if strings.Contains(lower, w) {
			return "confirmed"
		}
	}
	for _, w := range []string{"cancel", "cannot make", "can't make", "won't be there"} {
		if strings.Contains(lower, w) {
			return "cancelled"
		}
	}
	for _, w := range []string{"reschedule", "different time", "another day", "change appointment"} {
		if strings.Contains(lower, w) {
			return "rescheduled"
		}
	}
	return "busy_voicemail"
}
