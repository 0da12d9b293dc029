// internal/aggregate/aggregator.go
package aggregate

import (
	"sync"

	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
)

// Snapshot is a point-in-time view of campaign progress. Failed covers
// every non-success terminal except cancellation (invalid numbers,
// exhausted retries, campaign-level aborts).
type Snapshot struct {
	Total            int            `json:"total"`
	Succeeded        int            `json:"succeeded"`
	Failed           int            `json:"failed"`
	Cancelled        int            `json:"cancelled"`
	GaveUp           int            `json:"gave_up"`
	InvalidPhone     int            `json:"invalid_phone"`
	InFlight         int            `json:"in_flight"`
	Outcomes         map[string]int `json:"outcomes"`
	TotalDurationSec int            `json:"total_duration_sec"`
}

// SuccessRate is the percentage of recorded contacts that succeeded.
func (s Snapshot) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

// Aggregator accumulates per-contact outcomes into campaign statistics.
// Multiple dispatch workers record into it concurrently; all mutation is
// serialized behind the mutex.
type Aggregator struct {
	mu   sync.Mutex
	snap Snapshot
}

func New() *Aggregator {
	return &Aggregator{snap: Snapshot{Outcomes: make(map[string]int)}}
}

// Start marks one contact as picked up by a worker.
func (a *Aggregator) Start() {
	a.mu.Lock()
	a.snap.InFlight++
	a.mu.Unlock()
}

// Record folds a frozen result into the tallies and releases its
// in-flight slot.
func (a *Aggregator) Record(res model.CampaignResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.snap.InFlight > 0 {
		a.snap.InFlight--
	}
	a.snap.Total++
	a.snap.TotalDurationSec += res.DurationSec

	switch res.FinalStatus {
	case model.FinalSucceeded:
		a.snap.Succeeded++
	case model.FinalCancelled:
		a.snap.Cancelled++
	case model.FinalGaveUp:
		a.snap.GaveUp++
		a.snap.Failed++
	case model.FinalInvalidPhone:
		a.snap.InvalidPhone++
		a.snap.Failed++
	default:
		a.snap.Failed++
	}

	if res.Outcome != "" {
		a.snap.Outcomes[res.Outcome]++
	}
}

// Snapshot returns a copy consistent with the last completed Record call.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.snap
	out.Outcomes = make(map[string]int, len(a.snap.Outcomes))
	for k, v := range a.snap.Outcomes {
		out.Outcomes[k] = v
	}
	return out
}
