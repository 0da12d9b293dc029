// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sneha-eps/Bland-AI-Caller/internal/aggregate"
	"github.com/sneha-eps/Bland-AI-Caller/internal/blandai"
	appErrors "github.com/sneha-eps/Bland-AI-Caller/internal/errors"
	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
	"github.com/sneha-eps/Bland-AI-Caller/internal/phone"
	"github.com/sneha-eps/Bland-AI-Caller/internal/ratelimit"
)

// Run is the full configuration for one campaign execution. The contact
// list arrives already parsed; storage is the caller's concern.
type Run struct {
	CampaignID         uuid.UUID
	Contacts           []model.Contact
	ConcurrencyLimit   int
	RateLimitPerMinute int // 0 = unlimited
	Policy             RetryPolicy
	AttemptTimeout     time.Duration
	PollInterval       time.Duration
	DefaultRegion      string // parse region for numbers without a prefix
	Script             func(model.Contact) blandai.ScriptConfig
	Aggregator         *aggregate.Aggregator // optional running tallies
}

// Dispatcher drives a contact list through normalization, rate-limited
// dispatch, retries, and result collection. One Dispatcher serves one run.
type Dispatcher struct {
	caller blandai.Caller

	mu     sync.Mutex
	cancel context.CancelFunc
	runErr error
}

func New(caller blandai.Caller) *Dispatcher {
	return &Dispatcher{caller: caller}
}

// Run dispatches up to ConcurrencyLimit contacts in parallel and streams
// results as contacts complete. Results arrive in completion order, not
// input order. The stream is finite, covers every contact exactly once,
// and must be drained by the caller. Call Run at most once per Dispatcher.
//
// Cancelling ctx lets in-flight attempts finish but issues no new calls;
// still-queued contacts drain with a synthetic cancelled result.
func (d *Dispatcher) Run(ctx context.Context, run Run) <-chan model.CampaignResult {
	results := make(chan model.CampaignResult)
	go func() {
		defer close(results)
		d.execute(ctx, run, results)
	}()
	return results
}

// Err reports the campaign-level abort cause, if any. Valid once the
// result stream has closed.
func (d *Dispatcher) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runErr
}

// abort ends the run early. First caller wins; the remaining contacts
// drain as cancelled so every contact is still accounted for.
func (d *Dispatcher) abort(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.runErr != nil {
		return
	}
	d.runErr = err
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *Dispatcher) execute(ctx context.Context, run Run, results chan<- model.CampaignResult) {
	if run.ConcurrencyLimit < 1 {
		run.ConcurrencyLimit = 1
	}
	if run.AttemptTimeout <= 0 {
		run.AttemptTimeout = 5 * time.Minute
	}
	if run.PollInterval <= 0 {
		run.PollInterval = 2 * time.Second
	}
	if run.Script == nil {
		run.Script = func(model.Contact) blandai.ScriptConfig {
			return blandai.DefaultScriptConfig("placeholder task")
		}
	}

	// The limiter is shared by every worker; it is per-run, so one
	// campaign cannot eat another campaign's call budget.
	var limiter *ratelimit.Limiter
	if run.RateLimitPerMinute > 0 {
		limiter = ratelimit.PerMinute(run.RateLimitPerMinute)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	contacts := make(chan model.Contact)
	var g errgroup.Group
	for i := 0; i < run.ConcurrencyLimit; i++ {
		g.Go(func() error {
			for contact := range contacts {
				if run.Aggregator != nil {
					run.Aggregator.Start()
				}
				res := d.processContact(runCtx, run, limiter, contact)
				if run.Aggregator != nil {
					run.Aggregator.Record(res)
				}
				results <- res
			}
			return nil
		})
	}

	for _, c := range run.Contacts {
		contacts <- c
	}
	close(contacts)
	g.Wait()
}

func (d *Dispatcher) processContact(ctx context.Context, run Run, limiter *ratelimit.Limiter, contact model.Contact) model.CampaignResult {
	res := d.contactResult(ctx, run, limiter, contact)
	res.CompletedAt = time.Now()
	return res
}

// contactResult runs the per-contact state machine:
// Queued → Normalizing → Dispatching → Awaiting → Succeeded | Retrying | GaveUp,
// with cancellation possible at every suspension point.
func (d *Dispatcher) contactResult(ctx context.Context, run Run, limiter *ratelimit.Limiter, contact model.Contact) model.CampaignResult {
	res := model.CampaignResult{
		ContactID:   contact.ID,
		CampaignID:  run.CampaignID,
		PatientName: contact.PatientName,
		Phone:       contact.Phone,
	}

	if ctx.Err() != nil {
		res.FinalStatus = model.FinalCancelled
		return res
	}

	norm, err := phone.Normalize(contact.Phone, run.DefaultRegion)
	if err != nil {
		res.FinalStatus = model.FinalInvalidPhone
		res.ErrorKind = string(appErrors.KindInvalidPhoneNumber)
		res.LastError = err.Error()
		return res
	}
	res.Phone = norm.E164
	script := run.Script(contact)

	for attemptNo := 1; ; attemptNo++ {
		if ctx.Err() != nil {
			res.FinalStatus = model.FinalCancelled
			return res
		}

		attempt := d.attemptCall(ctx, run, limiter, contact, norm, script, attemptNo)
		res.Attempts = append(res.Attempts, attempt)

		if attempt.Status == model.AttemptSucceeded {
			res.FinalStatus = model.FinalSucceeded
			d.enrich(ctx, attempt, &res)
			return res
		}

		// Empty kind means the run was cancelled under the attempt.
		if attempt.ErrorKind == "" && ctx.Err() != nil {
			res.FinalStatus = model.FinalCancelled
			return res
		}

		kind := appErrors.ErrorKind(attempt.ErrorKind)
		res.ErrorKind = attempt.ErrorKind
		res.LastError = attempt.LastError

		if kind == appErrors.KindAuthError {
			// Misconfigured credentials fail every contact the same way;
			// end the whole run instead of burning the retry budget.
			d.abort(fmt.Errorf("calling api auth failed: %s", attempt.LastError))
			res.FinalStatus = model.FinalFailed
			return res
		}

		dec := run.Policy.ShouldRetry(kind, attemptNo)
		if !dec.Retry {
			res.FinalStatus = model.FinalGaveUp
			return res
		}

		select {
		case <-time.After(dec.Delay):
		case <-ctx.Done():
			res.FinalStatus = model.FinalCancelled
			return res
		}
	}
}

// attemptCall places one call and polls it to a terminal state. The
// per-attempt timeout covers initiation and polling together.
func (d *Dispatcher) attemptCall(ctx context.Context, run Run, limiter *ratelimit.Limiter, contact model.Contact, norm model.NormalizedPhone, script blandai.ScriptConfig, number int) model.CallAttempt {
	attempt := model.CallAttempt{
		ContactID: contact.ID,
		Number:    number,
		Status:    model.AttemptPending,
		StartedAt: time.Now(),
	}

	if limiter != nil {
		if _, err := limiter.Acquire(ctx); err != nil {
			finish(&attempt, model.AttemptFailed, "", err.Error())
			return attempt
		}
	}

	actx, cancel := context.WithTimeout(ctx, run.AttemptTimeout)
	defer cancel()

	handle, err := d.caller.StartCall(actx, norm, script)
	if err != nil {
		classify(ctx, actx, err, &attempt)
		return attempt
	}
	attempt.CallID = handle.CallID
	attempt.Status = model.AttemptInProgress

	for {
		state, err := d.caller.CallStatus(actx, handle)
		if err != nil {
			classify(ctx, actx, err, &attempt)
			return attempt
		}
		switch state {
		case blandai.StateSucceeded:
			finish(&attempt, model.AttemptSucceeded, "", "")
			return attempt
		case blandai.StateFailed:
			finish(&attempt, model.AttemptFailed, string(appErrors.KindCallFailed), "provider reported the call failed")
			return attempt
		}

		select {
		case <-time.After(run.PollInterval):
		case <-actx.Done():
			classify(ctx, actx, actx.Err(), &attempt)
			return attempt
		}
	}
}

// enrich pulls transcript and duration for a succeeded call. The fetch is
// detached from run cancellation: a call that finished deserves its record.
func (d *Dispatcher) enrich(ctx context.Context, attempt model.CallAttempt, res *model.CampaignResult) {
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	details, err := d.caller.Transcript(tctx, blandai.CallHandle{CallID: attempt.CallID})
	if err != nil {
		log.Println("⚠️ failed to fetch transcript for call", attempt.CallID, ":", err)
		res.Outcome = blandai.AnalyzeTranscript("")
		return
	}
	res.Transcript = details.Transcript
	res.DurationSec = details.DurationSec
	res.Outcome = blandai.AnalyzeTranscript(details.Transcript)
}

// classify freezes a failed attempt with its error kind. Run-level
// cancellation leaves the kind empty so the contact resolves as cancelled
// rather than failed.
func classify(runCtx, attemptCtx context.Context, err error, attempt *model.CallAttempt) {
	if runCtx.Err() != nil {
		finish(attempt, model.AttemptFailed, "", runCtx.Err().Error())
		return
	}
	kind := appErrors.KindOf(err)
	if attemptCtx.Err() == context.DeadlineExceeded {
		kind = appErrors.KindTimedOut
	}
	status := model.AttemptFailed
	if kind == appErrors.KindTimedOut {
		status = model.AttemptTimedOut
	}
	finish(attempt, status, string(kind), err.Error())
}

func finish(attempt *model.CallAttempt, status model.AttemptStatus, kind, lastError string) {
	now := time.Now()
	attempt.Status = status
	attempt.ErrorKind = kind
	attempt.LastError = lastError
	attempt.CompletedAt = &now
}
