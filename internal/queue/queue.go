package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunJob instructs a worker to execute a campaign run.
type RunJob struct {
	CampaignID uuid.UUID `json:"campaign_id"`
}

// TopicCampaignRuns carries RunJob payloads.
const TopicCampaignRuns = "campaign_runs"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers jobs in-process with retry; it backs the
// single-binary mode where no broker is configured.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a job payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a job to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("Job failed (attempt %d/%d): %+v, error: %v\n", job.RetryCount, job.MaxRetries, job.Payload, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("Job permanently failed after %d attempts: %+v\n", job.MaxRetries, job.Payload)
			return // No requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// CampaignRunner executes one campaign end to end.
type CampaignRunner interface {
	RunCampaign(ctx context.Context, campaignID uuid.UUID) error
}

// StartCampaignRunSubscriber wires campaign run jobs to the runner. Used
// when the server processes runs in-process instead of handing them to a
// broker-fed worker.
func StartCampaignRunSubscriber(q Queue, runner CampaignRunner) {
	err := q.Subscribe(TopicCampaignRuns, func(payload any) error {
		job, ok := payload.(RunJob)
		if !ok {
			log.Println("⚠️ Invalid payload type, expected RunJob")
			return nil // drop, retrying won't fix the type
		}

		log.Println("📞 Processing queued campaign run:", job.CampaignID)
		if err := runner.RunCampaign(context.Background(), job.CampaignID); err != nil {
			log.Println("⚠️ Campaign run failed:", err)
			return err
		}

		log.Println("✅ Campaign run completed:", job.CampaignID)
		return nil
	})
	if err != nil {
		log.Println("⚠️ Failed to start subscriber for campaign_runs:", err)
	}
}
