// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sneha-eps/Bland-AI-Caller/internal/aggregate"
	"github.com/sneha-eps/Bland-AI-Caller/internal/ai"
	"github.com/sneha-eps/Bland-AI-Caller/internal/blandai"
	"github.com/sneha-eps/Bland-AI-Caller/internal/dispatch"
	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
	"github.com/sneha-eps/Bland-AI-Caller/internal/phone"
	"github.com/sneha-eps/Bland-AI-Caller/internal/queue"
	"github.com/sneha-eps/Bland-AI-Caller/internal/repository"
)

type CampaignService struct {
	ClientRepo   repository.ClientRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	ResultRepo   repository.ResultRepositoryInterface
	Queue        queue.Queue
	Caller       blandai.Caller
	Summarizer   ai.Summarizer // optional, nil when no API key configured
}

// CreateCampaignParams carries the campaign configuration; zero values get
// the production defaults.
type CreateCampaignParams struct {
	Name               string    `json:"name"`
	ClientID           uuid.UUID `json:"client_id"`
	MaxAttempts        int       `json:"max_attempts"`
	RetryInterval      int       `json:"retry_interval"` // seconds
	CountryCode        string    `json:"country_code"`
	ConcurrencyLimit   int       `json:"concurrency_limit"`
	RateLimitPerMinute int       `json:"rate_limit_per_minute"`
}

type CampaignDetails struct {
	ID                 uuid.UUID      `json:"id"`
	ClientID           uuid.UUID      `json:"client_id"`
	Name               string         `json:"name"`
	Status             string         `json:"status"`
	MaxAttempts        int            `json:"max_attempts"`
	RetryInterval      int            `json:"retry_interval"`
	CountryCode        string         `json:"country_code"`
	ConcurrencyLimit   int            `json:"concurrency_limit"`
	RateLimitPerMinute int            `json:"rate_limit_per_minute"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          *time.Time     `json:"updated_at"`
	Stats              map[string]int `json:"stats"`
}

func (s *CampaignService) CreateClient(name, description string) (*model.Client, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("client name cannot be empty")
	}
	c := &model.Client{Name: name, Description: description}
	if err := s.ClientRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) ListClients() ([]model.Client, error) {
	return s.ClientRepo.ListAll()
}

func (s *CampaignService) CreateCampaign(p CreateCampaignParams) (*model.Campaign, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("campaign name cannot be empty")
	}
	if p.ClientID == uuid.Nil {
		return nil, fmt.Errorf("campaign needs a client_id")
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 3
	}
	if p.RetryInterval < 1 {
		p.RetryInterval = 30
	}
	if p.CountryCode == "" {
		p.CountryCode = "+1"
	}
	if p.ConcurrencyLimit < 1 {
		p.ConcurrencyLimit = 3
	}
	if p.RateLimitPerMinute < 1 {
		p.RateLimitPerMinute = 30
	}

	c := &model.Campaign{
		ClientID:           p.ClientID,
		Name:               p.Name,
		Status:             "draft",
		MaxAttempts:        p.MaxAttempts,
		RetryInterval:      p.RetryInterval,
		CountryCode:        p.CountryCode,
		ConcurrencyLimit:   p.ConcurrencyLimit,
		RateLimitPerMinute: p.RateLimitPerMinute,
	}
	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, clientID, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, clientID, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaignDetailsWithStats(campaignID uuid.UUID) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	stats, err := s.ResultRepo.GetCampaignStats(campaignID)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{
		ID:                 campaign.ID,
		ClientID:           campaign.ClientID,
		Name:               campaign.Name,
		Status:             campaign.Status,
		MaxAttempts:        campaign.MaxAttempts,
		RetryInterval:      campaign.RetryInterval,
		CountryCode:        campaign.CountryCode,
		ConcurrencyLimit:   campaign.ConcurrencyLimit,
		RateLimitPerMinute: campaign.RateLimitPerMinute,
		CreatedAt:          campaign.CreatedAt,
		UpdatedAt:          campaign.UpdatedAt,
		Stats:              stats,
	}, nil
}

// StartCampaign queues a campaign run. The actual calling happens in the
// worker (or the in-process subscriber) consuming campaign_runs.
func (s *CampaignService) StartCampaign(campaignID uuid.UUID) error {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return err
	}
	if campaign.Status == "queued" || campaign.Status == "running" {
		return fmt.Errorf("campaign is already %s", campaign.Status)
	}

	contacts, err := s.ContactRepo.ListByCampaign(campaignID)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		return fmt.Errorf("no contacts found in campaign")
	}

	if err := s.Queue.Publish(queue.TopicCampaignRuns, queue.RunJob{CampaignID: campaignID}); err != nil {
		return fmt.Errorf("queueing campaign run: %w", err)
	}
	return s.CampaignRepo.UpdateStatus(campaignID, "queued")
}

// RunCampaign executes a queued campaign: it drives the dispatcher over
// the contact list and persists the result stream as it arrives.
func (s *CampaignService) RunCampaign(ctx context.Context, campaignID uuid.UUID) error {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return err
	}
	contacts, err := s.ContactRepo.ListByCampaign(campaignID)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		return fmt.Errorf("no contacts found in campaign %s", campaignID)
	}

	if err := s.CampaignRepo.UpdateStatus(campaignID, "running"); err != nil {
		return err
	}

	agg := aggregate.New()
	d := dispatch.New(s.Caller)
	run := dispatch.Run{
		CampaignID:         campaignID,
		Contacts:           contacts,
		ConcurrencyLimit:   campaign.ConcurrencyLimit,
		RateLimitPerMinute: campaign.RateLimitPerMinute,
		Policy: dispatch.RetryPolicy{
			MaxAttempts: campaign.MaxAttempts,
			BaseDelay:   time.Duration(campaign.RetryInterval) * time.Second,
			MaxDelay:    5 * time.Minute,
		},
		DefaultRegion: phone.RegionForDialCode(campaign.CountryCode),
		Script:        scriptFor(),
		Aggregator:    agg,
	}

	for res := range d.Run(ctx, run) {
		if res.FinalStatus == model.FinalSucceeded && res.Transcript != "" && s.Summarizer != nil {
			summary, err := s.Summarizer.Summarize(ctx, res.Transcript)
			if err != nil {
				log.Println("⚠️ transcript summary failed for contact", res.ContactID, ":", err)
			} else {
				res.Summary = summary
			}
		}
		if err := s.ResultRepo.Save(&res); err != nil {
			log.Println("⚠️ failed to save result for contact", res.ContactID, ":", err)
		}
	}

	snap := agg.Snapshot()
	status := "completed"
	if d.Err() != nil {
		status = "aborted"
	}
	if err := s.CampaignRepo.UpdateStatus(campaignID, status); err != nil {
		return err
	}

	log.Printf("Campaign %s %s: %d total, %d succeeded, %d failed, %d cancelled\n",
		campaignID, status, snap.Total, snap.Succeeded, snap.Failed, snap.Cancelled)
	return d.Err()
}

// CampaignAnalytics mirrors the report the dashboard renders.
type CampaignAnalytics struct {
	TotalCalls       int                    `json:"total_calls"`
	TotalDurationSec int                    `json:"total_duration"`
	SuccessRate      float64                `json:"success_rate"`
	StatusCounts     map[string]int         `json:"status_counts"`
	FinalStatuses    map[string]int         `json:"final_statuses"`
	Calls            []model.CampaignResult `json:"calls"`
}

func (s *CampaignService) Analytics(campaignID uuid.UUID) (*CampaignAnalytics, error) {
	results, err := s.ResultRepo.ListByCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	finals, err := s.ResultRepo.GetCampaignStats(campaignID)
	if err != nil {
		return nil, err
	}

	statusCounts := map[string]int{
		"confirmed":      0,
		"cancelled":      0,
		"rescheduled":    0,
		"busy_voicemail": 0,
	}
	totalDuration := 0
	for _, r := range results {
		totalDuration += r.DurationSec
		if _, ok := statusCounts[r.Outcome]; ok {
			statusCounts[r.Outcome]++
		} else if r.Outcome != "" {
			statusCounts["busy_voicemail"]++
		}
	}

	// Success rate follows the dashboard convention: confirmed appointments
	// over total calls.
	successRate := 0.0
	if len(results) > 0 {
		successRate = float64(statusCounts["confirmed"]) / float64(len(results)) * 100
	}

	return &CampaignAnalytics{
		TotalCalls:       len(results),
		TotalDurationSec: totalDuration,
		SuccessRate:      successRate,
		StatusCounts:     statusCounts,
		FinalStatuses:    finals,
		Calls:            results,
	}, nil
}

// VoicemailParams is the one-off voicemail request.
type VoicemailParams struct {
	PatientName     string `json:"patient_name"`
	PhoneNumber     string `json:"phone_number"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	ProviderName    string `json:"provider_name"`
	OfficeLocation  string `json:"office_location"`
}

func (s *CampaignService) SendVoicemail(ctx context.Context, p VoicemailParams) (string, error) {
	norm, err := phone.Normalize(p.PhoneNumber, "US")
	if err != nil {
		return "", err
	}

	message := RenderVoicemailScript(model.Contact{
		PatientName:     p.PatientName,
		AppointmentDate: p.AppointmentDate,
		AppointmentTime: p.AppointmentTime,
		ProviderName:    p.ProviderName,
		OfficeLocation:  p.OfficeLocation,
	})

	handle, err := s.Caller.SendVoicemail(ctx, norm.E164, message)
	if err != nil {
		return "", err
	}
	return handle.CallID, nil
}
