package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sneha-eps/Bland-AI-Caller/internal/blandai"
	"github.com/sneha-eps/Bland-AI-Caller/internal/controller"
	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
	"github.com/sneha-eps/Bland-AI-Caller/internal/service"
)

// --- Mock Repositories ---

type MockClientRepo struct{}

func (m *MockClientRepo) Create(c *model.Client) error {
	c.ID = uuid.New()
	return nil
}

func (m *MockClientRepo) GetByID(id uuid.UUID) (*model.Client, error) {
	return &model.Client{ID: id, Name: "Hillside Medical"}, nil
}

func (m *MockClientRepo) ListAll() ([]model.Client, error) {
	return []model.Client{}, nil
}

type MockCampaignRepo struct {
	campaigns []*model.Campaign
}

func (m *MockCampaignRepo) Create(c *model.Campaign) error {
	c.ID = uuid.New()
	return nil
}

func (m *MockCampaignRepo) GetByID(id uuid.UUID) (*model.Campaign, error) {
	for _, c := range m.campaigns {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("campaign %s not found", id)
}

func (m *MockCampaignRepo) ListCampaigns(offset, limit int, clientID, status string) ([]*model.Campaign, int, error) {
	var filtered []*model.Campaign
	for _, c := range m.campaigns {
		if status != "" && c.Status != status {
			continue
		}
		filtered = append(filtered, c)
	}
	total := len(filtered)

	start := offset
	end := offset + limit
	if start > total {
		return []*model.Campaign{}, total, nil
	}
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func (m *MockCampaignRepo) UpdateStatus(campaignID uuid.UUID, status string) error {
	for _, c := range m.campaigns {
		if c.ID == campaignID {
			c.Status = status
		}
	}
	return nil
}

type MockContactRepo struct {
	contacts []model.Contact
}

func (m *MockContactRepo) BulkInsert(contacts []model.Contact) (int, error) {
	m.contacts = append(m.contacts, contacts...)
	return len(contacts), nil
}

func (m *MockContactRepo) ListByCampaign(campaignID uuid.UUID) ([]model.Contact, error) {
	return m.contacts, nil
}

type MockResultRepo struct{}

func (m *MockResultRepo) Save(res *model.CampaignResult) error { return nil }

func (m *MockResultRepo) ListByCampaign(campaignID uuid.UUID) ([]model.CampaignResult, error) {
	return []model.CampaignResult{
		{CampaignID: campaignID, FinalStatus: model.FinalSucceeded, Outcome: "confirmed", DurationSec: 30},
		{CampaignID: campaignID, FinalStatus: model.FinalGaveUp},
	}, nil
}

func (m *MockResultRepo) GetCampaignStats(campaignID uuid.UUID) (map[string]int, error) {
	return map[string]int{"succeeded": 1, "gave_up": 1, "total": 2}, nil
}

type MockQueue struct {
	published int
}

func (m *MockQueue) Publish(topic string, payload any) error {
	m.published++
	return nil
}

func (m *MockQueue) Subscribe(topic string, handler func(payload any) error) error { return nil }

type MockCaller struct{}

func (MockCaller) StartCall(ctx context.Context, phone model.NormalizedPhone, script blandai.ScriptConfig) (blandai.CallHandle, error) {
	return blandai.CallHandle{CallID: "c-1"}, nil
}

func (MockCaller) CallStatus(ctx context.Context, h blandai.CallHandle) (blandai.CallState, error) {
	return blandai.StateSucceeded, nil
}

func (MockCaller) Transcript(ctx context.Context, h blandai.CallHandle) (blandai.CallDetails, error) {
	return blandai.CallDetails{}, nil
}

func (MockCaller) SendVoicemail(ctx context.Context, phoneE164, message string) (blandai.CallHandle, error) {
	return blandai.CallHandle{CallID: "vm-1"}, nil
}

// --- Test Functions ---

func TestListCampaignsPagination(t *testing.T) {
	totalCampaigns := 25
	campaigns := []*model.Campaign{}
	for i := 1; i <= totalCampaigns; i++ {
		campaigns = append(campaigns, &model.Campaign{
			ID:     uuid.New(),
			Name:   "Campaign " + strconv.Itoa(i),
			Status: "draft",
		})
	}

	repo := &MockCampaignRepo{campaigns: campaigns}
	svc := &service.CampaignService{CampaignRepo: repo}
	ctrl := &controller.CampaignController{CampaignService: svc}

	pageSize := 10
	seen := map[uuid.UUID]bool{}
	totalPages := (totalCampaigns + pageSize - 1) / pageSize

	for page := 1; page <= totalPages; page++ {
		req := httptest.NewRequest(
			"GET",
			"/campaigns?page="+strconv.Itoa(page)+
				"&page_size="+strconv.Itoa(pageSize)+
				"&status=draft",
			nil,
		)
		w := httptest.NewRecorder()

		ctrl.ListCampaigns(w, req)
		resp := w.Result()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var res struct {
			Data       []model.Campaign `json:"data"`
			Pagination struct {
				Page       int `json:"page"`
				PageSize   int `json:"page_size"`
				TotalCount int `json:"total_count"`
			} `json:"pagination"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if res.Pagination.Page != page {
			t.Errorf("expected page %d, got %d", page, res.Pagination.Page)
		}
		if res.Pagination.PageSize != pageSize {
			t.Errorf("expected page size %d, got %d", pageSize, res.Pagination.PageSize)
		}
		if res.Pagination.TotalCount != totalCampaigns {
			t.Errorf("expected total count %d, got %d", totalCampaigns, res.Pagination.TotalCount)
		}

		for _, c := range res.Data {
			if seen[c.ID] {
				t.Errorf("duplicate campaign ID %s across pages", c.ID)
			}
			seen[c.ID] = true
			if c.Status != "draft" {
				t.Errorf("expected status draft, got %s", c.Status)
			}
		}
	}

	if len(seen) != totalCampaigns {
		t.Errorf("expected %d unique campaigns, got %d", totalCampaigns, len(seen))
	}
}

func TestStartCampaignEndpoint(t *testing.T) {
	campaign := &model.Campaign{ID: uuid.New(), Name: "Reminders", Status: "draft"}
	repo := &MockCampaignRepo{campaigns: []*model.Campaign{campaign}}
	contacts := &MockContactRepo{contacts: []model.Contact{{ID: uuid.New(), Phone: "650-253-0000"}}}
	q := &MockQueue{}

	svc := &service.CampaignService{
		CampaignRepo: repo,
		ContactRepo:  contacts,
		Queue:        q,
	}
	ctrl := &controller.CampaignController{CampaignService: svc}

	r := chi.NewRouter()
	r.Post("/campaigns/{id}/start", ctrl.StartCampaign)

	req := httptest.NewRequest("POST", "/campaigns/"+campaign.ID.String()+"/start", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if q.published != 1 {
		t.Errorf("expected 1 queued run, got %d", q.published)
	}
	if campaign.Status != "queued" {
		t.Errorf("expected status queued, got %s", campaign.Status)
	}

	// Bad id never reaches the service.
	req = httptest.NewRequest("POST", "/campaigns/not-a-uuid/start", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad id, got %d", w.Result().StatusCode)
	}
}

func TestGetAnalyticsEndpoint(t *testing.T) {
	svc := &service.CampaignService{ResultRepo: &MockResultRepo{}}
	ctrl := &controller.CampaignController{CampaignService: svc}

	r := chi.NewRouter()
	r.Get("/campaigns/{id}/analytics", ctrl.GetAnalytics)

	req := httptest.NewRequest("GET", "/campaigns/"+uuid.New().String()+"/analytics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var res struct {
		Success   bool `json:"success"`
		Analytics struct {
			TotalCalls   int            `json:"total_calls"`
			SuccessRate  float64        `json:"success_rate"`
			StatusCounts map[string]int `json:"status_counts"`
		} `json:"analytics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !res.Success {
		t.Error("expected success true")
	}
	if res.Analytics.TotalCalls != 2 {
		t.Errorf("expected 2 calls, got %d", res.Analytics.TotalCalls)
	}
	if res.Analytics.SuccessRate != 50 {
		t.Errorf("expected 50%% success rate, got %v", res.Analytics.SuccessRate)
	}
}

func TestSendVoicemailEndpoint(t *testing.T) {
	svc := &service.CampaignService{Caller: MockCaller{}}
	ctrl := &controller.CampaignController{CampaignService: svc}

	body, _ := json.Marshal(map[string]string{
		"patient_name": "Jordan Smith",
		"phone_number": "650-253-0000",
	})
	req := httptest.NewRequest("POST", "/voicemail", bytes.NewReader(body))
	w := httptest.NewRecorder()
	ctrl.SendVoicemail(w, req)

	var res map[string]interface{}
	if err := json.NewDecoder(w.Result().Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res["success"] != true {
		t.Fatalf("expected success, got %v", res)
	}
	if res["call_id"] != "vm-1" {
		t.Errorf("expected call_id vm-1, got %v", res["call_id"])
	}

	// Invalid number comes back as a structured failure, not a 500.
	body, _ = json.Marshal(map[string]string{"phone_number": "bogus"})
	req = httptest.NewRequest("POST", "/voicemail", bytes.NewReader(body))
	w = httptest.NewRecorder()
	ctrl.SendVoicemail(w, req)

	res = map[string]interface{}{}
	if err := json.NewDecoder(w.Result().Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res["success"] != false {
		t.Errorf("expected success false, got %v", res)
	}
}
