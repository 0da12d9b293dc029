package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/sneha-eps/Bland-AI-Caller/internal/blandai"
	appErrors "github.com/sneha-eps/Bland-AI-Caller/internal/errors"
	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
	"github.com/sneha-eps/Bland-AI-Caller/internal/queue"
)

// ---- mocks, following the repository interfaces ----

type mockClientRepo struct {
	clients []model.Client
}

func (m *mockClientRepo) Create(c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.clients = append(m.clients, *c)
	return nil
}

func (m *mockClientRepo) GetByID(id uuid.UUID) (*model.Client, error) {
	for _, c := range m.clients {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, fmt.Errorf("client %s not found", id)
}

func (m *mockClientRepo) ListAll() ([]model.Client, error) {
	return m.clients, nil
}

type mockCampaignRepo struct {
	campaigns map[uuid.UUID]*model.Campaign
	statuses  []string
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{campaigns: map[uuid.UUID]*model.Campaign{}}
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *mockCampaignRepo) GetByID(id uuid.UUID) (*model.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	out := *c
	return &out, nil
}

func (m *mockCampaignRepo) ListCampaigns(offset, limit int, clientID, status string) ([]*model.Campaign, int, error) {
	all := []*model.Campaign{}
	for _, c := range m.campaigns {
		all = append(all, c)
	}
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockCampaignRepo) UpdateStatus(campaignID uuid.UUID, status string) error {
	c, ok := m.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.Status = status
	m.statuses = append(m.statuses, status)
	return nil
}

type mockContactRepo struct {
	contacts []model.Contact
}

func (m *mockContactRepo) BulkInsert(contacts []model.Contact) (int, error) {
	for i := range contacts {
		if contacts[i].ID == uuid.Nil {
			contacts[i].ID = uuid.New()
		}
	}
	m.contacts = append(m.contacts, contacts...)
	return len(contacts), nil
}

func (m *mockContactRepo) ListByCampaign(campaignID uuid.UUID) ([]model.Contact, error) {
	out := []model.Contact{}
	for _, c := range m.contacts {
		if c.CampaignID == campaignID {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockResultRepo struct {
	saved []model.CampaignResult
}

func (m *mockResultRepo) Save(res *model.CampaignResult) error {
	m.saved = append(m.saved, *res)
	return nil
}

func (m *mockResultRepo) ListByCampaign(campaignID uuid.UUID) ([]model.CampaignResult, error) {
	out := []model.CampaignResult{}
	for _, r := range m.saved {
		if r.CampaignID == campaignID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockResultRepo) GetCampaignStats(campaignID uuid.UUID) (map[string]int, error) {
	stats := map[string]int{"total": 0}
	for _, r := range m.saved {
		if r.CampaignID == campaignID {
			stats[string(r.FinalStatus)]++
			stats["total"]++
		}
	}
	return stats, nil
}

type mockQueue struct {
	published []queue.RunJob
}

func (m *mockQueue) Publish(topic string, payload any) error {
	job, ok := payload.(queue.RunJob)
	if !ok {
		return fmt.Errorf("unexpected payload %T", payload)
	}
	m.published = append(m.published, job)
	return nil
}

func (m *mockQueue) Subscribe(topic string, handler func(payload any) error) error {
	return nil
}

// stubCaller answers every call instantly with a confirming transcript.
type stubCaller struct{}

func (stubCaller) StartCall(ctx context.Context, phone model.NormalizedPhone, script blandai.ScriptConfig) (blandai.CallHandle, error) {
	return blandai.CallHandle{CallID: "c-" + phone.E164}, nil
}

func (stubCaller) CallStatus(ctx context.Context, h blandai.CallHandle) (blandai.CallState, error) {
	return blandai.StateSucceeded, nil
}

func (stubCaller) Transcript(ctx context.Context, h blandai.CallHandle) (blandai.CallDetails, error) {
	return blandai.CallDetails{Transcript: "Yes, I will be there.", DurationSec: 30}, nil
}

func (stubCaller) SendVoicemail(ctx context.Context, phoneE164, message string) (blandai.CallHandle, error) {
	return blandai.CallHandle{CallID: "vm-" + phoneE164}, nil
}

func newTestService() (*CampaignService, *mockCampaignRepo, *mockContactRepo, *mockResultRepo, *mockQueue) {
	campaignRepo := newMockCampaignRepo()
	contactRepo := &mockContactRepo{}
	resultRepo := &mockResultRepo{}
	q := &mockQueue{}
	svc := &CampaignService{
		ClientRepo:   &mockClientRepo{},
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		ResultRepo:   resultRepo,
		Queue:        q,
		Caller:       stubCaller{},
	}
	return svc, campaignRepo, contactRepo, resultRepo, q
}

func seedCampaign(svc *CampaignService, contactRepo *mockContactRepo, contacts int) *model.Campaign {
	c, _ := svc.CreateCampaign(CreateCampaignParams{Name: "Reminders", ClientID: uuid.New(), RetryInterval: 1})
	for i := 0; i < contacts; i++ {
		contactRepo.BulkInsert([]model.Contact{{
			CampaignID:  c.ID,
			PatientName: fmt.Sprintf("Patient %d", i),
			Phone:       fmt.Sprintf("+1650253%04d", i),
		}})
	}
	return c
}

// ---- tests ----

func TestCreateCampaignDefaults(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	c, err := svc.CreateCampaign(CreateCampaignParams{Name: "Fall reminders", ClientID: uuid.New()})
	if err != nil {
		t.Fatal(err)
	}
	if c.MaxAttempts != 3 || c.RetryInterval != 30 || c.CountryCode != "+1" {
		t.Errorf("defaults wrong: %+v", c)
	}
	if c.ConcurrencyLimit != 3 || c.RateLimitPerMinute != 30 {
		t.Errorf("dispatch defaults wrong: %+v", c)
	}
	if c.Status != "draft" {
		t.Errorf("status = %q, want draft", c.Status)
	}
	if c.ID == uuid.Nil {
		t.Error("campaign should get an id on create")
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	if _, err := svc.CreateCampaign(CreateCampaignParams{ClientID: uuid.New()}); err == nil {
		t.Error("empty name should be rejected")
	}
	if _, err := svc.CreateCampaign(CreateCampaignParams{Name: "x"}); err == nil {
		t.Error("missing client_id should be rejected")
	}
}

func TestCreateClientValidation(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	if _, err := svc.CreateClient("  ", ""); err == nil {
		t.Error("blank client name should be rejected")
	}
	c, err := svc.CreateClient("Hillside Medical", "clinic")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == uuid.Nil {
		t.Error("client should get an id on create")
	}
}

func TestStartCampaignQueuesRun(t *testing.T) {
	svc, campaignRepo, contactRepo, _, q := newTestService()
	c := seedCampaign(svc, contactRepo, 2)

	if err := svc.StartCampaign(c.ID); err != nil {
		t.Fatal(err)
	}
	if len(q.published) != 1 || q.published[0].CampaignID != c.ID {
		t.Errorf("expected one run job for the campaign, got %+v", q.published)
	}
	if got := campaignRepo.campaigns[c.ID].Status; got != "queued" {
		t.Errorf("status = %q, want queued", got)
	}

	// Double-start while queued is rejected.
	if err := svc.StartCampaign(c.ID); err == nil {
		t.Error("starting a queued campaign should fail")
	}
}

func TestStartCampaignWithoutContacts(t *testing.T) {
	svc, _, _, _, q := newTestService()
	c, _ := svc.CreateCampaign(CreateCampaignParams{Name: "Empty", ClientID: uuid.New()})

	err := svc.StartCampaign(c.ID)
	if err == nil || !strings.Contains(err.Error(), "no contacts") {
		t.Errorf("expected no-contacts error, got %v", err)
	}
	if len(q.published) != 0 {
		t.Error("nothing should be queued for an empty campaign")
	}
}

func TestRunCampaignPersistsResults(t *testing.T) {
	svc, campaignRepo, contactRepo, resultRepo, _ := newTestService()
	c := seedCampaign(svc, contactRepo, 3)

	if err := svc.RunCampaign(context.Background(), c.ID); err != nil {
		t.Fatal(err)
	}

	if len(resultRepo.saved) != 3 {
		t.Fatalf("saved %d results, want 3", len(resultRepo.saved))
	}
	for _, res := range resultRepo.saved {
		if res.FinalStatus != model.FinalSucceeded {
			t.Errorf("contact %s final status = %s, want succeeded", res.ContactID, res.FinalStatus)
		}
		if res.Outcome != "confirmed" {
			t.Errorf("contact %s outcome = %q, want confirmed", res.ContactID, res.Outcome)
		}
	}
	if got := campaignRepo.campaigns[c.ID].Status; got != "completed" {
		t.Errorf("final status = %q, want completed", got)
	}
	if campaignRepo.statuses[0] != "running" {
		t.Errorf("first transition = %q, want running", campaignRepo.statuses[0])
	}
}

func TestRunCampaignUnknownID(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	if err := svc.RunCampaign(context.Background(), uuid.New()); err == nil {
		t.Error("unknown campaign id should error")
	}
}

func TestListCampaignsPagination(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	for i := 0; i < 5; i++ {
		svc.CreateCampaign(CreateCampaignParams{Name: fmt.Sprintf("c%d", i), ClientID: uuid.New()})
	}

	campaigns, pagination, err := svc.ListCampaigns(1, 2, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(campaigns) != 2 {
		t.Errorf("page size not honored: got %d", len(campaigns))
	}
	if pagination["total_count"] != 5 || pagination["total_pages"] != 3 {
		t.Errorf("pagination wrong: %v", pagination)
	}

	// Out-of-range inputs clamp instead of erroring.
	_, pagination, err = svc.ListCampaigns(-1, 500, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if pagination["page"] != 1 || pagination["page_size"] != 100 {
		t.Errorf("clamping wrong: %v", pagination)
	}
}

func TestAnalytics(t *testing.T) {
	svc, _, _, resultRepo, _ := newTestService()
	campaignID := uuid.New()

	seedResults := []model.CampaignResult{
		{CampaignID: campaignID, FinalStatus: model.FinalSucceeded, Outcome: "confirmed", DurationSec: 30},
		{CampaignID: campaignID, FinalStatus: model.FinalSucceeded, Outcome: "confirmed", DurationSec: 20},
		{CampaignID: campaignID, FinalStatus: model.FinalSucceeded, Outcome: "rescheduled", DurationSec: 15},
		{CampaignID: campaignID, FinalStatus: model.FinalGaveUp},
	}
	for i := range seedResults {
		resultRepo.Save(&seedResults[i])
	}

	a, err := svc.Analytics(campaignID)
	if err != nil {
		t.Fatal(err)
	}
	if a.TotalCalls != 4 {
		t.Errorf("total calls = %d, want 4", a.TotalCalls)
	}
	if a.TotalDurationSec != 65 {
		t.Errorf("total duration = %d, want 65", a.TotalDurationSec)
	}
	if a.SuccessRate != 50 {
		t.Errorf("success rate = %v, want 50 (2 confirmed of 4)", a.SuccessRate)
	}
	if a.StatusCounts["confirmed"] != 2 || a.StatusCounts["rescheduled"] != 1 {
		t.Errorf("status counts wrong: %v", a.StatusCounts)
	}
	if a.FinalStatuses["succeeded"] != 3 || a.FinalStatuses["gave_up"] != 1 {
		t.Errorf("final statuses wrong: %v", a.FinalStatuses)
	}
}

func TestSendVoicemail(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	callID, err := svc.SendVoicemail(context.Background(), VoicemailParams{
		PatientName: "Jordan Smith",
		PhoneNumber: "650-253-0000",
	})
	if err != nil {
		t.Fatal(err)
	}
	if callID != "vm-+16502530000" {
		t.Errorf("call id = %q, voicemail should go to the normalized number", callID)
	}

	if _, err := svc.SendVoicemail(context.Background(), VoicemailParams{PhoneNumber: "bogus"}); err == nil {
		t.Error("invalid number should be rejected before calling out")
	}
}

func TestImportContacts(t *testing.T) {
	svc, _, contactRepo, _, _ := newTestService()
	campaignID := uuid.New()

	csvBody := `patient_name,phone_number,appointment_date,appointment_time,provider_name,office_location
Jordan Smith,650-253-0000,2026-09-01,10:00 AM,Dr. Lee,Main St Clinic
Alex Doe,650-253-0001,2026-09-02,2:30 PM,Dr. Patel,Oak Ave Clinic
`
	n, err := svc.ImportContacts(campaignID, strings.NewReader(csvBody))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("imported %d contacts, want 2", n)
	}

	contacts, _ := contactRepo.ListByCampaign(campaignID)
	if len(contacts) != 2 {
		t.Fatalf("stored %d contacts, want 2", len(contacts))
	}
	if contacts[0].PatientName != "Jordan Smith" || contacts[0].Phone != "650-253-0000" {
		t.Errorf("first contact wrong: %+v", contacts[0])
	}
	if contacts[1].ProviderName != "Dr. Patel" {
		t.Errorf("optional columns should map through: %+v", contacts[1])
	}
}

func TestImportContactsLooseHeaders(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	n, err := svc.ImportContacts(uuid.New(), strings.NewReader("Name,Phone\nJordan,650-253-0000\n"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("imported %d, want 1", n)
	}
}

func TestImportContactsRejectsBadInput(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	if _, err := svc.ImportContacts(uuid.New(), strings.NewReader("patient_name,foo\nJordan,x\n")); err == nil {
		t.Error("csv without a phone column should be rejected")
	}
	if _, err := svc.ImportContacts(uuid.New(), strings.NewReader("patient_name,phone_number\n")); err == nil {
		t.Error("csv without rows should be rejected")
	}
}

func TestRenderReminderScript(t *testing.T) {
	contact := model.Contact{
		PatientName:     "Jordan Smith",
		AppointmentDate: "September 1st",
		AppointmentTime: "10:00 AM",
		ProviderName:    "Dr. Lee",
		OfficeLocation:  "Main St Clinic",
	}

	script := RenderReminderScript(contact)
	for _, want := range []string{"Jordan Smith", "September 1st", "10:00 AM", "Dr. Lee", "Main St Clinic"} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
	if strings.Contains(script, "{") {
		t.Errorf("unfilled placeholder left in script: %s", script)
	}
}

func TestRenderScriptDefaults(t *testing.T) {
	script := RenderVoicemailScript(model.Contact{})
	if !strings.Contains(script, "the patient") || !strings.Contains(script, "[DATE]") {
		t.Errorf("blank fields should fall back to defaults: %s", script)
	}
}
