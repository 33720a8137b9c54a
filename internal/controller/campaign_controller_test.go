package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mojohealth/whatsapp-backend/internal/controller"
	appErrors "github.com/mojohealth/whatsapp-backend/internal/errors"
	"github.com/mojohealth/whatsapp-backend/internal/model"
	"github.com/mojohealth/whatsapp-backend/internal/queue"
	"github.com/mojohealth/whatsapp-backend/internal/scheduler"
	"github.com/mojohealth/whatsapp-backend/internal/service"
)

// --- Mock repositories ---

type mockCampaignRepo struct {
	nextID    int
	campaigns map[int]*model.Campaign
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{nextID: 1, campaigns: map[int]*model.Campaign{}}
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error {
	c.ID = m.nextID
	m.nextID++
	c.CreatedAt = time.Now()
	m.campaigns[c.ID] = c
	return nil
}

func (m *mockCampaignRepo) Update(c *model.Campaign) error {
	m.campaigns[c.ID] = c
	return nil
}

func (m *mockCampaignRepo) MarkRunning(id int, lastRun time.Time) (bool, error) {
	c, ok := m.campaigns[id]
	if !ok || c.Status == model.CampaignRunning {
		return false, nil
	}
	c.Status = model.CampaignRunning
	c.LastRun = &lastRun
	return true, nil
}

func (m *mockCampaignRepo) UpdateRunState(id int, status string, lastRun, nextRun *time.Time) error {
	if c, ok := m.campaigns[id]; ok {
		c.Status = status
		c.LastRun = lastRun
		c.NextRun = nextRun
	}
	return nil
}

func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *mockCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	out := []*model.Campaign{}
	for _, c := range m.campaigns {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *mockCampaignRepo) ListByStatus(status string) ([]*model.Campaign, error) {
	list, _, err := m.ListCampaigns(0, 0, status)
	return list, err
}

func (m *mockCampaignRepo) Delete(id int) error {
	delete(m.campaigns, id)
	return nil
}

type mockCampaignLogRepo struct {
	entries []model.CampaignLog
}

func (m *mockCampaignLogRepo) Append(entry *model.CampaignLog) error {
	entry.ID = len(m.entries) + 1
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockCampaignLogRepo) ListByCampaign(campaignID int) ([]model.CampaignLog, error) {
	out := []model.CampaignLog{}
	for _, e := range m.entries {
		if e.CampaignID == campaignID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockTemplateRepo struct{}

func (m *mockTemplateRepo) Create(t *model.Template) error { return nil }
func (m *mockTemplateRepo) GetActiveByID(id int) (*model.Template, error) {
	return &model.Template{ID: id, Name: "Shipping update", TemplateSID: "HX1", IsActive: true}, nil
}
func (m *mockTemplateRepo) ListActive() ([]model.Template, error) { return nil, nil }

// --- Test wiring ---

func newRouter(t *testing.T) (chi.Router, *mockCampaignRepo) {
	t.Helper()
	campaigns := newMockCampaignRepo()
	registry := scheduler.NewRegistry()
	t.Cleanup(registry.Stop)

	q := queue.NewInMemoryQueue()
	q.Subscribe(queue.TopicCampaignRuns, func(payload any) error { return nil })

	svc := &service.CampaignService{
		Campaigns:    campaigns,
		CampaignLogs: &mockCampaignLogRepo{},
		Templates:    &mockTemplateRepo{},
		Registry:     registry,
		Queue:        q,
	}
	ctrl := &controller.CampaignController{CampaignService: svc}

	r := chi.NewRouter()
	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", ctrl.CreateCampaign)
		r.Get("/", ctrl.ListCampaigns)
		r.Get("/{id}", ctrl.GetCampaign)
		r.Put("/{id}", ctrl.UpdateCampaign)
		r.Delete("/{id}", ctrl.DeleteCampaign)
		r.Post("/{id}/run", ctrl.RunCampaign)
		r.Get("/{id}/logs", ctrl.GetCampaignLogs)
	})
	return r, campaigns
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateCampaignHandler(t *testing.T) {
	r, _ := newRouter(t)

	w := doJSON(r, "POST", "/campaigns", map[string]interface{}{
		"name":        "Shipped orders",
		"template_id": 1,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created model.Campaign
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.Status != model.CampaignDraft {
		t.Errorf("expected draft status, got %q", created.Status)
	}
}

func TestCreateCampaignRejectsMissingName(t *testing.T) {
	r, _ := newRouter(t)

	w := doJSON(r, "POST", "/campaigns", map[string]interface{}{"template_id": 1})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	r, _ := newRouter(t)

	w := doJSON(r, "GET", "/campaigns/42", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRunCampaignAccepted(t *testing.T) {
	r, campaigns := newRouter(t)
	c := &model.Campaign{Name: "Manual", TemplateID: 1, Status: model.CampaignDraft}
	campaigns.Create(c)

	w := doJSON(r, "POST", fmt.Sprintf("/campaigns/%d/run", c.ID), nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	var res map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res["status"] != "queued" {
		t.Errorf("expected queued status, got %v", res["status"])
	}
}

func TestDeleteCampaign(t *testing.T) {
	r, campaigns := newRouter(t)
	c := &model.Campaign{Name: "Delete me", TemplateID: 1, Status: model.CampaignDraft}
	campaigns.Create(c)

	w := doJSON(r, "DELETE", fmt.Sprintf("/campaigns/%d", c.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = doJSON(r, "GET", fmt.Sprintf("/campaigns/%d", c.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestListCampaignsPagination(t *testing.T) {
	r, campaigns := newRouter(t)
	for i := 0; i < 3; i++ {
		campaigns.Create(&model.Campaign{Name: fmt.Sprintf("c%d", i), TemplateID: 1, Status: model.CampaignDraft})
	}

	w := doJSON(r, "GET", "/campaigns?page=1&page_size=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var res struct {
		Data       []model.Campaign `json:"data"`
		Pagination map[string]int   `json:"pagination"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Pagination["total_count"] != 3 {
		t.Errorf("expected total_count 3, got %d", res.Pagination["total_count"])
	}
}
