package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/mojohealth/whatsapp-backend/internal/dispatch"
	appErrors "github.com/mojohealth/whatsapp-backend/internal/errors"
	"github.com/mojohealth/whatsapp-backend/internal/model"
	"github.com/mojohealth/whatsapp-backend/internal/repository"
	"github.com/mojohealth/whatsapp-backend/internal/service"
)

// In-memory campaign repository
type mockCampaignRepo struct {
	mu        sync.Mutex
	nextID    int
	campaigns map[int]*model.Campaign
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{nextID: 1, campaigns: map[int]*model.Campaign{}}
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID
	m.nextID++
	c.CreatedAt = time.Now()
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *mockCampaignRepo) Update(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *mockCampaignRepo) MarkRunning(campaignID int, lastRun time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok || c.Status == model.CampaignRunning {
		return false, nil
	}
	c.Status = model.CampaignRunning
	c.LastRun = &lastRun
	return true, nil
}

func (m *mockCampaignRepo) UpdateRunState(campaignID int, status string, lastRun, nextRun *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.campaigns[campaignID]; ok {
		c.Status = status
		c.LastRun = lastRun
		c.NextRun = nextRun
	}
	return nil
}

func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *mockCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []*model.Campaign{}
	for _, c := range m.campaigns {
		if status == "" || c.Status == status {
			cp := *c
			all = append(all, &cp)
		}
	}
	return all, len(all), nil
}

func (m *mockCampaignRepo) ListByStatus(status string) ([]*model.Campaign, error) {
	list, _, err := m.ListCampaigns(0, 0, status)
	return list, err
}

func (m *mockCampaignRepo) Delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.campaigns, id)
	return nil
}

// Append-only campaign log
type mockCampaignLogRepo struct {
	mu      sync.Mutex
	entries []model.CampaignLog
}

func (m *mockCampaignLogRepo) Append(entry *model.CampaignLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = len(m.entries) + 1
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockCampaignLogRepo) ListByCampaign(campaignID int) ([]model.CampaignLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.CampaignLog{}
	for _, e := range m.entries {
		if e.CampaignID == campaignID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Template repository with fixed contents
type mockTemplateRepo struct {
	templates map[int]*model.Template
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: map[int]*model.Template{
		1: {ID: 1, Name: "Shipping update", TemplateSID: "HXf8a6226ae9bc9dcd6bb8e9ee0120d5f5", IsActive: true},
	}}
}

func (m *mockTemplateRepo) Create(t *model.Template) error {
	t.ID = len(m.templates) + 1
	m.templates[t.ID] = t
	return nil
}

func (m *mockTemplateRepo) GetActiveByID(id int) (*model.Template, error) {
	t, ok := m.templates[id]
	if !ok || !t.IsActive {
		return nil, appErrors.NewTemplateNotFound(id)
	}
	return t, nil
}

func (m *mockTemplateRepo) ListActive() ([]model.Template, error) {
	out := []model.Template{}
	for _, t := range m.templates {
		if t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

// Canned bulk sender
type stubBulkSender struct {
	mu     sync.Mutex
	calls  []repository.RecipientQuery
	opts   []dispatch.Options
	result *service.BulkResult
	err    error
}

func (s *stubBulkSender) SendBulk(ctx context.Context, q repository.RecipientQuery, opts dispatch.Options) (*service.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, q)
	s.opts = append(s.opts, opts)
	return s.result, s.err
}
