// internal/service/campaign_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mojohealth/whatsapp-backend/internal/filter"
	"github.com/mojohealth/whatsapp-backend/internal/model"
	"github.com/mojohealth/whatsapp-backend/internal/queue"
	"github.com/mojohealth/whatsapp-backend/internal/repository"
	"github.com/mojohealth/whatsapp-backend/internal/scheduler"
)

// CampaignInput is the validated payload for creating or editing a campaign.
type CampaignInput struct {
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	TemplateID        int                `json:"template_id"`
	Filter            filter.Expression  `json:"filter,omitempty"`
	OrderStatus       *string            `json:"order_status,omitempty"`
	RecipientLimit    *int               `json:"recipient_limit,omitempty"`
	Variables         map[string]string  `json:"variables,omitempty"`
	ForceFlag         bool               `json:"force_flag"`
	ScheduledTime     *time.Time         `json:"scheduled_time,omitempty"`
	IsRecurring       bool               `json:"is_recurring"`
	RecurrencePattern *string            `json:"recurrence_pattern,omitempty"`
	RecurrenceDays    []string           `json:"recurrence_days,omitempty"`
	DayOfMonth        int                `json:"day_of_month,omitempty"`
}

// ValidationError marks boundary rejections so handlers can answer 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// CampaignService owns campaign CRUD plus the scheduling side of the state
// machine: draft -> scheduled on create/edit with a future trigger, and job
// registration/deregistration keyed by campaign ID.
type CampaignService struct {
	Campaigns    repository.CampaignRepositoryInterface
	CampaignLogs repository.CampaignLogRepositoryInterface
	Templates    repository.TemplateRepositoryInterface
	Registry     *scheduler.Registry
	Runner       *CampaignRunner
	Queue        queue.Queue
}

func jobID(campaignID int) string {
	return fmt.Sprintf("campaign_%d", campaignID)
}

func (s *CampaignService) Create(input CampaignInput) (*model.Campaign, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	c := &model.Campaign{IsActive: true, Status: model.CampaignDraft}
	if err := applyInput(c, input); err != nil {
		return nil, err
	}
	if err := s.applySchedule(c, input); err != nil {
		return nil, err
	}

	if err := s.Campaigns.Create(c); err != nil {
		return nil, err
	}

	if c.Status == model.CampaignScheduled {
		if err := s.registerJob(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *CampaignService) Update(id int, input CampaignInput) (*model.Campaign, error) {
	c, err := s.Campaigns.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	// Deregister before any new schedule is computed so the same campaign ID
	// can never be armed twice.
	s.Registry.Deregister(jobID(id))

	if err := applyInput(c, input); err != nil {
		return nil, err
	}
	c.Status = model.CampaignDraft
	c.NextRun = nil
	if err := s.applySchedule(c, input); err != nil {
		return nil, err
	}

	if err := s.Campaigns.Update(c); err != nil {
		return nil, err
	}

	if c.Status == model.CampaignScheduled {
		if err := s.registerJob(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *CampaignService) Delete(id int) error {
	if _, err := s.Campaigns.GetByID(id); err != nil {
		return err
	}
	// No-op when the job already fired or was never registered.
	s.Registry.Deregister(jobID(id))
	return s.Campaigns.Delete(id)
}

// RunNow requests immediate execution through the run queue. Execution is
// asynchronous; callers poll campaign status and logs for the outcome.
func (s *CampaignService) RunNow(id int) error {
	if _, err := s.Campaigns.GetByID(id); err != nil {
		return err
	}
	return s.Queue.Publish(queue.TopicCampaignRuns, id)
}

func (s *CampaignService) Get(id int) (*model.Campaign, error) {
	return s.Campaigns.GetByID(id)
}

func (s *CampaignService) Logs(id int) ([]model.CampaignLog, error) {
	if _, err := s.Campaigns.GetByID(id); err != nil {
		return nil, err
	}
	return s.CampaignLogs.ListByCampaign(id)
}

// List fetches campaigns with pagination.
func (s *CampaignService) List(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
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

	ptrs, total, err := s.Campaigns.ListCampaigns(offset, pageSize, status)
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

// Rehydrate re-registers every campaign left in scheduled status, called at
// process start so restarts do not drop pending triggers.
func (s *CampaignService) Rehydrate() error {
	campaigns, err := s.Campaigns.ListByStatus(model.CampaignScheduled)
	if err != nil {
		return err
	}
	for _, c := range campaigns {
		if err := s.registerJob(c); err != nil {
			// A one-shot whose time passed while the process was down: mark
			// it draft rather than refusing to boot.
			if updErr := s.Campaigns.UpdateRunState(c.ID, model.CampaignDraft, c.LastRun, nil); updErr != nil {
				return updErr
			}
		}
	}
	return nil
}

func (s *CampaignService) registerJob(c *model.Campaign) error {
	trigger, err := BuildTrigger(c)
	if err != nil {
		return err
	}
	id := c.ID
	return s.Registry.Register(jobID(id), trigger, func() {
		s.Runner.Execute(context.Background(), id)
	})
}

func (s *CampaignService) validate(input *CampaignInput) error {
	if input.Name == "" {
		return &ValidationError{Reason: "name is required"}
	}
	if input.TemplateID == 0 {
		return &ValidationError{Reason: "template_id is required"}
	}
	if err := input.Filter.Validate(); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	if input.IsRecurring {
		if input.ScheduledTime == nil {
			return &ValidationError{Reason: "recurring campaigns need an anchor scheduled_time"}
		}
		if input.RecurrencePattern == nil {
			return &ValidationError{Reason: "recurrence_pattern is required for recurring campaigns"}
		}
		switch *input.RecurrencePattern {
		case model.RecurrenceDaily:
		case model.RecurrenceWeekly:
			if _, err := scheduler.ParseWeekdays(input.RecurrenceDays); err != nil {
				return &ValidationError{Reason: err.Error()}
			}
			if len(input.RecurrenceDays) == 0 {
				return &ValidationError{Reason: "weekly recurrence needs at least one weekday"}
			}
		case model.RecurrenceMonthly:
			if input.DayOfMonth < 1 || input.DayOfMonth > 31 {
				return &ValidationError{Reason: "day_of_month must be between 1 and 31"}
			}
		default:
			return &ValidationError{Reason: fmt.Sprintf("unknown recurrence pattern %q", *input.RecurrencePattern)}
		}
	}
	if input.ScheduledTime != nil && !input.IsRecurring && !input.ScheduledTime.After(time.Now()) {
		return &ValidationError{Reason: "scheduled_time must be in the future"}
	}
	return nil
}

func applyInput(c *model.Campaign, input CampaignInput) error {
	c.Name = input.Name
	c.Description = input.Description
	c.TemplateID = input.TemplateID
	c.OrderStatus = input.OrderStatus
	c.RecipientLimit = input.RecipientLimit
	c.ForceFlag = input.ForceFlag

	if len(input.Filter) > 0 {
		b, err := json.Marshal(input.Filter)
		if err != nil {
			return err
		}
		s := string(b)
		c.FilterJSON = &s
	} else {
		c.FilterJSON = nil
	}

	if len(input.Variables) > 0 {
		if err := c.SetVariables(input.Variables); err != nil {
			return err
		}
	} else {
		c.VariablesJSON = nil
	}
	return nil
}

// applySchedule sets scheduling fields and the draft/scheduled status from
// the input, including the queryable next_run.
func (s *CampaignService) applySchedule(c *model.Campaign, input CampaignInput) error {
	if input.ScheduledTime == nil {
		c.ScheduledTime = nil
		c.IsRecurring = false
		c.RecurrencePattern = nil
		c.RecurrenceData = nil
		return nil
	}

	c.ScheduledTime = input.ScheduledTime
	c.IsRecurring = input.IsRecurring
	c.RecurrencePattern = nil
	c.RecurrenceData = nil
	if input.IsRecurring {
		c.RecurrencePattern = input.RecurrencePattern
		spec := model.RecurrenceSpec{}
		switch *input.RecurrencePattern {
		case model.RecurrenceWeekly:
			spec.Days = input.RecurrenceDays
		case model.RecurrenceMonthly:
			spec.DayOfMonth = input.DayOfMonth
		}
		if err := c.SetRecurrence(spec); err != nil {
			return err
		}
	}

	trigger, err := BuildTrigger(c)
	if err != nil {
		return err
	}
	next, ok := trigger.NextFire(time.Now())
	if !ok {
		return &ValidationError{Reason: "schedule has no future fire time"}
	}
	c.Status = model.CampaignScheduled
	c.NextRun = &next
	return nil
}
