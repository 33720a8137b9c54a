// internal/service/campaign_runner.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mojohealth/whatsapp-backend/internal/dispatch"
	"github.com/mojohealth/whatsapp-backend/internal/filter"
	"github.com/mojohealth/whatsapp-backend/internal/model"
	"github.com/mojohealth/whatsapp-backend/internal/repository"
	"github.com/mojohealth/whatsapp-backend/internal/scheduler"
)

// CampaignRunner executes one campaign end to end and owns the lifecycle
// transitions around the run: scheduled/draft -> running -> completed or
// failed, with completed reverting to scheduled for recurring campaigns.
type CampaignRunner struct {
	Campaigns    repository.CampaignRepositoryInterface
	CampaignLogs repository.CampaignLogRepositoryInterface
	Templates    repository.TemplateRepositoryInterface
	Bulk         BulkSender
	Registry     *scheduler.Registry // nil in processes that run no scheduler
	Delay        time.Duration       // between live sends
}

// Execute runs campaignID to completion. Store or provider trouble fails the
// single run and is recorded in campaign_logs; it never propagates out, so a
// bad campaign cannot take the scheduler down.
func (r *CampaignRunner) Execute(ctx context.Context, campaignID int) {
	campaign, err := r.Campaigns.GetByID(campaignID)
	if err != nil {
		log.Printf("[CampaignRunner] campaign %d: %v", campaignID, err)
		return
	}

	// The conditional update is the overlap guard: a run-now request landing
	// while a scheduled execution holds running status claims zero rows and
	// backs off instead of dispatching the same campaign twice.
	now := time.Now()
	claimed, err := r.Campaigns.MarkRunning(campaign.ID, now)
	if err != nil {
		log.Printf("[CampaignRunner] campaign %d: marking running: %v", campaignID, err)
		return
	}
	if !claimed {
		log.Printf("[CampaignRunner] campaign %d is already running, skipping", campaignID)
		return
	}
	campaign.LastRun = &now

	template, err := r.Templates.GetActiveByID(campaign.TemplateID)
	if err != nil {
		r.finishFailed(campaign, nil, err)
		return
	}

	q, err := buildRecipientQuery(campaign)
	if err != nil {
		r.finishFailed(campaign, nil, err)
		return
	}

	res, err := r.Bulk.SendBulk(ctx, q, dispatch.Options{
		TemplateSID: template.TemplateSID,
		Variables:   campaign.Variables(),
		Delay:       r.Delay,
		LogToStore:  true,
	})
	if err != nil {
		r.finishFailed(campaign, res, err)
		return
	}

	r.finishCompleted(campaign, res)
}

func (r *CampaignRunner) finishCompleted(campaign *model.Campaign, res *BulkResult) {
	entry := &model.CampaignLog{
		CampaignID:        campaign.ID,
		Status:            "success",
		RecipientsTotal:   res.Summary.Total,
		RecipientsSuccess: res.Summary.Successful,
		RecipientsFailed:  res.Summary.Failed,
		ExecutionTimeSecs: res.Summary.Elapsed.Seconds(),
	}
	if res.ReportPath != "" {
		entry.ReportPath = &res.ReportPath
	}
	if err := r.CampaignLogs.Append(entry); err != nil {
		log.Printf("[CampaignRunner] campaign %d: appending log: %v", campaign.ID, err)
	}

	status := model.CampaignCompleted
	var nextRun *time.Time
	if campaign.IsRecurring {
		// Recurring campaigns go back to scheduled; the trigger registry
		// keeps the job armed, and next_run is recomputed here so the stored
		// value matches the armed timer.
		status = model.CampaignScheduled
		if trigger, err := BuildTrigger(campaign); err == nil {
			if next, ok := trigger.NextFire(time.Now()); ok {
				nextRun = &next
			}
		}
	}
	if err := r.Campaigns.UpdateRunState(campaign.ID, status, campaign.LastRun, nextRun); err != nil {
		log.Printf("[CampaignRunner] campaign %d: finishing: %v", campaign.ID, err)
	}
}

func (r *CampaignRunner) finishFailed(campaign *model.Campaign, res *BulkResult, cause error) {
	detail := cause.Error()
	entry := &model.CampaignLog{
		CampaignID:   campaign.ID,
		Status:       "failure",
		ErrorMessage: &detail,
	}
	if res != nil && res.Result != nil {
		entry.RecipientsTotal = res.Summary.Total
		entry.RecipientsSuccess = res.Summary.Successful
		entry.RecipientsFailed = res.Summary.Failed
		entry.ExecutionTimeSecs = res.Summary.Elapsed.Seconds()
		if res.ReportPath != "" {
			entry.ReportPath = &res.ReportPath
		}
	}
	if err := r.CampaignLogs.Append(entry); err != nil {
		log.Printf("[CampaignRunner] campaign %d: appending failure log: %v", campaign.ID, err)
	}

	// Failed campaigns do not auto-reschedule: the armed trigger is dropped
	// and next_run cleared until an operator edits the campaign. Without the
	// deregister a recurring trigger would re-arm itself and fire again.
	if r.Registry != nil {
		r.Registry.Deregister(jobID(campaign.ID))
	}
	if err := r.Campaigns.UpdateRunState(campaign.ID, model.CampaignFailed, campaign.LastRun, nil); err != nil {
		log.Printf("[CampaignRunner] campaign %d: marking failed: %v", campaign.ID, err)
	}
	log.Printf("[CampaignRunner] campaign %d failed: %v", campaign.ID, cause)
}

func buildRecipientQuery(c *model.Campaign) (repository.RecipientQuery, error) {
	q := repository.RecipientQuery{Force: c.ForceFlag}
	if c.OrderStatus != nil {
		q.OrderStatus = *c.OrderStatus
	}
	if c.RecipientLimit != nil {
		q.Limit = *c.RecipientLimit
	}
	if c.FilterJSON != nil {
		expr, err := filter.Parse(*c.FilterJSON)
		if err != nil {
			return q, err
		}
		q.Filter = expr
	}
	return q, nil
}

// BuildTrigger converts a campaign's scheduling fields into a registry
// trigger. Non-recurring campaigns fire once at ScheduledTime; recurring
// campaigns take hour and minute from the anchor time plus pattern data.
func BuildTrigger(c *model.Campaign) (scheduler.Trigger, error) {
	if c.ScheduledTime == nil {
		return scheduler.Trigger{}, fmt.Errorf("campaign %d has no scheduled time", c.ID)
	}
	if !c.IsRecurring {
		return scheduler.Trigger{At: c.ScheduledTime}, nil
	}

	anchor := *c.ScheduledTime
	trigger := scheduler.Trigger{Hour: anchor.Hour(), Minute: anchor.Minute()}
	if c.RecurrencePattern == nil {
		return trigger, fmt.Errorf("campaign %d is recurring but has no pattern", c.ID)
	}

	spec := c.Recurrence()
	switch *c.RecurrencePattern {
	case model.RecurrenceDaily:
		trigger.Pattern = model.RecurrenceDaily
	case model.RecurrenceWeekly:
		days, err := scheduler.ParseWeekdays(spec.Days)
		if err != nil {
			return trigger, err
		}
		trigger.Pattern = model.RecurrenceWeekly
		trigger.Weekdays = days
	case model.RecurrenceMonthly:
		trigger.Pattern = model.RecurrenceMonthly
		trigger.DayOfMonth = spec.DayOfMonth
	default:
		return trigger, fmt.Errorf("unknown recurrence pattern %q", *c.RecurrencePattern)
	}
	return trigger, nil
}
