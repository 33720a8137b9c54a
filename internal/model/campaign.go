// internal/model/campaign.go
package model

import (
	"encoding/json"
	"time"
)

// Campaign lifecycle statuses.
const (
	CampaignDraft     = "draft"
	CampaignScheduled = "scheduled"
	CampaignRunning   = "running"
	CampaignCompleted = "completed"
	CampaignFailed    = "failed"
)

// Recurrence patterns.
const (
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

type Campaign struct {
	ID                int        `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Description       string     `db:"description" json:"description"`
	TemplateID        int        `db:"template_id" json:"template_id"`
	FilterJSON        *string    `db:"filter_json" json:"filter_json,omitempty"`
	OrderStatus       *string    `db:"order_status" json:"order_status,omitempty"`
	RecipientLimit    *int       `db:"recipient_limit" json:"recipient_limit,omitempty"`
	VariablesJSON     *string    `db:"variables_json" json:"-"`
	ForceFlag         bool       `db:"force_flag" json:"force_flag"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	ScheduledTime     *time.Time `db:"scheduled_time" json:"scheduled_time,omitempty"`
	IsRecurring       bool       `db:"is_recurring" json:"is_recurring"`
	RecurrencePattern *string    `db:"recurrence_pattern" json:"recurrence_pattern,omitempty"`
	RecurrenceData    *string    `db:"recurrence_data" json:"recurrence_data,omitempty"`
	Status            string     `db:"status" json:"status"`
	LastRun           *time.Time `db:"last_run" json:"last_run,omitempty"`
	NextRun           *time.Time `db:"next_run" json:"next_run,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Variables decodes the campaign's template variables.
func (c *Campaign) Variables() map[string]string {
	if c.VariablesJSON == nil || *c.VariablesJSON == "" {
		return map[string]string{}
	}
	vars := map[string]string{}
	if err := json.Unmarshal([]byte(*c.VariablesJSON), &vars); err != nil {
		return map[string]string{}
	}
	return vars
}

// SetVariables encodes vars into VariablesJSON.
func (c *Campaign) SetVariables(vars map[string]string) error {
	b, err := json.Marshal(vars)
	if err != nil {
		return err
	}
	s := string(b)
	c.VariablesJSON = &s
	return nil
}

// RecurrenceSpec is the pattern-specific payload stored in RecurrenceData.
type RecurrenceSpec struct {
	Days       []string `json:"days,omitempty"`         // weekly: weekday names
	DayOfMonth int      `json:"day_of_month,omitempty"` // monthly
}

// Recurrence decodes RecurrenceData, returning a zero spec when absent.
func (c *Campaign) Recurrence() RecurrenceSpec {
	var spec RecurrenceSpec
	if c.RecurrenceData == nil || *c.RecurrenceData == "" {
		return spec
	}
	_ = json.Unmarshal([]byte(*c.RecurrenceData), &spec)
	return spec
}

// SetRecurrence encodes spec into RecurrenceData.
func (c *Campaign) SetRecurrence(spec RecurrenceSpec) error {
	b, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	s := string(b)
	c.RecurrenceData = &s
	return nil
}
