// internal/model/campaign_log.go
package model

import "time"

// CampaignLog is one row per campaign execution. Append-only, written by the
// scheduler after each run.
type CampaignLog struct {
	ID                int       `db:"id" json:"id"`
	CampaignID        int       `db:"campaign_id" json:"campaign_id"`
	Status            string    `db:"status" json:"status"` // success, failure
	RecipientsTotal   int       `db:"recipients_total" json:"recipients_total"`
	RecipientsSuccess int       `db:"recipients_success" json:"recipients_success"`
	RecipientsFailed  int       `db:"recipients_failed" json:"recipients_failed"`
	ReportPath        *string   `db:"report_path" json:"report_path,omitempty"`
	ExecutionTimeSecs float64   `db:"execution_time_secs" json:"execution_time_secs"`
	ErrorMessage      *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
