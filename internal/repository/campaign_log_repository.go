package repository

import (
	"database/sql"
	"time"

	"github.com/mojohealth/whatsapp-backend/internal/model"
)

type CampaignLogRepositoryInterface interface {
	Append(entry *model.CampaignLog) error
	ListByCampaign(campaignID int) ([]model.CampaignLog, error)
}

type CampaignLogRepository struct {
	DB *sql.DB
}

// Append records one campaign execution. Append-only.
func (r *CampaignLogRepository) Append(entry *model.CampaignLog) error {
	entry.CreatedAt = time.Now()
	query := `
        INSERT INTO campaign_logs
        (campaign_id, status, recipients_total, recipients_success,
         recipients_failed, report_path, execution_time_secs, error_message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		entry.CampaignID, entry.Status, entry.RecipientsTotal,
		entry.RecipientsSuccess, entry.RecipientsFailed, entry.ReportPath,
		entry.ExecutionTimeSecs, entry.ErrorMessage, entry.CreatedAt,
	).Scan(&entry.ID)
}

func (r *CampaignLogRepository) ListByCampaign(campaignID int) ([]model.CampaignLog, error) {
	query := `
        SELECT id, campaign_id, status, recipients_total, recipients_success,
               recipients_failed, report_path, execution_time_secs, error_message, created_at
        FROM campaign_logs
        WHERE campaign_id=$1
        ORDER BY created_at DESC
    `
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []model.CampaignLog{}
	for rows.Next() {
		var l model.CampaignLog
		if err := rows.Scan(
			&l.ID, &l.CampaignID, &l.Status, &l.RecipientsTotal,
			&l.RecipientsSuccess, &l.RecipientsFailed, &l.ReportPath,
			&l.ExecutionTimeSecs, &l.ErrorMessage, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

var _ CampaignLogRepositoryInterface = (*CampaignLogRepository)(nil)
