package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/mojohealth/whatsapp-backend/internal/errors"
	"github.com/mojohealth/whatsapp-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	Update(c *model.Campaign) error
	MarkRunning(campaignID int, lastRun time.Time) (bool, error)
	UpdateRunState(campaignID int, status string, lastRun, nextRun *time.Time) error
	GetByID(id int) (*model.Campaign, error)
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
	ListByStatus(status string) ([]*model.Campaign, error)
	Delete(id int) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `
    id, name, description, template_id, filter_json, order_status,
    recipient_limit, variables_json, force_flag, is_active,
    scheduled_time, is_recurring, recurrence_pattern, recurrence_data,
    status, last_run, next_run, created_at, updated_at`

func scanCampaign(row interface{ Scan(...interface{}) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.TemplateID, &c.FilterJSON,
		&c.OrderStatus, &c.RecipientLimit, &c.VariablesJSON, &c.ForceFlag,
		&c.IsActive, &c.ScheduledTime, &c.IsRecurring, &c.RecurrencePattern,
		&c.RecurrenceData, &c.Status, &c.LastRun, &c.NextRun,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	query := `
        INSERT INTO campaigns
        (name, description, template_id, filter_json, order_status,
         recipient_limit, variables_json, force_flag, is_active,
         scheduled_time, is_recurring, recurrence_pattern, recurrence_data,
         status, next_run, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.Name, c.Description, c.TemplateID, c.FilterJSON, c.OrderStatus,
		c.RecipientLimit, c.VariablesJSON, c.ForceFlag, c.IsActive,
		c.ScheduledTime, c.IsRecurring, c.RecurrencePattern, c.RecurrenceData,
		c.Status, c.NextRun, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET name=$1, description=$2, template_id=$3, filter_json=$4,
            order_status=$5, recipient_limit=$6, variables_json=$7,
            force_flag=$8, is_active=$9, scheduled_time=$10, is_recurring=$11,
            recurrence_pattern=$12, recurrence_data=$13, status=$14,
            next_run=$15, updated_at=NOW()
        WHERE id=$16
    `
	_, err := r.DB.Exec(query,
		c.Name, c.Description, c.TemplateID, c.FilterJSON, c.OrderStatus,
		c.RecipientLimit, c.VariablesJSON, c.ForceFlag, c.IsActive,
		c.ScheduledTime, c.IsRecurring, c.RecurrencePattern, c.RecurrenceData,
		c.Status, c.NextRun, c.ID,
	)
	return err
}

// MarkRunning atomically claims the campaign for execution. The status guard
// makes the claim exclusive: a campaign already in running status affects
// zero rows and the caller must skip the run.
func (r *CampaignRepository) MarkRunning(campaignID int, lastRun time.Time) (bool, error) {
	query := `UPDATE campaigns SET status=$1, last_run=$2, updated_at=NOW() WHERE id=$3 AND status<>$1`
	res, err := r.DB.Exec(query, model.CampaignRunning, lastRun, campaignID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpdateRunState persists the outcome of an execution: the new lifecycle
// status plus last_run and the recomputed next_run (nil clears it).
func (r *CampaignRepository) UpdateRunState(campaignID int, status string, lastRun, nextRun *time.Time) error {
	query := `UPDATE campaigns SET status=$1, last_run=$2, next_run=$3, updated_at=NOW() WHERE id=$4`
	_, err := r.DB.Exec(query, status, lastRun, nextRun, campaignID)
	return err
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY updated_at DESC NULLS LAST, id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ListByStatus is used at boot to rehydrate scheduled campaigns into the
// trigger registry.
func (r *CampaignRepository) ListByStatus(status string) ([]*model.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE status=$1 ORDER BY id`
	rows, err := r.DB.Query(query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
	return err
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
