package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/mojohealth/whatsapp-backend/internal/errors"
	"github.com/mojohealth/whatsapp-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(t *model.Template) error
	GetActiveByID(id int) (*model.Template, error)
	ListActive() ([]model.Template, error)
}

type TemplateRepository struct {
	DB *sql.DB
}

func (r *TemplateRepository) Create(t *model.Template) error {
	t.CreatedAt = time.Now()
	query := `
        INSERT INTO templates (name, template_sid, description, variables_json, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		t.Name, t.TemplateSID, t.Description, t.VariablesJSON, t.IsActive, t.CreatedAt,
	).Scan(&t.ID)
}

// GetActiveByID returns the template or ErrTemplateNotFound when the row is
// missing or deactivated. Campaign execution relies on that sentinel to fail
// a single run instead of crashing the scheduler.
func (r *TemplateRepository) GetActiveByID(id int) (*model.Template, error) {
	query := `
        SELECT id, name, template_sid, description, variables_json, is_active, created_at, updated_at
        FROM templates
        WHERE id=$1 AND is_active=TRUE
    `
	var t model.Template
	err := r.DB.QueryRow(query, id).Scan(
		&t.ID, &t.Name, &t.TemplateSID, &t.Description,
		&t.VariablesJSON, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewTemplateNotFound(id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) ListActive() ([]model.Template, error) {
	query := `
        SELECT id, name, template_sid, description, variables_json, is_active, created_at, updated_at
        FROM templates
        WHERE is_active=TRUE
        ORDER BY name
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []model.Template{}
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(
			&t.ID, &t.Name, &t.TemplateSID, &t.Description,
			&t.VariablesJSON, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
