// internal/service/template_service.go
package service

import (
	"github.com/mojohealth/whatsapp-backend/internal/model"
	"github.com/mojohealth/whatsapp-backend/internal/repository"
)

// TemplateService fronts the template registry for the API surface.
type TemplateService struct {
	Templates repository.TemplateRepositoryInterface
}

func (s *TemplateService) Create(t *model.Template) error {
	if t.Name == "" || t.TemplateSID == "" {
		return &ValidationError{Reason: "name and template_sid are required"}
	}
	return s.Templates.Create(t)
}

func (s *TemplateService) ListActive() ([]model.Template, error) {
	return s.Templates.ListActive()
}
