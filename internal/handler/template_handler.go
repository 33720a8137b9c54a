// internal/handler/template_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mojohealth/whatsapp-backend/internal/model"
	"github.com/mojohealth/whatsapp-backend/internal/repository"
	"github.com/mojohealth/whatsapp-backend/internal/service"
)

// TemplateHandler serves the approved-template registry and the recent send
// log.
type TemplateHandler struct {
	Service     *service.TemplateService
	MessageLogs repository.MessageLogRepositoryInterface
}

// CreateTemplateHandler registers an approved content template.
func (h *TemplateHandler) CreateTemplateHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string   `json:"name"`
		TemplateSID string   `json:"template_sid"`
		Description string   `json:"description"`
		Variables   []string `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	tmpl := &model.Template{
		Name:        payload.Name,
		TemplateSID: payload.TemplateSID,
		Description: payload.Description,
		IsActive:    true,
	}
	if len(payload.Variables) > 0 {
		if err := tmpl.SetVariables(payload.Variables); err != nil {
			http.Error(w, "invalid variables: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := h.Service.Create(tmpl); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Reason, http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to create template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tmpl)
}

// ListTemplatesHandler returns every active template.
func (h *TemplateHandler) ListTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Service.ListActive()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": templates,
	})
}

// RecentMessagesHandler returns the newest message log entries.
func (h *TemplateHandler) RecentMessagesHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	entries, err := h.MessageLogs.ListRecent(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": entries,
	})
}
