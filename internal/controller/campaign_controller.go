// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/mojohealth/whatsapp-backend/internal/errors"
	"github.com/mojohealth/whatsapp-backend/internal/service"
)

// CampaignController exposes campaign CRUD and run control over HTTP.
type CampaignController struct {
	CampaignService *service.CampaignService
}

func writeCampaignErr(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	var nf *appErrors.ErrCampaignNotFound
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Reason, http.StatusBadRequest)
	case errors.As(err, &nf):
		http.Error(w, nf.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func campaignID(r *http.Request) int {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	return id
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var input service.CampaignInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.Create(input)
	if err != nil {
		writeCampaignErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.List(page, pageSize, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := c.CampaignService.Get(campaignID(r))
	if err != nil {
		writeCampaignErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var input service.CampaignInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.Update(campaignID(r), input)
	if err != nil {
		writeCampaignErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := c.CampaignService.Delete(campaignID(r)); err != nil {
		writeCampaignErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunCampaign queues the campaign for immediate execution and answers 202;
// clients follow up on /campaigns/{id}/logs for the outcome.
func (c *CampaignController) RunCampaign(w http.ResponseWriter, r *http.Request) {
	id := campaignID(r)
	if err := c.CampaignService.RunNow(id); err != nil {
		writeCampaignErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign_id": id,
		"status":      "queued",
	})
}

func (c *CampaignController) GetCampaignLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := c.CampaignService.Logs(campaignID(r))
	if err != nil {
		writeCampaignErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": logs,
	})
}
