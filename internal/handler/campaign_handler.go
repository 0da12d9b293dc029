// internal/handler/campaign_handler.go
package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sneha-eps/Bland-AI-Caller/internal/service"
)

// CampaignHandler holds the dependencies for campaign-related HTTP handlers
type CampaignHandler struct {
	Service *service.CampaignService
}

// GetCampaignHandlerWithStats returns a campaign plus its result tallies
func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	details, err := h.Service.GetCampaignDetailsWithStats(id)
	if err != nil {
		log.Println("❌ Error fetching campaign:", err)
		http.Error(w, "failed to fetch campaign: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(details)
}

// ImportContactsHandler ingests a CSV of contacts for a campaign. Accepts
// either a multipart upload with a "file" field or a raw CSV body.
func (h *CampaignHandler) ImportContactsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var reader io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file upload: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		reader = file
	}

	count, err := h.Service.ImportContacts(id, reader)
	if err != nil {
		http.Error(w, "failed to import contacts: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":           true,
		"campaign_id":       id,
		"contacts_imported": count,
	})
}
