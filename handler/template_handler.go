package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"caseguard/models"
	"caseguard/service"
	"caseguard/template"
)

// TemplateHandler handles HTTP requests for notification templates
type TemplateHandler struct {
	notifier *service.Notifier
	cache    *template.Cache
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(notifier *service.Notifier, cache *template.Cache) *TemplateHandler {
	return &TemplateHandler{
		notifier: notifier,
		cache:    cache,
	}
}

type previewRequest struct {
	Variables map[string]string `json:"variables"`
}

// Preview handles POST /api/v1/templates/{name}/preview
// Renders the template with supplied variables; sample values fill the gaps
func (h *TemplateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req previewRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	rendered, check, err := h.notifier.RenderPreview(name, req.Variables)
	if err != nil {
		if models.IsNotFound(err) {
			respondWithError(w, http.StatusNotFound, "Not found", err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"rendered": rendered,
		"check":    check,
	})
}

// Invalidate handles POST /api/v1/templates/{name}/invalidate
// Drops the cached copy so the next load sees an admin's edit immediately
func (h *TemplateHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.cache.Invalidate(name)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Template cache invalidated",
		"name":    name,
	})
}
