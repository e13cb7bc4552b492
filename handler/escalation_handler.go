package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"caseguard/models"
	"caseguard/service"
	"caseguard/worker"
)

// EscalationHandler handles HTTP requests for escalation operations
type EscalationHandler struct {
	ledger *service.EscalationLedger
	worker *worker.EscalationWorker
}

// NewEscalationHandler creates a new escalation handler
func NewEscalationHandler(ledger *service.EscalationLedger, worker *worker.EscalationWorker) *EscalationHandler {
	return &EscalationHandler{
		ledger: ledger,
		worker: worker,
	}
}

// Evaluate handles POST /api/v1/escalations/evaluate
// Manually triggers an escalation sweep outside the schedule
func (h *EscalationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	result, err := h.worker.RunOnce()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

type resolveRequest struct {
	ResolutionNotes string `json:"resolution_notes"`
}

// Acknowledge handles POST /api/v1/escalations/{id}/acknowledge
func (h *EscalationHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	logID, err := parseLogID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Bad request", "Invalid escalation id")
		return
	}

	userID, err := getUserIDFromContext(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}

	entry, err := h.ledger.Acknowledge(logID, userID)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

// Resolve handles POST /api/v1/escalations/{id}/resolve
func (h *EscalationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	logID, err := parseLogID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Bad request", "Invalid escalation id")
		return
	}

	userID, err := getUserIDFromContext(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return
	}

	var req resolveRequest
	if r.Body != nil {
		// Notes are optional; an empty body resolves without them.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	entry, err := h.ledger.Resolve(logID, userID, req.ResolutionNotes)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entry)
}

// Statistics handles GET /api/v1/escalations/stats
// Optional from/to query params bound the escalated_at range (RFC 3339 or date only)
func (h *EscalationHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Bad request", "Invalid 'from' parameter")
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Bad request", "Invalid 'to' parameter")
		return
	}

	stats, err := h.ledger.Statistics(from, to)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func parseLogID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, &models.ValidationError{Field: "time", Message: "unrecognized time format"}
}

// respondLedgerError maps ledger error types to HTTP status codes
func respondLedgerError(w http.ResponseWriter, err error) {
	switch {
	case models.IsNotFound(err):
		respondWithError(w, http.StatusNotFound, "Not found", err.Error())
	case models.IsInvalidState(err):
		respondWithError(w, http.StatusConflict, "Conflict", err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal error", err.Error())
	}
}
