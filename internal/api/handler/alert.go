package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rfsentry/rfsentry/internal/alert"
	"github.com/rfsentry/rfsentry/internal/api/models"
	"github.com/rfsentry/rfsentry/internal/api/response"
	"github.com/rfsentry/rfsentry/internal/threat"
)

// AlertHandler handles the alert read and review endpoints.
type AlertHandler struct {
	alerts *alert.Service
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alerts *alert.Service) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// ListAlerts handles GET /v1/alerts - list alerts, newest first.
// Optional query params: limit, deviceId, level.
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 200 {
			response.BadRequest(w, r, "limit must be an integer between 1 and 200", nil)
			return
		}
		limit = parsed
	}

	level := threat.Level(r.URL.Query().Get("level"))
	switch level {
	case "", threat.LevelLow, threat.LevelMedium, threat.LevelHigh, threat.LevelCritical:
	default:
		response.BadRequest(w, r, "level must be one of low, medium, high, critical", nil)
		return
	}

	result, err := h.alerts.List(r.Context(), limit, r.URL.Query().Get("deviceId"), level)
	if err != nil {
		response.InternalError(w, r, "failed to list alerts")
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// GetAlert handles GET /v1/alerts/{alertId}.
func (h *AlertHandler) GetAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertId")

	a, err := h.alerts.Get(r.Context(), alertID)
	if err != nil {
		if errors.Is(err, alert.ErrAlertNotFound) {
			response.NotFound(w, r, "alert not found")
			return
		}
		response.InternalError(w, r, "failed to get alert")
		return
	}
	response.JSON(w, r, http.StatusOK, a)
}

// ReviewAlert handles PATCH /v1/alerts/{alertId} - toggle the reviewed
// and falsePositive flags. All other alert fields are immutable.
func (h *AlertHandler) ReviewAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertId")

	var input models.AlertReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.Reviewed == nil && input.FalsePositive == nil {
		response.BadRequest(w, r, "at least one of reviewed, falsePositive is required", nil)
		return
	}

	a, err := h.alerts.Review(r.Context(), alertID, &input)
	if err != nil {
		if errors.Is(err, alert.ErrAlertNotFound) {
			response.NotFound(w, r, "alert not found")
			return
		}
		response.InternalError(w, r, "failed to update alert")
		return
	}
	response.JSON(w, r, http.StatusOK, a)
}

// DeleteAlert handles DELETE /v1/alerts/{alertId}.
func (h *AlertHandler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertId")

	if err := h.alerts.Delete(r.Context(), alertID); err != nil {
		if errors.Is(err, alert.ErrAlertNotFound) {
			response.NotFound(w, r, "alert not found")
			return
		}
		response.InternalError(w, r, "failed to delete alert")
		return
	}
	response.NoContent(w, r)
}
