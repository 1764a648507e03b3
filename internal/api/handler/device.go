package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rfsentry/rfsentry/internal/api/models"
	"github.com/rfsentry/rfsentry/internal/api/response"
	"github.com/rfsentry/rfsentry/internal/device"
)

// DeviceHandler handles the device read and admin endpoints.
type DeviceHandler struct {
	devices *device.Service
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(devices *device.Service) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// ListDevices handles GET /v1/devices - list devices, most recently
// seen first.
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 200 {
			response.BadRequest(w, r, "limit must be an integer between 1 and 200", nil)
			return
		}
		limit = parsed
	}

	result, err := h.devices.List(r.Context(), limit)
	if err != nil {
		response.InternalError(w, r, "failed to list devices")
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// GetDevice handles GET /v1/devices/{deviceId}.
func (h *DeviceHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	d, err := h.devices.Get(r.Context(), deviceID)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			response.NotFound(w, r, "device not found")
			return
		}
		response.InternalError(w, r, "failed to get device")
		return
	}
	response.JSON(w, r, http.StatusOK, d)
}

// UpdateDevice handles PUT /v1/devices/{deviceId} - rename a device.
// Everything else on the record is owned by the ingestion pipeline.
func (h *DeviceHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	var input models.DeviceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.Name == "" || len(input.Name) > 80 {
		response.BadRequest(w, r, "name must be 1-80 characters", []models.FieldError{
			{Field: "name", Message: "must be 1-80 characters", Code: "length"},
		})
		return
	}

	d, err := h.devices.Rename(r.Context(), deviceID, input.Name)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			response.NotFound(w, r, "device not found")
			return
		}
		response.InternalError(w, r, "failed to update device")
		return
	}
	response.JSON(w, r, http.StatusOK, d)
}

// DeleteDevice handles DELETE /v1/devices/{deviceId}.
func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")

	if err := h.devices.Delete(r.Context(), deviceID); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			response.NotFound(w, r, "device not found")
			return
		}
		response.InternalError(w, r, "failed to delete device")
		return
	}
	response.NoContent(w, r)
}
