package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/device"
	"github.com/cmlabs-hris/hris-timekeeping/internal/handler/http/response"
)

type DeviceHandler interface {
	Sync(w http.ResponseWriter, r *http.Request)
	PushLogs(w http.ResponseWriter, r *http.Request)
}

type deviceHandlerImpl struct {
	syncService device.SyncService
}

func NewDeviceHandler(syncService device.SyncService) DeviceHandler {
	return &deviceHandlerImpl{syncService: syncService}
}

// Sync pulls every registered device source once.
func (h *deviceHandlerImpl) Sync(w http.ResponseWriter, r *http.Request) {
	results, err := h.syncService.SyncAll(r.Context())
	if err != nil && results == nil {
		response.HandleError(w, err)
		return
	}
	if err != nil {
		response.SuccessWithMessage(w, err.Error(), results)
		return
	}

	response.Success(w, results)
}

// PushLogs ingests logs posted by a device or a bridge in front of one.
func (h *deviceHandlerImpl) PushLogs(w http.ResponseWriter, r *http.Request) {
	var req device.PushLogsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	for i := range req.Logs {
		if req.Logs[i].DeviceID == "" {
			req.Logs[i].DeviceID = req.DeviceID
		}
	}

	result, err := h.syncService.Ingest(r.Context(), req.DeviceID, req.Logs)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
