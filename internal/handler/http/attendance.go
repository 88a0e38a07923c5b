package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-timekeeping/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	RecordPunch(w http.ResponseWriter, r *http.Request)
	CorrectPunches(w http.ResponseWriter, r *http.Request)
	GetDay(w http.ResponseWriter, r *http.Request)
	ListMonth(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	hub               *sse.Hub
	keepalive         time.Duration
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, hub *sse.Hub) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		hub:               hub,
		keepalive:         30 * time.Second,
	}
}

// RecordPunch implements AttendanceHandler.
func (h *attendanceHandlerImpl) RecordPunch(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecordPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if req.Source == "" {
		req.Source = attendance.SourceManual
	}

	result, err := h.attendanceService.RecordPunch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.Duplicate {
		response.SuccessWithMessage(w, "Duplicate punch ignored", result)
		return
	}
	response.Created(w, "Punch recorded", result)
}

// CorrectPunches implements AttendanceHandler.
func (h *attendanceHandlerImpl) CorrectPunches(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.CorrectPunchesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.RecordID = chi.URLParam(r, "id")
	req.Actor = actor.UserID

	result, err := h.attendanceService.CorrectPunches(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Punches corrected", result)
}

// GetDay implements AttendanceHandler. Employees may only read their own day.
func (h *attendanceHandlerImpl) GetDay(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	if err := authorizeEmployee(r, employeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetDay(r.Context(), attendance.GetDayRequest{
		EmployeeID: employeeID,
		Date:       chi.URLParam(r, "date"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListMonth implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListMonth(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	if err := authorizeEmployee(r, employeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	month, err := timeutil.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		response.BadRequest(w, "month must be in YYYY-MM format", nil)
		return
	}

	result, err := h.attendanceService.ListMonth(r.Context(), attendance.MonthRequest{
		EmployeeID: employeeID,
		Month:      month,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Stream handles the SSE connection for the live attendance feed
func (h *attendanceHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(sse.TopicAttendance)
	defer cleanup()

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Error("Failed to encode attendance event", "event", event.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// authorizeEmployee lets managers through and limits everyone else to
// their own employee id.
func authorizeEmployee(r *http.Request, employeeID string) error {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		return err
	}
	if actor.Role.IsManager() || (actor.EmployeeID != "" && actor.EmployeeID == employeeID) {
		return nil
	}
	return attendance.ErrUnauthorized
}
