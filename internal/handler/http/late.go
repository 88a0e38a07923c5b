package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-timekeeping/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type LateHandler interface {
	// Settings
	GetSettings(w http.ResponseWriter, r *http.Request)
	UpdateSettings(w http.ResponseWriter, r *http.Request)

	// Late events
	File(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	SetStatus(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)

	// Deductions
	PreviewDeductions(w http.ResponseWriter, r *http.Request)
	Report(w http.ResponseWriter, r *http.Request)
}

type lateHandlerImpl struct {
	lateService    late.LateService
	payrollService payroll.PayrollService
}

func NewLateHandler(lateService late.LateService, payrollService payroll.PayrollService) LateHandler {
	return &lateHandlerImpl{lateService: lateService, payrollService: payrollService}
}

// ========== SETTINGS ==========

func (h *lateHandlerImpl) GetSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.lateService.GetPolicy(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *lateHandlerImpl) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req late.UpdatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.UpdatedBy = actor.UserID

	result, err := h.lateService.UpdatePolicy(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Late policy updated", result)
}

// ========== LATE EVENTS ==========

// File lets employees file their own lates; managers may file any.
func (h *lateHandlerImpl) File(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req late.FileLateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.FiledBy = actor.UserID
	if !actor.Role.IsManager() {
		if actor.EmployeeID == "" {
			response.Forbidden(w, "No employee profile linked to this account")
			return
		}
		req.OwnerID = actor.EmployeeID
	}

	result, err := h.lateService.FileLate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Late event filed", result)
}

func (h *lateHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Late ID is required", nil)
		return
	}

	result, err := h.lateService.GetLate(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List returns the caller's own lates unless the caller is a manager.
func (h *lateHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	q := r.URL.Query()
	var req late.ListLatesRequest
	if v := q.Get("employee_id"); v != "" {
		req.EmployeeID = &v
	}
	if v := q.Get("status"); v != "" {
		req.Status = &v
	}
	if v := q.Get("month"); v != "" {
		req.Month = &v
	}
	if !actor.Role.IsManager() {
		own := actor.EmployeeID
		req.EmployeeID = &own
	}

	result, err := h.lateService.ListLates(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *lateHandlerImpl) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req late.SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ReviewedBy = actor.UserID

	result, err := h.lateService.SetLateStatus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, fmt.Sprintf("Late event %s", result.Status), result)
}

func (h *lateHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Late ID is required", nil)
		return
	}

	if err := h.lateService.DeleteLate(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Late event deleted", nil)
}

// ========== DEDUCTIONS ==========

func (h *lateHandlerImpl) PreviewDeductions(w http.ResponseWriter, r *http.Request) {
	month, err := timeutil.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		response.BadRequest(w, "month must be in YYYY-MM format", nil)
		return
	}

	result, err := h.payrollService.PreviewDeductions(r.Context(), chi.URLParam(r, "employeeID"), month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Report renders the monthly deduction report as JSON, or as a workbook
// when format=xlsx.
func (h *lateHandlerImpl) Report(w http.ResponseWriter, r *http.Request) {
	month, err := timeutil.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		response.BadRequest(w, "month must be in YYYY-MM format", nil)
		return
	}

	if r.URL.Query().Get("format") != "xlsx" {
		result, err := h.payrollService.DeductionReport(r.Context(), month)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		response.Success(w, result)
		return
	}

	var buf bytes.Buffer
	if err := h.payrollService.WriteDeductionReportXLSX(r.Context(), month, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="late-deductions-%s.xlsx"`, month))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
