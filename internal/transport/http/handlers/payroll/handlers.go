package payrollhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"schooladmin/internal/domain/auth"
	"schooladmin/internal/domain/payroll"
	"schooladmin/internal/platform/metrics"
	"schooladmin/internal/transport/http/api"
	"schooladmin/internal/transport/http/middleware"
	"schooladmin/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Metrics *metrics.Collector
}

func NewHandler(service *payroll.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRun)).Post("/runs", h.handleCreateRun)
		r.With(middleware.RequirePermission(auth.PermPayrollRun)).Post("/runs/regenerate", h.handleRegenerateRun)
		r.With(middleware.RequirePermission(auth.PermPayrollRead)).Get("/runs", h.handleListRuns)
		r.With(middleware.RequirePermission(auth.PermPayrollRead)).Get("/runs/{runID}", h.handleGetRun)
		r.With(middleware.RequirePermission(auth.PermPayrollRead)).Get("/runs/{runID}/summary", h.handleRunSummary)
		r.With(middleware.RequirePermission(auth.PermPayrollApprove)).Post("/runs/{runID}/approve", h.handleApproveRun)
		r.With(middleware.RequirePermission(auth.PermPayrollApprove)).Post("/runs/{runID}/finalize", h.handleFinalizeRun)
		r.With(middleware.RequirePermission(auth.PermPayrollRun)).Delete("/runs/{runID}", h.handleDeleteRun)

		r.With(middleware.RequirePermission(auth.PermLoansWrite)).Post("/loans", h.handleCreateLoan)
		r.With(middleware.RequirePermission(auth.PermLoansRead)).Get("/loans", h.handleListLoans)
		r.With(middleware.RequirePermission(auth.PermLoansRead)).Get("/loans/{loanID}", h.handleGetLoan)

		r.With(middleware.RequirePermission(auth.PermPayrollRead)).Get("/rates", h.handleGetRates)
		r.With(middleware.RequirePermission(auth.PermRatesWrite)).Put("/rates", h.handleUpdateRates)

		r.With(middleware.RequirePermission(auth.PermPayrollRead)).Get("/payslips", h.handleListPayslips)
	})
}

type runRequest struct {
	Month string `json:"month"`
}

type loanRequest struct {
	EmployeeID       string          `json:"employeeId"`
	Type             string          `json:"type"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	MonthlyDeduction decimal.Decimal `json:"monthlyDeduction"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var payload runRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	user, _ := middleware.GetUser(r.Context())
	run, err := h.Service.RunPayroll(r.Context(), payload.Month, user.UserID)
	if err != nil {
		h.failPayroll(w, r, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordPayrollRun()
	}
	api.Created(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRegenerateRun(w http.ResponseWriter, r *http.Request) {
	var payload runRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	user, _ := middleware.GetUser(r.Context())
	run, err := h.Service.RegenerateRun(r.Context(), payload.Month, user.UserID)
	if err != nil {
		h.failPayroll(w, r, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordPayrollRun()
	}
	api.Created(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	runs, total, err := h.Service.ListRuns(r.Context(), page.Limit, page.Offset)
	if err != nil {
		h.failPayroll(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.failPayroll(w, r, err)
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.failPayroll(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveRun(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	run, err := h.Service.Approve(r.Context(), chi.URLParam(r, "runID"), user.UserID, user.Role)
	if err != nil {
		h.failPayroll(w, r, err)
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFinalizeRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Service.Finalize(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.failPayroll(w, r, err)
		return
	}
	api.Success(w, run, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteRun(r.Context(), chi.URLParam(r, "runID")); err != nil {
		h.failPayroll(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var payload loanRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.EmployeeID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "employeeId is required", middleware.GetRequestID(r.Context()))
		return
	}

	loan, err := h.Service.CreateLoan(r.Context(), payroll.Loan{
		EmployeeID:       payload.EmployeeID,
		Type:             payload.Type,
		TotalAmount:      payload.TotalAmount,
		MonthlyDeduction: payload.MonthlyDeduction,
		RemainingBalance: payload.RemainingBalance,
	})
	if err != nil {
		h.failPayroll(w, r, err)
		return
	}
	api.Created(w, loan, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListLoans(w http.ResponseWriter, r *http.Request) {
	filter := payroll.LoanFilter{
		EmployeeID: r.URL.Query().Get("employeeId"),
		Status:     r.URL.Query().Get("status"),
	}
	loans, err := h.Service.ListLoans(r.Context(), filter)
	if err != nil {
		h.failPayroll(w, r, err)
		return
	}
	api.Success(w, loans, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.Service.GetLoan(r.Context(), chi.URLParam(r, "loanID"))
	if err != nil {
		h.failPayroll(w, r, err)
		return
	}
	api.Success(w, loan, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Service.GetRateTable(r.Context())
	if err != nil {
		h.failPayroll(w, r, err)
		return
	}
	api.Success(w, rates, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateRates(w http.ResponseWriter, r *http.Request) {
	var rates payroll.RateTable
	if err := json.NewDecoder(r.Body).Decode(&rates); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.UpdateRateTable(r.Context(), rates); err != nil {
		h.failPayroll(w, r, err)
		return
	}
	api.Success(w, rates, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListPayslips(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	payslips, err := h.Service.ListPayslips(r.Context(), r.URL.Query().Get("employeeId"), page.Limit, page.Offset)
	if err != nil {
		h.failPayroll(w, r, err)
		return
	}
	api.Success(w, payslips, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failPayroll(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrInvalidMonth), errors.Is(err, payroll.ErrNegativeAmount), errors.Is(err, payroll.ErrEmptyRoster):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, payroll.ErrRunExists):
		api.Fail(w, http.StatusConflict, "run_exists", err.Error(), reqID)
	case errors.Is(err, payroll.ErrRunNotFound), errors.Is(err, payroll.ErrLoanNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), reqID)
	case errors.Is(err, payroll.ErrNotAuthorized):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "payroll_error", "payroll operation failed", reqID)
	}
}
