package rosterhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"schooladmin/internal/domain/auth"
	"schooladmin/internal/domain/roster"
	"schooladmin/internal/transport/http/api"
	"schooladmin/internal/transport/http/middleware"
	"schooladmin/internal/transport/http/shared"
)

type Handler struct {
	Service *roster.Service
}

func NewHandler(service *roster.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Post("/", h.handleCreateEmployee)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/{employeeID}", h.handleGetEmployee)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Put("/{employeeID}", h.handleUpdateEmployee)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Delete("/{employeeID}", h.handleDeleteEmployee)
	})
	r.Route("/students", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermStudentsWrite)).Post("/", h.handleCreateStudent)
		r.With(middleware.RequirePermission(auth.PermStudentsRead)).Get("/", h.handleListStudents)
		r.With(middleware.RequirePermission(auth.PermStudentsRead)).Get("/{studentID}", h.handleGetStudent)
		r.With(middleware.RequirePermission(auth.PermStudentsWrite)).Put("/{studentID}", h.handleUpdateStudent)
		r.With(middleware.RequirePermission(auth.PermStudentsWrite)).Delete("/{studentID}", h.handleDeleteStudent)
	})
}

type employeeRequest struct {
	FullName    string          `json:"fullName"`
	Email       string          `json:"email"`
	Position    string          `json:"position"`
	BasicSalary decimal.Decimal `json:"basicSalary"`
	Allowances  decimal.Decimal `json:"allowances"`
	Status      string          `json:"status"`
}

type studentRequest struct {
	FullName      string `json:"fullName"`
	ClassName     string `json:"className"`
	GuardianName  string `json:"guardianName"`
	GuardianPhone string `json:"guardianPhone"`
	Status        string `json:"status"`
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	employee, err := h.Service.CreateEmployee(r.Context(), roster.Employee{
		FullName:    payload.FullName,
		Email:       payload.Email,
		Position:    payload.Position,
		BasicSalary: payload.BasicSalary,
		Allowances:  payload.Allowances,
		Status:      payload.Status,
	})
	if err != nil {
		h.failRoster(w, r, err)
		return
	}
	api.Created(w, employee, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	employees, total, err := h.Service.ListEmployees(r.Context(), r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		h.failRoster(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Service.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.failRoster(w, r, err)
		return
	}
	api.Success(w, employee, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	employee, err := h.Service.UpdateEmployee(r.Context(), roster.Employee{
		ID:          chi.URLParam(r, "employeeID"),
		FullName:    payload.FullName,
		Email:       payload.Email,
		Position:    payload.Position,
		BasicSalary: payload.BasicSalary,
		Allowances:  payload.Allowances,
		Status:      payload.Status,
	})
	if err != nil {
		h.failRoster(w, r, err)
		return
	}
	api.Success(w, employee, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteEmployee(r.Context(), chi.URLParam(r, "employeeID")); err != nil {
		h.failRoster(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var payload studentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	student, err := h.Service.CreateStudent(r.Context(), roster.Student{
		FullName:      payload.FullName,
		ClassName:     payload.ClassName,
		GuardianName:  payload.GuardianName,
		GuardianPhone: payload.GuardianPhone,
		Status:        payload.Status,
	})
	if err != nil {
		h.failRoster(w, r, err)
		return
	}
	api.Created(w, student, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	students, total, err := h.Service.ListStudents(r.Context(), page.Limit, page.Offset)
	if err != nil {
		h.failRoster(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, students, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.Service.GetStudent(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		h.failRoster(w, r, err)
		return
	}
	api.Success(w, student, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var payload studentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	student, err := h.Service.UpdateStudent(r.Context(), roster.Student{
		ID:            chi.URLParam(r, "studentID"),
		FullName:      payload.FullName,
		ClassName:     payload.ClassName,
		GuardianName:  payload.GuardianName,
		GuardianPhone: payload.GuardianPhone,
		Status:        payload.Status,
	})
	if err != nil {
		h.failRoster(w, r, err)
		return
	}
	api.Success(w, student, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteStudent(r.Context(), chi.URLParam(r, "studentID")); err != nil {
		h.failRoster(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failRoster(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, roster.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, roster.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "email_taken", err.Error(), reqID)
	case errors.Is(err, roster.ErrEmployeeNotFound), errors.Is(err, roster.ErrStudentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "roster_error", "roster operation failed", reqID)
	}
}
