package authhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schooladmin/internal/domain/auth"
	"schooladmin/internal/platform/metrics"
	"schooladmin/internal/transport/http/api"
	"schooladmin/internal/transport/http/middleware"
)

type Handler struct {
	Service *auth.Service
	Metrics *metrics.Collector
}

func NewHandler(service *auth.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup/request-otp", h.handleSignupRequestOTP)
		r.Post("/signup/verify", h.handleSignupVerify)
		r.Post("/login", h.handleLogin)
		r.Post("/login/request-otp", h.handleLoginRequestOTP)
		r.Post("/login/otp", h.handleLoginWithOTP)
		r.Post("/logout", h.handleLogout)
		r.Post("/refresh", h.handleRefresh)
		r.With(middleware.RequireUser).Post("/mfa/setup", h.handleMFASetup)
		r.With(middleware.RequireUser).Post("/mfa/enable", h.handleMFAEnable)
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

type signupVerifyRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type otpLoginRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type refreshRequest struct {
	SessionToken string `json:"sessionToken"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) handleSignupRequestOTP(w http.ResponseWriter, r *http.Request) {
	var payload emailRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.RequestSignupOTP(r.Context(), payload.Email); err != nil {
		h.failAuth(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "otp_sent"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSignupVerify(w http.ResponseWriter, r *http.Request) {
	var payload signupVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Password == "" || payload.FullName == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "full name and password are required", middleware.GetRequestID(r.Context()))
		return
	}

	user, err := h.Service.CompleteSignup(r.Context(), payload.Email, payload.Code, payload.FullName, payload.Password)
	if err != nil {
		h.failAuth(w, r, err)
		return
	}
	api.Created(w, map[string]string{"id": user.ID, "email": user.Email, "role": user.Role}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	user, token, err := h.Service.Login(r.Context(), payload.Email, payload.Password, payload.MFACode)
	if err != nil {
		h.failAuth(w, r, err)
		return
	}
	api.Success(w, map[string]any{
		"token": token,
		"user":  map[string]string{"id": user.ID, "email": user.Email, "role": user.Role},
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLoginRequestOTP(w http.ResponseWriter, r *http.Request) {
	var payload emailRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.RequestLoginOTP(r.Context(), payload.Email); err != nil {
		// do not reveal whether the address exists
		if errors.Is(err, auth.ErrUserNotFound) {
			api.Success(w, map[string]string{"status": "otp_sent"}, middleware.GetRequestID(r.Context()))
			return
		}
		h.failAuth(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "otp_sent"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLoginWithOTP(w http.ResponseWriter, r *http.Request) {
	var payload otpLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	user, token, err := h.Service.LoginWithOTP(r.Context(), payload.Email, payload.Code)
	if err != nil {
		h.failAuth(w, r, err)
		return
	}
	api.Success(w, map[string]any{
		"token": token,
		"user":  map[string]string{"id": user.ID, "email": user.Email, "role": user.Role},
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok && user.SessionID != "" {
		_ = h.Service.Logout(r.Context(), user.SessionID)
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.SessionToken == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "session token is required", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := h.Service.RefreshSession(r.Context(), payload.SessionToken)
	if err != nil {
		h.failAuth(w, r, err)
		return
	}
	api.Success(w, map[string]string{"token": token}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	secret, url, err := h.Service.SetupMFA(r.Context(), user.UserID)
	if err != nil {
		h.failAuth(w, r, err)
		return
	}
	api.Success(w, map[string]string{"secret": secret, "url": url}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMFAEnable(w http.ResponseWriter, r *http.Request) {
	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.EnableMFA(r.Context(), user.UserID, payload.Code); err != nil {
		h.failAuth(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "mfa_enabled"}, middleware.GetRequestID(r.Context()))
}

// failAuth maps domain errors onto wire responses. Lockout and attempt
// counters are surfaced so clients can show the remaining budget.
func (h *Handler) failAuth(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())

	var locked *auth.LockedError
	if errors.As(err, &locked) {
		if h.Metrics != nil {
			h.Metrics.RecordLockout()
		}
		api.Fail(w, http.StatusLocked, "account_locked",
			fmt.Sprintf("account locked, try again in %d minutes", locked.MinutesLeft), reqID)
		return
	}

	var incorrect *auth.IncorrectPasswordError
	if errors.As(err, &incorrect) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials",
			fmt.Sprintf("invalid credentials, %d attempts remaining", incorrect.AttemptsRemaining), reqID)
		return
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUserNotFound):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
	case errors.Is(err, auth.ErrUserExists):
		api.Fail(w, http.StatusConflict, "user_exists", "an account with this email already exists", reqID)
	case errors.Is(err, auth.ErrOTPNotFound), errors.Is(err, auth.ErrOTPInvalid):
		api.Fail(w, http.StatusUnauthorized, "otp_invalid", "invalid verification code", reqID)
	case errors.Is(err, auth.ErrOTPExpired):
		api.Fail(w, http.StatusUnauthorized, "otp_expired", "verification code expired", reqID)
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", reqID)
	case errors.Is(err, auth.ErrSessionExpired), errors.Is(err, auth.ErrSessionNotFound):
		api.Fail(w, http.StatusUnauthorized, "session_invalid", "session expired or not found", reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "auth_error", "authentication failed", reqID)
	}
}
