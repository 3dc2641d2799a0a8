package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kavach-security/kavach/pkg/binder"
	"github.com/kavach-security/kavach/pkg/jwt"
	"github.com/kavach-security/kavach/pkg/logger"
	"github.com/kavach-security/kavach/pkg/validator"
)

// Handler returns the auth routes. Enrollment and recovery endpoints
// sit behind the session token middleware; login endpoints are open and
// expected to be rate limited by the caller.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Post("/verify-2fa", s.handleVerifySecondFactor)

	r.Group(func(r chi.Router) {
		r.Use(jwt.Middleware[SessionClaims](s.tokens))
		r.Post("/setup-2fa", s.handleSetup)
		r.Post("/enable-2fa", s.handleEnable)
		r.Post("/disable-2fa", s.handleDisable)
		r.Post("/recovery-codes", s.handleRecoveryCodes)
	})

	return r
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := binder.JSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	account, err := s.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		UserID: account.ID.String(),
		Email:  account.Email,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Granted           bool   `json:"granted"`
	Token             string `json:"token,omitempty"`
	RequiresTwoFactor bool   `json:"requires_two_factor,omitempty"`
	ChallengeID       string `json:"challenge_id,omitempty"`
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := binder.JSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	result, err := s.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	switch result.Status {
	case StatusGranted:
		writeJSON(w, http.StatusOK, loginResponse{Granted: true, Token: result.Token})
	case StatusSecondFactorRequired:
		writeJSON(w, http.StatusOK, loginResponse{
			RequiresTwoFactor: true,
			ChallengeID:       result.ChallengeID,
		})
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type verifyRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

func (s *Service) handleVerifySecondFactor(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := binder.JSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	result, err := s.CompleteSecondFactor(r.Context(), req.ChallengeID, req.Code)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Granted: true, Token: result.Token})
}

type setupResponse struct {
	Secret     string `json:"secret"`
	OtpauthURI string `json:"otpauth_uri"`
	QRCode     string `json:"qr_code"`
}

func (s *Service) handleSetup(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext[SessionClaims](r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID, err := claims.AccountID()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := s.RequestSetup(r.Context(), accountID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, setupResponse{
		Secret:     result.Secret,
		OtpauthURI: result.OtpauthURI,
		QRCode:     result.QRCode,
	})
}

type codeRequest struct {
	Code string `json:"code"`
}

type enableResponse struct {
	Enabled       bool     `json:"enabled"`
	RecoveryCodes []string `json:"recovery_codes,omitempty"`
}

func (s *Service) handleEnable(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext[SessionClaims](r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID, err := claims.AccountID()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req codeRequest
	if err := binder.JSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	codes, err := s.ConfirmSetup(r.Context(), accountID, req.Code)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, enableResponse{Enabled: true, RecoveryCodes: codes})
}

func (s *Service) handleDisable(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext[SessionClaims](r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID, err := claims.AccountID()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req codeRequest
	if err := binder.JSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := s.Disable(r.Context(), accountID, req.Code); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, enableResponse{Enabled: false})
}

type recoveryCodesResponse struct {
	RecoveryCodes []string `json:"recovery_codes"`
}

func (s *Service) handleRecoveryCodes(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext[SessionClaims](r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID, err := claims.AccountID()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req codeRequest
	if err := binder.JSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	codes, err := s.RegenerateRecoveryCodes(r.Context(), accountID, req.Code)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recoveryCodesResponse{RecoveryCodes: codes})
}

type errorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// writeServiceError maps service errors onto the wire taxonomy. The 401
// responses are deliberately uniform so a caller cannot distinguish a
// wrong password from a missing account, or a wrong code from an
// expired challenge.
func (s *Service) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if fields := validator.ExtractValidationErrors(err); fields != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Fields: fields,
		})
		return
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, ErrInvalidCode):
		writeError(w, http.StatusUnauthorized, "invalid code")
	case errors.Is(err, ErrEmailAlreadyExists):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, ErrTwoFactorAlreadyEnabled):
		writeError(w, http.StatusConflict, "two-factor authentication already enabled")
	case errors.Is(err, ErrTwoFactorNotEnabled):
		writeError(w, http.StatusConflict, "two-factor authentication not enabled")
	case errors.Is(err, ErrAccountNotFound):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		s.logger.ErrorContext(r.Context(), "auth request failed",
			logger.Error(err),
			logger.Component("auth"),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
