package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"unibooker.org/internal/audit"
	"unibooker.org/internal/auth"
)

type loginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	CompanyID *int64 `json:"companyId"`
}

type sessionResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       int64  `json:"userId"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	CompanyID    *int64 `json:"companyId,omitempty"`
}

type signUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	CompanyID int64  `json:"companyId"`
}

type adminSignUpRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	BusinessNumber string `json:"businessNumber"`
	CompanyName    string `json:"companyName"`
	CompanySlug    string `json:"companySlug"`
}

type identityResponse struct {
	UserID    int64  `json:"userId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CompanyID *int64 `json:"companyId,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type resetPasswordRequest struct {
	Email     string `json:"email"`
	CompanyID *int64 `json:"companyId"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	session, err := a.sessions.Login(r.Context(), req.Email, req.Password, req.CompanyID)
	if err != nil {
		_ = audit.LogEvent(r.Context(), "auth.login_denied", map[string]any{"email": req.Email})
		handleAuthError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": session.UserID,
		"role":    string(session.Role),
	})
	writeSuccess(w, sessionPayload(session))
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	identity, err := a.sessions.SignUp(r.Context(), auth.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Phone:     req.Phone,
		CompanyID: req.CompanyID,
	})
	if err != nil {
		handleAuthError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.signup", map[string]any{
		"user_id":    identity.UserID,
		"company_id": req.CompanyID,
	})
	writeCreated(w, identityPayload(identity))
}

func (a *API) handleAdminSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req adminSignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	identity, err := a.sessions.AdminSignUp(r.Context(), auth.AdminSignUpInput{
		Email:          req.Email,
		Password:       req.Password,
		Name:           req.Name,
		Phone:          req.Phone,
		BusinessNumber: req.BusinessNumber,
		CompanyName:    req.CompanyName,
		CompanySlug:    req.CompanySlug,
	})
	if err != nil {
		handleAuthError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.admin_signup", map[string]any{
		"user_id":      identity.UserID,
		"company_slug": req.CompanySlug,
	})
	writeCreated(w, identityPayload(identity))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	session, err := a.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleAuthError(w, err)
		return
	}
	writeSuccess(w, sessionPayload(session))
}

func (a *API) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	email := r.URL.Query().Get("email")
	companyID, err := optionalInt64(r.URL.Query().Get("companyId"))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, "companyId must be an integer")
		return
	}
	available, err := a.sessions.CheckEmail(r.Context(), email, companyID)
	if err != nil {
		handleAuthError(w, err)
		return
	}
	writeSuccess(w, map[string]any{"available": available})
}

func (a *API) handleFindEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	emails, err := a.sessions.FindEmail(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		handleAuthError(w, err)
		return
	}
	writeSuccess(w, map[string]any{"emails": emails})
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if err := a.sessions.ResetPassword(r.Context(), req.Email, req.CompanyID); err != nil {
		handleAuthError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password_reset", map[string]any{"email": req.Email})
	writeSuccess(w, map[string]any{"message": "temporary password sent"})
}

func sessionPayload(s auth.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		UserID:       s.UserID,
		Email:        s.Identity.Email,
		Name:         s.Name,
		Role:         string(s.Role),
		CompanyID:    s.Identity.CompanyID,
	}
}

func identityPayload(id auth.Identity) identityResponse {
	return identityResponse{
		UserID:    id.UserID,
		Email:     id.Email,
		Name:      id.Name,
		Role:      string(id.Role),
		CompanyID: id.CompanyID,
	}
}

func optionalInt64(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
