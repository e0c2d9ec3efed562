package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"unibooker.org/internal/auth"
	"unibooker.org/internal/token"
)

// Canonical response codes. code 10000 means success; everything else is a
// failure and the HTTP status carries the transport-level class.
const (
	codeSuccess = 10000

	codeBadRequest    = 20000
	codeInternalError = 20001
	codeRateLimited   = 20003

	codeAccountNotFound = 30000
	codeDuplicateEmail  = 30001
	codeInactiveAccount = 30008

	codeCompanyNotFound         = 40000
	codeCompanyNotApproved      = 40004
	codeDuplicateBusinessNumber = 40005
	codeDuplicateSlug           = 40009

	codeUnauthorized = 50000
	codeInvalidToken = 50002
)

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Code: codeSuccess, Message: "ok", Data: data})
}

func writeCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Code: codeSuccess, Message: "ok", Data: data})
}

func writeFailure(w http.ResponseWriter, status, code int, msg string) {
	writeJSON(w, status, envelope{Code: code, Message: msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeFailure(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
}

// decodeJSON reads a bounded, strict JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleAuthError maps domain errors onto the canonical envelope. Credential
// and token failures share the 401 class; uniqueness violations are conflicts.
func handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeFailure(w, http.StatusUnauthorized, codeUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrInactiveAccount):
		writeFailure(w, http.StatusUnauthorized, codeInactiveAccount, "account is not active")
	case errors.Is(err, token.ErrInvalidToken):
		writeFailure(w, http.StatusUnauthorized, codeInvalidToken, "invalid token")
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeFailure(w, http.StatusConflict, codeDuplicateEmail, "email already in use")
	case errors.Is(err, auth.ErrDuplicateBusinessNumber):
		writeFailure(w, http.StatusConflict, codeDuplicateBusinessNumber, "business number already registered")
	case errors.Is(err, auth.ErrDuplicateSlug):
		writeFailure(w, http.StatusConflict, codeDuplicateSlug, "company slug already in use")
	case errors.Is(err, auth.ErrAccountNotFound):
		writeFailure(w, http.StatusNotFound, codeAccountNotFound, "account not found")
	case errors.Is(err, auth.ErrCompanyNotFound):
		writeFailure(w, http.StatusNotFound, codeCompanyNotFound, "company not found")
	case errors.Is(err, auth.ErrCompanyNotApproved):
		writeFailure(w, http.StatusConflict, codeCompanyNotApproved, "company is not approved")
	case errors.Is(err, auth.ErrInvalidInput):
		writeFailure(w, http.StatusBadRequest, codeBadRequest, "invalid request")
	default:
		writeFailure(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
