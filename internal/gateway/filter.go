package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"unibooker.org/internal/auth"
	"unibooker.org/internal/obs"
	"unibooker.org/internal/token"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "

	headerUserID    = "X-User-Id"
	headerUserEmail = "X-User-Email"
	headerUserRole  = "X-User-Role"
	headerCompanyID = "X-Company-Id"
)

// ErrMissingToken indicates no credential was found in the request. It is
// distinguished from token.ErrInvalidToken internally only; both produce the
// identical 401 response.
var ErrMissingToken = errors.New("gateway: missing token")

// Filter is the per-request gatekeeper. It holds only immutable state fixed at
// startup, so concurrent requests need no synchronization.
type Filter struct {
	codec      *token.Codec
	classifier *Classifier
}

// NewFilter constructs the filter with fully resolved dependencies. Nothing is
// assigned after construction.
func NewFilter(codec *token.Codec, classifier *Classifier) *Filter {
	return &Filter{codec: codec, classifier: classifier}
}

// Handler wraps next with classification, extraction, verification and
// enrichment. Verification is pure and performs no I/O; the filter never
// retries and never forwards a request it cannot verify.
func (f *Filter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule, matched := f.classifier.Classify(r.URL.Path)
		if matched && rule.Public {
			obs.AuthDecision("bypass")
			next.ServeHTTP(w, r)
			return
		}

		raw, err := extractToken(r, rule.RoleHint)
		if err != nil {
			f.deny(w, r, "missing_token")
			return
		}

		claims, err := f.codec.Verify(raw)
		if err != nil || claims.Kind != token.KindAccess {
			f.deny(w, r, "invalid_token")
			return
		}

		principal := principalFromClaims(claims)
		fwd := enrich(r, principal)

		obs.AuthDecision("allow")
		obs.LogRequest(map[string]any{
			"level":   "info",
			"msg":     "auth_allow",
			"path":    r.URL.Path,
			"user_id": principal.UserID,
			"role":    string(principal.Role),
		})
		next.ServeHTTP(w, fwd)
	})
}

// deny logs the internal rejection kind and writes the uniform 401 body. The
// response is identical for missing and invalid credentials so an attacker
// cannot distinguish an expired token from a forged one.
func (f *Filter) deny(w http.ResponseWriter, r *http.Request, reason string) {
	obs.AuthDecision("deny_" + reason)
	obs.LogRequest(map[string]any{
		"level":  "warn",
		"msg":    "auth_deny",
		"path":   r.URL.Path,
		"reason": reason,
	})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    50000,
		"message": "authentication required",
	})
}

// extractToken looks for a bearer credential in the Authorization header
// first, then falls back to role-partitioned cookies. With a role hint only
// that role's cookie is consulted; absence is a hard miss, never a fallback
// scan. Without a hint the known cookie names are scanned in fixed priority
// order and the first present wins.
func extractToken(r *http.Request, hint auth.Role) (string, error) {
	if header := strings.TrimSpace(r.Header.Get(authHeader)); header != "" {
		if strings.HasPrefix(header, bearer) {
			if tok := strings.TrimSpace(header[len(bearer):]); tok != "" {
				return tok, nil
			}
		}
	}

	if hint != "" {
		c, err := r.Cookie(hint.CookieName())
		if err != nil || c.Value == "" {
			return "", ErrMissingToken
		}
		return c.Value, nil
	}

	for _, name := range auth.CookieScanOrder {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", ErrMissingToken
}

func principalFromClaims(claims token.Claims) auth.Principal {
	return auth.Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      auth.Role(claims.Role),
		CompanyID: claims.CompanyID,
	}
}

// enrich builds the forwarded copy of the request. The inbound request is left
// untouched; identity headers are stripped of any client-supplied values and
// replaced with the verified principal. X-Company-Id is an empty string, never
// absent, when the account has no tenant.
func enrich(r *http.Request, principal auth.Principal) *http.Request {
	fwd := r.Clone(auth.ContextWithPrincipal(r.Context(), principal))

	companyID := ""
	if principal.CompanyID != nil {
		companyID = strconv.FormatInt(*principal.CompanyID, 10)
	}
	fwd.Header.Set(headerUserID, strconv.FormatInt(principal.UserID, 10))
	fwd.Header.Set(headerUserEmail, principal.Email)
	fwd.Header.Set(headerUserRole, string(principal.Role))
	fwd.Header.Set(headerCompanyID, companyID)
	return fwd
}
