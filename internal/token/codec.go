// Package token signs and verifies the platform's compact access and refresh
// credentials. The codec is pure: no I/O, no shared mutable state, a single
// symmetric secret fixed at construction.
package token

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the single failure surfaced by Verify. Malformed
// structure, signature mismatch and expiry all collapse into it so callers
// cannot tell a forged token from a stale one.
var ErrInvalidToken = errors.New("token: invalid token")

// Kind distinguishes the two credentials the platform mints.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

const (
	claimUserID    = "userId"
	claimRole      = "role"
	claimCompanyID = "companyId"
	claimKind      = "tkn"
)

// Claims is the decoded, normalized content of a verified token.
type Claims struct {
	UserID    int64
	Email     string // subject
	Role      string // empty on refresh tokens
	CompanyID *int64 // nil for SUPER accounts and on refresh tokens
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies tokens with a shared HS256 secret. Immutable after
// construction; safe for concurrent use.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

// Option configures Codec behavior.
type Option func(*Codec)

// WithIssuer sets the iss claim stamped on minted tokens.
func WithIssuer(issuer string) Option {
	return func(c *Codec) { c.issuer = strings.TrimSpace(issuer) }
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec. The secret and validity windows come from
// configuration resolved at process start.
func NewCodec(secret []byte, accessTTL, refreshTTL time.Duration, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: signing secret is required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token: validity must be greater than zero")
	}
	c := &Codec{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SignAccess mints a short-lived access token carrying the full authorization
// snapshot: user id, role and tenant. companyID is omitted when nil.
func (c *Codec) SignAccess(userID int64, email, role string, companyID *int64) (string, time.Time, error) {
	claims := jwt.MapClaims{
		claimUserID: userID,
		claimRole:   role,
	}
	if companyID != nil {
		claims[claimCompanyID] = *companyID
	}
	return c.sign(claims, email, KindAccess, c.accessTTL)
}

// SignRefresh mints a long-lived refresh token. It carries only enough to
// re-identify the account: role and tenant deliberately stay out, so a role
// change takes effect on the next refresh.
func (c *Codec) SignRefresh(userID int64, email string) (string, time.Time, error) {
	claims := jwt.MapClaims{
		claimUserID: userID,
	}
	return c.sign(claims, email, KindRefresh, c.refreshTTL)
}

func (c *Codec) sign(claims jwt.MapClaims, subject string, kind Kind, validity time.Duration) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, errors.New("token: subject is required")
	}
	now := c.now().UTC()
	exp := now.Add(validity)

	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(exp)
	claims["jti"] = uuid.NewString()
	claims[claimKind] = string(kind)
	if c.issuer != "" {
		claims["iss"] = c.issuer
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature integrity and expiry, then decodes the claims. Any
// failure returns ErrInvalidToken: callers that want a softer UX (silent
// refresh) must treat all verification failures identically.
func (c *Codec) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}

	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(c.now))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	return c.extract(mapClaims)
}

func (c *Codec) extract(mc jwt.MapClaims) (Claims, error) {
	sub, _ := mc["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return Claims{}, ErrInvalidToken
	}
	if c.issuer != "" {
		if iss, _ := mc["iss"].(string); iss != c.issuer {
			return Claims{}, ErrInvalidToken
		}
	}

	out := Claims{Email: sub}

	kind, _ := mc[claimKind].(string)
	switch Kind(kind) {
	case KindAccess, KindRefresh:
		out.Kind = Kind(kind)
	default:
		return Claims{}, ErrInvalidToken
	}

	userID, ok := toInt64(mc[claimUserID])
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	out.UserID = userID

	if role, ok := mc[claimRole].(string); ok {
		out.Role = role
	}
	if id, ok := toInt64(mc[claimCompanyID]); ok {
		out.CompanyID = &id
	}
	if exp, ok := toInt64(mc["exp"]); ok {
		out.ExpiresAt = time.Unix(exp, 0).UTC()
	}
	if iat, ok := toInt64(mc["iat"]); ok {
		out.IssuedAt = time.Unix(iat, 0).UTC()
	}
	if out.Kind == KindAccess && out.Role == "" {
		return Claims{}, ErrInvalidToken
	}
	return out, nil
}

// toInt64 normalizes a numeric claim regardless of the JSON decoding path.
// Identity claims arrive as float64 from encoding/json and may be json.Number
// or native integers when minted in-process.
func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case int64:
		return t, true
	case int:
		return int64(t), true
	default:
		return 0, false
	}
}
