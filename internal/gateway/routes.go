// Package gateway implements the request-boundary gatekeeper: path
// classification, credential extraction, token verification and request
// enrichment in front of every backend service.
package gateway

import (
	"sort"
	"strings"

	"unibooker.org/internal/auth"
)

// Rule maps a path prefix to its authentication requirements. RoleHint, when
// set, names the single role cookie consulted for the path.
type Rule struct {
	Prefix   string
	Public   bool
	RoleHint auth.Role
}

// Classifier matches request paths against a static rule table. Built once at
// startup, immutable, read-only for the process lifetime.
type Classifier struct {
	rules []Rule
}

// NewClassifier orders rules by descending prefix length so the most specific
// rule wins: /api/users/check-email (public) shadows /api/users (protected).
func NewClassifier(rules []Rule) *Classifier {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Prefix) > len(ordered[j].Prefix)
	})
	return &Classifier{rules: ordered}
}

// Classify returns the most specific rule whose prefix matches the path.
// Unmatched paths report ok=false; the filter treats them as protected with
// no role hint (fail-closed).
func (c *Classifier) Classify(path string) (Rule, bool) {
	for _, rule := range c.rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return Rule{}, false
}

// DefaultRules is the platform route table. Public entries cover the
// authentication endpoints themselves plus health checks; role hints bind
// each audience's path space to its cookie.
func DefaultRules() []Rule {
	return []Rule{
		// Authentication endpoints, reachable without a credential. Sessions
		// live under /api/auth; the account-recovery helpers stay on the
		// users surface.
		{Prefix: "/api/auth/", Public: true},
		{Prefix: "/api/users/check-email", Public: true},
		{Prefix: "/api/users/find-email", Public: true},
		{Prefix: "/api/users/reset-password", Public: true},
		{Prefix: "/healthz", Public: true},

		// Role-restricted path spaces. MANAGER shares the admin surface.
		{Prefix: "/api/users", RoleHint: auth.RoleUser},
		{Prefix: "/api/admins", RoleHint: auth.RoleAdmin},
		{Prefix: "/api/managers", RoleHint: auth.RoleAdmin},
		{Prefix: "/api/super", RoleHint: auth.RoleSuper},

		// Generic API paths: protected, no hint, cookie priority scan applies.
		{Prefix: "/api/companies"},
		{Prefix: "/api/notifications"},
		{Prefix: "/api/resources"},
		{Prefix: "/api/resource-groups"},
		{Prefix: "/api/resource-time-slots"},
	}
}
