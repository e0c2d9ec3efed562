package auth

import (
	"fmt"
	"strings"
)

// Role identifies the privilege level of an account.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
	RoleSuper   Role = "SUPER"
)

// ParseRole normalizes and validates a role identifier.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch role {
	case RoleUser, RoleManager, RoleAdmin, RoleSuper:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin, RoleSuper:
		return true
	}
	return false
}

// CookieName returns the access-token cookie owned by this role. Cookies are
// partitioned per role so one browser session can hold concurrent USER, ADMIN
// and SUPER logins. ADMIN and MANAGER share a cookie: managers sign in through
// the admin surface.
func (r Role) CookieName() string {
	switch r {
	case RoleManager:
		return CookieNameAdmin
	case RoleAdmin:
		return CookieNameAdmin
	case RoleSuper:
		return CookieNameSuper
	default:
		return CookieNameUser
	}
}

const (
	CookieNameUser  = "ub_access_user"
	CookieNameAdmin = "ub_access_admin"
	CookieNameSuper = "ub_access_super"
)

// CookieScanOrder is the fixed priority used when a path carries no role hint
// and several role cookies are present. The order is part of the external
// contract: repeated identical requests resolve the same credential.
var CookieScanOrder = []string{CookieNameUser, CookieNameAdmin, CookieNameSuper}

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusDeleted   Status = "DELETED"
	StatusPending   Status = "PENDING"
)

// CompanyStatus is the lifecycle state of a tenant company.
type CompanyStatus string

const (
	CompanyPending   CompanyStatus = "PENDING"
	CompanyApproved  CompanyStatus = "APPROVED"
	CompanyRejected  CompanyStatus = "REJECTED"
	CompanySuspended CompanyStatus = "SUSPENDED"
)
