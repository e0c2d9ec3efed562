package auth

import "time"

// User is an account held in the identity store. CompanyID is nil only for
// SUPER accounts, which operate at platform level.
type User struct {
	ID           int64
	CompanyID    *int64
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Company is the organizational scope a non-platform account belongs to.
type Company struct {
	ID             int64
	Name           string
	Slug           string
	BusinessNumber string
	Status         CompanyStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Identity is the account summary returned alongside a freshly minted token pair.
type Identity struct {
	UserID    int64
	Email     string
	Name      string
	Role      Role
	CompanyID *int64
}

// Principal is the verified identity derived from a valid access token for the
// duration of one request. It is a point-in-time snapshot of what was true of
// the account at token issuance, not a live view.
type Principal struct {
	UserID    int64
	Email     string
	Role      Role
	CompanyID *int64
}

// TokenPair carries the two credentials minted on login and refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Session is the result of a successful login or refresh.
type Session struct {
	TokenPair
	Identity
}

func identityOf(u *User) Identity {
	return Identity{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CompanyID: u.CompanyID,
	}
}
