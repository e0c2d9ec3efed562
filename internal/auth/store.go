package auth

import "context"

// Store describes persistence operations required by the identity service.
// The edge never touches it; token verification needs no storage.
type Store interface {
	Users(ctx context.Context) UserStore
	Companies(ctx context.Context) CompanyStore

	// CreateCompanyWithAdmin atomically creates a pending company together
	// with its first admin account. The admin's CompanyID is populated from
	// the freshly created company.
	CreateCompanyWithAdmin(ctx context.Context, company *Company, admin *User) error
}

// UserStore manages accounts. Lookups honor soft deletes.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id int64) (*User, error)
	// FindByEmailAndCompany resolves an account within its tenant scope.
	// companyID is nil for SUPER accounts, which carry no tenant.
	FindByEmailAndCompany(ctx context.Context, email string, companyID *int64) (*User, error)
	FindByPhone(ctx context.Context, phone string) ([]*User, error)
	ExistsByEmailAndCompany(ctx context.Context, email string, companyID *int64) (bool, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// CompanyStore manages tenant companies.
type CompanyStore interface {
	Find(ctx context.Context, id int64) (*Company, error)
	ExistsByBusinessNumber(ctx context.Context, businessNumber string) (bool, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}
