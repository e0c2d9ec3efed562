package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users(context.Context) UserStore        { return &userStore{db: s.db} }
func (s *PGStore) Companies(context.Context) CompanyStore { return &companyStore{db: s.db} }

func (s *PGStore) CreateCompanyWithAdmin(ctx context.Context, company *Company, admin *User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin company signup: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`insert into companies(name, slug, business_number, status)
		 values($1,$2,$3,$4)
		 returning id, created_at, updated_at`,
		company.Name, company.Slug, company.BusinessNumber, string(company.Status),
	)
	if err := row.Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt); err != nil {
		return fmt.Errorf("insert company: %w", err)
	}

	admin.CompanyID = &company.ID
	row = tx.QueryRowContext(ctx,
		`insert into users(company_id, email, password_hash, name, phone, role, status)
		 values($1,$2,$3,$4,$5,$6,$7)
		 returning id, created_at, updated_at`,
		admin.CompanyID, admin.Email, admin.PasswordHash, admin.Name, admin.Phone,
		string(admin.Role), string(admin.Status),
	)
	if err := row.Scan(&admin.ID, &admin.CreatedAt, &admin.UpdatedAt); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}

	return tx.Commit()
}

// User store ---------------------------------------------------------------

type userStore struct{ db *sql.DB }

const userColumns = `id, company_id, email, password_hash, name, phone, role, status, created_at, updated_at`

func (s *userStore) Create(ctx context.Context, u *User) error {
	row := s.db.QueryRowContext(ctx,
		`insert into users(company_id, email, password_hash, name, phone, role, status)
		 values($1,$2,$3,$4,$5,$6,$7)
		 returning id, created_at, updated_at`,
		u.CompanyID, u.Email, u.PasswordHash, u.Name, u.Phone, string(u.Role), string(u.Status),
	)
	return row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (s *userStore) Find(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1 and deleted_at is null`, id)
	return scanUser(row)
}

func (s *userStore) FindByEmailAndCompany(ctx context.Context, email string, companyID *int64) (*User, error) {
	var row *sql.Row
	if companyID == nil {
		row = s.db.QueryRowContext(ctx,
			`select `+userColumns+` from users where email=$1 and company_id is null and deleted_at is null`,
			email)
	} else {
		row = s.db.QueryRowContext(ctx,
			`select `+userColumns+` from users where email=$1 and company_id=$2 and deleted_at is null`,
			email, *companyID)
	}
	return scanUser(row)
}

func (s *userStore) FindByPhone(ctx context.Context, phone string) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users where phone=$1 and deleted_at is null order by created_at`,
		phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *userStore) ExistsByEmailAndCompany(ctx context.Context, email string, companyID *int64) (bool, error) {
	var exists bool
	var err error
	if companyID == nil {
		err = s.db.QueryRowContext(ctx,
			`select exists(select 1 from users where email=$1 and company_id is null and deleted_at is null)`,
			email).Scan(&exists)
	} else {
		err = s.db.QueryRowContext(ctx,
			`select exists(select 1 from users where email=$1 and company_id=$2 and deleted_at is null)`,
			email, *companyID).Scan(&exists)
	}
	return exists, err
}

func (s *userStore) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash=$1, updated_at=now() where id=$2 and deleted_at is null`,
		passwordHash, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	u, err := scanUserRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return u, nil
}

func scanUserRows(row rowScanner) (*User, error) {
	var (
		u    User
		role string
		stat string
	)
	if err := row.Scan(&u.ID, &u.CompanyID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone,
		&role, &stat, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = Role(role)
	u.Status = Status(stat)
	return &u, nil
}

// Company store ------------------------------------------------------------

type companyStore struct{ db *sql.DB }

func (s *companyStore) Find(ctx context.Context, id int64) (*Company, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, slug, business_number, status, created_at, updated_at
		 from companies where id=$1 and deleted_at is null`, id)
	var (
		c    Company
		stat string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.BusinessNumber, &stat, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	c.Status = CompanyStatus(stat)
	return &c, nil
}

func (s *companyStore) ExistsByBusinessNumber(ctx context.Context, businessNumber string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from companies where business_number=$1 and deleted_at is null)`,
		businessNumber).Scan(&exists)
	return exists, err
}

func (s *companyStore) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from companies where slug=$1 and deleted_at is null)`,
		slug).Scan(&exists)
	return exists, err
}
