package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"unibooker.org/internal/token"
)

// Mailer delivers account-recovery mail. Rendering and transport live outside
// the auth layer; tests and local runs use NopMailer.
type Mailer interface {
	SendTemporaryPassword(ctx context.Context, email, temporaryPassword string) error
}

// NopMailer discards outgoing mail.
type NopMailer struct{}

func (NopMailer) SendTemporaryPassword(context.Context, string, string) error { return nil }

// Service orchestrates login, signup and refresh for the identity service.
// It consults the credential store and the token codec; it never talks to the
// edge, and the edge never talks to it on the request hot path.
type Service struct {
	store  Store
	codec  *token.Codec
	mailer Mailer
}

// Option configures Service behavior.
type Option func(*Service)

// WithMailer overrides the mail collaborator.
func WithMailer(m Mailer) Option {
	return func(s *Service) {
		if m != nil {
			s.mailer = m
		}
	}
}

// NewService constructs the session issuer. All dependencies are resolved
// before construction; nothing is mutated afterwards.
func NewService(store Store, codec *token.Codec, opts ...Option) *Service {
	svc := &Service{
		store:  store,
		codec:  codec,
		mailer: NopMailer{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Login authenticates credentials and mints a token pair. companyID is
// required for non-SUPER accounts and must be nil for SUPER logins.
func (s *Service) Login(ctx context.Context, email, password string, companyID *int64) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.store.Users(ctx).FindByEmailAndCompany(ctx, email, companyID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if user.Status != StatusActive {
		return Session{}, ErrInactiveAccount
	}
	return s.mint(user)
}

// SignUpInput is a self-service user registration bound to an existing company.
type SignUpInput struct {
	Email     string
	Password  string
	Name      string
	Phone     string
	CompanyID int64
}

// SignUp registers a USER account under an approved company.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (Identity, error) {
	input.Email = normalizeEmail(input.Email)
	if input.Email == "" || input.Password == "" || input.Name == "" {
		return Identity{}, ErrInvalidInput
	}

	company, err := s.store.Companies(ctx).Find(ctx, input.CompanyID)
	if err != nil {
		return Identity{}, err
	}
	if company.Status != CompanyApproved {
		return Identity{}, ErrCompanyNotApproved
	}

	exists, err := s.store.Users(ctx).ExistsByEmailAndCompany(ctx, input.Email, &input.CompanyID)
	if err != nil {
		return Identity{}, err
	}
	if exists {
		return Identity{}, ErrDuplicateEmail
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user := &User{
		CompanyID:    &input.CompanyID,
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		Phone:        input.Phone,
		Role:         RoleUser,
		Status:       StatusActive,
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return Identity{}, err
	}
	return identityOf(user), nil
}

// AdminSignUpInput registers a new company along with its first admin.
type AdminSignUpInput struct {
	Email          string
	Password       string
	Name           string
	Phone          string
	BusinessNumber string
	CompanyName    string
	CompanySlug    string
}

// AdminSignUp atomically creates a PENDING company plus its first ADMIN
// account. The company stays pending until platform approval; the admin can
// log in but the gateway routes for their tenant stay dormant until then.
func (s *Service) AdminSignUp(ctx context.Context, input AdminSignUpInput) (Identity, error) {
	input.Email = normalizeEmail(input.Email)
	if input.Email == "" || input.Password == "" || input.CompanyName == "" ||
		input.BusinessNumber == "" || input.CompanySlug == "" {
		return Identity{}, ErrInvalidInput
	}

	companies := s.store.Companies(ctx)
	taken, err := companies.ExistsByBusinessNumber(ctx, input.BusinessNumber)
	if err != nil {
		return Identity{}, err
	}
	if taken {
		return Identity{}, ErrDuplicateBusinessNumber
	}
	taken, err = companies.ExistsBySlug(ctx, input.CompanySlug)
	if err != nil {
		return Identity{}, err
	}
	if taken {
		return Identity{}, ErrDuplicateSlug
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	company := &Company{
		Name:           input.CompanyName,
		Slug:           input.CompanySlug,
		BusinessNumber: input.BusinessNumber,
		Status:         CompanyPending,
	}
	admin := &User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		Phone:        input.Phone,
		Role:         RoleAdmin,
		Status:       StatusActive,
	}
	if err := s.store.CreateCompanyWithAdmin(ctx, company, admin); err != nil {
		return Identity{}, err
	}
	return identityOf(admin), nil
}

// Refresh verifies a refresh token and mints a new pair from the account's
// current state. A role change since issuance takes effect here: refresh
// tokens never carry role or tenant, so both are re-read from the store.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return Session{}, token.ErrInvalidToken
	}
	if claims.Kind != token.KindRefresh {
		return Session{}, token.ErrInvalidToken
	}
	user, err := s.store.Users(ctx).Find(ctx, claims.UserID)
	if err != nil {
		return Session{}, err
	}
	if user.Status != StatusActive {
		return Session{}, ErrInactiveAccount
	}
	return s.mint(user)
}

// CheckEmail reports whether an email is still available within a company.
func (s *Service) CheckEmail(ctx context.Context, email string, companyID *int64) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, ErrInvalidInput
	}
	exists, err := s.store.Users(ctx).ExistsByEmailAndCompany(ctx, email, companyID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// FindEmail returns the masked emails of accounts registered with the phone
// number. Full addresses are never disclosed on this public endpoint.
func (s *Service) FindEmail(ctx context.Context, phone string) ([]string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrInvalidInput
	}
	users, err := s.store.Users(ctx).FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	masked := make([]string, 0, len(users))
	for _, u := range users {
		masked = append(masked, maskEmail(u.Email))
	}
	return masked, nil
}

// ResetPassword replaces the account's password with a generated temporary one
// and hands it to the mail collaborator for delivery.
func (s *Service) ResetPassword(ctx context.Context, email string, companyID *int64) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}
	user, err := s.store.Users(ctx).FindByEmailAndCompany(ctx, email, companyID)
	if err != nil {
		return err
	}
	temporary, err := GenerateTemporaryPassword()
	if err != nil {
		return err
	}
	hash, err := HashPassword(temporary)
	if err != nil {
		return err
	}
	if err := s.store.Users(ctx).UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	return s.mailer.SendTemporaryPassword(ctx, user.Email, temporary)
}

func (s *Service) mint(u *User) (Session, error) {
	access, accessExp, err := s.codec.SignAccess(u.ID, u.Email, string(u.Role), u.CompanyID)
	if err != nil {
		return Session{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := s.codec.SignRefresh(u.ID, u.Email)
	if err != nil {
		return Session{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return Session{
		TokenPair: TokenPair{
			AccessToken:      access,
			RefreshToken:     refresh,
			AccessExpiresAt:  accessExp,
			RefreshExpiresAt: refreshExp,
		},
		Identity: identityOf(u),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// maskEmail keeps the first two characters of the local part: jo******@x.com.
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return email
	}
	local, domain := email[:at], email[at:]
	keep := 2
	if len(local) < keep {
		keep = len(local)
	}
	return local[:keep] + strings.Repeat("*", len(local)-keep) + domain
}
