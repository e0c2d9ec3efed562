package auth

import "errors"

var (
	ErrAccountNotFound         = errors.New("auth: account not found")
	ErrInvalidCredentials      = errors.New("auth: invalid credentials")
	ErrInactiveAccount         = errors.New("auth: account is not active")
	ErrDuplicateEmail          = errors.New("auth: email already in use")
	ErrDuplicateBusinessNumber = errors.New("auth: business number already registered")
	ErrDuplicateSlug           = errors.New("auth: company slug already in use")
	ErrCompanyNotFound         = errors.New("auth: company not found")
	ErrCompanyNotApproved      = errors.New("auth: company is not approved")
	ErrInvalidInput            = errors.New("auth: invalid input")
)
