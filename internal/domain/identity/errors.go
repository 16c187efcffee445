package identity

import "github.com/shopfront/backend/internal/domain/shared"

var (
	// ErrUserNotFound is returned when no user matches
	ErrUserNotFound = shared.NewDomainError("USER_NOT_FOUND", "User not found")
	// ErrEmailTaken is returned when registering an email already in use
	ErrEmailTaken = shared.NewDomainError("EMAIL_TAKEN", "Email is already registered")
	// ErrInvalidCredentials covers both unknown emails and wrong passwords
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
)
