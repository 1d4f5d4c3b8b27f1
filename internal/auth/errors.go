package auth

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the given username.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAccountDisabled is returned when the account exists but is inactive.
	ErrUserAccountDisabled = errors.New("user account is disabled")
	// ErrInvalidPassword is returned when password verification fails.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidOldPassword is returned when the old password does not match on change.
	ErrInvalidOldPassword = errors.New("invalid old password")
	// ErrUserNameOrEmailExists is returned when creating a user with a taken username or email.
	ErrUserNameOrEmailExists = errors.New("username or email already exists")
)
