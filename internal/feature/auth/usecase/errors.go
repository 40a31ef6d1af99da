// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by email, ID or token.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when attempting to create a user with an email that already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned for both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailNotVerified is returned when the credentials match an unverified account.
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrVerificationTokenRequired is returned when the verification token is empty.
	ErrVerificationTokenRequired = errors.New("verification token is required")

	// ErrVerificationTokenNotFound is returned when no user holds the verification token.
	ErrVerificationTokenNotFound = errors.New("verification token not found")

	// ErrVerificationTokenExpired is returned when the verification token is past its expiry.
	ErrVerificationTokenExpired = errors.New("verification token has expired")

	// ErrInvalidResetToken is returned for unknown and expired reset tokens alike.
	ErrInvalidResetToken = errors.New("invalid or expired password reset token")

	// ErrPasswordTooShort is returned when a password is below the minimum length.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
)
