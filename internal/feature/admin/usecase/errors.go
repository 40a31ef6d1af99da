// Package usecase implements admin user management.
package usecase

import "errors"

var (
	// ErrInvalidRole is returned when an update names an unknown role.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidPlan is returned when an update names an unknown plan.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrEmptyEmail is returned when an update sets the email to an empty string.
	ErrEmptyEmail = errors.New("email must not be empty")
)
