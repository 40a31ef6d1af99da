// Package usecase implements the business logic for the tags feature.
package usecase

import "errors"

var (
	// ErrTagNotFound is returned when no tag has the given ID.
	ErrTagNotFound = errors.New("tag not found")

	// ErrTagNameTaken is returned when another tag already uses the name.
	ErrTagNameTaken = errors.New("tag name already exists")

	// ErrTagNameRequired is returned when the name is empty after trimming.
	ErrTagNameRequired = errors.New("tag name is required")
)
