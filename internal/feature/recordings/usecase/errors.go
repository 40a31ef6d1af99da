// Package usecase implements the business logic for the recordings feature.
package usecase

import "errors"

var (
	// ErrRecordingNotFound is returned when no recording has the given ID.
	ErrRecordingNotFound = errors.New("recording not found")

	// ErrTitleAndFileRequired is returned when a recording is created without a title or file.
	ErrTitleAndFileRequired = errors.New("title and file are required")

	// ErrTitleEmpty is returned when an update sets the title to an empty string.
	ErrTitleEmpty = errors.New("title must not be empty")

	// ErrStorageNotConfigured is returned when the object storage bucket is not configured.
	ErrStorageNotConfigured = errors.New("object storage bucket not configured")
)
