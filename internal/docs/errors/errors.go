package errors

// Package errors provides sentinel errors for page discovery operations.
// These enable consistent classification and improved error handling for scan failures.

import "errors"

var (
	// ErrRootNotFound indicates the configured documentation root does not exist.
	ErrRootNotFound = errors.New("documentation root not found")

	// ErrDocsDirWalkFailed indicates filesystem traversal of the documentation root failed.
	ErrDocsDirWalkFailed = errors.New("documentation directory walk failed")

	// ErrFileReadFailed indicates reading content from a discovered page file failed.
	ErrFileReadFailed = errors.New("documentation file read failed")

	// ErrInvalidRelativePath indicates calculating a path relative to the root failed.
	ErrInvalidRelativePath = errors.New("invalid relative path calculation")

	// ErrPageNotFound indicates no page resolves to the requested route.
	ErrPageNotFound = errors.New("page not found")
)
