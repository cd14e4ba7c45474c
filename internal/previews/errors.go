package previews

import "errors"

var (
	// ErrInvalidName indicates a preview name that is empty or escapes the previews root.
	ErrInvalidName = errors.New("invalid preview name")

	// ErrPreviewNotFound indicates no preview folder exists for the name.
	ErrPreviewNotFound = errors.New("preview not found")

	// ErrNoEntry indicates a preview folder without any compilable entry file.
	ErrNoEntry = errors.New("preview has no entry file")

	// ErrPreviewsWalkFailed indicates traversal of the previews directory failed.
	ErrPreviewsWalkFailed = errors.New("previews directory walk failed")
)
