package errors

import (
	"log/slog"
	"maps"
	"net/http"
	"slices"
)

// ErrorCategory is the broad kind of a failure. It decides the HTTP status
// and process exit code an error maps to.
type ErrorCategory string

const (
	// User input and project configuration.
	CategoryConfig        ErrorCategory = "config"
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryAlreadyExists ErrorCategory = "already_exists"

	// External systems.
	CategoryNetwork ErrorCategory = "network"
	CategoryGit     ErrorCategory = "git"

	// Scanning, compiling and writing sites.
	CategoryDocs       ErrorCategory = "docs"
	CategoryPreview    ErrorCategory = "preview"
	CategoryCompile    ErrorCategory = "compile"
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryStorage    ErrorCategory = "storage"

	// Serving.
	CategoryRuntime  ErrorCategory = "runtime"
	CategorySandbox  ErrorCategory = "sandbox"
	CategoryInternal ErrorCategory = "internal"
)

// presentation is how one category surfaces to HTTP clients and the shell.
type presentation struct {
	status int
	exit   int
}

var presentations = map[ErrorCategory]presentation{
	CategoryConfig:        {http.StatusBadRequest, 7},
	CategoryValidation:    {http.StatusBadRequest, 2},
	CategoryNotFound:      {http.StatusNotFound, 4},
	CategoryAlreadyExists: {http.StatusConflict, 5},
	CategoryNetwork:       {http.StatusBadGateway, 8},
	CategoryGit:           {http.StatusBadGateway, 8},
	CategoryDocs:          {http.StatusUnprocessableEntity, 11},
	CategoryPreview:       {http.StatusUnprocessableEntity, 11},
	CategoryCompile:       {http.StatusUnprocessableEntity, 11},
	CategoryBuild:         {http.StatusUnprocessableEntity, 11},
	CategoryFileSystem:    {http.StatusInternalServerError, 11},
	CategoryStorage:       {http.StatusInternalServerError, 11},
	CategoryRuntime:       {http.StatusServiceUnavailable, 12},
	CategorySandbox:       {http.StatusServiceUnavailable, 12},
	CategoryInternal:      {http.StatusInternalServerError, 10},
}

func presentationOf(c ErrorCategory) presentation {
	if p, ok := presentations[c]; ok {
		return p
	}
	return presentation{status: http.StatusInternalServerError, exit: 1}
}

// ErrorSeverity indicates the impact level of an error. It selects the log level.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the command
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Caller input was wrong
	SeverityInfo    ErrorSeverity = "info"    // Expected outcome, e.g. an unknown route
)

func (s ErrorSeverity) level() slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// ErrorContext holds structured details such as the preview or route involved.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Attrs returns the context as log attributes in key order.
func (c ErrorContext) Attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(c))
	for _, k := range slices.Sorted(maps.Keys(c)) {
		attrs = append(attrs, slog.Any(k, c[k]))
	}
	return attrs
}
