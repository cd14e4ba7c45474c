// Package errors classifies prev's user-facing failures.
//
// A ClassifiedError carries a category that decides the HTTP status and
// exit code, a severity that decides the log level, and context such as the
// preview or route involved. Build one with NewError or WrapError:
//
//	err := errors.NewError(errors.CategoryPreview, "preview not found").
//		WithContext("preview", name).
//		Build()
//
// HTTPErrorAdapter and CLIErrorAdapter present classified errors to clients
// and the terminal.
package errors
