package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category with error severity.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		message:  message,
		context:  ErrorContext{},
	}}
}

// WrapError starts an error that wraps cause.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = cause
	return b
}

// WithSeverity overrides the default severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

// Build returns the error. The builder may be reused afterwards.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	out.context = make(ErrorContext, len(b.err.context))
	for k, v := range b.err.context {
		out.context[k] = v
	}
	return &out
}

// ValidationError reports bad caller input, such as a malformed order update.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).WithSeverity(SeverityWarning)
}

// NotFoundError reports an unknown page, preview or asset.
func NotFoundError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message).WithSeverity(SeverityInfo)
}

// PreviewError reports a preview that could not be discovered or loaded.
func PreviewError(message string) *ErrorBuilder {
	return NewError(CategoryPreview, message)
}

// CompileError reports previews that did not compile.
func CompileError(message string) *ErrorBuilder {
	return NewError(CategoryCompile, message)
}

// BuildError reports a production build that did not complete.
func BuildError(message string) *ErrorBuilder {
	return NewError(CategoryBuild, message).WithSeverity(SeverityFatal)
}

// InternalError reports a bug, such as a recovered panic.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).WithSeverity(SeverityFatal)
}
