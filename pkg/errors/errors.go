package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	ErrRaggedTable        = errors.New("ragged table: column lengths differ")
	ErrEmptyTable         = errors.New("table has no columns")
	ErrColumnNotFound     = errors.New("column not found")
	ErrInvalidEpsilon     = errors.New("epsilon must be positive")
	ErrInvalidDelta       = errors.New("delta must be in [0, 1)")
	ErrUnknownMechanism   = errors.New("unknown privacy mechanism")
	ErrInsufficientData   = errors.New("insufficient rows for a stable estimate")
	ErrMissingTarget      = errors.New("target column missing")
	ErrUnsupportedPIIType = errors.New("unsupported PII type")
	ErrGenerationFailed   = errors.New("synthetic data generation failed")
	ErrModelNotTrained    = errors.New("generator model has not been trained")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeSchema           ErrorType = "schema"
	ErrorTypeBudget           ErrorType = "budget"
	ErrorTypeValidationInput  ErrorType = "validation_input"
	ErrorTypeInsufficientData ErrorType = "insufficient_data"
	ErrorTypePII              ErrorType = "pii"
	ErrorTypeGeneration       ErrorType = "generation"
	ErrorTypeConfiguration    ErrorType = "configuration"
	ErrorTypeInternal         ErrorType = "internal"
)

// AppError is an application error carrying enough structured detail for the
// embedding API layer to render an actionable message.
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewSchemaError creates a schema error. Schema errors are fatal to the whole
// classification call; the table is never partially classified.
func NewSchemaError(code, message string) *AppError {
	return NewAppError(ErrorTypeSchema, code, message)
}

// NewInvalidBudgetError creates a privacy budget error. Budget errors are
// raised before any noise is computed so a half-applied budget never exists.
func NewInvalidBudgetError(code, message string) *AppError {
	return NewAppError(ErrorTypeBudget, code, message)
}

// NewValidationInputError creates an error scoped to one validation call.
func NewValidationInputError(code, message string) *AppError {
	return NewAppError(ErrorTypeValidationInput, code, message)
}

// NewInsufficientDataError creates an error for datasets too small to score.
func NewInsufficientDataError(code, message string) *AppError {
	return NewAppError(ErrorTypeInsufficientData, code, message)
}

// NewUnsupportedPIITypeError creates a non-fatal per-column error. Callers
// record it as a warning and continue with the remaining columns.
func NewUnsupportedPIITypeError(code, message string) *AppError {
	return NewAppError(ErrorTypePII, code, message)
}

// NewGenerationError creates a generation error
func NewGenerationError(code, message string) *AppError {
	return NewAppError(ErrorTypeGeneration, code, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, CodeInternalError, message)
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Error codes for different error scenarios
const (
	// Schema error codes
	CodeRaggedTable    = "RAGGED_TABLE"
	CodeEmptyTable     = "EMPTY_TABLE"
	CodeColumnNotFound = "COLUMN_NOT_FOUND"
	CodeKindMismatch   = "KIND_MISMATCH"

	// Budget error codes
	CodeInvalidEpsilon   = "INVALID_EPSILON"
	CodeInvalidDelta     = "INVALID_DELTA"
	CodeUnknownMechanism = "UNKNOWN_MECHANISM"
	CodeNoTargetColumns  = "NO_TARGET_COLUMNS"

	// Validation error codes
	CodeMissingTarget    = "MISSING_TARGET_COLUMN"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeInvalidTaskType  = "INVALID_TASK_TYPE"
	CodeNoCommonColumns  = "NO_COMMON_COLUMNS"
	CodeInvalidK         = "INVALID_K"

	// PII error codes
	CodeUnsupportedPIIType = "UNSUPPORTED_PII_TYPE"
	CodeUnknownLocale      = "UNKNOWN_LOCALE"

	// Advisor error codes
	CodeUnknownUseCase     = "UNKNOWN_USE_CASE"
	CodeUnknownSensitivity = "UNKNOWN_SENSITIVITY"

	// Generation error codes
	CodeGenerationFailed = "GENERATION_FAILED"
	CodeModelNotTrained  = "MODEL_NOT_TRAINED"
	CodeInvalidRowCount  = "INVALID_ROW_COUNT"

	// Internal error codes
	CodeInternalError = "INTERNAL_ERROR"
)
