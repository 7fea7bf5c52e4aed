package apperror

import (
	"errors"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Status  int          `json:"-"`
	Code    string       `json:"code"`
	Message string       `json:"error"`
	Errors  []FieldError `json:"errors,omitempty"`
	Err     error        `json:"-"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches errors by code so customised messages still compare equal to
// the sentinel they were derived from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Validation reports whether the error rejects the request as invalid input.
func (e *AppError) Validation() bool {
	return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
}

// Error codes
const (
	CodeEmptyOrder                 = "EMPTY_ORDER"
	CodeMissingPaymentMethod       = "MISSING_PAYMENT_METHOD"
	CodeInvalidLineItem            = "INVALID_LINE_ITEM"
	CodeProductNotFound            = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock          = "INSUFFICIENT_STOCK"
	CodePackagingNotFound          = "PACKAGING_NOT_FOUND"
	CodeInsufficientPackagingStock = "INSUFFICIENT_PACKAGING_STOCK"
	CodeUnknownPackagingType       = "UNKNOWN_PACKAGING_TYPE"
	CodeInvalidInstallmentCount    = "INVALID_INSTALLMENT_COUNT"
	CodeSaleNotFound               = "SALE_NOT_FOUND"
	CodeNotFound                   = "NOT_FOUND"
	CodeBadRequest                 = "BAD_REQUEST"
	CodeValidation                 = "VALIDATION_FAILED"
	CodeConflict                   = "CONFLICT"
	CodeStorageFailure             = "STORAGE_FAILURE"
	CodeRateLimited                = "RATE_LIMITED"
	CodePayloadTooLarge            = "PAYLOAD_TOO_LARGE"
	CodeInternal                   = "INTERNAL"
)

// Sale processing errors
var (
	ErrEmptyOrder                 = &AppError{Status: http.StatusBadRequest, Code: CodeEmptyOrder, Message: "Sale items are required"}
	ErrMissingPaymentMethod       = &AppError{Status: http.StatusBadRequest, Code: CodeMissingPaymentMethod, Message: "Payment method is required"}
	ErrInvalidLineItem            = &AppError{Status: http.StatusBadRequest, Code: CodeInvalidLineItem, Message: "Invalid sale item"}
	ErrProductNotFound            = &AppError{Status: http.StatusBadRequest, Code: CodeProductNotFound, Message: "Product not found"}
	ErrInsufficientStock          = &AppError{Status: http.StatusBadRequest, Code: CodeInsufficientStock, Message: "Insufficient stock"}
	ErrPackagingNotFound          = &AppError{Status: http.StatusBadRequest, Code: CodePackagingNotFound, Message: "Packaging not found"}
	ErrInsufficientPackagingStock = &AppError{Status: http.StatusBadRequest, Code: CodeInsufficientPackagingStock, Message: "Insufficient packaging stock"}
	ErrUnknownPackagingType       = &AppError{Status: http.StatusBadRequest, Code: CodeUnknownPackagingType, Message: "Unknown packaging type"}
	ErrInvalidInstallmentCount    = &AppError{Status: http.StatusBadRequest, Code: CodeInvalidInstallmentCount, Message: "Invalid installment count"}
	ErrSaleNotFound               = &AppError{Status: http.StatusNotFound, Code: CodeSaleNotFound, Message: "Sale not found"}
)

// Common errors
var (
	ErrNotFound        = &AppError{Status: http.StatusNotFound, Code: CodeNotFound, Message: "Resource not found"}
	ErrBadRequest      = &AppError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: "Bad request"}
	ErrConflict        = &AppError{Status: http.StatusConflict, Code: CodeConflict, Message: "Resource already exists"}
	ErrPayloadTooLarge = &AppError{Status: http.StatusRequestEntityTooLarge, Code: CodePayloadTooLarge, Message: "Request body too large"}
	ErrStorageFailure  = &AppError{Status: http.StatusInternalServerError, Code: CodeStorageFailure, Message: "Storage failure"}
	ErrInternalServer  = &AppError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Internal server error"}
)

// WithMessage returns a copy of e carrying a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

// NewAppError creates a new application error
func NewAppError(status int, code, message string) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Status:  http.StatusNotFound,
		Code:    CodeNotFound,
		Message: resource + " not found",
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    CodeBadRequest,
		Message: message,
	}
}

// NewStorageError wraps a data-store failure. Already classified errors are
// returned untouched.
func NewStorageError(err error) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return err
	}
	return &AppError{
		Status:  http.StatusInternalServerError,
		Code:    CodeStorageFailure,
		Message: ErrStorageFailure.Message,
		Err:     err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: ErrInternalServer.Message,
		Err:     err,
	}
}
