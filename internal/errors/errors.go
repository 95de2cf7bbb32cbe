package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError is returned when product or request input is malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on field '%s': %s", e.Field, e.Message)
}

// DuplicateError is returned when a product collides with an existing one
// on a unique field (SKU or barcode).
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("a product with %s '%s' already exists", e.Field, e.Value)
}

// NotFoundError is returned when no record matches the given key.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.Key)
}

// InsufficientStockError is returned when a sale asks for more units than
// are on hand.
type InsufficientStockError struct {
	SKU       string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.SKU, e.Requested, e.Available)
}

// NegativeStockError is returned when a stock adjustment would drive the
// on-hand quantity below zero.
type NegativeStockError struct {
	SKU      string
	Quantity int
	Delta    int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("adjustment of %+d would make stock of %s negative (current: %d)", e.Delta, e.SKU, e.Quantity)
}

// StorageError wraps a failure from the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// RowError describes a single malformed row in an imported backup document.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportValidationError is returned when a backup document fails validation.
// Rows collects every field-level problem found, not just the first.
type ImportValidationError struct {
	Message string
	Rows    []RowError
}

func (e *ImportValidationError) Error() string {
	if len(e.Rows) == 0 {
		return fmt.Sprintf("import rejected: %s", e.Message)
	}
	return fmt.Sprintf("import rejected: %s (%d invalid rows)", e.Message, len(e.Rows))
}

// ErrorResponse represents a standardized error response body.
type ErrorResponse struct {
	Error string     `json:"error"`
	Code  string     `json:"code"`
	Rows  []RowError `json:"rows,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Rows       []RowError
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
		Rows:  e.Rows,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var (
		validationErr *ValidationError
		duplicateErr  *DuplicateError
		notFoundErr   *NotFoundError
		stockErr      *InsufficientStockError
		negStockErr   *NegativeStockError
		storageErr    *StorageError
		importErr     *ImportValidationError
	)
	switch {
	case errors.As(err, &validationErr):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.As(err, &duplicateErr):
		return NewHTTPError(http.StatusConflict, err.Error(), "DUPLICATE")
	case errors.As(err, &notFoundErr):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.As(err, &stockErr):
		return NewHTTPError(http.StatusConflict, err.Error(), "INSUFFICIENT_STOCK")
	case errors.As(err, &negStockErr):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "NEGATIVE_STOCK")
	case errors.As(err, &importErr):
		httpErr := NewHTTPError(http.StatusBadRequest, err.Error(), "IMPORT_INVALID")
		httpErr.Rows = importErr.Rows
		return httpErr
	case errors.As(err, &storageErr):
		return NewHTTPError(http.StatusInternalServerError, err.Error(), "STORAGE_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
