package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a missing required field or an invalid value.
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientStock indicates the pre-submission stock check failed.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStore indicates the underlying persistence call failed.
	ErrStore = errors.New("store failure")
)

// InsufficientStockError names the line that failed the stock check.
type InsufficientStockError struct {
	ProductID string
	VariantID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}

// Is lets errors.Is match ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Validationf builds an ErrValidation carrying a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds an ErrNotFound naming the missing entity.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// StoreError wraps a driver error as ErrStore. Not-found and validation errors pass through untouched.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// UserSafeMessage returns a message that can be shown to API clients.
func UserSafeMessage(err error) string {
	var stockErr *InsufficientStockError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &stockErr):
		return stockErr.Error()
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return err.Error()
	case errors.Is(err, ErrStore):
		return "storage temporarily unavailable"
	default:
		return "internal error"
	}
}
