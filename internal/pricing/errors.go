package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrValidationFailed is matched by errors.Is for any *ValidationError.
var ErrValidationFailed = errors.New("validation failed")

const (
	reasonProductNotFound = "product not found"
	reasonQuantityTooLow  = "quantity must be at least 1"
)

// Violation is a single cart line that failed validation.
type Violation struct {
	Index     int
	ProductID uuid.UUID
	Reason    string
}

// String renders the violation as a human-readable message.
func (v Violation) String() string {
	return fmt.Sprintf("product %s: %s", v.ProductID, v.Reason)
}

// ValidationError lists every violation found in a cart.
type ValidationError struct {
	Violations []Violation
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return ErrValidationFailed.Error()
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(e.Messages(), ", ")
}

// Is allows errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Messages returns the rendered violations in cart order.
func (e *ValidationError) Messages() []string {
	if e == nil {
		return nil
	}
	return Messages(e.Violations)
}

// Messages renders violations in order.
func Messages(violations []Violation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.String())
	}
	return out
}
