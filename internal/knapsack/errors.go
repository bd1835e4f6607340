package knapsack

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the budget, an item, or an amount violates the solver preconditions.
	ErrInvalidInput = errors.New("invalid solver input")
	// ErrCapacityTooLarge is returned when items x budget exceeds the configured table ceiling.
	ErrCapacityTooLarge = errors.New("solver table exceeds configured capacity")
)

// InvalidInputError reports the rejected field. Index is the offending item
// position, or -1 when the error concerns the budget, mode, or a bare amount.
type InvalidInputError struct {
	Field  string
	Index  int
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: items[%d].%s %s", ErrInvalidInput, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// CapacityTooLargeError is returned before any table is allocated.
type CapacityTooLargeError struct {
	Items  int
	Budget int
	Limit  int64
}

func (e *CapacityTooLargeError) Error() string {
	return fmt.Sprintf("%s: table for %d items and budget %d exceeds %d cells", ErrCapacityTooLarge, e.Items, e.Budget, e.Limit)
}

func (e *CapacityTooLargeError) Unwrap() error {
	return ErrCapacityTooLarge
}

func invalidField(field, reason string) error {
	return &InvalidInputError{Field: field, Index: -1, Reason: reason}
}

func invalidItem(index int, field, reason string) error {
	return &InvalidInputError{Field: field, Index: index, Reason: reason}
}
