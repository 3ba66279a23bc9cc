package inventory

import (
	"fmt"
	"strings"
)

// ValidateNewItem validates fields required to create an item.
func ValidateNewItem(item NewItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if item.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}
	if item.MinThreshold < 0 {
		return fmt.Errorf("%w: minimum threshold must not be negative", ErrInvalidInput)
	}
	if item.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return nil
}

// ValidatePatch validates an update patch.
func ValidatePatch(p ItemPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if p.MinThreshold != nil && *p.MinThreshold < 0 {
		return fmt.Errorf("%w: minimum threshold must not be negative", ErrInvalidInput)
	}
	if p.Price != nil && p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return nil
}

// ValidateMovement validates a stock movement request.
func ValidateMovement(m MovementRequest) error {
	if !m.Type.IsMovement() {
		return ErrInvalidMovementType
	}
	if m.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
