package stock

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateSKU indicates another item of the tenant already uses the SKU.
	ErrDuplicateSKU = errors.New("duplicate sku")
	// ErrSKULimitReached indicates the plan's item quota is used up.
	ErrSKULimitReached = errors.New("sku limit reached")
	// ErrInsufficientStock indicates a movement that would make quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNotTrashed indicates a restore or purge of an item that is not in the trash.
	ErrNotTrashed = errors.New("item is not in the trash")
	// ErrReportsNotIncluded indicates the plan does not include reports.
	ErrReportsNotIncluded = errors.New("reports require a pro plan")
)

// DuplicateSKUError names the conflicting SKU.
type DuplicateSKUError struct {
	SKU string
}

func (e *DuplicateSKUError) Error() string {
	return fmt.Sprintf("Product with SKU '%s' already exists.", e.SKU)
}

func (e *DuplicateSKUError) Unwrap() error {
	return ErrDuplicateSKU
}

// LimitError reports the quota that was hit.
type LimitError struct {
	Limit int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("SKU Limit reached (%d). Please upgrade your plan to add more items.", e.Limit)
}

func (e *LimitError) Unwrap() error {
	return ErrSKULimitReached
}
