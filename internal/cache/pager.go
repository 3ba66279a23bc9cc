package cache

import (
	"errors"
	"fmt"
)

// ErrPageOutOfRange indicates a page outside 1..TotalPages.
var ErrPageOutOfRange = errors.New("page out of range")

// TotalPages returns the number of pages for total items, never less than one.
func TotalPages(total, limit int) int {
	if limit < 1 || total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

// ClampPage bounds page to 1..TotalPages(total, limit).
func ClampPage(page, total, limit int) int {
	if page < 1 {
		return 1
	}
	if last := TotalPages(total, limit); page > last {
		return last
	}
	return page
}

// ValidatePage rejects pages outside 1..TotalPages(total, limit).
func ValidatePage(page, total, limit int) error {
	if last := TotalPages(total, limit); page < 1 || page > last {
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, last)
	}
	return nil
}
