package inventory

import (
	"net/url"
	"strconv"
)

// DefaultPageSize is the page size used when none is given.
const DefaultPageSize = 10

// FetchOptions filters and pages the active collection.
type FetchOptions struct {
	Page     int
	Limit    int
	Search   string
	Category string
}

// Normalize fills defaults for page and limit.
func (o FetchOptions) Normalize() FetchOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = DefaultPageSize
	}
	return o
}

// Query encodes the options as URL query parameters.
func (o FetchOptions) Query() url.Values {
	o = o.Normalize()
	q := url.Values{}
	q.Set("page", strconv.Itoa(o.Page))
	q.Set("limit", strconv.Itoa(o.Limit))
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Category != "" {
		q.Set("category", o.Category)
	}
	return q
}

// Page is one page of active items with the server-reported total.
type Page struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
}
