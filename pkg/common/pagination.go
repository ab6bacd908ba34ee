package common

import (
	"net/http"
	"strconv"

	pkgerrors "ontology-backend/pkg/errors"
)

// Page describes an offset window over a result set.
type Page struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// HasMore reports whether results exist past this page.
func (p Page) HasMore() bool {
	return p.Offset+p.Limit < p.Total
}

// ExtractLimitOffset reads limit and offset query parameters. Missing values
// take defaultLimit and 0; limit must lie in 1..maxLimit and offset must not
// be negative.
func ExtractLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int, error) {
	limit, offset := defaultLimit, 0
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxLimit {
			return 0, 0, pkgerrors.Validation("limit must be between 1 and %d", maxLimit)
		}
		limit = v
	}
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return 0, 0, pkgerrors.Validation("offset must be a non-negative integer")
		}
		offset = v
	}
	return limit, offset, nil
}

// Window slices items to the page window.
func Window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
