// Package pagination implements the 1-indexed page/limit listing contract
// shared by every collection endpoint.
package pagination

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// ErrInvalidParams reports page or limit values that are not positive integers.
var ErrInvalidParams = errors.New("pagination: page and limit must be positive integers")

// Params carries the validated paging inputs for a listing request.
type Params struct {
	Page  int
	Limit int
}

// Options tunes parsing defaults per endpoint.
type Options struct {
	DefaultLimit int
	MaxLimit     int
}

// FromRequest parses page and limit query parameters. Absent values fall back
// to the defaults; malformed or non-positive values are rejected rather than
// silently clamped so callers learn about broken clients.
func FromRequest(r *http.Request, opts Options) (Params, error) {
	limitCap := opts.MaxLimit
	if limitCap <= 0 {
		limitCap = maxLimit
	}
	fallbackLimit := opts.DefaultLimit
	if fallbackLimit <= 0 {
		fallbackLimit = defaultLimit
	}

	page, err := parsePositive(r.URL.Query().Get("page"), defaultPage)
	if err != nil {
		return Params{}, ErrInvalidParams
	}
	limit, err := parsePositive(r.URL.Query().Get("limit"), fallbackLimit)
	if err != nil {
		return Params{}, ErrInvalidParams
	}
	if limit > limitCap {
		limit = limitCap
	}
	return Params{Page: page, Limit: limit}, nil
}

// PageCount returns the number of pages needed for count records at the given
// limit. Zero records still report one (empty) page so the envelope never
// claims a total of zero pages.
func PageCount(count, limit int) int {
	if limit <= 0 {
		return 1
	}
	pages := (count + limit - 1) / limit
	if pages < 1 {
		return 1
	}
	return pages
}

func parsePositive(raw string, fallback int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil || value < 1 {
		return 0, ErrInvalidParams
	}
	return value, nil
}
