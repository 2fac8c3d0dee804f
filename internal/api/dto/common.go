package dto

import (
	"net/url"
	"strconv"

	"github.com/hugh/go-contacts/internal/contacts"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type StatusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// PaginationParams mirror the skip/limit query parameters of list endpoints.
type PaginationParams struct {
	Skip  int
	Limit int
}

// ParsePagination reads skip and limit from q. Malformed values are reported
// per field.
func ParsePagination(q url.Values) (PaginationParams, map[string]string) {
	p := PaginationParams{Skip: 0, Limit: contacts.DefaultListLimit}
	errors := make(map[string]string)

	if s := q.Get("skip"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			errors["skip"] = "skip must be a non-negative integer"
		} else {
			p.Skip = n
		}
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			errors["limit"] = "limit must be a positive integer"
		} else {
			p.Limit = n
		}
	}

	p.Normalize()
	return p, errors
}

func (p *PaginationParams) Normalize() {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit < 1 {
		p.Limit = contacts.DefaultListLimit
	}
	if p.Limit > contacts.MaxListLimit {
		p.Limit = contacts.MaxListLimit
	}
}
