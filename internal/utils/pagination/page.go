package pagination

import (
	"fmt"
	"math"
	"strconv"
)

// MaxLimit caps a single page; the profile grid asks for 100 at once.
const MaxLimit = 100

// MaxPage keeps (page-1)*limit within 32 bits for every valid limit.
const MaxPage = math.MaxInt32 / MaxLimit

// Request is the (page, limit) pair every list endpoint accepts.
// Pages are 1-based offset windows, not stable cursors.
type Request struct {
	Page  int
	Limit int
}

// Page is the wire shape of every list response.
type Page[T any] struct {
	Items    []T  `json:"items"`
	HasMore  bool `json:"hasMore"`
	NextPage *int `json:"nextPage"`
}

// Meta is the continuation state derived from a request and a total count.
type Meta struct {
	HasMore  bool
	NextPage *int
}

// Validate checks 1 <= page <= MaxPage and 0 < limit <= MaxLimit.
func (r Request) Validate() error {
	if r.Page < 1 {
		return fmt.Errorf("page must be >= 1")
	}
	if r.Page > MaxPage {
		return fmt.Errorf("page must be <= %d", MaxPage)
	}
	if r.Limit < 1 || r.Limit > MaxLimit {
		return fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	}
	return nil
}

// Offset is the first row index of the window [offset, offset+limit).
func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}

// Derive computes hasMore = offset+limit < total and nextPage = page+1.
func Derive(r Request, total int64) Meta {
	if int64(r.Offset()+r.Limit) < total {
		next := r.Page + 1
		return Meta{HasMore: true, NextPage: &next}
	}
	return Meta{}
}

// NewPage assembles a response page. A nil slice is normalized so that
// empty pages encode as [] rather than null.
func NewPage[T any](items []T, m Meta) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, HasMore: m.HasMore, NextPage: m.NextPage}
}

// Parse reads page/limit query values, applying defaultLimit when limit is
// absent and page 1 when page is absent.
func Parse(page, limit string, defaultLimit int) (Request, error) {
	r := Request{Page: 1, Limit: defaultLimit}
	if page != "" {
		p, err := strconv.Atoi(page)
		if err != nil {
			return Request{}, fmt.Errorf("page must be an integer")
		}
		r.Page = p
	}
	if limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil {
			return Request{}, fmt.Errorf("limit must be an integer")
		}
		r.Limit = l
	}
	return r, r.Validate()
}
