package collection

import (
	"context"
	"errors"
	"sync"

	"github.com/oggyb/picfeed/internal/utils/pagination"
)

var (
	// ErrInFlight is returned when a page fetch is already pending for the
	// collection. The new request is dropped, not queued.
	ErrInFlight = errors.New("collection: page fetch already in flight")
	// ErrClosed is returned once the view has been closed; results that
	// arrive afterwards are discarded.
	ErrClosed = errors.New("collection: view closed")
)

// FetchFunc fetches one page of the collection.
type FetchFunc[T any] func(ctx context.Context, page int) (pagination.Page[T], error)

// Loader accumulates pages of one collection into a de-duplicated view.
//
// Behavior:
//   - One fetch at a time; the lock is never held across the fetch.
//   - The merge runs against the view as it is when the page arrives, so
//     Prepend/Remove calls made meanwhile are kept.
//   - A failed fetch leaves the view and cursor untouched for a retry.
type Loader[T Identified] struct {
	fetch FetchFunc[T]

	mu       sync.Mutex
	items    []T
	page     int
	hasMore  bool
	inflight bool
	closed   bool
}

// NewLoader starts at page 1.
func NewLoader[T Identified](fetch FetchFunc[T]) *Loader[T] {
	return &Loader[T]{fetch: fetch, page: 1, hasMore: true}
}

// Seed merges an initial list, e.g. one rendered by the server before the
// first client-side fetch. The cursor is unchanged.
func (l *Loader[T]) Seed(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = Merge(l.items, items)
}

// LoadNext fetches the next page and merges it. It returns how many new
// items were added; zero with a nil error means nothing was left to load
// or the page only held known items.
func (l *Loader[T]) LoadNext(ctx context.Context) (int, error) {
	l.mu.Lock()
	switch {
	case l.closed:
		l.mu.Unlock()
		return 0, ErrClosed
	case l.inflight:
		l.mu.Unlock()
		return 0, ErrInFlight
	case !l.hasMore:
		l.mu.Unlock()
		return 0, nil
	}
	page := l.page
	l.inflight = true
	l.mu.Unlock()

	res, err := l.fetch(ctx, page)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inflight = false
	if l.closed {
		return 0, ErrClosed
	}
	if err != nil {
		return 0, err
	}

	before := len(l.items)
	l.items = Merge(l.items, res.Items)
	l.hasMore = res.HasMore && res.NextPage != nil
	if l.hasMore {
		l.page = *res.NextPage
	}
	return len(l.items) - before, nil
}

// Items returns a copy of the current view.
func (l *Loader[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}

// Len is the number of items in the view.
func (l *Loader[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// HasMore reports whether another page may exist.
func (l *Loader[T]) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMore
}

// Loading reports whether a fetch is pending.
func (l *Loader[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight
}

// Prepend puts item at the head of the view unless its id is present.
func (l *Loader[T]) Prepend(item T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := item.ItemID()
	for _, it := range l.items {
		if it.ItemID() == id {
			return false
		}
	}
	l.items = append([]T{item}, l.items...)
	return true
}

// Remove drops the item with id and reports whether it was present.
func (l *Loader[T]) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, it := range l.items {
		if it.ItemID() == id {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the item with id.
func (l *Loader[T]) Get(id string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if it.ItemID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Close marks the view dead. In-flight results are ignored.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}
