package optimistic

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned when a toggle for the same target is still in
// flight. The toggle is dropped, not queued.
var ErrBusy = errors.New("optimistic: mutation already in flight for target")

// Perform sends the mutation for the desired Active value.
type Perform func(ctx context.Context, active bool) error

// Listener observes every state a target passes through.
type Listener func(target string, s State)

// Controller tracks optimistic state per target id. Targets are
// independent; at most one mutation per target is in flight.
type Controller struct {
	mu       sync.Mutex
	states   map[string]State
	inflight map[string]bool
	onChange Listener
}

// NewController returns a controller with no known targets.
func NewController() *Controller {
	return &Controller{
		states:   map[string]State{},
		inflight: map[string]bool{},
	}
}

// OnChange registers l to be called after every state change. It is
// called without the controller lock held.
func (c *Controller) OnChange(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = l
}

// Seed loads server truth for target. It is ignored while a mutation for
// target is in flight so a settling toggle is not overwritten.
func (c *Controller) Seed(target string, s State) {
	c.mu.Lock()
	if c.inflight[target] {
		c.mu.Unlock()
		return
	}
	c.states[target] = s
	l := c.onChange
	c.mu.Unlock()
	notify(l, target, s)
}

// State returns the current local state of target.
func (c *Controller) State(target string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[target]
}

// Busy reports whether a mutation for target is in flight, i.e. whether
// its control should be disabled.
func (c *Controller) Busy(target string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[target]
}

// Toggle flips target optimistically, runs perform without holding the
// lock and settles on the reconciled state. The returned State is the
// settled one; on failure it equals the pre-toggle snapshot and the
// perform error is returned unchanged. No retry is attempted.
func (c *Controller) Toggle(ctx context.Context, target string, perform Perform) (State, error) {
	c.mu.Lock()
	if c.inflight[target] {
		s := c.states[target]
		c.mu.Unlock()
		return s, ErrBusy
	}
	prior := c.states[target]
	next := Apply(prior)
	c.states[target] = next
	c.inflight[target] = true
	l := c.onChange
	c.mu.Unlock()
	notify(l, target, next)

	// A panicking perform settles on the snapshot and frees the target.
	settled := prior
	defer func() {
		c.mu.Lock()
		c.states[target] = settled
		delete(c.inflight, target)
		after := c.onChange
		c.mu.Unlock()
		if settled != next {
			notify(after, target, settled)
		}
	}()

	err := perform(ctx, next.Active)
	settled = Reconcile(prior, next, err)
	return settled, err
}

func notify(l Listener, target string, s State) {
	if l != nil {
		l(target, s)
	}
}
