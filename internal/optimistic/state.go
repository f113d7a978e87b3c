// Package optimistic applies boolean/counter mutations to local state
// before the server confirms them and restores the exact prior snapshot
// when it does not.
package optimistic

// State mirrors one membership flag and its aggregate counter, e.g.
// is_liked + likes_count or is_following + followers_count.
type State struct {
	Active bool
	Count  int
}

// Apply returns the optimistic successor of prior: Active flipped and
// Count moved by one in the same direction, never below zero.
func Apply(prior State) State {
	next := State{Active: !prior.Active, Count: prior.Count}
	if next.Active {
		next.Count++
	} else {
		next.Count = Decrement(next.Count)
	}
	return next
}

// Reconcile picks the settled state once the mutation outcome is known.
// Any error restores prior as it was before Apply, not an inversion of
// the optimistic state.
func Reconcile(prior, optimistic State, err error) State {
	if err != nil {
		return prior
	}
	return optimistic
}

// Decrement lowers a counter by one, clamped at zero.
func Decrement(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
