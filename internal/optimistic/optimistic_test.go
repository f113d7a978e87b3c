package optimistic_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/optimistic"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestApply(t *testing.T) {
	assert.Equal(t, optimistic.State{Active: true, Count: 6}, optimistic.Apply(optimistic.State{Count: 5}))
	assert.Equal(t, optimistic.State{Active: false, Count: 4}, optimistic.Apply(optimistic.State{Active: true, Count: 5}))
	assert.Equal(t, optimistic.State{Active: false, Count: 0}, optimistic.Apply(optimistic.State{Active: true, Count: 0}), "count floors at zero")
	assert.Equal(t, 0, optimistic.Decrement(-3))
}

func TestReconcileRestoresExactSnapshot(t *testing.T) {
	failure := errors.New("boom")
	for count := 0; count <= 50; count++ {
		for _, active := range []bool{false, true} {
			prior := optimistic.State{Active: active, Count: count}
			next := optimistic.Apply(prior)

			assert.Equal(t, prior, optimistic.Reconcile(prior, next, failure))
			assert.Equal(t, next, optimistic.Reconcile(prior, next, nil))
		}
	}
}

func TestToggleRollsBackOnConflict(t *testing.T) {
	c := optimistic.NewController()
	c.Seed("post-p", optimistic.State{Active: false, Count: 5})

	var during optimistic.State
	settled, err := c.Toggle(context.Background(), "post-p", func(_ context.Context, active bool) error {
		assert.True(t, active)
		during = c.State("post-p")
		return svcErr.AlreadyExists("Already liked")
	})

	require.Error(t, err)
	assert.True(t, svcErr.IsKind(err, svcErr.KindConflict))
	assert.Equal(t, optimistic.State{Active: true, Count: 6}, during)
	assert.Equal(t, optimistic.State{Active: false, Count: 5}, settled)
	assert.Equal(t, settled, c.State("post-p"))
	assert.False(t, c.Busy("post-p"))
}

func TestToggleSequence(t *testing.T) {
	c := optimistic.NewController()
	c.Seed("u", optimistic.State{Count: 10})
	ok := func(context.Context, bool) error { return nil }
	fail := func(context.Context, bool) error { return errors.New("network") }

	s, err := c.Toggle(context.Background(), "u", ok)
	require.NoError(t, err)
	assert.Equal(t, optimistic.State{Active: true, Count: 11}, s)

	s, err = c.Toggle(context.Background(), "u", fail)
	require.Error(t, err)
	assert.Equal(t, optimistic.State{Active: true, Count: 11}, s, "rollback targets the last settled state")

	s, err = c.Toggle(context.Background(), "u", ok)
	require.NoError(t, err)
	assert.Equal(t, optimistic.State{Active: false, Count: 10}, s)
}

func TestToggleSameTargetIsDropped(t *testing.T) {
	c := optimistic.NewController()
	c.Seed("p", optimistic.State{Count: 1})

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := c.Toggle(context.Background(), "p", func(context.Context, bool) error {
			close(entered)
			<-release
			return nil
		})
		done <- err
	}()
	<-entered

	assert.True(t, c.Busy("p"))
	var called bool
	s, err := c.Toggle(context.Background(), "p", func(context.Context, bool) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, optimistic.ErrBusy)
	assert.False(t, called, "dropped toggle never reaches the server")
	assert.Equal(t, optimistic.State{Active: true, Count: 2}, s)

	c.Seed("p", optimistic.State{Count: 99})
	assert.Equal(t, 2, c.State("p").Count, "seed does not clobber an in-flight toggle")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, optimistic.State{Active: true, Count: 2}, c.State("p"))
}

func TestToggleTargetsAreIndependent(t *testing.T) {
	c := optimistic.NewController()
	c.Seed("a", optimistic.State{Count: 1})
	c.Seed("b", optimistic.State{Count: 7})

	var wg sync.WaitGroup
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	errs := make(chan error, 2)
	for _, target := range []string{"a", "b"} {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			_, err := c.Toggle(context.Background(), target, func(context.Context, bool) error {
				started <- struct{}{}
				<-release
				return nil
			})
			errs <- err
		}(target)
	}
	<-started
	<-started // both in flight at once
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, optimistic.State{Active: true, Count: 2}, c.State("a"))
	assert.Equal(t, optimistic.State{Active: true, Count: 8}, c.State("b"))
}

func TestOnChange(t *testing.T) {
	c := optimistic.NewController()
	var seen []optimistic.State
	c.OnChange(func(_ string, s optimistic.State) { seen = append(seen, s) })

	c.Seed("p", optimistic.State{Count: 5})
	_, _ = c.Toggle(context.Background(), "p", func(context.Context, bool) error { return errors.New("x") })

	assert.Equal(t, []optimistic.State{
		{Count: 5},
		{Active: true, Count: 6},
		{Count: 5},
	}, seen)
}

func TestTogglePanicFreesTarget(t *testing.T) {
	c := optimistic.NewController()
	c.Seed("post-p", optimistic.State{Count: 3})

	assert.Panics(t, func() {
		_, _ = c.Toggle(context.Background(), "post-p", func(context.Context, bool) error {
			panic("transport blew up")
		})
	})

	assert.False(t, c.Busy("post-p"))
	assert.Equal(t, optimistic.State{Count: 3}, c.State("post-p"))

	s, err := c.Toggle(context.Background(), "post-p", func(context.Context, bool) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, optimistic.State{Active: true, Count: 4}, s)
}
