package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/picfeed/internal/events"
)

type failing struct{ calls int }

func (f *failing) Publish(context.Context, string, any) error {
	f.calls++
	return errors.New("nats: connection closed")
}

func TestEmitSwallowsErrors(t *testing.T) {
	f := &failing{}
	events.Emit(context.Background(), f, events.LikeCreated, events.Edge{ActorID: "a", TargetID: "p"})
	assert.Equal(t, 1, f.calls)

	events.Emit(context.Background(), nil, events.LikeCreated, nil)
}

func TestRecorder(t *testing.T) {
	r := &events.Recorder{}
	ctx := context.Background()
	events.Emit(ctx, r, events.FollowCreated, events.Edge{})
	events.Emit(ctx, r, events.FollowDeleted, events.Edge{})
	assert.Equal(t, []string{events.FollowCreated, events.FollowDeleted}, r.Subjects())

	assert.NoError(t, events.Noop{}.Publish(ctx, events.PostCreated, nil))
}
