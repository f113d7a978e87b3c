// Package events publishes domain events after successful mutations.
// Delivery is best-effort: a failed publish is logged and never fails the
// request that caused it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/oggyb/picfeed/internal/logger"
)

const (
	PostCreated    = "post.created"
	PostDeleted    = "post.deleted"
	LikeCreated    = "like.created"
	LikeDeleted    = "like.deleted"
	FollowCreated  = "follow.created"
	FollowDeleted  = "follow.deleted"
	CommentCreated = "comment.created"
	CommentDeleted = "comment.deleted"
)

// Publisher emits an event on subject with a JSON payload.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Edge is the payload of like and follow events.
type Edge struct {
	ActorID  string    `json:"actor_id"`
	TargetID string    `json:"target_id"`
	At       time.Time `json:"at"`
}

// Entity is the payload of post and comment events.
type Entity struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"owner_id"`
	PostID  string    `json:"post_id,omitempty"`
	At      time.Time `json:"at"`
}

// NatsPublisher publishes to a core NATS connection.
type NatsPublisher struct {
	nc *nats.Conn
}

// Connect dials url with reconnects enabled for the life of the process.
func Connect(url string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("picfeed-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NatsPublisher{nc: nc}, nil
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

func (p *NatsPublisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}
	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	if id := logger.RequestID(ctx); id != "" {
		msg.Header.Set("X-Request-ID", id)
	}
	logger.FromContext(ctx).Debug("publishing event", "subject", subject)
	return p.nc.PublishMsg(msg)
}

// Close flushes pending messages and closes the connection.
func (p *NatsPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}

// Noop drops every event. Used when NATS_URL is empty.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

type Recorded struct {
	Subject string
	Payload any
}

func (r *Recorder) Publish(_ context.Context, subject string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Subject: subject, Payload: payload})
	return nil
}

// Subjects returns the subjects published so far, in order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}

// Emit publishes and logs failures instead of returning them.
func Emit(ctx context.Context, p Publisher, subject string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, payload); err != nil {
		logger.FromContext(ctx).Warn("failed to publish event", "subject", subject, "err", err)
	}
}
