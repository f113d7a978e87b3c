// Package thread is the client-side state machine of one post's comment
// thread: composing, deleting and keeping comments_count in step.
package thread

import (
	"context"
	"errors"
	"sync"

	"github.com/oggyb/picfeed/internal/api"
	"github.com/oggyb/picfeed/internal/collection"
	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/optimistic"
)

// ComposeState is the state of the comment composer.
type ComposeState int

const (
	Idle ComposeState = iota
	Submitting
	Failed
)

func (s ComposeState) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

// DeleteState is the state of one comment in the view.
type DeleteState int

const (
	Present DeleteState = iota
	Deleting
	Removed
)

// ErrBusy is returned when the same operation is already running.
var ErrBusy = errors.New("thread: operation already in progress")

type (
	CreateFunc func(ctx context.Context, postID, content string) (api.Comment, error)
	DeleteFunc func(ctx context.Context, commentID string) error
)

// Options configures a Thread. ActorID is empty for anonymous viewers.
type Options struct {
	PostID   string
	ActorID  string
	Count    int
	Comments *collection.Loader[api.Comment]
	Create   CreateFunc
	Delete   DeleteFunc
}

// Thread holds the composer state, per-comment deletion state and the
// post's comment counter.
type Thread struct {
	postID   string
	actorID  string
	comments *collection.Loader[api.Comment]
	create   CreateFunc
	remove   DeleteFunc

	mu         sync.Mutex
	compose    ComposeState
	composeErr error
	count      int
	deleting   map[string]bool
	deleteErr  map[string]error
}

// New starts a thread with an Idle composer.
func New(o Options) *Thread {
	return &Thread{
		postID:    o.PostID,
		actorID:   o.ActorID,
		comments:  o.Comments,
		create:    o.Create,
		remove:    o.Delete,
		count:     o.Count,
		deleting:  map[string]bool{},
		deleteErr: map[string]error{},
	}
}

// Submit validates content locally and, if it passes, creates the
// comment. Guard violations never reach the server and leave the
// composer Idle.
func (t *Thread) Submit(ctx context.Context, content string) (api.Comment, error) {
	if t.actorID == "" {
		return api.Comment{}, svcErr.Unauthorized("sign in to comment")
	}
	content, err := api.ValidateComment(content)
	if err != nil {
		return api.Comment{}, err
	}

	t.mu.Lock()
	if t.compose == Submitting {
		t.mu.Unlock()
		return api.Comment{}, ErrBusy
	}
	t.compose = Submitting
	t.composeErr = nil
	t.mu.Unlock()

	c, err := t.create(ctx, t.postID, content)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.compose = Failed
		t.composeErr = err
		return api.Comment{}, err
	}
	t.compose = Idle
	if t.comments.Prepend(c) {
		t.count++
	}
	return c, nil
}

// CanDelete reports whether the delete control should be shown for c.
func (t *Thread) CanDelete(c api.Comment) bool {
	return t.actorID != "" && c.UserID == t.actorID
}

// Delete removes a comment the actor owns. On failure the comment stays
// Present and the error is kept for DeleteError.
func (t *Thread) Delete(ctx context.Context, commentID string) error {
	c, ok := t.comments.Get(commentID)
	if !ok {
		return svcErr.NotFound("Comment not found")
	}
	if t.actorID == "" {
		return svcErr.Unauthorized("sign in to delete comments")
	}
	if !t.CanDelete(c) {
		return svcErr.Forbidden("You can only delete your own comments")
	}

	t.mu.Lock()
	if t.deleting[commentID] {
		t.mu.Unlock()
		return ErrBusy
	}
	t.deleting[commentID] = true
	delete(t.deleteErr, commentID)
	t.mu.Unlock()

	err := t.remove(ctx, commentID)

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.deleting, commentID)
	if err != nil {
		t.deleteErr[commentID] = err
		return err
	}
	if t.comments.Remove(commentID) {
		t.count = optimistic.Decrement(t.count)
	}
	return nil
}

func (t *Thread) ComposeState() ComposeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.compose
}

// ComposeError is the error of the last failed submission.
func (t *Thread) ComposeError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.composeErr
}

// DismissError returns a Failed composer to Idle.
func (t *Thread) DismissError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.compose == Failed {
		t.compose = Idle
		t.composeErr = nil
	}
}

func (t *Thread) DeleteState(commentID string) DeleteState {
	t.mu.Lock()
	deleting := t.deleting[commentID]
	t.mu.Unlock()
	if deleting {
		return Deleting
	}
	if _, ok := t.comments.Get(commentID); ok {
		return Present
	}
	return Removed
}

// DeleteError is the error of the last failed deletion of commentID.
func (t *Thread) DeleteError(commentID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleteErr[commentID]
}

// Count is the local comments_count.
func (t *Thread) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Comments returns the current view, newest first.
func (t *Thread) Comments() []api.Comment {
	return t.comments.Items()
}
