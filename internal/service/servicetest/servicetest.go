// Package servicetest wires services against in-memory infrastructure.
package servicetest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/picfeed/internal/app"
	"github.com/oggyb/picfeed/internal/auth"
	"github.com/oggyb/picfeed/internal/cache"
	"github.com/oggyb/picfeed/internal/config"
	"github.com/oggyb/picfeed/internal/db"
	"github.com/oggyb/picfeed/internal/db/dbtest"
	"github.com/oggyb/picfeed/internal/events"
	"github.com/oggyb/picfeed/internal/storage"
)

// Env is one isolated service environment.
type Env struct {
	App    *app.AppContext
	DB     *gorm.DB
	Redis  *miniredis.Miniredis
	Events *events.Recorder
	Store  *MemStore
	Auth   *auth.Provider
}

// Setup spins up an in-memory SQLite DB, a miniredis and a recording
// event publisher. Each test gets its own isolated set.
func Setup(t *testing.T) *Env {
	t.Helper()

	database := dbtest.Open(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests
	rec := &events.Recorder{}
	store := &MemStore{MaxBytes: 5 << 20, objects: map[string][]byte{}}
	provider := auth.NewProvider("test-secret", "picfeed", time.Hour)

	appCtx := app.New(database, rc, log).WithEvents(rec).WithStore(store).WithAuth(provider)
	return &Env{App: appCtx, DB: database, Redis: mr, Events: rec, Store: store, Auth: provider}
}

// As returns ctx authenticated as u.
func As(ctx context.Context, u db.User) context.Context {
	return auth.WithIdentity(ctx, auth.Identity{Subject: u.ExternalID, Name: u.Name})
}

// Token mints a bearer token for u.
func (e *Env) Token(t *testing.T, u db.User) string {
	t.Helper()
	token, err := e.Auth.Issue(auth.Identity{Subject: u.ExternalID, Name: u.Name})
	require.NoError(t, err)
	return token
}

type registrar interface {
	Register(r *mux.Router)
}

// Server serves the given registrars behind the auth middleware.
func (e *Env) Server(t *testing.T, regs ...registrar) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.Use(auth.Middleware(e.Auth))
	for _, reg := range regs {
		reg.Register(r)
	}
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// Do sends a request with an optional bearer token and JSON body.
func Do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// MemStore is an in-memory object store.
type MemStore struct {
	MaxBytes int64

	mu      sync.Mutex
	n       int
	objects map[string][]byte
}

func (s *MemStore) Put(_ context.Context, owner, ext string, body io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, s.MaxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > s.MaxBytes {
		return "", storage.ErrTooLarge
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	url := fmt.Sprintf("mem://%s/%d%s", owner, s.n, ext)
	s.objects[url] = data
	return url, nil
}

func (s *MemStore) Remove(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, url)
	return nil
}

// Has reports whether url is stored.
func (s *MemStore) Has(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[url]
	return ok
}
