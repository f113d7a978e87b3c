package follows_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/picfeed/internal/api"
	"github.com/oggyb/picfeed/internal/cache"
	"github.com/oggyb/picfeed/internal/db"
	"github.com/oggyb/picfeed/internal/db/dbtest"
	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/events"
	"github.com/oggyb/picfeed/internal/httpx"
	"github.com/oggyb/picfeed/internal/service/follows"
	"github.com/oggyb/picfeed/internal/service/servicetest"
)

func TestFollowDuplicateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := servicetest.Setup(t)
	svc := follows.NewFollowsService(env.App)

	alice := dbtest.User(t, env.DB, "Alice")
	bob := dbtest.User(t, env.DB, "Bob")
	as := servicetest.As(ctx, alice)

	created, err := svc.Follow(as, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Follow(as, bob.ID)
	require.NoError(t, err, "a repeated follow is not an error")
	assert.False(t, created)

	var n int64
	env.DB.Model(&db.Follow{}).Count(&n)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{events.FollowCreated}, env.Events.Subjects())
}

func TestFollowSelfRejected(t *testing.T) {
	ctx := context.Background()
	env := servicetest.Setup(t)
	svc := follows.NewFollowsService(env.App)
	alice := dbtest.User(t, env.DB, "Alice")

	_, err := svc.Follow(servicetest.As(ctx, alice), alice.ID)
	require.Error(t, err)
	assert.True(t, svcErr.IsKind(err, svcErr.KindValidation))

	var n int64
	env.DB.Model(&db.Follow{}).Count(&n)
	assert.Zero(t, n, "no edge is created")
}

func TestFollowGuards(t *testing.T) {
	ctx := context.Background()
	env := servicetest.Setup(t)
	svc := follows.NewFollowsService(env.App)
	alice := dbtest.User(t, env.DB, "Alice")

	_, err := svc.Follow(ctx, uuid.NewString())
	assert.True(t, svcErr.IsKind(err, svcErr.KindUnauthorized))

	_, err = svc.Follow(servicetest.As(ctx, alice), uuid.NewString())
	assert.True(t, svcErr.IsKind(err, svcErr.KindNotFound))

	_, err = svc.Follow(servicetest.As(ctx, alice), " ")
	assert.True(t, svcErr.IsKind(err, svcErr.KindValidation))
}

func TestUnfollowInvalidatesBothUsers(t *testing.T) {
	ctx := context.Background()
	env := servicetest.Setup(t)
	svc := follows.NewFollowsService(env.App)
	alice := dbtest.User(t, env.DB, "Alice")
	bob := dbtest.User(t, env.DB, "Bob")
	as := servicetest.As(ctx, alice)

	_, err := svc.Follow(as, bob.ID)
	require.NoError(t, err)

	for _, id := range []string{alice.ID, bob.ID} {
		require.NoError(t, env.App.RedisCache.SetUserCounts(ctx, id, cache.UserCounts{Followers: 1}))
	}
	require.NoError(t, svc.Unfollow(as, bob.ID))
	assert.False(t, env.Redis.Exists(cache.KeyForUser(alice.ID)))
	assert.False(t, env.Redis.Exists(cache.KeyForUser(bob.ID)))

	require.NoError(t, svc.Unfollow(as, bob.ID))
}

func TestFollowsHTTPStatus(t *testing.T) {
	env := servicetest.Setup(t)
	srv := env.Server(t, follows.NewRegistrar(env.App))
	alice := dbtest.User(t, env.DB, "Alice")
	bob := dbtest.User(t, env.DB, "Bob")
	token := env.Token(t, alice)
	body := `{"following_id":"` + bob.ID + `"}`

	resp := servicetest.Do(t, http.MethodPost, srv.URL+"/api/follows", token, body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = servicetest.Do(t, http.MethodPost, srv.URL+"/api/follows", token, body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out api.FollowResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.True(t, out.IsFollowing)

	self := `{"following_id":"` + alice.ID + `"}`
	assert.Equal(t, http.StatusBadRequest, servicetest.Do(t, http.MethodPost, srv.URL+"/api/follows", token, self).StatusCode)

	resp = servicetest.Do(t, http.MethodDelete, srv.URL+"/api/follows", token, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = api.FollowResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.IsFollowing)
}

func TestFollowsRejectsOversizedBody(t *testing.T) {
	env := servicetest.Setup(t)
	r := mux.NewRouter()
	follows.NewRegistrar(env.App).Register(r)

	body := `{"following_id":"` + strings.Repeat("a", httpx.MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/follows", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var out httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "request body too large", out.Error)
	assert.Equal(t, svcErr.KindValidation, out.Kind)
}
