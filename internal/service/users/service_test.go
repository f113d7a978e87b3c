package users_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/picfeed/internal/api"
	"github.com/oggyb/picfeed/internal/auth"
	"github.com/oggyb/picfeed/internal/cache"
	"github.com/oggyb/picfeed/internal/db"
	"github.com/oggyb/picfeed/internal/db/dbtest"
	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/service/servicetest"
	"github.com/oggyb/picfeed/internal/service/users"
)

func TestProfileByEitherID(t *testing.T) {
	ctx := context.Background()
	env := servicetest.Setup(t)
	svc := users.NewUsersService(env.App)

	alice := dbtest.User(t, env.DB, "Alice")
	bob := dbtest.User(t, env.DB, "Bob")
	dbtest.Post(t, env.DB, alice.ID, time.Now().UTC())
	require.NoError(t, env.DB.Create(&db.Follow{FollowerID: bob.ID, FollowingID: alice.ID}).Error)

	byID, err := svc.Profile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byID.PostsCount)
	assert.Equal(t, int64(1), byID.FollowersCount)
	assert.False(t, byID.IsFollowing, "anonymous callers follow nobody")

	byExternal, err := svc.Profile(servicetest.As(ctx, bob), alice.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byExternal.ID)
	assert.True(t, byExternal.IsFollowing)

	self, err := svc.Profile(servicetest.As(ctx, alice), alice.ID)
	require.NoError(t, err)
	assert.False(t, self.IsFollowing)

	_, err = svc.Profile(ctx, uuid.NewString())
	assert.True(t, svcErr.IsKind(err, svcErr.KindNotFound))
}

func TestProfileCountsAreCached(t *testing.T) {
	ctx := context.Background()
	env := servicetest.Setup(t)
	svc := users.NewUsersService(env.App)
	alice := dbtest.User(t, env.DB, "Alice")

	_, err := svc.Profile(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, env.Redis.Exists(cache.KeyForUser(alice.ID)))

	got, ok, err := env.App.RedisCache.GetUserCounts(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cache.UserCounts{}, got)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	env := servicetest.Setup(t)
	svc := users.NewUsersService(env.App)

	alice := dbtest.User(t, env.DB, "Alice")
	kim := dbtest.User(t, env.DB, "Minji Kim")
	dbtest.User(t, env.DB, "Kim Daniel")
	require.NoError(t, env.DB.Create(&db.Follow{FollowerID: alice.ID, FollowingID: kim.ID}).Error)

	empty, err := svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	found, err := svc.Search(servicetest.As(ctx, alice), "kim")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Kim Daniel", found[0].Name)
	assert.False(t, found[0].IsFollowing)
	assert.True(t, found[1].IsFollowing)
	assert.Equal(t, int64(1), found[1].FollowersCount)
}

func TestSearchLimit(t *testing.T) {
	env := servicetest.Setup(t)
	svc := users.NewUsersService(env.App)
	for i := 0; i < users.SearchLimit+5; i++ {
		dbtest.User(t, env.DB, "user "+uuid.NewString()[:8])
	}
	found, err := svc.Search(context.Background(), "user")
	require.NoError(t, err)
	assert.Len(t, found, users.SearchLimit)
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	env := servicetest.Setup(t)
	svc := users.NewUsersService(env.App)

	_, err := svc.Sync(ctx)
	assert.True(t, svcErr.IsKind(err, svcErr.KindUnauthorized))

	first, err := svc.Sync(auth.WithIdentity(ctx, auth.Identity{Subject: "user_2x"}))
	require.NoError(t, err)
	assert.Equal(t, "user_2x", first.Name)

	second, err := svc.Sync(auth.WithIdentity(ctx, auth.Identity{Subject: "user_2x", Name: "Sora"}))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Sora", second.Name)
}

func TestUsersHTTP(t *testing.T) {
	env := servicetest.Setup(t)
	srv := env.Server(t, users.NewRegistrar(env.App))
	alice := dbtest.User(t, env.DB, "Alice")

	resp := servicetest.Do(t, http.MethodGet, srv.URL+"/api/users/"+alice.ExternalID, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prof api.ProfileResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&prof))
	assert.Equal(t, "Alice", prof.User.Name)

	resp = servicetest.Do(t, http.MethodGet, srv.URL+"/api/search?q=ali", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res api.SearchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Len(t, res.Users, 1)

	resp = servicetest.Do(t, http.MethodGet, srv.URL+"/api/search", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"users":[]}`, readAll(t, resp))

	newcomer := db.User{ExternalID: "user_new", Name: "Newcomer"}
	resp = servicetest.Do(t, http.MethodPost, srv.URL+"/api/users/sync", env.Token(t, newcomer), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	var v json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return string(v)
}
