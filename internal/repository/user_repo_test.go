package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/picfeed/internal/db/dbtest"
	"github.com/oggyb/picfeed/internal/repository"
)

func TestUserUpsert(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	repo := repository.NewUserRepository(database)

	first, err := repo.Upsert(ctx, "user_2abc", "Minji")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := repo.Upsert(ctx, "user_2abc", "Minji Kim")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Minji Kim", second.Name)
}

func TestUserStatByRef(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	repo := repository.NewUserRepository(database)

	u := dbtest.User(t, database, "Alice")

	byID, err := repo.StatByRef(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.Name)

	byExternal, err := repo.StatByRef(ctx, u.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byExternal.UserID)

	_, err = repo.StatByRef(ctx, "nobody")
	assert.Error(t, err)
}

func TestUserSearch(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	repo := repository.NewUserRepository(database)

	dbtest.User(t, database, "Minji Kim")
	dbtest.User(t, database, "Kim Daniel")
	dbtest.User(t, database, "Sora")
	dbtest.User(t, database, "100% Real")

	got, err := repo.Search(ctx, "KIM", 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Kim Daniel", got[0].Name)

	pct, err := repo.Search(ctx, "%", 20)
	require.NoError(t, err)
	require.Len(t, pct, 1, "wildcards are matched literally")

	limited, err := repo.Search(ctx, "i", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	byIDs, err := repo.ByIDs(ctx, []string{got[0].UserID, "missing"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)
}
