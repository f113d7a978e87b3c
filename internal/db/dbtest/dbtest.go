// Package dbtest opens isolated in-memory stores for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/picfeed/internal/db"
)

// Open returns a migrated in-memory SQLite database private to t.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		TranslateError:         true,
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	// shared-cache memory databases lock per table across connections
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// User inserts a user with the given display name.
func User(t *testing.T, database *gorm.DB, name string) db.User {
	t.Helper()
	u := db.User{ExternalID: "ext_" + strings.ToLower(strings.ReplaceAll(name, " ", "_")), Name: name}
	require.NoError(t, database.Create(&u).Error)
	return u
}

// Post inserts a post owned by userID created at the given time.
func Post(t *testing.T, database *gorm.DB, userID string, createdAt time.Time) db.Post {
	t.Helper()
	p := db.Post{UserID: userID, ImageURL: "http://img.test/" + createdAt.Format("150405.000") + ".jpg", CreatedAt: createdAt}
	require.NoError(t, database.Create(&p).Error)
	return p
}
