package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/picfeed/internal/db"
)

// UserRepository provides data access for users and the user_stats view.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

func (r *UserRepository) ByID(ctx context.Context, id string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ByExternalID resolves an identity-provider subject to our user row.
func (r *UserRepository) ByExternalID(ctx context.Context, externalID string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ByIDs returns the users found among ids keyed by id. Missing ids are
// simply absent from the map.
func (r *UserRepository) ByIDs(ctx context.Context, ids []string) (map[string]db.User, error) {
	out := make(map[string]db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// Upsert creates the user for externalID or refreshes its display name.
func (r *UserRepository) Upsert(ctx context.Context, externalID, name string) (*db.User, error) {
	u := db.User{ExternalID: externalID, Name: name}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).
		Create(&u).Error
	if err != nil {
		return nil, err
	}
	// on conflict the generated id was not stored; read back the real row
	return r.ByExternalID(ctx, externalID)
}

// StatByRef looks a profile up by our uuid or by the provider subject id.
func (r *UserRepository) StatByRef(ctx context.Context, ref string) (*db.UserStat, error) {
	column := "external_id"
	if _, err := uuid.Parse(ref); err == nil {
		column = "user_id"
	}
	var s db.UserStat
	if err := r.db.WithContext(ctx).Where(column+" = ?", ref).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Search matches display names case-insensitively, alphabetically.
func (r *UserRepository) Search(ctx context.Context, query string, limit int) ([]db.UserStat, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	var stats []db.UserStat
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '!'", pattern).
		Order("name ASC, user_id ASC").
		Limit(limit).
		Find(&stats).Error
	return stats, err
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
