package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/accesskeep/accesskeep/internal/models"
)

// DatabaseStore implements Store on top of the primary SQL database. Each
// Put is an upsert of a single row keyed by the full path, which keeps
// writes linearizable per key on every supported backend.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	if db == nil {
		return nil, errors.New("store: db is required")
	}
	return &DatabaseStore{db: db}, nil
}

// Put writes the value for a key, overwriting any previous value.
func (s *DatabaseStore) Put(ctx context.Context, key string, value []byte) error {
	ctx = ensureContext(ctx)
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("store: key is required")
	}

	entry := models.StoreEntry{
		Key:   key,
		Value: datatypes.JSON(value),
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("store: put %s: %w", key, err)
	}
	return nil
}

// Get returns the value stored for a key, or ErrKeyNotFound.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx = ensureContext(ctx)

	var entry models.StoreEntry
	if err := s.db.WithContext(ctx).Take(&entry, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("store: get %s: %w", key, err)
	}
	return []byte(entry.Value), nil
}

// ListChildren returns every key under the prefix in ascending key order.
func (s *DatabaseStore) ListChildren(ctx context.Context, prefix string) ([]string, error) {
	ctx = ensureContext(ctx)

	var keys []string
	err := s.db.WithContext(ctx).
		Model(&models.StoreEntry{}).
		Where("key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").
		Order("key ASC").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", prefix, err)
	}
	return keys, nil
}

// escapeLike escapes LIKE wildcards so prefixes such as "approval/cron_job/"
// match literally.
func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
