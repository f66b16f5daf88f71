package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/moyak/saferoute/internal/core/ports"
)

// SQLiteStore implements ports.SessionStore using GORM and SQLite. It backs
// the session location cache; values are small JSON blobs and the store
// makes no transactional guarantees.
type SQLiteStore struct {
	db *gorm.DB
}

// EntryModel is the GORM model for one key/value entry.
type EntryModel struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

// NewSQLiteStore opens (creating if needed) the session store database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	if err := db.AutoMigrate(&EntryModel{}); err != nil {
		return nil, fmt.Errorf("migrate session store: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the value for key, with ok=false when absent.
func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	var entry EntryModel
	err := s.db.First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Value, true, nil
}

// Set stores value under key, overwriting any prior entry.
func (s *SQLiteStore) Set(key string, value []byte) error {
	entry := EntryModel{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.Save(&entry).Error
}

// Delete removes the entry for key; absent keys are not an error.
func (s *SQLiteStore) Delete(key string) error {
	return s.db.Delete(&EntryModel{}, "key = ?", key).Error
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PruneOlderThan drops entries untouched for longer than age. Stale session
// locations expire logically at read time; this keeps the file from
// accumulating dead sessions.
func (s *SQLiteStore) PruneOlderThan(age time.Duration) error {
	cutoff := time.Now().Add(-age)
	return s.db.Delete(&EntryModel{}, "updated_at < ?", cutoff).Error
}

// namespaced prefixes every key, giving each navigation session its own
// keyspace inside the shared store. Close is a no-op; the inner store is
// shared.
type namespaced struct {
	inner  ports.SessionStore
	prefix string
}

// Namespaced wraps store so all keys are scoped under prefix.
func Namespaced(store ports.SessionStore, prefix string) ports.SessionStore {
	return &namespaced{inner: store, prefix: prefix + ":"}
}

func (n *namespaced) Get(key string) ([]byte, bool, error) { return n.inner.Get(n.prefix + key) }
func (n *namespaced) Set(key string, value []byte) error   { return n.inner.Set(n.prefix+key, value) }
func (n *namespaced) Delete(key string) error              { return n.inner.Delete(n.prefix + key) }
func (n *namespaced) Close() error                         { return nil }
