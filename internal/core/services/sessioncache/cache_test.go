package sessioncache

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyak/saferoute/internal/core/domain"
)

// memStore is an in-memory session store with fault injection.
type memStore struct {
	data   map[string][]byte
	getErr error
	setErr error
	delErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	return nil
}

func (m *memStore) Close() error { return nil }

func TestCache_RoundTrip(t *testing.T) {
	store := newMemStore()
	cache := New(store, time.Hour)

	coord := domain.Coordinate{Latitude: 35.8714, Longitude: 128.6014}
	cache.Write(coord)

	got := cache.Read()
	require.NotNil(t, got)
	assert.Equal(t, coord, *got)
}

func TestCache_MissingEntry(t *testing.T) {
	cache := New(newMemStore(), time.Hour)
	assert.Nil(t, cache.Read())
}

func TestCache_StaleEntryClearedOnRead(t *testing.T) {
	store := newMemStore()
	cache := New(store, time.Hour)

	coord := domain.Coordinate{Latitude: 35.87, Longitude: 128.60}
	cache.Write(coord)

	// Age the cache past the expiry window.
	cache.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	assert.Nil(t, cache.Read())
	_, ok := store.data[storageKey]
	assert.False(t, ok, "stale entry is removed as a side effect")
}

func TestCache_EntryWithinTTLSurvives(t *testing.T) {
	store := newMemStore()
	cache := New(store, time.Hour)

	cache.Write(domain.Coordinate{Latitude: 35.87, Longitude: 128.60})
	cache.now = func() time.Time { return time.Now().Add(30 * time.Minute) }

	assert.NotNil(t, cache.Read())
}

func TestCache_CorruptEntryCleared(t *testing.T) {
	store := newMemStore()
	store.data[storageKey] = []byte("{not json")
	cache := New(store, time.Hour)

	assert.Nil(t, cache.Read())
	_, ok := store.data[storageKey]
	assert.False(t, ok)
}

func TestCache_StorageFailuresAreSwallowed(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("disk gone")
	store.setErr = errors.New("disk gone")
	store.delErr = errors.New("disk gone")
	cache := New(store, time.Hour)

	// None of these may panic or propagate.
	assert.Nil(t, cache.Read())
	cache.Write(domain.Coordinate{Latitude: 1, Longitude: 1})
	cache.Clear()
}

func TestCache_WriteOverwrites(t *testing.T) {
	store := newMemStore()
	cache := New(store, time.Hour)

	cache.Write(domain.Coordinate{Latitude: 1, Longitude: 1})
	cache.Write(domain.Coordinate{Latitude: 2, Longitude: 2})

	var loc domain.CachedLocation
	require.NoError(t, json.Unmarshal(store.data[storageKey], &loc))
	assert.Equal(t, 2.0, loc.Latitude)
}
