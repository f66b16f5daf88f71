package ports

// SessionStore is session-scoped key/value storage with JSON-serializable
// values and no transactional guarantees. Get returns ok=false for absent
// keys. Errors from the backing store are returned as-is; callers decide
// whether they are worth surfacing.
type SessionStore interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
