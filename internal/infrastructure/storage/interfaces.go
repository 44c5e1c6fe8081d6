package storage

import "errors"

// ErrSessionNotFound is returned by match-level writes against a session
// key that was never saved.
var ErrSessionNotFound = errors.New("session not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory)
// and makes testing straightforward.
type Repository interface {
	SessionRepository
	RowCacheRepository
	Close() error
}

// SessionRepository persists operator sessions keyed by (account, period).
type SessionRepository interface {
	// GetSession retrieves a session by key. Returns (nil, nil) when the
	// key has never been saved.
	GetSession(key string) (*Session, error)

	// SaveSession saves or replaces a whole session. Last write wins.
	SaveSession(session *Session) error

	// SaveMatch upserts one confirmed match inside an existing session.
	SaveMatch(key string, match ConfirmedMatch) error

	// DeleteMatch removes the confirmed match for a bank transaction.
	// Removing an absent match is a no-op.
	DeleteMatch(key, bankTxnID string) error

	// SetOnlyPendingFilter persists the operator's filter preference.
	SetOnlyPendingFilter(key string, value bool) error
}

// RowCacheRepository caches normalized row sets per session key.
type RowCacheRepository interface {
	// PutCachedRows stores the normalized rows for a key, replacing any
	// previous value.
	PutCachedRows(key string, rows *CachedRows) error

	// GetCachedRows retrieves cached rows. Returns (nil, nil) on a cache
	// miss; a miss is never an error.
	GetCachedRows(key string) (*CachedRows, error)
}
