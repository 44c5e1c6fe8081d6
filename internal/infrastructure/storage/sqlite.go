package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for sessions and the row cache.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// GetSession retrieves a session by key. Returns (nil, nil) when absent.
func (s *Storage) GetSession(key string) (*Session, error) {
	query := `
	SELECT key, account_id, period_start, period_end, matches_json,
	       only_pending, updated_at
	FROM sessions WHERE key = ?
	`

	session := &Session{}
	var matchesJSON string
	err := s.db.QueryRow(query, key).Scan(
		&session.Key,
		&session.AccountID,
		&session.PeriodStart,
		&session.PeriodEnd,
		&matchesJSON,
		&session.OnlyPendingFilter,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	session.Matches = make(map[string]ConfirmedMatch)
	if matchesJSON != "" {
		if err := json.Unmarshal([]byte(matchesJSON), &session.Matches); err != nil {
			return nil, fmt.Errorf("corrupt matches for session %s: %w", key, err)
		}
	}

	return session, nil
}

// SaveSession saves or replaces a whole session. Last write wins.
func (s *Storage) SaveSession(session *Session) error {
	matchesJSON, err := json.Marshal(session.Matches)
	if err != nil {
		return err
	}

	query := `
	INSERT OR REPLACE INTO sessions
	(key, account_id, period_start, period_end, matches_json, only_pending, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		session.Key,
		session.AccountID,
		session.PeriodStart,
		session.PeriodEnd,
		string(matchesJSON),
		session.OnlyPendingFilter,
		time.Now().UTC(),
	)
	return err
}

// SaveMatch upserts one confirmed match inside an existing session.
func (s *Storage) SaveMatch(key string, match ConfirmedMatch) error {
	return s.updateMatches(key, func(matches map[string]ConfirmedMatch) {
		matches[match.BankTxnID] = match
	})
}

// DeleteMatch removes the confirmed match for a bank transaction.
func (s *Storage) DeleteMatch(key, bankTxnID string) error {
	return s.updateMatches(key, func(matches map[string]ConfirmedMatch) {
		delete(matches, bankTxnID)
	})
}

// updateMatches applies a mutation to the matches map of one session in a
// transaction. The engine is single-operator by construction, so the
// read-modify-write needs no stronger guarantee than last-write-wins.
func (s *Storage) updateMatches(key string, mutate func(map[string]ConfirmedMatch)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var matchesJSON string
	err = tx.QueryRow(`SELECT matches_json FROM sessions WHERE key = ?`, key).Scan(&matchesJSON)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	if err != nil {
		return err
	}

	matches := make(map[string]ConfirmedMatch)
	if matchesJSON != "" {
		if err := json.Unmarshal([]byte(matchesJSON), &matches); err != nil {
			return fmt.Errorf("corrupt matches for session %s: %w", key, err)
		}
	}

	mutate(matches)

	updated, err := json.Marshal(matches)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`UPDATE sessions SET matches_json = ?, updated_at = ? WHERE key = ?`,
		string(updated), time.Now().UTC(), key)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// SetOnlyPendingFilter persists the operator's filter preference.
func (s *Storage) SetOnlyPendingFilter(key string, value bool) error {
	result, err := s.db.Exec(`UPDATE sessions SET only_pending = ?, updated_at = ? WHERE key = ?`,
		value, time.Now().UTC(), key)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	return nil
}

// PutCachedRows stores the normalized rows for a key.
func (s *Storage) PutCachedRows(key string, rows *CachedRows) error {
	ledgerJSON, err := json.Marshal(rows.Ledger)
	if err != nil {
		return err
	}
	bankJSON, err := json.Marshal(rows.Bank)
	if err != nil {
		return err
	}

	query := `
	INSERT OR REPLACE INTO row_cache (key, ledger_json, bank_json, cached_at)
	VALUES (?, ?, ?, ?)
	`

	_, err = s.db.Exec(query, key, string(ledgerJSON), string(bankJSON), time.Now().UTC())
	return err
}

// GetCachedRows retrieves cached rows. Returns (nil, nil) on a miss.
func (s *Storage) GetCachedRows(key string) (*CachedRows, error) {
	query := `SELECT ledger_json, bank_json, cached_at FROM row_cache WHERE key = ?`

	var ledgerJSON, bankJSON string
	rows := &CachedRows{}
	err := s.db.QueryRow(query, key).Scan(&ledgerJSON, &bankJSON, &rows.CachedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(ledgerJSON), &rows.Ledger); err != nil {
		return nil, fmt.Errorf("corrupt ledger cache for %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(bankJSON), &rows.Bank); err != nil {
		return nil, fmt.Errorf("corrupt bank cache for %s: %w", key, err)
	}

	return rows, nil
}
