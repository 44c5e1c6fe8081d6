package storage

import (
	"fmt"
	"sync"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cache    map[string]*CachedRows

	// Hooks for test assertions
	SaveSessionCalled bool
	LastSavedSession  *Session
	SaveMatchCalled   bool
	LastSavedMatch    *ConfirmedMatch
	DeleteMatchCalled bool

	// Error injection for testing error paths
	GetSessionErr  error
	SaveSessionErr error
	SaveMatchErr   error
	PutCacheErr    error
	GetCacheErr    error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		sessions: make(map[string]*Session),
		cache:    make(map[string]*CachedRows),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// GetSession returns a copy of the stored session, or (nil, nil) when absent
func (m *MockRepository) GetSession(key string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetSessionErr != nil {
		return nil, m.GetSessionErr
	}
	session, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	return copySession(session), nil
}

// SaveSession stores a copy of the session
func (m *MockRepository) SaveSession(session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveSessionCalled = true
	m.LastSavedSession = session
	if m.SaveSessionErr != nil {
		return m.SaveSessionErr
	}
	m.sessions[session.Key] = copySession(session)
	return nil
}

// SaveMatch upserts a match on an existing session
func (m *MockRepository) SaveMatch(key string, match ConfirmedMatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveMatchCalled = true
	m.LastSavedMatch = &match
	if m.SaveMatchErr != nil {
		return m.SaveMatchErr
	}
	session, ok := m.sessions[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	session.Matches[match.BankTxnID] = match
	return nil
}

// DeleteMatch removes a match; deleting an absent match is a no-op
func (m *MockRepository) DeleteMatch(key, bankTxnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteMatchCalled = true
	session, ok := m.sessions[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	delete(session.Matches, bankTxnID)
	return nil
}

// SetOnlyPendingFilter stores the filter preference
func (m *MockRepository) SetOnlyPendingFilter(key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, key)
	}
	session.OnlyPendingFilter = value
	return nil
}

// PutCachedRows stores normalized rows for a key
func (m *MockRepository) PutCachedRows(key string, rows *CachedRows) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutCacheErr != nil {
		return m.PutCacheErr
	}
	m.cache[key] = rows
	return nil
}

// GetCachedRows retrieves cached rows, or (nil, nil) on a miss
func (m *MockRepository) GetCachedRows(key string) (*CachedRows, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetCacheErr != nil {
		return nil, m.GetCacheErr
	}
	rows, ok := m.cache[key]
	if !ok {
		return nil, nil
	}
	return rows, nil
}

// copySession deep-copies a session so test mutations do not leak
func copySession(s *Session) *Session {
	copied := *s
	copied.Matches = make(map[string]ConfirmedMatch, len(s.Matches))
	for k, v := range s.Matches {
		copied.Matches[k] = v
	}
	return &copied
}
