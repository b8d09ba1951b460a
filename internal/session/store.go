// Package session owns the authenticated identity and credential token.
// The store is the sole owner of credential state: no other component
// caches the token. It persists one durable record under a fixed
// storage key so a session survives process restarts, and the current
// session is always readable synchronously from memory.
package session

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	// sqlite driver for the session database.
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// storageKey matches the fixed key the original client persisted under.
const storageKey = "auth-storage"

// User is the resolved profile of the authenticated user.
type User struct {
	ID       int64
	Username string
	Email    string
}

// Session is the authenticated identity plus credential token. Token
// and User are always set together; a token without a resolved profile
// is never persisted.
type Session struct {
	User  User
	Token string
}

// Store is the process-wide session holder. All mutation happens through
// Set and Clear, which update the durable record and the in-memory copy
// atomically with respect to readers.
type Store struct {
	db *sql.DB

	mu      sync.RWMutex
	current *Session
}

// Open opens (or creates) the session database at path and loads any
// persisted session into memory. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create session directory: %w", err)
			}
		}
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping session database: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize session schema: %w", err)
	}
	return s.load()
}

// load reads the persisted record into memory. Called once at Open so
// every later read is synchronous.
func (s *Store) load() error {
	row := s.db.QueryRow(
		`SELECT user_id, username, email, token FROM sessions WHERE storage_key = ?`,
		storageKey,
	)

	var sess Session
	err := row.Scan(&sess.User.ID, &sess.User.Username, &sess.User.Email, &sess.Token)
	switch {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return fmt.Errorf("failed to load session: %w", err)
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Set establishes a session atomically: the durable record and the
// in-memory copy are replaced together, never independently.
func (s *Store) Set(user User, token string) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (storage_key, user_id, username, email, token, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(storage_key) DO UPDATE SET
			user_id = excluded.user_id,
			username = excluded.username,
			email = excluded.email,
			token = excluded.token,
			updated_at = excluded.updated_at`,
		storageKey, user.ID, user.Username, user.Email, token,
	)
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.current = &Session{User: user, Token: token}
	s.mu.Unlock()
	return nil
}

// Clear removes the session. Clearing an absent session is a no-op, so
// calling Clear twice leaves the store in the same state as once.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE storage_key = ?`, storageKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return nil
}

// Current returns the session and whether one is established.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Token implements the transport gateway's credential source. An empty
// string means no session.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}
