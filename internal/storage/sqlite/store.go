// Package sqlite implements account and login-state persistence over SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/favcolor/internal/account"
	"github.com/louisbranch/favcolor/internal/storage"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	email TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	photo_url TEXT NOT NULL DEFAULT '',
	provider_id TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS login_states (
	state TEXT PRIMARY KEY,
	email_hint TEXT NOT NULL DEFAULT '',
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_login_states_expires_at ON login_states(expires_at);
`

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements login persistence over SQLite.
//
// A single SQLite file backs accounts and state bindings so every login
// subflow shares the same visibility boundaries.
type Store struct {
	sqlDB *sql.DB
}

// DB returns the raw database handle.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

// Open opens the SQLite store and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ensureDB() error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("sqlite store is not configured")
	}
	return nil
}

// CreateAccount inserts a new account record. Insertion is atomic
// insert-if-absent; losing a creation race surfaces storage.ErrAlreadyExists
// so an email never maps to two rows.
func (s *Store) CreateAccount(ctx context.Context, a account.Account) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	email := account.NormalizeEmail(a.Email)
	if email == "" {
		return fmt.Errorf("account email is required")
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO accounts (email, display_name, photo_url, provider_id, password_hash, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING`,
		email, a.DisplayName, a.PhotoURL, a.ProviderID, a.PasswordHash, a.Color,
		toMillis(a.CreatedAt), toMillis(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	if rows == 0 {
		return storage.ErrAlreadyExists
	}
	return nil
}

// SaveAccount upserts an account record.
func (s *Store) SaveAccount(ctx context.Context, a account.Account) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	email := account.NormalizeEmail(a.Email)
	if email == "" {
		return fmt.Errorf("account email is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO accounts (email, display_name, photo_url, provider_id, password_hash, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			display_name = excluded.display_name,
			photo_url = excluded.photo_url,
			provider_id = excluded.provider_id,
			password_hash = excluded.password_hash,
			color = excluded.color,
			updated_at = excluded.updated_at`,
		email, a.DisplayName, a.PhotoURL, a.ProviderID, a.PasswordHash, a.Color,
		toMillis(a.CreatedAt), toMillis(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

// GetAccount returns the account for an email, or storage.ErrNotFound.
func (s *Store) GetAccount(ctx context.Context, email string) (account.Account, error) {
	if err := s.ensureDB(); err != nil {
		return account.Account{}, err
	}
	var a account.Account
	var createdAt, updatedAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT email, display_name, photo_url, provider_id, password_hash, color, created_at, updated_at
		FROM accounts WHERE email = ?`,
		account.NormalizeEmail(email),
	).Scan(&a.Email, &a.DisplayName, &a.PhotoURL, &a.ProviderID, &a.PasswordHash, &a.Color, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.Account{}, storage.ErrNotFound
		}
		return account.Account{}, fmt.Errorf("get account: %w", err)
	}
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return a, nil
}

// BindLoginState stores a state-token binding.
func (s *Store) BindLoginState(ctx context.Context, state storage.LoginState) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if strings.TrimSpace(state.State) == "" {
		return fmt.Errorf("login state token is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO login_states (state, email_hint, expires_at) VALUES (?, ?, ?)`,
		state.State, state.EmailHint, toMillis(state.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("bind login state: %w", err)
	}
	return nil
}

// GetLoginState returns a state-token binding, or storage.ErrNotFound.
func (s *Store) GetLoginState(ctx context.Context, state string) (storage.LoginState, error) {
	if err := s.ensureDB(); err != nil {
		return storage.LoginState{}, err
	}
	var stored storage.LoginState
	var expiresAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT state, email_hint, expires_at FROM login_states WHERE state = ?`,
		state,
	).Scan(&stored.State, &stored.EmailHint, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.LoginState{}, storage.ErrNotFound
		}
		return storage.LoginState{}, fmt.Errorf("get login state: %w", err)
	}
	stored.ExpiresAt = fromMillis(expiresAt)
	return stored, nil
}

// DeleteExpiredLoginStates removes bindings whose TTL elapsed before now.
func (s *Store) DeleteExpiredLoginStates(ctx context.Context, now time.Time) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM login_states WHERE expires_at <= ?`, toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("delete expired login states: %w", err)
	}
	return nil
}
