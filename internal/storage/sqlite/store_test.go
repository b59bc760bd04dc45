package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/favcolor/internal/account"
	"github.com/louisbranch/favcolor/internal/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "favcolor.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStoreDBNilSafe(t *testing.T) {
	var store *Store
	if store.DB() != nil {
		t.Fatal("expected nil DB for nil store")
	}
}

func TestCreateGetAccountRoundTrip(t *testing.T) {
	store := openTempStore(t)

	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	input := account.Account{
		Email:        "A@X.com",
		DisplayName:  "Alice",
		PhotoURL:     "http://photos/x.png",
		ProviderID:   "google",
		PasswordHash: "hash",
		Color:        "teal",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	if err := store.CreateAccount(context.Background(), input); err != nil {
		t.Fatalf("create account: %v", err)
	}

	got, err := store.GetAccount(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Email != "a@x.com" {
		t.Fatalf("expected normalized email key, got %q", got.Email)
	}
	if got.DisplayName != input.DisplayName || got.ProviderID != input.ProviderID ||
		got.PasswordHash != input.PasswordHash || got.Color != input.Color {
		t.Fatalf("unexpected account: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("expected created at %v, got %v", created, got.CreatedAt)
	}
}

func TestCreateAccountIsInsertIfAbsent(t *testing.T) {
	store := openTempStore(t)
	now := time.Now().UTC()

	first := account.Account{Email: "a@x.com", PasswordHash: "hash-1", CreatedAt: now, UpdatedAt: now}
	if err := store.CreateAccount(context.Background(), first); err != nil {
		t.Fatalf("create account: %v", err)
	}

	second := account.Account{Email: "A@x.com", PasswordHash: "hash-2", CreatedAt: now, UpdatedAt: now}
	err := store.CreateAccount(context.Background(), second)
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := store.GetAccount(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.PasswordHash != "hash-1" {
		t.Fatalf("expected first writer kept, got %q", got.PasswordHash)
	}
}

func TestSaveAccountUpserts(t *testing.T) {
	store := openTempStore(t)
	now := time.Now().UTC()

	a := account.Account{Email: "a@x.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	if err := store.SaveAccount(context.Background(), a); err != nil {
		t.Fatalf("save new account: %v", err)
	}

	a.ProviderID = "google"
	a.DisplayName = "Alice"
	if err := store.SaveAccount(context.Background(), a); err != nil {
		t.Fatalf("save updated account: %v", err)
	}

	got, err := store.GetAccount(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.ProviderID != "google" || got.DisplayName != "Alice" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected account after upsert: %+v", got)
	}
}

func TestGetAccountNotFound(t *testing.T) {
	store := openTempStore(t)
	_, err := store.GetAccount(context.Background(), "missing@x.com")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoginStateRoundTrip(t *testing.T) {
	store := openTempStore(t)
	expires := time.Now().UTC().Add(15 * time.Minute)

	binding := storage.LoginState{State: "token-1", EmailHint: "a@x.com", ExpiresAt: expires}
	if err := store.BindLoginState(context.Background(), binding); err != nil {
		t.Fatalf("bind login state: %v", err)
	}

	got, err := store.GetLoginState(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("get login state: %v", err)
	}
	if got.EmailHint != "a@x.com" {
		t.Fatalf("expected bound hint, got %q", got.EmailHint)
	}

	// Resolving twice is legitimate: a reloaded callback page re-reads it.
	if _, err := store.GetLoginState(context.Background(), "token-1"); err != nil {
		t.Fatalf("second get login state: %v", err)
	}

	_, err = store.GetLoginState(context.Background(), "unknown")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteExpiredLoginStates(t *testing.T) {
	store := openTempStore(t)
	now := time.Now().UTC()

	expired := storage.LoginState{State: "old", EmailHint: "a@x.com", ExpiresAt: now.Add(-time.Minute)}
	live := storage.LoginState{State: "new", EmailHint: "b@x.com", ExpiresAt: now.Add(time.Hour)}
	for _, binding := range []storage.LoginState{expired, live} {
		if err := store.BindLoginState(context.Background(), binding); err != nil {
			t.Fatalf("bind login state: %v", err)
		}
	}

	if err := store.DeleteExpiredLoginStates(context.Background(), now); err != nil {
		t.Fatalf("delete expired: %v", err)
	}

	if _, err := store.GetLoginState(context.Background(), "old"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected expired binding removed, got %v", err)
	}
	if _, err := store.GetLoginState(context.Background(), "new"); err != nil {
		t.Fatalf("expected live binding kept, got %v", err)
	}
}
