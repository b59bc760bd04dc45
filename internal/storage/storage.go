package storage

import (
	"context"
	"time"

	"github.com/louisbranch/favcolor/internal/account"
	"github.com/louisbranch/favcolor/internal/platform/errors"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New(errors.CodeNotFound, "record not found")

// ErrAlreadyExists indicates an insert hit an existing record.
var ErrAlreadyExists = errors.New(errors.CodeAlreadyExists, "record already exists")

// LoginState binds a state token to an email hint for one redirect round trip.
type LoginState struct {
	State     string
	EmailHint string
	ExpiresAt time.Time
}

// AccountStore persists account records keyed by email.
type AccountStore interface {
	// CreateAccount inserts a new account. It is atomic insert-if-absent:
	// an email can never map to two stored records, and a lost race
	// surfaces ErrAlreadyExists.
	CreateAccount(ctx context.Context, a account.Account) error
	// SaveAccount upserts an account record.
	SaveAccount(ctx context.Context, a account.Account) error
	// GetAccount returns the account for a normalized email, or ErrNotFound.
	GetAccount(ctx context.Context, email string) (account.Account, error)
}

// StateStore persists state-token bindings.
type StateStore interface {
	BindLoginState(ctx context.Context, state LoginState) error
	// GetLoginState returns a binding, or ErrNotFound when absent. Expiry
	// is enforced by callers against their own clock.
	GetLoginState(ctx context.Context, state string) (LoginState, error)
	// DeleteExpiredLoginStates removes bindings that expired before now.
	DeleteExpiredLoginStates(ctx context.Context, now time.Time) error
}
