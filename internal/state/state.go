// Package state issues and resolves the correlation tokens round-tripped
// through external provider redirect flows.
package state

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/favcolor/internal/storage"
)

const defaultTTL = 15 * time.Minute

// Issuer creates unguessable state tokens bound to an email hint.
//
// A fresh token is issued for every outbound redirect; the provider echoes it
// back as the opaque state parameter. Tokens stay resolvable until their TTL
// elapses, so reloading a callback page is harmless.
type Issuer struct {
	store storage.StateStore
	ttl   time.Duration
	clock func() time.Time
}

// NewIssuer builds an issuer over the given state store.
func NewIssuer(store storage.StateStore, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Issuer{store: store, ttl: ttl, clock: time.Now}
}

// SetClock overrides the time source.
func (i *Issuer) SetClock(clock func() time.Time) {
	if clock != nil {
		i.clock = clock
	}
}

// Issue generates a 128-bit token and binds it to the email hint, which may
// be empty for flows started without a known email.
func (i *Issuer) Issue(ctx context.Context, emailHint string) (string, error) {
	token, err := generateToken(16)
	if err != nil {
		return "", fmt.Errorf("generate state token: %w", err)
	}
	binding := storage.LoginState{
		State:     token,
		EmailHint: emailHint,
		ExpiresAt: i.clock().UTC().Add(i.ttl),
	}
	if err := i.store.BindLoginState(ctx, binding); err != nil {
		return "", fmt.Errorf("bind state token: %w", err)
	}
	return token, nil
}

// Resolve returns the email hint bound to a token. The second return is false
// when the token is unknown or expired.
func (i *Issuer) Resolve(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}
	binding, err := i.store.GetLoginState(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("resolve state token: %w", err)
	}
	if !binding.ExpiresAt.After(i.clock().UTC()) {
		return "", false, nil
	}
	return binding.EmailHint, true, nil
}

func generateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
