// Package provider normalizes external identity protocols behind one
// adapter interface: redirect-based OAuth providers, an assertion-based
// provider, and a native ID-token provider for mobile clients.
package provider

import (
	"context"
	"strings"

	"github.com/louisbranch/favcolor/internal/platform/errors"
)

// ErrUnsupported indicates the provider has no redirect authorization flow.
var ErrUnsupported = errors.New(errors.CodeUnsupportedOperation, "provider does not support redirect authorization")

// ErrVerification indicates the provider rejected or could not verify a credential.
var ErrVerification = errors.New(errors.CodeVerificationFailed, "credential verification failed")

// Identity is the normalized result of a successful external authentication.
// It is never persisted directly; it always passes through reconciliation.
type Identity struct {
	Email       string
	DisplayName string
	PhotoURL    string
	ProviderID  string
}

// Provider adapts one external identity protocol.
type Provider interface {
	// ID returns the stable provider identifier used for dispatch.
	ID() string
	// AuthorizationURL builds the provider's authorization endpoint URL
	// embedding the state token. Returns ErrUnsupported for providers
	// without a redirect flow.
	AuthorizationURL(hint, state string) (string, error)
	// Verify exchanges a code, assertion, or token for a normalized
	// identity. All failures are terminal for the flow; callers never retry.
	Verify(ctx context.Context, credential string) (Identity, error)
}

// Registry maps provider identifiers to adapters.
type Registry map[string]Provider

// NewRegistry builds a registry from the given adapters.
func NewRegistry(providers ...Provider) Registry {
	registry := make(Registry, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		registry[p.ID()] = p
	}
	return registry
}

// Lookup returns the adapter for a provider identifier.
func (r Registry) Lookup(id string) (Provider, bool) {
	p, ok := r[strings.TrimSpace(id)]
	return p, ok
}
