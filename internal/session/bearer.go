package session

import (
	"net/http"
	"strings"

	"github.com/louisbranch/favcolor/internal/provider"
)

// BearerTokenCookie is the fallback cookie checked for a signed bearer token
// when clients cannot send an Authorization header.
const BearerTokenCookie = "gtoken"

// BearerCarrier derives the logged-in email per-request from a signed bearer
// token instead of storing session state. Used where the primary cookie
// session is unavailable, such as trusted native clients.
type BearerCarrier struct {
	verifier provider.Provider
}

// NewBearerCarrier builds a bearer carrier over a token verifier.
func NewBearerCarrier(verifier provider.Provider) *BearerCarrier {
	return &BearerCarrier{verifier: verifier}
}

// Establish is a no-op: identity is derived from the request token, the
// carrier has nothing to store.
func (b *BearerCarrier) Establish(w http.ResponseWriter, r *http.Request, email string) error {
	return nil
}

// Resolve verifies the request's bearer token and returns its email.
func (b *BearerCarrier) Resolve(r *http.Request) (string, bool) {
	if r == nil || b.verifier == nil {
		return "", false
	}
	token := bearerToken(r)
	if token == "" {
		return "", false
	}
	identity, err := b.verifier.Verify(r.Context(), token)
	if err != nil {
		return "", false
	}
	return identity.Email, true
}

// Terminate is a no-op: the external token is revoked through its own logout
// surface, not this one.
func (b *BearerCarrier) Terminate(w http.ResponseWriter, r *http.Request) {}

func bearerToken(r *http.Request) string {
	authorization := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(authorization, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authorization, "Bearer "))
	}
	if cookie, err := r.Cookie(BearerTokenCookie); err == nil && cookie != nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
