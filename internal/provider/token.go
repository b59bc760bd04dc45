package provider

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/favcolor/internal/platform/errors"
)

// identityClaims are the profile claims carried by assertions and ID tokens.
type identityClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// Assertion is a provider adapter for an assertion-based identity protocol.
// The relying party receives a signed assertion directly; there is no
// redirect leg.
type Assertion struct {
	id     string
	issuer string
	key    []byte
}

// NewAssertion builds an assertion provider verifying tokens signed with the
// shared key and issued by the given issuer.
func NewAssertion(id, issuer string, key []byte) *Assertion {
	return &Assertion{id: id, issuer: issuer, key: key}
}

// ID returns the provider identifier.
func (p *Assertion) ID() string {
	return p.id
}

// AuthorizationURL is undefined for assertion providers.
func (p *Assertion) AuthorizationURL(hint, state string) (string, error) {
	return "", ErrUnsupported
}

// Verify validates the signed assertion and maps its claims onto an identity.
func (p *Assertion) Verify(ctx context.Context, credential string) (Identity, error) {
	return verifySignedToken(credential, p.id, p.issuer, "", p.key)
}

// NativeToken is a provider adapter for the mobile-client path where a
// pre-obtained ID token is posted directly.
type NativeToken struct {
	id       string
	issuer   string
	audience string
	key      []byte
}

// NewNativeToken builds a native ID-token provider. Tokens must carry the
// configured audience, so a token minted for another client is rejected.
func NewNativeToken(id, issuer, audience string, key []byte) *NativeToken {
	return &NativeToken{id: id, issuer: issuer, audience: audience, key: key}
}

// ID returns the provider identifier.
func (p *NativeToken) ID() string {
	return p.id
}

// AuthorizationURL is undefined for the native-token provider.
func (p *NativeToken) AuthorizationURL(hint, state string) (string, error) {
	return "", ErrUnsupported
}

// Verify validates the ID token, including its audience, and maps its claims
// onto an identity.
func (p *NativeToken) Verify(ctx context.Context, credential string) (Identity, error) {
	return verifySignedToken(credential, p.id, p.issuer, p.audience, p.key)
}

func verifySignedToken(credential, providerID, issuer, audience string, key []byte) (Identity, error) {
	raw := strings.TrimSpace(credential)
	if raw == "" {
		return Identity{}, errors.New(errors.CodeVerificationFailed, "credential is required")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		options = append(options, jwt.WithAudience(audience))
	}

	var claims identityClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return key, nil
	}, options...)
	if err != nil {
		return Identity{}, errors.Wrap(errors.CodeVerificationFailed, "parse signed credential", err)
	}
	if strings.TrimSpace(claims.Email) == "" {
		return Identity{}, errors.New(errors.CodeVerificationFailed, "credential has no email claim")
	}

	return Identity{
		Email:       claims.Email,
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
		ProviderID:  providerID,
	}, nil
}
