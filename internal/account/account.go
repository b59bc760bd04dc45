// Package account provides the durable identity record and the merge policy
// that reconciles freshly authenticated identities into it.
package account

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Account is the durable identity record, keyed by email.
//
// An account is either a password account (PasswordHash set, ProviderID
// empty) or a federated account (ProviderID set). A password account may be
// upgraded to federated; the hash is retained.
type Account struct {
	Email        string
	DisplayName  string
	PhotoURL     string
	ProviderID   string
	PasswordHash string
	Color        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail canonicalizes an email address for use as the account key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Federated reports whether the account is bound to an external provider.
func (a Account) Federated() bool {
	return strings.TrimSpace(a.ProviderID) != ""
}

// HashPassword derives a bcrypt hash for a password account.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func (a Account) CheckPassword(password string) bool {
	if a.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// PublicField is one chooser-visible profile field.
type PublicField struct {
	Name  string
	Value string
}

// PublicFields returns the profile fields shared with the account chooser,
// in stable order, omitting empty values so a blank field never overwrites a
// previously cached one on the client.
func (a Account) PublicFields() []PublicField {
	candidates := []PublicField{
		{Name: "email", Value: a.Email},
		{Name: "displayName", Value: a.DisplayName},
		{Name: "photoUrl", Value: a.PhotoURL},
		{Name: "providerId", Value: a.ProviderID},
	}
	fields := make([]PublicField, 0, len(candidates))
	for _, field := range candidates {
		if strings.TrimSpace(field.Value) == "" {
			continue
		}
		fields = append(fields, field)
	}
	return fields
}
