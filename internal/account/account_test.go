package account

import (
	"strings"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"lowercases", "Alice@Example.Com", "alice@example.com"},
		{"trims", "  a@x.com  ", "a@x.com"},
		{"empty", "   ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeEmail(tc.email); got != tc.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tc.email, got, tc.want)
			}
		})
	}
}

func TestFederated(t *testing.T) {
	if (Account{ProviderID: "google"}).Federated() != true {
		t.Fatal("expected provider-bound account to be federated")
	}
	if (Account{PasswordHash: "hash"}).Federated() {
		t.Fatal("expected password account to not be federated")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	a := Account{Email: "a@x.com", PasswordHash: hash}
	if !a.CheckPassword("secret") {
		t.Fatal("expected matching password to verify")
	}
	if a.CheckPassword("wrong") {
		t.Fatal("expected wrong password to fail")
	}
	if (Account{}).CheckPassword("secret") {
		t.Fatal("expected account without hash to fail")
	}
}

func TestPublicFieldsOmitsEmptyValues(t *testing.T) {
	a := Account{
		Email:       "a@x.com",
		DisplayName: "Alice",
		ProviderID:  "google",
	}
	fields := a.PublicFields()
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d: %+v", len(fields), fields)
	}
	for _, field := range fields {
		if field.Name == "photoUrl" {
			t.Fatal("expected empty photoUrl to be omitted")
		}
		if strings.TrimSpace(field.Value) == "" {
			t.Fatalf("expected no empty values, got %+v", field)
		}
	}
	if fields[0].Name != "email" || fields[0].Value != "a@x.com" {
		t.Fatalf("expected email first, got %+v", fields[0])
	}
}
