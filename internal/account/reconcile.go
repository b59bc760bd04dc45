package account

import (
	"strings"
	"time"

	"github.com/louisbranch/favcolor/internal/provider"
)

// Reconcile merges a provider identity into the stored account for its email.
//
// With no existing account the identity becomes a new account. Otherwise only
// fields that are currently empty are filled from non-empty incoming values;
// established values, including an existing provider binding, are never
// replaced by a later login through a different provider. The returned bool
// reports whether anything was written, so callers persist only real changes
// and re-running the same login is a no-op.
func Reconcile(existing *Account, incoming provider.Identity, now func() time.Time) (Account, bool) {
	if now == nil {
		now = time.Now
	}
	nowUTC := now().UTC()

	if existing == nil {
		return Account{
			Email:       NormalizeEmail(incoming.Email),
			DisplayName: strings.TrimSpace(incoming.DisplayName),
			PhotoURL:    strings.TrimSpace(incoming.PhotoURL),
			ProviderID:  strings.TrimSpace(incoming.ProviderID),
			CreatedAt:   nowUTC,
			UpdatedAt:   nowUTC,
		}, true
	}

	merged := *existing
	changed := false
	fill := func(current *string, incoming string) {
		incoming = strings.TrimSpace(incoming)
		if strings.TrimSpace(*current) != "" || incoming == "" {
			return
		}
		*current = incoming
		changed = true
	}
	fill(&merged.DisplayName, incoming.DisplayName)
	fill(&merged.PhotoURL, incoming.PhotoURL)
	fill(&merged.ProviderID, incoming.ProviderID)

	if changed {
		merged.UpdatedAt = nowUTC
	}
	return merged, changed
}
