package session

import "net/http"

// Carrier is one mechanism for carrying the logged-in email across requests.
type Carrier interface {
	// Establish records the email on the carrier. Carriers that derive
	// identity per-request treat this as a no-op.
	Establish(w http.ResponseWriter, r *http.Request, email string) error
	// Resolve returns the logged-in email carried by the request, if any.
	Resolve(r *http.Request) (string, bool)
	// Terminate clears the carrier's stored identity where it has one.
	Terminate(w http.ResponseWriter, r *http.Request)
}

// Manager multiplexes session carriers so handlers see one logical
// logged-in-email concept regardless of the mechanism in play.
type Manager struct {
	carriers []Carrier
}

// NewManager builds a manager. Carrier order is resolution order.
func NewManager(carriers ...Carrier) *Manager {
	return &Manager{carriers: carriers}
}

// Establish records the email on every carrier.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, email string) error {
	for _, carrier := range m.carriers {
		if err := carrier.Establish(w, r, email); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the first email any carrier derives from the request.
func (m *Manager) Resolve(r *http.Request) (string, bool) {
	for _, carrier := range m.carriers {
		if email, ok := carrier.Resolve(r); ok {
			return email, true
		}
	}
	return "", false
}

// Terminate clears every carrier that stores identity. Per-request derived
// carriers keep their external tokens; revoking those is a separate logout
// surface.
func (m *Manager) Terminate(w http.ResponseWriter, r *http.Request) {
	for _, carrier := range m.carriers {
		carrier.Terminate(w, r)
	}
}
