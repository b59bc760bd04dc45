package login

import (
	"net/http"

	"github.com/louisbranch/favcolor/internal/account"
)

type colorResponse struct {
	Email string `json:"email"`
	Color string `json:"color,omitempty"`
}

// handleGetColor serves the native-client data API: the posted ID token is
// verified directly, no redirect branch exists, and every failure is a bare
// 404 so nothing about stored accounts leaks.
func (s *Server) handleGetColor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := parseLoginRequest(r)
	if err != nil || req.IDToken == "" {
		http.NotFound(w, r)
		return
	}
	stored, ok := s.nativeAccount(w, r, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, colorResponse{Email: stored.Email, Color: stored.Color})
}

// handleSetColor stores the posted color preference. Native clients
// authenticate with an ID token and get a bare API response; the chooser
// page's form carries the cookie session instead and returns home.
func (s *Server) handleSetColor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := parseLoginRequest(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if req.IDToken != "" {
		stored, ok := s.nativeAccount(w, r, req)
		if !ok {
			return
		}
		if err := s.saveColor(r, stored, req.Color); err != nil {
			http.Error(w, "failed to save account", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	email, ok := s.sessions.Resolve(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	stored, err := s.accounts.GetAccount(r.Context(), email)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := s.saveColor(r, stored, req.Color); err != nil {
		http.Error(w, "failed to save account", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// nativeAccount verifies the request's ID token and loads its account.
// On any failure it writes a 404 and reports false.
func (s *Server) nativeAccount(w http.ResponseWriter, r *http.Request, req LoginRequest) (stored account.Account, ok bool) {
	if s.native == nil {
		http.NotFound(w, r)
		return stored, false
	}
	identity, err := s.native.Verify(r.Context(), req.IDToken)
	if err != nil {
		http.NotFound(w, r)
		return stored, false
	}
	found, err := s.accounts.GetAccount(r.Context(), identity.Email)
	if err != nil {
		http.NotFound(w, r)
		return stored, false
	}
	return found, true
}

func (s *Server) saveColor(r *http.Request, stored account.Account, color string) error {
	stored.Color = color
	stored.UpdatedAt = s.clock().UTC()
	return s.accounts.SaveAccount(r.Context(), stored)
}
