package login

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/louisbranch/favcolor/internal/account"
	"github.com/louisbranch/favcolor/internal/provider"
	"github.com/louisbranch/favcolor/internal/storage"
)

type pageView struct {
	Title   string
	Heading string
	Message string
}

type chooserView struct {
	Email       string
	DisplayName string
	Color       string
}

type bootstrapView struct {
	Fields []account.PublicField
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	email, ok := s.sessions.Resolve(r)
	if !ok {
		http.Redirect(w, r, "/account-login", http.StatusFound)
		return
	}
	stored, err := s.accounts.GetAccount(r.Context(), email)
	if err != nil {
		// Session references an account this store no longer knows.
		s.sessions.Terminate(w, r)
		http.Redirect(w, r, "/account-login", http.StatusFound)
		return
	}
	s.renderTemplate(w, http.StatusOK, "chooser.html", chooserView{
		Email:       stored.Email,
		DisplayName: stored.DisplayName,
		Color:       stored.Color,
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, http.StatusOK, "login.html", pageView{Title: "Login", Heading: "Welcome to FavColor!"})
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, http.StatusOK, "create.html", pageView{Title: "First-time Login", Heading: "Welcome to FavColor!"})
}

func (s *Server) handleDuplicatePage(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, http.StatusOK, "dupe.html", pageView{Title: "Duplicate account!", Heading: "Sorry, that email is taken."})
}

// handleMarketing serves the cross-origin marketing snippet embedded by the
// account-chooser pages.
func (s *Server) handleMarketing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Max-Age", "86400")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<p style='background: #ddaaaa;text-align: center'>FavColor — We know your favorite!</p>"))
}

// handleAccountStatus answers the ac.js probe: either an authorization URI
// for a federated account's provider, or whether the email is registered.
func (s *Server) handleAccountStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := parseLoginRequest(r)
	if err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	if p, ok := s.providerForAuthURL(req.AuthURL); ok {
		stateToken, err := s.states.Issue(r.Context(), account.NormalizeEmail(req.Email))
		if err != nil {
			http.Error(w, "failed to start provider flow", http.StatusInternalServerError)
			return
		}
		authURI, err := p.AuthorizationURL(req.Email, stateToken)
		if err != nil {
			http.Error(w, "failed to start provider flow", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"authUri": authURI})
		return
	}

	_, err = s.accounts.GetAccount(r.Context(), req.Email)
	registered := err == nil
	writeJSON(w, http.StatusOK, map[string]bool{"registered": registered})
}

// handleNewLogin registers a new password account, or starts a federated flow
// when a provider is named.
func (s *Server) handleNewLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := parseLoginRequest(r)
	if err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	if req.ProviderID != "" {
		s.startFederated(w, r, req.ProviderID, req.Email)
		return
	}

	if req.Email == "" || req.Password == "" {
		s.redirectBack(w, r, "/account-create")
		return
	}

	if _, err := s.accounts.GetAccount(r.Context(), req.Email); err == nil {
		http.Redirect(w, r, "/dupe", http.StatusFound)
		return
	}

	hash, err := account.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "failed to create account", http.StatusInternalServerError)
		return
	}
	now := s.clock().UTC()
	created := account.Account{
		Email:        account.NormalizeEmail(req.Email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.CreateAccount(r.Context(), created); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			http.Redirect(w, r, "/dupe", http.StatusFound)
			return
		}
		http.Error(w, "failed to create account", http.StatusInternalServerError)
		return
	}

	if err := s.sessions.Establish(w, r, created.Email); err != nil {
		http.Error(w, "failed to establish session", http.StatusInternalServerError)
		return
	}
	s.renderBootstrap(w, created)
}

// handleDoneLogin logs in an existing account. A provider binding on the
// account always wins over a freshly supplied password.
func (s *Server) handleDoneLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := parseLoginRequest(r)
	if err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	if req.ProviderID != "" {
		s.startFederated(w, r, req.ProviderID, req.Email)
		return
	}

	if req.Email == "" || req.Password == "" {
		s.redirectBack(w, r, "/account-login")
		return
	}

	stored, err := s.accounts.GetAccount(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Apparently a new user.
			http.Redirect(w, r, "/account-create", http.StatusFound)
			return
		}
		http.Error(w, "failed to look up account", http.StatusInternalServerError)
		return
	}

	if stored.Federated() {
		// Accounts that have federated never fall back to password.
		s.startFederated(w, r, stored.ProviderID, stored.Email)
		return
	}

	if !stored.CheckPassword(req.Password) {
		s.renderAuthFailed(w, "Incorrect email or password.")
		return
	}

	if err := s.sessions.Establish(w, r, stored.Email); err != nil {
		http.Error(w, "failed to establish session", http.StatusInternalServerError)
		return
	}
	s.renderBootstrap(w, stored)
}

// startFederated issues a state token bound to the email hint and redirects
// to the provider's authorization endpoint.
func (s *Server) startFederated(w http.ResponseWriter, r *http.Request, providerID, emailHint string) {
	p, ok := s.providers.Lookup(providerID)
	if !ok {
		s.renderAuthFailed(w, "Unknown identity provider.")
		return
	}

	emailHint = account.NormalizeEmail(emailHint)
	stateToken, err := s.states.Issue(r.Context(), emailHint)
	if err != nil {
		http.Error(w, "failed to start provider flow", http.StatusInternalServerError)
		return
	}

	authURI, err := p.AuthorizationURL(emailHint, stateToken)
	if err != nil {
		if errors.Is(err, provider.ErrUnsupported) {
			s.renderAuthFailed(w, "This identity provider has no redirect login.")
			return
		}
		http.Error(w, "failed to start provider flow", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, authURI, http.StatusFound)
}

// handleProviderRoutes dispatches /providers/{id}/callback.
func (s *Server) handleProviderRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/providers/")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[1] != "callback" {
		http.NotFound(w, r)
		return
	}
	s.handleProviderCallback(w, r, parts[0])
}

// handleProviderCallback completes a federated login: verify the returned
// credential, reconcile it into the account store, establish the session for
// the reconciled account, and bootstrap the account chooser.
func (s *Server) handleProviderCallback(w http.ResponseWriter, r *http.Request, providerID string) {
	p, ok := s.providers.Lookup(providerID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	if errParam := r.FormValue("error"); errParam != "" {
		description := r.FormValue("error_description")
		if description == "" {
			description = errParam
		}
		s.renderAuthFailed(w, description)
		return
	}

	// Resolving the state correlates the callback with the flow we started.
	// A reloaded callback page resolves the same token again, which is fine.
	var pendingEmail string
	if stateToken := r.FormValue("state"); stateToken != "" {
		hint, valid, err := s.states.Resolve(r.Context(), stateToken)
		if err != nil || !valid {
			s.renderAuthFailed(w, "Login attempt expired. Please start over.")
			return
		}
		pendingEmail = hint
	}

	credential := r.FormValue("code")
	if credential == "" {
		credential = r.FormValue("assertion")
	}
	identity, err := p.Verify(r.Context(), credential)
	if err != nil {
		s.renderAuthFailed(w, "The identity provider rejected the login.")
		return
	}

	// The state binding pins which local account this flow was started for;
	// a verified identity for some other email is a correlation failure, not
	// a login.
	if pendingEmail != "" && account.NormalizeEmail(identity.Email) != pendingEmail {
		s.renderAuthFailed(w, "This login was started for a different account.")
		return
	}

	reconciled, err := s.reconcileIdentity(r, identity)
	if err != nil {
		http.Error(w, "failed to save account", http.StatusInternalServerError)
		return
	}

	if err := s.sessions.Establish(w, r, reconciled.Email); err != nil {
		http.Error(w, "failed to establish session", http.StatusInternalServerError)
		return
	}
	s.renderBootstrap(w, reconciled)
}

// reconcileIdentity merges a verified identity into the store. Creation is
// atomic insert-if-absent; losing the race falls through to a merge against
// the winning row.
func (s *Server) reconcileIdentity(r *http.Request, identity provider.Identity) (account.Account, error) {
	ctx := r.Context()
	var existing *account.Account
	stored, err := s.accounts.GetAccount(ctx, identity.Email)
	switch {
	case err == nil:
		existing = &stored
	case errors.Is(err, storage.ErrNotFound):
	default:
		return account.Account{}, err
	}

	merged, changed := account.Reconcile(existing, identity, s.clock)
	if !changed {
		return merged, nil
	}

	if existing == nil {
		err := s.accounts.CreateAccount(ctx, merged)
		if err == nil {
			return merged, nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return account.Account{}, err
		}
		// Lost a creation race; merge into the row that won.
		winner, err := s.accounts.GetAccount(ctx, identity.Email)
		if err != nil {
			return account.Account{}, err
		}
		merged, changed = account.Reconcile(&winner, identity, s.clock)
		if !changed {
			return merged, nil
		}
	}
	if err := s.accounts.SaveAccount(ctx, merged); err != nil {
		return account.Account{}, err
	}
	return merged, nil
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.sessions.Terminate(w, r)
	http.Redirect(w, r, "/", http.StatusFound)
}

// renderBootstrap emits the account-chooser bootstrap page. Only non-empty
// profile fields are included so blank data never overwrites a previously
// cached value on the client.
func (s *Server) renderBootstrap(w http.ResponseWriter, a account.Account) {
	s.renderTemplate(w, http.StatusOK, "bootstrap.html", bootstrapView{Fields: a.PublicFields()})
}

// renderAuthFailed emits the authorization-failed page with a retry link.
func (s *Server) renderAuthFailed(w http.ResponseWriter, reason string) {
	s.renderTemplate(w, http.StatusForbidden, "error.html", pageView{
		Title:   "Authorization failed",
		Heading: "Authorization failed",
		Message: reason,
	})
}

// redirectBack returns the browser to the referring page, or the fallback
// when no referrer is present. Missing input is an idempotent no-op, never a
// server error.
func (s *Server) redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	target := strings.TrimSpace(r.Referer())
	if target == "" {
		target = fallback
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}
