package login

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/louisbranch/favcolor/internal/provider"
	"github.com/louisbranch/favcolor/internal/session"
	"github.com/louisbranch/favcolor/internal/state"
	"github.com/louisbranch/favcolor/internal/storage"
)

// Server is the login orchestrator: it decides whether a request is
// authenticated and, if not, which provider or local flow it goes to next.
type Server struct {
	accounts     storage.AccountStore
	states       *state.Issuer
	providers    provider.Registry
	sessions     *session.Manager
	native       provider.Provider
	chooserHosts map[string]string
	clock        func() time.Time
}

// NewServer builds a login orchestrator with explicit dependencies.
func NewServer(
	accounts storage.AccountStore,
	states *state.Issuer,
	providers provider.Registry,
	sessions *session.Manager,
	native provider.Provider,
	chooserHosts map[string]string,
) *Server {
	return &Server{
		accounts:     accounts,
		states:       states,
		providers:    providers,
		sessions:     sessions,
		native:       native,
		chooserHosts: chooserHosts,
		clock:        time.Now,
	}
}

// SetClock overrides the time source.
func (s *Server) SetClock(clock func() time.Time) {
	if clock != nil {
		s.clock = clock
	}
}

// RegisterRoutes registers the login HTTP surface on the provided mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/account-login", s.handleLoginPage)
	mux.HandleFunc("/account-create", s.handleCreatePage)
	mux.HandleFunc("/dupe", s.handleDuplicatePage)
	mux.HandleFunc("/login-marketing", s.handleMarketing)
	mux.HandleFunc("/account-status", s.handleAccountStatus)
	mux.HandleFunc("/new-login", s.handleNewLogin)
	mux.HandleFunc("/done-login", s.handleDoneLogin)
	mux.HandleFunc("/providers/", s.handleProviderRoutes)
	mux.HandleFunc("/get-color", s.handleGetColor)
	mux.HandleFunc("/set-color", s.handleSetColor)
	mux.HandleFunc("/logout", s.handleLogout)
}

// providerForAuthURL maps an account-chooser authUrl onto a registered
// redirect provider.
func (s *Server) providerForAuthURL(authURL string) (provider.Provider, bool) {
	parsed, err := url.Parse(strings.TrimSpace(authURL))
	if err != nil {
		return nil, false
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	id, ok := s.chooserHosts[host]
	if !ok {
		return nil, false
	}
	return s.providers.Lookup(id)
}
