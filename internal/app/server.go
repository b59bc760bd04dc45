package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/favcolor/internal/login"
	"github.com/louisbranch/favcolor/internal/provider"
	"github.com/louisbranch/favcolor/internal/session"
	"github.com/louisbranch/favcolor/internal/state"
	"github.com/louisbranch/favcolor/internal/storage/sqlite"
)

// Server hosts the login service.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *sqlite.Store
	issuer     *state.Issuer
}

// New creates a configured login server listening on the configured address.
func New(cfg login.Config) (*Server, error) {
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return nil, errors.New("session secret is required")
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	store, err := openStore(cfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	issuer := state.NewIssuer(store, cfg.StateTTL)
	registry, native := buildRegistry(cfg)
	sessions := session.NewManager(
		session.NewCookieCarrier([]byte(cfg.SessionSecret), cfg.SessionTTL),
		session.NewBearerCarrier(native),
	)

	mux := http.NewServeMux()
	orchestrator := login.NewServer(store, issuer, registry, sessions, native, cfg.ChooserHosts)
	orchestrator.RegisterRoutes(mux)

	return &Server{
		listener:   listener,
		httpServer: &http.Server{Handler: mux},
		store:      store,
		issuer:     issuer,
	}, nil
}

// Addr returns the listener address for the login server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a login server until the context ends.
func Run(ctx context.Context, cfg login.Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the login server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.closeStore()

	s.startCleanup(serverCtx, 5*time.Minute)

	log.Printf("login server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		_ = s.httpServer.Shutdown(shutdownCtx)
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}
}

// startCleanup starts periodic expiry cleanup for login state bindings.
//
// This keeps short-lived correlation records from accumulating without
// requiring a separate maintenance process.
func (s *Server) startCleanup(ctx context.Context, interval time.Duration) {
	if s == nil || s.store == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.store.DeleteExpiredLoginStates(ctx, time.Now().UTC()); err != nil {
					log.Printf("cleanup login states: %v", err)
				}
			}
		}
	}()
}

func openStore(path string) (*sqlite.Store, error) {
	if strings.TrimSpace(path) == "" {
		path = filepath.Join("data", "favcolor.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) closeStore() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}
}

// buildRegistry assembles the provider adapters named by the configuration.
// The native-token adapter is returned separately because the color API and
// the bearer session carrier use it directly.
func buildRegistry(cfg login.Config) (provider.Registry, provider.Provider) {
	providers := make([]provider.Provider, 0, len(cfg.Providers)+2)
	for _, rc := range cfg.Providers {
		providers = append(providers, provider.NewRedirect(rc))
	}
	if cfg.AssertionKey != "" {
		providers = append(providers, provider.NewAssertion("openid", cfg.AssertionIssuer, []byte(cfg.AssertionKey)))
	}

	var native provider.Provider
	if cfg.NativeKey != "" {
		native = provider.NewNativeToken("gitkit", cfg.NativeIssuer, cfg.NativeAudience, []byte(cfg.NativeKey))
		providers = append(providers, native)
	}
	return provider.NewRegistry(providers...), native
}
