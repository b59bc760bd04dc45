package login

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/louisbranch/favcolor/internal/provider"
)

// Config describes the login service configuration.
type Config struct {
	Addr          string
	BaseURL       string
	DBPath        string
	SessionSecret string
	SessionTTL    time.Duration
	StateTTL      time.Duration
	VerifyTimeout time.Duration

	Providers []provider.RedirectConfig
	// ChooserHosts maps an account-chooser authUrl host to the provider
	// that handles it.
	ChooserHosts map[string]string

	AssertionIssuer string
	AssertionKey    string

	NativeIssuer   string
	NativeAudience string
	NativeKey      string
}

// loginEnv holds raw env values for login configuration.
type loginEnv struct {
	Addr          string        `env:"FAVCOLOR_ADDR"            envDefault:":8080"`
	BaseURL       string        `env:"FAVCOLOR_BASE_URL"        envDefault:"http://localhost:8080"`
	DBPath        string        `env:"FAVCOLOR_DB_PATH"`
	SessionSecret string        `env:"FAVCOLOR_SESSION_SECRET"`
	SessionTTL    time.Duration `env:"FAVCOLOR_SESSION_TTL"     envDefault:"720h"`
	StateTTL      time.Duration `env:"FAVCOLOR_STATE_TTL"       envDefault:"15m"`
	VerifyTimeout time.Duration `env:"FAVCOLOR_VERIFY_TIMEOUT"  envDefault:"10s"`

	GoogleClientID       string `env:"FAVCOLOR_GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `env:"FAVCOLOR_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI    string `env:"FAVCOLOR_GOOGLE_REDIRECT_URI"`
	FacebookClientID     string `env:"FAVCOLOR_FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FAVCOLOR_FACEBOOK_CLIENT_SECRET"`
	FacebookRedirectURI  string `env:"FAVCOLOR_FACEBOOK_REDIRECT_URI"`
	LiveClientID         string `env:"FAVCOLOR_LIVE_CLIENT_ID"`
	LiveClientSecret     string `env:"FAVCOLOR_LIVE_CLIENT_SECRET"`
	LiveRedirectURI      string `env:"FAVCOLOR_LIVE_REDIRECT_URI"`

	AssertionIssuer string `env:"FAVCOLOR_ASSERTION_ISSUER" envDefault:"openid"`
	AssertionKey    string `env:"FAVCOLOR_ASSERTION_KEY"`

	NativeIssuer   string `env:"FAVCOLOR_NATIVE_ISSUER"   envDefault:"gitkit"`
	NativeAudience string `env:"FAVCOLOR_NATIVE_AUDIENCE"`
	NativeKey      string `env:"FAVCOLOR_NATIVE_KEY"`
}

// LoadConfigFromEnv loads login service configuration from environment
// variables and applies defensive defaults.
func LoadConfigFromEnv() Config {
	var raw loginEnv
	_ = env.Parse(&raw)

	cfg := Config{
		Addr:            raw.Addr,
		BaseURL:         strings.TrimRight(strings.TrimSpace(raw.BaseURL), "/"),
		DBPath:          raw.DBPath,
		SessionSecret:   raw.SessionSecret,
		SessionTTL:      raw.SessionTTL,
		StateTTL:        raw.StateTTL,
		VerifyTimeout:   raw.VerifyTimeout,
		ChooserHosts:    map[string]string{},
		AssertionIssuer: raw.AssertionIssuer,
		AssertionKey:    raw.AssertionKey,
		NativeIssuer:    raw.NativeIssuer,
		NativeAudience:  raw.NativeAudience,
		NativeKey:       raw.NativeKey,
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 720 * time.Hour
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 15 * time.Minute
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = 10 * time.Second
	}

	cfg.Providers = buildProviders(raw, cfg)
	for _, p := range cfg.Providers {
		for _, host := range chooserHostsFor(p.ID) {
			cfg.ChooserHosts[host] = p.ID
		}
	}
	return cfg
}

// buildProviders assembles redirect provider configs for the credentials that
// are actually present in the environment.
func buildProviders(raw loginEnv, cfg Config) []provider.RedirectConfig {
	var providers []provider.RedirectConfig

	if raw.GoogleClientID != "" && raw.GoogleClientSecret != "" {
		providers = append(providers, provider.RedirectConfig{
			ID:           "google",
			Name:         "Google",
			ClientID:     raw.GoogleClientID,
			ClientSecret: raw.GoogleClientSecret,
			RedirectURI:  callbackURI(cfg.BaseURL, "google", raw.GoogleRedirectURI),
			AuthURL:      "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			UserInfoURL:  "https://openidconnect.googleapis.com/v1/userinfo",
			Scopes:       []string{"openid", "email", "profile"},
			Timeout:      cfg.VerifyTimeout,
		})
	}
	if raw.FacebookClientID != "" && raw.FacebookClientSecret != "" {
		providers = append(providers, provider.RedirectConfig{
			ID:           "facebook",
			Name:         "Facebook",
			ClientID:     raw.FacebookClientID,
			ClientSecret: raw.FacebookClientSecret,
			RedirectURI:  callbackURI(cfg.BaseURL, "facebook", raw.FacebookRedirectURI),
			AuthURL:      "https://www.facebook.com/v18.0/dialog/oauth",
			TokenURL:     "https://graph.facebook.com/v18.0/oauth/access_token",
			UserInfoURL:  "https://graph.facebook.com/me?fields=name,email,picture",
			Scopes:       []string{"email", "public_profile"},
			Timeout:      cfg.VerifyTimeout,
		})
	}
	if raw.LiveClientID != "" && raw.LiveClientSecret != "" {
		providers = append(providers, provider.RedirectConfig{
			ID:           "live",
			Name:         "Live",
			ClientID:     raw.LiveClientID,
			ClientSecret: raw.LiveClientSecret,
			RedirectURI:  callbackURI(cfg.BaseURL, "live", raw.LiveRedirectURI),
			AuthURL:      "https://login.live.com/oauth20_authorize.srf",
			TokenURL:     "https://login.live.com/oauth20_token.srf",
			UserInfoURL:  "https://apis.live.net/v5.0/me",
			Scopes:       []string{"wl.emails", "wl.basic"},
			Timeout:      cfg.VerifyTimeout,
		})
	}
	return providers
}

func callbackURI(baseURL, providerID, override string) string {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSpace(override)
	}
	return baseURL + "/providers/" + providerID + "/callback"
}

// chooserHostsFor lists the authUrl hosts ac.js is known to send for a
// provider.
func chooserHostsFor(providerID string) []string {
	switch providerID {
	case "google":
		return []string{"google.com", "accounts.google.com"}
	case "facebook":
		return []string{"facebook.com"}
	case "live":
		return []string{"live.com", "login.live.com"}
	default:
		return nil
	}
}
