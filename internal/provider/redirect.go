package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/favcolor/internal/platform/errors"
	"golang.org/x/oauth2"
)

const defaultVerifyTimeout = 10 * time.Second

// RedirectConfig describes an OAuth2 authorization-code provider.
type RedirectConfig struct {
	ID           string
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
	Timeout      time.Duration
}

// Redirect is a provider adapter for OAuth2 authorization-code flows.
type Redirect struct {
	config     RedirectConfig
	oauth      oauth2.Config
	httpClient *http.Client
}

// NewRedirect builds a redirect provider adapter from its configuration.
func NewRedirect(config RedirectConfig) *Redirect {
	if config.Timeout <= 0 {
		config.Timeout = defaultVerifyTimeout
	}
	return &Redirect{
		config: config,
		oauth: oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURI,
			Scopes:       config.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  config.AuthURL,
				TokenURL: config.TokenURL,
			},
		},
		httpClient: http.DefaultClient,
	}
}

// SetHTTPClient overrides the HTTP client used for verification calls.
func (p *Redirect) SetHTTPClient(client *http.Client) {
	if client != nil {
		p.httpClient = client
	}
}

// ID returns the provider identifier.
func (p *Redirect) ID() string {
	return p.config.ID
}

// AuthorizationURL builds the provider authorization URL carrying the state
// token. A non-empty hint is forwarded as login_hint to reduce repeated
// account selection at the provider.
func (p *Redirect) AuthorizationURL(hint, state string) (string, error) {
	opts := []oauth2.AuthCodeOption{}
	if strings.TrimSpace(hint) != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", strings.TrimSpace(hint)))
	}
	return p.oauth.AuthCodeURL(state, opts...), nil
}

// Verify exchanges an authorization code for tokens and fetches the
// provider's profile endpoint. The whole round trip runs under a bounded
// timeout so an unreachable provider fails the flow instead of hanging it.
func (p *Redirect) Verify(ctx context.Context, credential string) (Identity, error) {
	code := strings.TrimSpace(credential)
	if code == "" {
		return Identity{}, errors.New(errors.CodeVerificationFailed, "authorization code is required")
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return Identity{}, errors.Wrap(errors.CodeVerificationFailed, "exchange authorization code", err)
	}

	profile, err := p.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return Identity{}, err
	}
	profile.ProviderID = p.config.ID
	if strings.TrimSpace(profile.Email) == "" {
		return Identity{}, errors.New(errors.CodeVerificationFailed, "provider profile has no email")
	}
	return profile, nil
}

func (p *Redirect) fetchProfile(ctx context.Context, accessToken string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return Identity{}, errors.Wrap(errors.CodeVerificationFailed, "build profile request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Identity{}, errors.Wrap(errors.CodeVerificationFailed, "fetch provider profile", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, errors.New(errors.CodeVerificationFailed, "profile request failed")
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Identity{}, errors.Wrap(errors.CodeVerificationFailed, "read provider profile", err)
	}
	return parseProfile(p.config.Name, body)
}

// parseProfile maps a provider-specific userinfo payload onto the normalized
// identity fields.
func parseProfile(name string, body []byte) (Identity, error) {
	switch {
	case strings.EqualFold(name, "Facebook"):
		var payload struct {
			Email   string `json:"email"`
			Name    string `json:"name"`
			Picture struct {
				Data struct {
					URL string `json:"url"`
				} `json:"data"`
			} `json:"picture"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return Identity{}, errors.Wrap(errors.CodeVerificationFailed, "decode provider profile", err)
		}
		return Identity{Email: payload.Email, DisplayName: payload.Name, PhotoURL: payload.Picture.Data.URL}, nil
	case strings.EqualFold(name, "Live"):
		var payload struct {
			Name   string `json:"name"`
			Emails struct {
				Account   string `json:"account"`
				Preferred string `json:"preferred"`
			} `json:"emails"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return Identity{}, errors.Wrap(errors.CodeVerificationFailed, "decode provider profile", err)
		}
		return Identity{Email: firstNonEmpty(payload.Emails.Preferred, payload.Emails.Account), DisplayName: payload.Name}, nil
	default:
		// OpenID Connect userinfo shape (Google and compatible providers).
		var payload struct {
			Email   string `json:"email"`
			Name    string `json:"name"`
			Picture string `json:"picture"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return Identity{}, errors.Wrap(errors.CodeVerificationFailed, "decode provider profile", err)
		}
		return Identity{Email: payload.Email, DisplayName: payload.Name, PhotoURL: payload.Picture}, nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
