package login

import (
	"net/http"
	"strings"
)

// LoginRequest is the typed projection of a login-flow request body,
// validated once at the boundary.
type LoginRequest struct {
	Email       string
	Password    string
	ProviderID  string
	IDToken     string
	AuthURL     string
	Color       string
	Destination string
}

// parseLoginRequest reads the form body into a LoginRequest. Only the
// password field keeps surrounding whitespace.
func parseLoginRequest(r *http.Request) (LoginRequest, error) {
	if err := r.ParseForm(); err != nil {
		return LoginRequest{}, err
	}
	return LoginRequest{
		Email:       strings.TrimSpace(r.FormValue("email")),
		Password:    r.FormValue("password"),
		ProviderID:  strings.TrimSpace(r.FormValue("providerId")),
		IDToken:     strings.TrimSpace(r.FormValue("idToken")),
		AuthURL:     strings.TrimSpace(r.FormValue("authUrl")),
		Color:       strings.TrimSpace(r.FormValue("color")),
		Destination: strings.TrimSpace(r.FormValue("destination")),
	}, nil
}
