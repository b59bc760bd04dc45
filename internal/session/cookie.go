package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the canonical session cookie name.
const CookieName = "chooser_session"

const defaultCookieTTL = 30 * 24 * time.Hour

// CookieCarrier stores the logged-in email in a long-lived signed cookie.
type CookieCarrier struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
}

// NewCookieCarrier builds a cookie carrier signing session tokens with the
// given secret.
func NewCookieCarrier(secret []byte, ttl time.Duration) *CookieCarrier {
	if ttl <= 0 {
		ttl = defaultCookieTTL
	}
	return &CookieCarrier{secret: secret, ttl: ttl, clock: time.Now}
}

// SetClock overrides the time source.
func (c *CookieCarrier) SetClock(clock func() time.Time) {
	if clock != nil {
		c.clock = clock
	}
}

// Establish signs a session token for the email and sets the cookie.
func (c *CookieCarrier) Establish(w http.ResponseWriter, r *http.Request, email string) error {
	now := c.clock().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   strings.TrimSpace(email),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.ttl / time.Second),
	})
	return nil
}

// Resolve returns the email from a valid session cookie.
func (c *CookieCarrier) Resolve(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie == nil || strings.TrimSpace(cookie.Value) == "" {
		return "", false
	}
	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return c.clock().UTC() }),
	)
	if err != nil {
		return "", false
	}
	email := strings.TrimSpace(claims.Subject)
	if email == "" {
		return "", false
	}
	return email, true
}

// Terminate expires the session cookie.
func (c *CookieCarrier) Terminate(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
