package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName carries the signed session ID between requests.
const CookieName = "session"

// CookieCodec signs session IDs into the cookie and verifies them on the
// way back in. HS256 with a server-side secret: the client can read the
// ID but cannot forge or swap it without failing the signature check.
type CookieCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewCookieCodec creates a codec. The secret must be at least 16 bytes;
// generate one with `openssl rand -hex 32`.
func NewCookieCodec(secret string, ttl time.Duration) (*CookieCodec, error) {
	if len(secret) < 16 {
		return nil, errors.New("session: cookie secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CookieCodec{secret: []byte(secret), ttl: ttl}, nil
}

// Encode signs the session ID and sets it as an HttpOnly cookie.
func (c *CookieCodec) Encode(w http.ResponseWriter, sessionID string) error {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		Issuer:    "snipbin",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return fmt.Errorf("session: signing cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.ttl.Seconds()),
	})
	return nil
}

// Decode extracts and verifies the session ID from the request cookie.
// Any failure (absent cookie, bad signature, expiry) returns an error;
// callers react by minting a fresh session rather than rejecting the
// request.
func (c *CookieCodec) Decode(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", fmt.Errorf("session: reading cookie: %w", err)
	}

	token, err := jwt.ParseWithClaims(cookie.Value, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer("snipbin"),
	)
	if err != nil {
		return "", fmt.Errorf("session: parsing cookie: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("session: cookie has no session id")
	}
	return claims.Subject, nil
}
