// Package session issues and verifies the tg_session cookie token.
package session

import (
	"errors"
	"fmt"
	"time"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/tgauth"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName is the session cookie set after a successful handoff
	CookieName = "tg_session"
	// TTL is the lifetime of a session token and its cookie
	TTL = 30 * 24 * time.Hour
)

var ErrInvalidSession = errors.New("invalid session")

// Claims is the session token payload
type Claims struct {
	User domain.TelegramUser `json:"user"`
	jwt.RegisteredClaims
}

// Issue signs a session token for the user
func Issue(user domain.TelegramUser, issuer string, secret []byte, now time.Time) (string, error) {
	payload := map[string]interface{}{
		"user": user,
		"iss":  issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(TTL).Unix(),
	}
	return tgauth.SignHS256JWT(payload, secret)
}

// Verifier checks session tokens issued by Issue
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewVerifier creates a verifier for the given secret and issuer
func NewVerifier(secret []byte, issuer string) *Verifier {
	return &Verifier{secret: secret, issuer: issuer, now: time.Now}
}

// Verify parses the token and returns its claims
func (v *Verifier) Verify(token string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: secret is not configured", ErrInvalidSession)
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
