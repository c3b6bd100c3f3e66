package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gameportal/backend/internal/models"
)

// SessionCookieName is the cookie the signed session token travels in.
const SessionCookieName = "auth-token"

// sessionTTL bounds every issued token and the cookie carrying it.
const sessionTTL = 7 * 24 * time.Hour

// Token errors. Callers must treat every one of them as "not
// authenticated"; none grants partial access.
var (
	ErrTokenMissing          = errors.New("session token missing")
	ErrTokenMalformed        = errors.New("session token malformed")
	ErrTokenSignatureInvalid = errors.New("session token signature invalid")
	ErrTokenExpired          = errors.New("session token expired")
)

// SessionClaims are the verified contents of a session token.
type SessionClaims struct {
	UserID      int    `json:"userId"`
	Username    string `json:"username"`
	AccessLevel int    `json:"accessLevel"`
	jwt.RegisteredClaims
}

// SessionIssuer mints and verifies the signed session credential. Tokens
// are stateless; nothing is persisted server-side.
type SessionIssuer struct {
	secret       []byte
	secureCookie bool
}

func NewSessionIssuer(secret string, secureCookie bool) *SessionIssuer {
	return &SessionIssuer{
		secret:       []byte(secret),
		secureCookie: secureCookie,
	}
}

// Issue signs a token for identity with a fixed 7 day TTL.
func (s *SessionIssuer) Issue(identity models.UserIdentity) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID:      identity.ID,
		Username:    identity.Username,
		AccessLevel: identity.AccessLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the signature and expiry of raw and returns its claims.
// No claim is trusted before the signature has been verified.
func (s *SessionIssuer) Verify(raw string) (*SessionClaims, error) {
	if raw == "" {
		return nil, ErrTokenMissing
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// TokenFromRequest extracts the raw session token from the cookie.
func TokenFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrTokenMissing
	}
	return cookie.Value, nil
}

// SetSessionCookie writes the session cookie with attributes matching
// the token TTL: HttpOnly, SameSite=Strict, Secure outside development.
func (s *SessionIssuer) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}

// ClearSessionCookie expires the cookie regardless of whether the token
// inside was still valid.
func (s *SessionIssuer) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

type claimsContextKey struct{}

// ContextWithClaims stores verified session claims on the context.
func ContextWithClaims(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the claims the auth middleware stored.
func ClaimsFromContext(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*SessionClaims)
	return claims, ok
}
