package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/gameportal/backend/internal/models"
)

func TestSessionIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", false)
	identity := models.UserIdentity{ID: 7, Username: "alice", AccessLevel: 0}

	token, err := issuer.Issue(identity)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, 0, claims.AccessLevel)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestSessionIssuer_Verify_Failures(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", false)

	t.Run("missing token", func(t *testing.T) {
		_, err := issuer.Verify("")
		assert.ErrorIs(t, err, ErrTokenMissing)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := issuer.Verify("not-a-jwt")
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewSessionIssuer("other-secret", false)
		token, err := other.Issue(models.UserIdentity{ID: 1, Username: "bob"})
		assert.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := &SessionClaims{
			UserID:   1,
			Username: "bob",
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-8 * 24 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		assert.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("unsigned token rejected", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &SessionClaims{UserID: 1}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		assert.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.Error(t, err)
	})
}

func TestSessionCookieContract(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", true)

	t.Run("set", func(t *testing.T) {
		w := httptest.NewRecorder()
		issuer.SetSessionCookie(w, "token-value")

		cookies := w.Result().Cookies()
		assert.Len(t, cookies, 1)
		cookie := cookies[0]
		assert.Equal(t, SessionCookieName, cookie.Name)
		assert.Equal(t, "token-value", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
	})

	t.Run("clear", func(t *testing.T) {
		w := httptest.NewRecorder()
		issuer.ClearSessionCookie(w)

		cookies := w.Result().Cookies()
		assert.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/auth/verify", nil)
	_, err := TokenFromRequest(r)
	assert.ErrorIs(t, err, ErrTokenMissing)

	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "raw-token"})
	token, err := TokenFromRequest(r)
	assert.NoError(t, err)
	assert.Equal(t, "raw-token", token)
}
