package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-redis/redis/v8"

	"github.com/gameportal/backend/internal/services"
)

// SessionAuth verifies the session cookie before the handler runs.
// Every token failure collapses to the same 401; the specific error
// never grants partial access. With Redis available, tokens revoked at
// logout are rejected as well.
func SessionAuth(issuer *services.SessionIssuer, redisClient *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := services.TokenFromRequest(r)
			if err != nil {
				services.SendErrorResponse(w, "Not authenticated", http.StatusUnauthorized, nil)
				return
			}

			if redisClient != nil {
				key := fmt.Sprintf("blacklist:%s", token)
				if n, err := redisClient.Exists(r.Context(), key).Result(); err == nil && n > 0 {
					services.SendErrorResponse(w, "Not authenticated", http.StatusUnauthorized, nil)
					return
				}
			}

			claims, err := issuer.Verify(token)
			if err != nil {
				services.SendErrorResponse(w, "Not authenticated", http.StatusUnauthorized, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(services.ContextWithClaims(r.Context(), claims)))
		})
	}
}

// RequireAccessLevel gates privileged routes on the verified session's
// access level. It must run inside SessionAuth.
func RequireAccessLevel(min int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := services.ClaimsFromContext(r.Context())
			if !ok {
				services.SendErrorResponse(w, "Not authenticated", http.StatusUnauthorized, nil)
				return
			}
			if claims.AccessLevel < min {
				services.SendErrorResponse(w, "Insufficient access", http.StatusForbidden, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
