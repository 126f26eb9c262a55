package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/scholarsync/bot/pkg/response"
)

// WebhookAuth verifies the shared secret the chat platform attaches to
// event deliveries as "Authorization: Bearer <secret>". With an empty
// secret the check is disabled, which keeps local development simple.
func WebhookAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(secret)) != 1 {
				response.Unauthorized(w, "Invalid webhook secret")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
