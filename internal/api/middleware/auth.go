package middleware

import (
	"net/http"

	"reversion/pkg/crypto"
)

// ControlAuth checks the bearer token on every control-surface request
// against the bcrypt hash configured for the process. Unlike the teacher's
// JWT-shaped Auth (kept as a TODO pending a multi-user dashboard), there is
// exactly one shared secret here, since there is exactly one operator.
func ControlAuth(secretHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			secret := token[len(prefix):]

			if !crypto.CheckPasswordMatch(secret, secretHash) {
				http.Error(w, "invalid control secret", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
