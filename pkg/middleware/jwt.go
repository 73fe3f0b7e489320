package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"chessd/pkg/claims"

	jwt "github.com/dgrijalva/jwt-go"
)

// CheckJWT admits requests carrying an HS256 bearer token signed with secret
// whose claims name the admin role.
func CheckJWT(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, `{"message":"admin api disabled"}`, http.StatusForbidden)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(auth, "Bearer ")

			hashSecretGetter := func(token *jwt.Token) (interface{}, error) {
				method, ok := token.Method.(*jwt.SigningMethodHMAC)
				if !ok || method.Alg() != "HS256" {
					return nil, jwt.NewValidationError("bad sign method", jwt.ValidationErrorSignatureInvalid)
				}
				return []byte(secret), nil
			}

			c := &claims.Claims{}

			parsed, err := jwt.ParseWithClaims(token, c, hashSecretGetter)
			if err != nil || !parsed.Valid || c.Subject == "" {
				logger.Warn("rejected admin token", "error", err)
				http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			if !c.IsAdmin() {
				logger.Warn("non-admin token", "subject", c.Subject)
				http.Error(w, `{"message":"forbidden"}`, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), claims.TokenContextKey, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
