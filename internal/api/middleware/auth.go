package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/dom/snake-arena/internal/service"
)

type contextKey string

const OperatorKey contextKey = "operator"

// RequireOperator guards admin routes. Requests carry the operator JWT as a
// bearer token; anything else is rejected before the handler runs.
func RequireOperator(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				log.Printf("ERROR [middleware.RequireOperator] missing or malformed authorization header")
				http.Error(w, "Authorization required", http.StatusUnauthorized)
				return
			}

			claims, err := authService.ValidateToken(token)
			if err != nil {
				log.Printf("ERROR [middleware.RequireOperator] token rejected: %v", err)
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			operator, ok := (*claims)["sub"].(string)
			if !ok || operator == "" {
				log.Printf("ERROR [middleware.RequireOperator] token has no subject")
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), OperatorKey, operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// Operator returns the authenticated operator name, if any.
func Operator(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(OperatorKey).(string)
	return name, ok
}
