package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/medpal-health/medpal/internal/auth"
	"github.com/medpal-health/medpal/pkg/jsonutil"
)

type contextKey string

const claimsKey contextKey = "claims"

// requireAuth rejects requests without a valid Bearer token and stashes the
// verified claims on the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			jsonutil.WriteErrorJSON(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims := s.tokens.Verify(token)
		if claims == nil {
			jsonutil.WriteErrorJSON(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	})
}

// claimsFrom returns the verified claims requireAuth stored, or nil.
func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return claims
}
