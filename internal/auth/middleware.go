package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type contextKey string

const ConstructionIDKey contextKey = "constructionID"

// RequireEditToken rejects requests whose bearer token was not issued for
// the construction named by the {constructionId} route variable.
func (s *Service) RequireEditToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
			return
		}

		constructionID := mux.Vars(r)["constructionId"]
		if err := s.Authorize(parts[1], constructionID); err != nil {
			if errors.Is(err, ErrWrongScope) {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "token not valid for this construction"})
				return
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), ConstructionIDKey, constructionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ConstructionIDFromContext returns the construction an authorized request
// may edit.
func ConstructionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ConstructionIDKey).(string)
	return id
}
