package handler

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/domain/models/transport"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const userContextKey contextKey = "user"

type tokenVerifier interface {
	Verify(ctx context.Context, token string) (models.User, error)
}

// AuthMiddleware resolves the caller from the "token" cookie or a Bearer
// header and stores the user in the request context. Requests without a
// valid token are rejected before reaching the handler.
func AuthMiddleware(log *slog.Logger, verifier tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				unauthorized(w)
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Info("rejected request with invalid token", "path", r.URL.Path)
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user placed by AuthMiddleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

func userID(r *http.Request) int64 {
	user, _ := UserFromContext(r.Context())
	return user.Id
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(transport.ErrorResponse{
		Error: "Authentication required",
	})
}
