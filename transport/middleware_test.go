package handler

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/services/auth"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubVerifier struct {
	user models.User
	err  error
}

func (s *stubVerifier) Verify(_ context.Context, _ string) (models.User, error) {
	return s.user, s.err
}

func newAuthedHandler(verifier *stubVerifier) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		w.Header().Set("X-User", user.Username)
		w.WriteHeader(http.StatusOK)
	})
	return AuthMiddleware(log, verifier)(next)
}

func TestAuthMiddleware_CookieToken(t *testing.T) {
	h := newAuthedHandler(&stubVerifier{user: models.User{Id: 1, Username: "trader"}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "tok"})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trader", rec.Header().Get("X-User"))
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	h := newAuthedHandler(&stubVerifier{user: models.User{Id: 1, Username: "trader"}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	h := newAuthedHandler(&stubVerifier{user: models.User{Id: 1}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	h := newAuthedHandler(&stubVerifier{err: auth.ErrInvalidToken})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "bad"})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
