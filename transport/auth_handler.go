package handler

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/domain/models/transport"
	"Brokerage/internal/services/auth"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	log         *slog.Logger
	authService authService
	validate    *validator.Validate
	cookieTTL   time.Duration
}

type authService interface {
	Signup(ctx context.Context, username, email, password string) (models.User, string, error)
	Login(ctx context.Context, email, password string) (models.User, string, error)
	Verify(ctx context.Context, token string) (models.User, error)
}

func NewAuthHandler(log *slog.Logger, authService authService, validate *validator.Validate, cookieTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		log:         log,
		authService: authService,
		validate:    validate,
		cookieTTL:   cookieTTL,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Post("/signup", h.PostSignup)
	router.Post("/login", h.PostLogin)
	router.Get("/verify", h.GetVerify)
	router.Post("/logout", h.PostLogout)

	return router
}

func (h *AuthHandler) PostSignup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req transport.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("Failed to decode request", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Invalid request format",
		})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.log.Error("Validation failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Username, valid email and a password of at least 6 characters are required",
		})
		return
	}

	user, token, err := h.authService.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.log.Error("Failed to sign up", "error", err, "email", req.Email)

		if errors.Is(err, auth.ErrUserAlreadyExists) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "User already exists",
			})
			return
		}

		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to sign up",
		})
		return
	}

	h.setTokenCookie(w, token)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(transport.AuthResponse{
		Success: true,
		Message: "Account created",
		User:    userPayload(user),
		Token:   token,
	})
}

func (h *AuthHandler) PostLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req transport.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("Failed to decode request", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Invalid request format",
		})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.log.Error("Validation failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Email and password are required",
		})
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(transport.ErrorResponse{
				Error: "Invalid email or password",
			})
			return
		}

		h.log.Error("Failed to log in", "error", err, "email", req.Email)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(transport.ErrorResponse{
			Error: "Failed to log in",
		})
		return
	}

	h.setTokenCookie(w, token)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.AuthResponse{
		Success: true,
		Message: "Logged in",
		User:    userPayload(user),
		Token:   token,
	})
}

func (h *AuthHandler) GetVerify(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	token := tokenFromRequest(r)
	if token == "" {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(transport.VerifyResponse{Status: false})
		return
	}

	user, err := h.authService.Verify(r.Context(), token)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(transport.VerifyResponse{Status: false})
		return
	}

	payload := userPayload(user)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transport.VerifyResponse{
		Status: true,
		User:   &payload,
	})
}

func (h *AuthHandler) PostLogout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Logged out",
	})
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func userPayload(user models.User) transport.UserPayload {
	return transport.UserPayload{
		Id:       user.Id,
		Username: user.Username,
		Email:    user.Email,
	}
}
