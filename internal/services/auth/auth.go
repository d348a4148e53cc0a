package auth

import (
	"Brokerage/internal/domain/models"
	"Brokerage/internal/lib/jwt"
	"Brokerage/internal/storage/postgres"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type AuthService struct {
	log      slog.Logger
	users    UserManager
	secret   string
	tokenTTL time.Duration
}

type UserManager interface {
	CreateUser(ctx context.Context,
		username string,
		email string,
		passHash []byte,
		createdAt time.Time) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserById(ctx context.Context, id int64) (models.User, error)
}

func New(log slog.Logger, users UserManager, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		log:      log,
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// Signup registers the user and issues a session token in one step.
func (a *AuthService) Signup(ctx context.Context, username, email, password string) (models.User, string, error) {
	const op = "auth.Signup"

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		a.log.Error("Failed to generate password hash", "err", err)
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	id, err := a.users.CreateUser(ctx, username, email, passHash, time.Now())
	if err != nil {
		if errors.Is(err, postgres.ErrUserAlreadyExists) {
			a.log.Error("Failed to register already existing user", "email", email)
			return models.User{}, "", ErrUserAlreadyExists
		}
		a.log.Error("Failed to register user", "email", email, "err", err)
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{Id: id, Username: username, Email: email}
	token, err := jwt.NewToken(user, a.secret, a.tokenTTL)
	if err != nil {
		a.log.Error("Failed to create token", "email", email, "err", err)
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	return user, token, nil
}

func (a *AuthService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	const op = "auth.Login"

	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotExists) {
			return models.User{}, "", ErrInvalidCredentials
		}
		a.log.Error("Failed to get user by email", "email", email, "err", err)
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		a.log.Info("invalid credentials", "email", email)
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := jwt.NewToken(user, a.secret, a.tokenTTL)
	if err != nil {
		a.log.Error("Failed to create token", "email", email, "err", err)
		return models.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	return user, token, nil
}

// Verify resolves a session token back to its user. Any parse or lookup
// failure collapses into ErrInvalidToken; the verify endpoint never hard
// fails.
func (a *AuthService) Verify(ctx context.Context, token string) (models.User, error) {
	const op = "auth.Verify"

	userId, err := jwt.ParseUserId(token, a.secret)
	if err != nil {
		return models.User{}, ErrInvalidToken
	}

	user, err := a.users.GetUserById(ctx, userId)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotExists) {
			return models.User{}, ErrInvalidToken
		}
		a.log.Error("Failed to get user", "id", userId, "err", err)
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
