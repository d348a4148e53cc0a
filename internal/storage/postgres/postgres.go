package postgres

import (
	"Brokerage/internal/domain/models"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation = "23505"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotExists      = errors.New("user does not exist")
	ErrOrderNotExists     = errors.New("order does not exist")
	ErrOrderAlreadyExists = errors.New("order already exists for payment reference")
	ErrHoldingNotExists   = errors.New("holding does not exist")
	ErrPositionNotExists  = errors.New("position does not exist")
	ErrDuplicatePayment   = errors.New("ledger entry already exists for payment reference")
	ErrLedgerNotExists    = errors.New("ledger entry does not exist")
	ErrInsufficientFunds  = errors.New("insufficient available funds")
	ErrWatchlistExists    = errors.New("symbol already in watchlist")
	ErrWatchlistNotExists = errors.New("symbol not in watchlist")
)

type Storage struct {
	db *pgxpool.Pool
}

func New(connString string) (*Storage, error) {
	const op = "postgres.New"
	log := slog.With("op", op)
	db, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		log.Error("Failed to connect to database", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = db.Ping(context.Background())
	if err != nil {
		log.Error("Failed to ping database", "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() {
	s.db.Close()
}

func (s *Storage) CreateUser(ctx context.Context,
	username string,
	email string,
	passHash []byte,
	createdAt time.Time) (int64, error) {
	const op = "postgres.CreateUser"
	log := slog.With("op", op)

	const queryCreateUser = `INSERT INTO users(username, email, pass_hash, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	var userId int64
	err := s.db.QueryRow(ctx, queryCreateUser, username, email, passHash, createdAt).Scan(&userId)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			log.Error("User already exists", "email", email)
			return 0, ErrUserAlreadyExists
		}
		log.Error("Failed to create user", "email", email, "err", err)
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return userId, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "postgres.GetUserByEmail"
	log := slog.With("op", op)

	const queryGetUser = `SELECT id, username, email, pass_hash, created_at FROM users WHERE email = $1`
	var user models.User
	err := s.db.QueryRow(ctx, queryGetUser, email).
		Scan(&user.Id, &user.Username, &user.Email, &user.PassHash, &user.Created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, ErrUserNotExists
		}
		log.Error("Failed to get user", "email", email, "err", err)
		return user, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) GetUserById(ctx context.Context, id int64) (models.User, error) {
	const op = "postgres.GetUserById"
	log := slog.With("op", op)

	const queryGetUser = `SELECT id, username, email, pass_hash, created_at FROM users WHERE id = $1`
	var user models.User
	err := s.db.QueryRow(ctx, queryGetUser, id).
		Scan(&user.Id, &user.Username, &user.Email, &user.PassHash, &user.Created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, ErrUserNotExists
		}
		log.Error("Failed to get user", "id", id, "err", err)
		return user, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
