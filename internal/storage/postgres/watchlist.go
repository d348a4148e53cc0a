package postgres

import (
	"Brokerage/internal/domain/models"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
)

func (s *Storage) ListWatchlist(ctx context.Context, userId int64) ([]models.WatchlistItem, error) {
	const op = "postgres.ListWatchlist"
	log := slog.With("op", op)

	const query = `SELECT id, user_id, name, symbol, fallback_price FROM watchlist WHERE user_id = $1 ORDER BY symbol`
	rows, err := s.db.Query(ctx, query, userId)
	if err != nil {
		log.Error("Failed to list watchlist", "user_id", userId, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []models.WatchlistItem
	for rows.Next() {
		var item models.WatchlistItem
		if err := rows.Scan(&item.Id, &item.UserId, &item.Name, &item.Symbol, &item.FallbackPrice); err != nil {
			log.Error("Failed to scan watchlist item", "user_id", userId, "err", err)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *Storage) AddWatchlistItem(ctx context.Context, item models.WatchlistItem) error {
	const op = "postgres.AddWatchlistItem"
	log := slog.With("op", op)

	const query = `INSERT INTO watchlist(id, user_id, name, symbol, fallback_price) VALUES($1, $2, $3, $4, $5)`
	_, err := s.db.Exec(ctx, query, item.Id, item.UserId, item.Name, item.Symbol, item.FallbackPrice)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrWatchlistExists
		}
		log.Error("Failed to add watchlist item", "symbol", item.Symbol, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) RemoveWatchlistItem(ctx context.Context, userId int64, symbol string) error {
	const op = "postgres.RemoveWatchlistItem"
	log := slog.With("op", op)

	tag, err := s.db.Exec(ctx, `DELETE FROM watchlist WHERE user_id = $1 AND symbol = $2`, userId, symbol)
	if err != nil {
		log.Error("Failed to remove watchlist item", "symbol", symbol, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWatchlistNotExists
	}

	return nil
}
