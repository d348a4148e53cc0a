package postgres

import (
	"Brokerage/internal/domain/models"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const holdingColumns = `id, user_id, name, symbol, qty, avg, last_price, exchange, instrument, created_at, updated_at`

func scanHolding(row pgx.Row) (models.Holding, error) {
	var h models.Holding
	err := row.Scan(&h.Id, &h.UserId, &h.Name, &h.Symbol, &h.Qty, &h.Avg, &h.LastPrice,
		&h.Exchange, &h.Instrument, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

func (s *Storage) GetHolding(ctx context.Context, userId int64, symbol string) (models.Holding, error) {
	const op = "postgres.GetHolding"
	log := slog.With("op", op)

	const query = `SELECT ` + holdingColumns + ` FROM holdings WHERE user_id = $1 AND symbol = $2`
	holding, err := scanHolding(s.db.QueryRow(ctx, query, userId, symbol))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return holding, ErrHoldingNotExists
		}
		log.Error("Failed to get holding", "symbol", symbol, "err", err)
		return holding, fmt.Errorf("%s: %w", op, err)
	}

	return holding, nil
}

func (s *Storage) GetHoldingById(ctx context.Context, userId int64, id uuid.UUID) (models.Holding, error) {
	const op = "postgres.GetHoldingById"
	log := slog.With("op", op)

	const query = `SELECT ` + holdingColumns + ` FROM holdings WHERE user_id = $1 AND id = $2`
	holding, err := scanHolding(s.db.QueryRow(ctx, query, userId, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return holding, ErrHoldingNotExists
		}
		log.Error("Failed to get holding", "id", id, "err", err)
		return holding, fmt.Errorf("%s: %w", op, err)
	}

	return holding, nil
}

func (s *Storage) ListHoldings(ctx context.Context, userId int64) ([]models.Holding, error) {
	const op = "postgres.ListHoldings"
	log := slog.With("op", op)

	const query = `SELECT ` + holdingColumns + ` FROM holdings WHERE user_id = $1 ORDER BY symbol`
	rows, err := s.db.Query(ctx, query, userId)
	if err != nil {
		log.Error("Failed to list holdings", "user_id", userId, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		holding, err := scanHolding(rows)
		if err != nil {
			log.Error("Failed to scan holding", "user_id", userId, "err", err)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		holdings = append(holdings, holding)
	}

	return holdings, nil
}

func (s *Storage) CreateHolding(ctx context.Context, h models.Holding) (models.Holding, error) {
	const op = "postgres.CreateHolding"
	log := slog.With("op", op)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return h, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	if err := upsertHolding(ctx, tx, h); err != nil {
		log.Error("Failed to create holding", "symbol", h.Symbol, "err", err)
		return h, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return h, fmt.Errorf("%s: %w", op, err)
	}

	return h, nil
}

func (s *Storage) UpdateHolding(ctx context.Context, h models.Holding) (models.Holding, error) {
	const op = "postgres.UpdateHolding"
	log := slog.With("op", op)

	const query = `UPDATE holdings SET qty = $1, avg = $2, last_price = $3, updated_at = $4
        WHERE user_id = $5 AND id = $6 RETURNING ` + holdingColumns
	updated, err := scanHolding(s.db.QueryRow(ctx, query, h.Qty, h.Avg, h.LastPrice, time.Now(), h.UserId, h.Id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return updated, ErrHoldingNotExists
		}
		log.Error("Failed to update holding", "id", h.Id, "err", err)
		return updated, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (s *Storage) DeleteHolding(ctx context.Context, userId int64, id uuid.UUID) error {
	const op = "postgres.DeleteHolding"
	log := slog.With("op", op)

	tag, err := s.db.Exec(ctx, `DELETE FROM holdings WHERE user_id = $1 AND id = $2`, userId, id)
	if err != nil {
		log.Error("Failed to delete holding", "id", id, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrHoldingNotExists
	}

	return nil
}
