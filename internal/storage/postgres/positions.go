package postgres

import (
	"Brokerage/internal/domain/models"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

const positionColumns = `id, user_id, product, name, symbol, qty, avg, last_price, exchange, instrument,
    live_price, change, change_percentage, pnl, pnl_percentage, day_pnl, day_pnl_percentage, is_loss,
    last_updated, created_at`

func scanPosition(row pgx.Row) (models.Position, error) {
	var p models.Position
	err := row.Scan(&p.Id, &p.UserId, &p.Product, &p.Name, &p.Symbol, &p.Qty, &p.Avg, &p.LastPrice,
		&p.Exchange, &p.Instrument, &p.LivePrice, &p.Change, &p.ChangePercentage,
		&p.Pnl, &p.PnlPercentage, &p.DayPnl, &p.DayPnlPercentage, &p.IsLoss,
		&p.LastUpdated, &p.CreatedAt)
	return p, err
}

func (s *Storage) GetPosition(ctx context.Context, userId int64, symbol string) (models.Position, error) {
	const op = "postgres.GetPosition"
	log := slog.With("op", op)

	const query = `SELECT ` + positionColumns + ` FROM positions WHERE user_id = $1 AND symbol = $2`
	position, err := scanPosition(s.db.QueryRow(ctx, query, userId, symbol))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return position, ErrPositionNotExists
		}
		log.Error("Failed to get position", "symbol", symbol, "err", err)
		return position, fmt.Errorf("%s: %w", op, err)
	}

	return position, nil
}

func (s *Storage) ListPositions(ctx context.Context, userId int64) ([]models.Position, error) {
	const op = "postgres.ListPositions"
	log := slog.With("op", op)

	const query = `SELECT ` + positionColumns + ` FROM positions WHERE user_id = $1 ORDER BY symbol`
	rows, err := s.db.Query(ctx, query, userId)
	if err != nil {
		log.Error("Failed to list positions", "user_id", userId, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			log.Error("Failed to scan position", "user_id", userId, "err", err)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		positions = append(positions, position)
	}

	return positions, nil
}

// SavePositionLive persists the live valuation fields recomputed on a read.
func (s *Storage) SavePositionLive(ctx context.Context, p models.Position) error {
	const op = "postgres.SavePositionLive"
	log := slog.With("op", op)

	const query = `UPDATE positions SET
            live_price = $1, change = $2, change_percentage = $3,
            pnl = $4, pnl_percentage = $5, day_pnl = $6, day_pnl_percentage = $7,
            is_loss = $8, last_updated = $9
        WHERE user_id = $10 AND symbol = $11`
	tag, err := s.db.Exec(ctx, query,
		p.LivePrice, p.Change, p.ChangePercentage,
		p.Pnl, p.PnlPercentage, p.DayPnl, p.DayPnlPercentage,
		p.IsLoss, p.LastUpdated, p.UserId, p.Symbol)
	if err != nil {
		log.Error("Failed to save live position fields", "symbol", p.Symbol, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPositionNotExists
	}

	return nil
}

func (s *Storage) DeletePosition(ctx context.Context, userId int64, symbol string) error {
	const op = "postgres.DeletePosition"
	log := slog.With("op", op)

	tag, err := s.db.Exec(ctx, `DELETE FROM positions WHERE user_id = $1 AND symbol = $2`, userId, symbol)
	if err != nil {
		log.Error("Failed to delete position", "symbol", symbol, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPositionNotExists
	}

	return nil
}
