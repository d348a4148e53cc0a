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
	"github.com/jackc/pgx/v5/pgconn"
)

const orderColumns = `id, order_ref, user_id, name, symbol, qty, price, mode, order_type, product, exchange, total_amount, status, COALESCE(payment_ref, ''), created_at, updated_at`

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.Id, &o.OrderRef, &o.UserId, &o.Name, &o.Symbol, &o.Qty, &o.Price,
		&o.Mode, &o.OrderType, &o.Product, &o.Exchange, &o.TotalAmount, &o.Status,
		&o.PaymentRef, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (s *Storage) GetOrder(ctx context.Context, userId int64, id uuid.UUID) (models.Order, error) {
	const op = "postgres.GetOrder"
	log := slog.With("op", op)

	const queryGetOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`
	order, err := scanOrder(s.db.QueryRow(ctx, queryGetOrder, id, userId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order, ErrOrderNotExists
		}
		log.Error("Failed to get order", "id", id, "err", err)
		return order, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

func (s *Storage) GetOrderByPaymentRef(ctx context.Context, userId int64, paymentRef string) (models.Order, error) {
	const op = "postgres.GetOrderByPaymentRef"
	log := slog.With("op", op)

	const queryGetOrder = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND payment_ref = $2`
	order, err := scanOrder(s.db.QueryRow(ctx, queryGetOrder, userId, paymentRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order, ErrOrderNotExists
		}
		log.Error("Failed to get order by payment ref", "payment_ref", paymentRef, "err", err)
		return order, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

func (s *Storage) ListOrders(ctx context.Context, userId int64, filter models.OrderFilter) ([]models.Order, int64, error) {
	const op = "postgres.ListOrders"
	log := slog.With("op", op)

	where := "WHERE user_id = $1"
	args := []any{userId}
	if filter.Symbol != "" {
		args = append(args, filter.Symbol)
		where += fmt.Sprintf(" AND symbol = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Mode != "" {
		args = append(args, filter.Mode)
		where += fmt.Sprintf(" AND mode = $%d", len(args))
	}

	var total int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders "+where, args...).Scan(&total); err != nil {
		log.Error("Failed to count orders", "user_id", userId, "err", err)
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf("SELECT "+orderColumns+" FROM orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		log.Error("Failed to list orders", "user_id", userId, "err", err)
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			log.Error("Failed to scan order", "user_id", userId, "err", err)
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, order)
	}

	return orders, total, nil
}

func (s *Storage) UpdateOrderStatus(ctx context.Context, userId int64, id uuid.UUID, status models.OrderStatus) (models.Order, error) {
	const op = "postgres.UpdateOrderStatus"
	log := slog.With("op", op)

	const queryUpdate = `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4 RETURNING ` + orderColumns
	order, err := scanOrder(s.db.QueryRow(ctx, queryUpdate, status, time.Now(), id, userId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order, ErrOrderNotExists
		}
		log.Error("Failed to update order status", "id", id, "err", err)
		return order, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

// ApplyBooking lands one reconciled order in a single transaction: the order
// row, the holding upsert/delete, the position upsert/delete and the ledger
// append. A concurrent booking for the same payment reference trips the
// partial unique index and surfaces as ErrOrderAlreadyExists.
func (s *Storage) ApplyBooking(ctx context.Context, booking models.OrderBooking) (err error) {
	const op = "postgres.ApplyBooking"
	log := slog.With("op", op, "order_ref", booking.Order.OrderRef)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		log.Error("Failed to begin transaction", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	o := booking.Order
	const queryCreateOrder = `
        INSERT INTO orders(id, order_ref, user_id, name, symbol, qty, price, mode,
                           order_type, product, exchange, total_amount, status,
                           payment_ref, created_at, updated_at)
        VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULLIF($14, ''), $15, $16)`
	_, err = tx.Exec(ctx, queryCreateOrder,
		o.Id, o.OrderRef, o.UserId, o.Name, o.Symbol, o.Qty, o.Price, o.Mode,
		o.OrderType, o.Product, o.Exchange, o.TotalAmount, o.Status,
		o.PaymentRef, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			log.Warn("Order already booked for payment reference", "payment_ref", o.PaymentRef)
			return ErrOrderAlreadyExists
		}
		log.Error("Failed to create order", "err", err)
		return fmt.Errorf("%s: create order: %w", op, err)
	}

	if booking.Holding != nil {
		if booking.RemoveHolding {
			_, err = tx.Exec(ctx, `DELETE FROM holdings WHERE user_id = $1 AND symbol = $2`,
				booking.Holding.UserId, booking.Holding.Symbol)
		} else {
			err = upsertHolding(ctx, tx, *booking.Holding)
		}
		if err != nil {
			log.Error("Failed to apply holding mutation", "symbol", o.Symbol, "err", err)
			return fmt.Errorf("%s: holding: %w", op, err)
		}
	}

	if booking.Position != nil {
		if booking.RemovePosition {
			_, err = tx.Exec(ctx, `DELETE FROM positions WHERE user_id = $1 AND symbol = $2`,
				booking.Position.UserId, booking.Position.Symbol)
		} else {
			err = upsertPosition(ctx, tx, *booking.Position)
		}
		if err != nil {
			log.Error("Failed to apply position mutation", "symbol", o.Symbol, "err", err)
			return fmt.Errorf("%s: position: %w", op, err)
		}
	}

	if booking.Ledger != nil {
		e := booking.Ledger
		const queryLedger = `
            INSERT INTO ledger(id, user_id, amount, type, payment_ref, description, status, created_at)
            VALUES($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
            ON CONFLICT (payment_ref) WHERE payment_ref IS NOT NULL DO NOTHING`
		_, err = tx.Exec(ctx, queryLedger,
			e.Id, e.UserId, e.Amount, e.Type, e.PaymentRef, e.Description, e.Status, e.CreatedAt)
		if err != nil {
			log.Error("Failed to append ledger entry", "err", err)
			return fmt.Errorf("%s: ledger: %w", op, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Error("Failed to commit transaction", "err", err)
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	log.Info("Order booked",
		"order_id", o.Id,
		"user_id", o.UserId,
		"symbol", o.Symbol,
		"mode", o.Mode)
	return nil
}

func upsertHolding(ctx context.Context, tx pgx.Tx, h models.Holding) error {
	const query = `
        INSERT INTO holdings(id, user_id, name, symbol, qty, avg, last_price, exchange, instrument, created_at, updated_at)
        VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (user_id, symbol) DO UPDATE SET
            qty = EXCLUDED.qty,
            avg = EXCLUDED.avg,
            last_price = EXCLUDED.last_price,
            updated_at = EXCLUDED.updated_at`
	_, err := tx.Exec(ctx, query,
		h.Id, h.UserId, h.Name, h.Symbol, h.Qty, h.Avg, h.LastPrice,
		h.Exchange, h.Instrument, h.CreatedAt, h.UpdatedAt)
	return err
}

func upsertPosition(ctx context.Context, tx pgx.Tx, p models.Position) error {
	const query = `
        INSERT INTO positions(id, user_id, product, name, symbol, qty, avg, last_price,
                              exchange, instrument, live_price, change, change_percentage,
                              pnl, pnl_percentage, day_pnl, day_pnl_percentage, is_loss,
                              last_updated, created_at)
        VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
        ON CONFLICT (user_id, symbol) DO UPDATE SET
            qty = EXCLUDED.qty,
            avg = EXCLUDED.avg,
            last_price = EXCLUDED.last_price,
            last_updated = EXCLUDED.last_updated`
	_, err := tx.Exec(ctx, query,
		p.Id, p.UserId, p.Product, p.Name, p.Symbol, p.Qty, p.Avg, p.LastPrice,
		p.Exchange, p.Instrument, p.LivePrice, p.Change, p.ChangePercentage,
		p.Pnl, p.PnlPercentage, p.DayPnl, p.DayPnlPercentage, p.IsLoss,
		p.LastUpdated, p.CreatedAt)
	return err
}
