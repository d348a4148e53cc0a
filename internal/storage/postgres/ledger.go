package postgres

import (
	"Brokerage/internal/domain/models"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const ledgerColumns = `id, user_id, amount, type, COALESCE(payment_ref, ''), description, status, created_at`

func scanLedgerEntry(row pgx.Row) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := row.Scan(&e.Id, &e.UserId, &e.Amount, &e.Type, &e.PaymentRef,
		&e.Description, &e.Status, &e.CreatedAt)
	return e, err
}

const queryBreakdown = `
    SELECT type, COALESCE(SUM(amount), 0)
    FROM ledger
    WHERE user_id = $1 AND status = 'completed'
    GROUP BY type`

// LedgerBreakdown sums completed entries per type for one user.
func (s *Storage) LedgerBreakdown(ctx context.Context, userId int64) (map[models.LedgerType]decimal.Decimal, error) {
	const op = "postgres.LedgerBreakdown"
	log := slog.With("op", op)

	rows, err := s.db.Query(ctx, queryBreakdown, userId)
	if err != nil {
		log.Error("Failed to aggregate ledger", "user_id", userId, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	breakdown := make(map[models.LedgerType]decimal.Decimal)
	for rows.Next() {
		var t models.LedgerType
		var total decimal.Decimal
		if err := rows.Scan(&t, &total); err != nil {
			log.Error("Failed to scan ledger aggregate", "user_id", userId, "err", err)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		breakdown[t] = total
	}

	return breakdown, nil
}

func (s *Storage) ListLedger(ctx context.Context, userId int64, limit int) ([]models.LedgerEntry, error) {
	const op = "postgres.ListLedger"
	log := slog.With("op", op)

	const query = `SELECT ` + ledgerColumns + ` FROM ledger WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := s.db.Query(ctx, query, userId, limit)
	if err != nil {
		log.Error("Failed to list ledger", "user_id", userId, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			log.Error("Failed to scan ledger entry", "user_id", userId, "err", err)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *Storage) GetLedgerByPaymentRef(ctx context.Context, paymentRef string) (models.LedgerEntry, error) {
	const op = "postgres.GetLedgerByPaymentRef"
	log := slog.With("op", op)

	const query = `SELECT ` + ledgerColumns + ` FROM ledger WHERE payment_ref = $1`
	entry, err := scanLedgerEntry(s.db.QueryRow(ctx, query, paymentRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entry, ErrLedgerNotExists
		}
		log.Error("Failed to get ledger entry", "payment_ref", paymentRef, "err", err)
		return entry, fmt.Errorf("%s: %w", op, err)
	}

	return entry, nil
}

func (s *Storage) AppendLedger(ctx context.Context, e models.LedgerEntry) error {
	const op = "postgres.AppendLedger"
	log := slog.With("op", op)

	const query = `
        INSERT INTO ledger(id, user_id, amount, type, payment_ref, description, status, created_at)
        VALUES($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`
	_, err := s.db.Exec(ctx, query,
		e.Id, e.UserId, e.Amount, e.Type, e.PaymentRef, e.Description, e.Status, e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			log.Warn("Ledger entry already exists", "payment_ref", e.PaymentRef)
			return ErrDuplicatePayment
		}
		log.Error("Failed to append ledger entry", "user_id", e.UserId, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("Ledger entry appended", "user_id", e.UserId, "type", e.Type, "amount", e.Amount)
	return nil
}

// Withdraw re-derives the available balance and appends the withdraw entry in
// one transaction, so a concurrent withdrawal cannot overdraw the ledger.
func (s *Storage) Withdraw(ctx context.Context, e models.LedgerEntry) (err error) {
	const op = "postgres.Withdraw"
	log := slog.With("op", op, "user_id", e.UserId)

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

	// Serialize withdrawals per user.
	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, e.UserId); err != nil {
		log.Error("Failed to take ledger lock", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := tx.Query(ctx, queryBreakdown, e.UserId)
	if err != nil {
		log.Error("Failed to aggregate ledger", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	totals := make(map[models.LedgerType]decimal.Decimal)
	for rows.Next() {
		var t models.LedgerType
		var total decimal.Decimal
		if err = rows.Scan(&t, &total); err != nil {
			rows.Close()
			return fmt.Errorf("%s: %w", op, err)
		}
		totals[t] = total
	}
	rows.Close()

	available := totals[models.LedgerAdd].
		Sub(totals[models.LedgerWithdraw]).
		Sub(totals[models.LedgerInvestment])
	if e.Amount.GreaterThan(available) {
		log.Warn("Insufficient available funds", "available", available, "requested", e.Amount)
		return ErrInsufficientFunds
	}

	const query = `
        INSERT INTO ledger(id, user_id, amount, type, payment_ref, description, status, created_at)
        VALUES($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`
	if _, err = tx.Exec(ctx, query,
		e.Id, e.UserId, e.Amount, e.Type, e.PaymentRef, e.Description, e.Status, e.CreatedAt); err != nil {
		log.Error("Failed to append withdraw entry", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		log.Error("Failed to commit transaction", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("Withdrawal recorded", "amount", e.Amount, "available_before", available)
	return nil
}
