package sqlite

import (
	"context"
	"fmt"
	"time"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/domain"
)

type HoldingRepo struct{ db *DB }

func NewHoldingRepo(db *DB) *HoldingRepo { return &HoldingRepo{db: db} }

var _ application.HoldingRepo = (*HoldingRepo)(nil)

func (r *HoldingRepo) List(ctx context.Context) ([]domain.Holding, error) {
	rows, err := r.db.SQL.QueryContext(ctx,
		`SELECT id, symbol, quantity, avg_cost, currency FROM holdings ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	defer rows.Close()
	out := []domain.Holding{}
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.ID, &h.Symbol, &h.Quantity, &h.AvgCost, &h.Currency); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *HoldingRepo) Upsert(ctx context.Context, h domain.Holding) (domain.Holding, error) {
	const up = `
        INSERT INTO holdings(symbol, quantity, avg_cost, currency, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (symbol) DO UPDATE
          SET quantity=excluded.quantity, avg_cost=excluded.avg_cost,
              currency=excluded.currency, updated_at=excluded.updated_at
        RETURNING id, symbol, quantity, avg_cost, currency`
	now := time.Now().UTC().Format(time.RFC3339Nano)
	var out domain.Holding
	if err := r.db.SQL.QueryRowContext(ctx, up, h.Symbol, h.Quantity, h.AvgCost, h.Currency, now).
		Scan(&out.ID, &out.Symbol, &out.Quantity, &out.AvgCost, &out.Currency); err != nil {
		return domain.Holding{}, fmt.Errorf("upsert holding: %w", err)
	}
	return out, nil
}

func (r *HoldingRepo) Delete(ctx context.Context, symbol string) error {
	if _, err := r.db.SQL.ExecContext(ctx, `DELETE FROM holdings WHERE symbol=?`, symbol); err != nil {
		return fmt.Errorf("delete holding: %w", err)
	}
	return nil
}

type TransactionRepo struct{ db *DB }

func NewTransactionRepo(db *DB) *TransactionRepo { return &TransactionRepo{db: db} }

var _ application.TransactionRepo = (*TransactionRepo)(nil)

func (r *TransactionRepo) List(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `
        SELECT id, symbol, qty, price, side, currency, created_at
        FROM transactions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	out := []domain.Transaction{}
	for rows.Next() {
		var (
			tx      domain.Transaction
			side    string
			created string
		)
		if err := rows.Scan(&tx.ID, &tx.Symbol, &tx.Qty, &tx.Price, &side, &tx.Currency, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Side = domain.Side(side)
		if tx.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *TransactionRepo) Append(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	res, err := r.db.SQL.ExecContext(ctx, `
        INSERT INTO transactions(symbol, qty, price, side, currency, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		tx.Symbol, tx.Qty, tx.Price, string(tx.Side), tx.Currency, tx.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	if tx.ID, err = res.LastInsertId(); err != nil {
		return domain.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	return tx, nil
}
