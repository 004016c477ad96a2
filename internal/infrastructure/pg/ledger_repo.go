package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stocktracker-service/internal/application"
	"stocktracker-service/internal/domain"
)

type HoldingRepo struct{ db *DB }

func NewHoldingRepo(db *DB) *HoldingRepo { return &HoldingRepo{db: db} }

var _ application.HoldingRepo = (*HoldingRepo)(nil)

func (r *HoldingRepo) List(ctx context.Context) ([]domain.Holding, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, symbol, quantity::float8, avg_cost::float8, currency FROM holdings ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Holding, error) {
		var h domain.Holding
		err := row.Scan(&h.ID, &h.Symbol, &h.Quantity, &h.AvgCost, &h.Currency)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan holdings: %w", err)
	}
	return out, nil
}

func (r *HoldingRepo) Upsert(ctx context.Context, h domain.Holding) (domain.Holding, error) {
	const up = `
        INSERT INTO holdings(symbol, quantity, avg_cost, currency, updated_at)
        VALUES ($1, $2, $3, $4, now())
        ON CONFLICT (symbol) DO UPDATE
          SET quantity=EXCLUDED.quantity, avg_cost=EXCLUDED.avg_cost,
              currency=EXCLUDED.currency, updated_at=EXCLUDED.updated_at
        RETURNING id, symbol, quantity::float8, avg_cost::float8, currency`
	var out domain.Holding
	if err := r.db.Pool.QueryRow(ctx, up, h.Symbol, h.Quantity, h.AvgCost, h.Currency).
		Scan(&out.ID, &out.Symbol, &out.Quantity, &out.AvgCost, &out.Currency); err != nil {
		return domain.Holding{}, fmt.Errorf("upsert holding: %w", err)
	}
	return out, nil
}

func (r *HoldingRepo) Delete(ctx context.Context, symbol string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM holdings WHERE symbol=$1`, symbol); err != nil {
		return fmt.Errorf("delete holding: %w", err)
	}
	return nil
}

type TransactionRepo struct{ db *DB }

func NewTransactionRepo(db *DB) *TransactionRepo { return &TransactionRepo{db: db} }

var _ application.TransactionRepo = (*TransactionRepo)(nil)

func (r *TransactionRepo) List(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.db.Pool.Query(ctx, `
        SELECT id, symbol, qty::float8, price::float8, side, currency, created_at
        FROM transactions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		var tx domain.Transaction
		err := row.Scan(&tx.ID, &tx.Symbol, &tx.Qty, &tx.Price, &tx.Side, &tx.Currency, &tx.CreatedAt)
		return tx, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return out, nil
}

func (r *TransactionRepo) Append(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	const ins = `
        INSERT INTO transactions(symbol, qty, price, side, currency, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`
	if err := r.db.Pool.QueryRow(ctx, ins, tx.Symbol, tx.Qty, tx.Price, string(tx.Side), tx.Currency, tx.CreatedAt).
		Scan(&tx.ID); err != nil {
		return domain.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	return tx, nil
}
