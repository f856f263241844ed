package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/verdantlabs/pos-register/internal/domain/checkout"
)

const (
	decrementStockSQL = `UPDATE products SET stock_quantity = stock_quantity - $3, updated_at = now()
		WHERE organization_id = $1 AND id = $2 AND stock_quantity >= $3`

	insertSaleSQL = `INSERT INTO sales
		(id, organization_id, register_id, lines, total, payment_method, amount_tendered, change_due, customer_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
)

var _ checkout.Repository = (*SaleRepository)(nil)

// SaleRepository implements checkout.Repository backed by PostgreSQL.
type SaleRepository struct {
	pool *pgxpool.Pool
	lg   *zap.Logger
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool, lg *zap.Logger) *SaleRepository {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &SaleRepository{pool: pool, lg: lg}
}

// Create persists a sale and decrements stock for every line inside one
// transaction. The decrement only matches rows with enough stock; a line
// that matches nothing means the stock read at display time is stale, and
// the whole transaction rolls back with checkout.ErrStockConflict.
func (r *SaleRepository) Create(ctx context.Context, sale *checkout.Sale) error {
	linesJSON, err := json.Marshal(sale.Lines)
	if err != nil {
		return fmt.Errorf("marshaling sale lines: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning sale transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.lg.Warn("sale transaction rollback failed", zap.Error(rbErr))
		}
	}()

	for _, line := range sale.Lines {
		tag, err := tx.Exec(ctx, decrementStockSQL, sale.OrganizationID, line.ProductID, line.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock for %q: %w", line.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return checkout.ErrStockConflict
		}
	}

	_, err = tx.Exec(ctx, insertSaleSQL,
		sale.ID, sale.OrganizationID, sale.RegisterID, linesJSON,
		sale.Total, string(sale.PaymentMethod), sale.AmountTendered, sale.ChangeDue,
		sale.CustomerName, sale.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting sale %q: %w", sale.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing sale %q: %w", sale.ID, err)
	}
	return nil
}
