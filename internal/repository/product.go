package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/verdantlabs/pos-register/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT id, name, barcode, unit_price, stock_quantity
		FROM products WHERE organization_id = $1 ORDER BY name`

	searchProductsSQL = `SELECT id, name, barcode, unit_price, stock_quantity
		FROM products WHERE organization_id = $1 AND name ILIKE '%' || $2 || '%'
		ORDER BY name`

	getProductByIDSQL = `SELECT id, name, barcode, unit_price, stock_quantity
		FROM products WHERE organization_id = $1 AND id = $2`

	getProductByBarcodeSQL = `SELECT id, name, barcode, unit_price, stock_quantity
		FROM products WHERE organization_id = $1 AND barcode = $2`

	listBarcodesSQL = `SELECT barcode FROM products
		WHERE organization_id = $1 AND barcode <> ''`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL,
// scoped to one organization.
type ProductRepository struct {
	pool  *pgxpool.Pool
	orgID string
}

// NewProductRepository returns a ProductRepository for the given
// organization.
func NewProductRepository(pool *pgxpool.Pool, orgID string) *ProductRepository {
	return &ProductRepository{pool: pool, orgID: orgID}
}

// List returns the organization's catalog ordered by name.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, r.orgID)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Search returns products whose name contains query, case-insensitively.
func (r *ProductRepository) Search(ctx context.Context, query string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, searchProductsSQL, r.orgID, query)
	if err != nil {
		return nil, fmt.Errorf("searching products %q: %w", query, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, r.orgID, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByBarcode returns the product carrying the given barcode.
func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByBarcodeSQL, r.orgID, barcode)
	if err != nil {
		return nil, fmt.Errorf("getting product by barcode %q: %w", barcode, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product by barcode %q: %w", barcode, err)
	}
	return &p, nil
}

// ListBarcodes returns every non-empty barcode in the organization's
// catalog. Used to seed the barcode filter at startup.
func (r *ProductRepository) ListBarcodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listBarcodesSQL, r.orgID)
	if err != nil {
		return nil, fmt.Errorf("listing barcodes: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var b string
		err := row.Scan(&b)
		return b, err
	})
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p     catalog.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Name, &p.Barcode, &price, &p.StockQuantity)
	p.UnitPrice = price
	return p, err
}
