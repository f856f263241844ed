// Package catalog holds the read model for the product catalog. Products are
// owned by the catalog side of the platform; the register core only reads
// them, and must not assume a price or stock level read at display time is
// still current at commit time.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item available for sale at the register.
type Product struct {
	ID            string
	Name          string
	Barcode       string
	UnitPrice     decimal.Decimal
	StockQuantity int
}

// Repository defines read operations over the product catalog, scoped to the
// organization the register belongs to.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Search(ctx context.Context, query string) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*Product, error)
}
