// Package checkout converts a finalized cart and payment selection into an
// immutable, persisted sale. The flow is two-phase: compute the payment
// preview first, then commit on explicit confirmation.
package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/verdantlabs/pos-register/internal/domain/cart"
)

// ErrStockConflict is returned by Repository.Create when any line's quantity
// exceeds the stock available at commit time. Catalog data read at display
// time may be stale; this conflict is only discoverable here.
var ErrStockConflict = errors.New("insufficient stock")

// SaleLine is one persisted line of a sale. UnitPrice is the price at sale
// time, decoupled from later catalog changes.
type SaleLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// NewSaleLines snapshots cart lines into persisted sale lines, freezing each
// unit price as of sale time.
func NewSaleLines(lines []cart.Line) []SaleLine {
	out := make([]SaleLine, len(lines))
	for i, l := range lines {
		out[i] = SaleLine{
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.UnitPrice,
		}
	}
	return out
}

// Sale is a finalized, immutable sale record. Voids and refunds are outside
// this core.
type Sale struct {
	ID             string
	OrganizationID string
	RegisterID     string
	Lines          []SaleLine
	Total          decimal.Decimal
	PaymentMethod  Method
	AmountTendered decimal.Decimal
	ChangeDue      decimal.Decimal
	CustomerName   string
	CreatedAt      time.Time
}

// Repository persists sales. Create must atomically decrement each line's
// product stock and insert the sale row: either everything happens or
// nothing does. It returns ErrStockConflict when stock cannot cover a line.
type Repository interface {
	Create(ctx context.Context, sale *Sale) error
}
