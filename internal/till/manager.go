// Package till owns the per-register working state: one session, one cart,
// and at most one pending payment per register ID. It replaces the ambient
// UI state of the original register screen with an explicit, session-scoped
// service that the HTTP layer drives.
package till

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/verdantlabs/pos-register/internal/domain/cart"
	"github.com/verdantlabs/pos-register/internal/domain/catalog"
	"github.com/verdantlabs/pos-register/internal/domain/checkout"
	"github.com/verdantlabs/pos-register/internal/domain/register"
)

// ErrNoPayment is returned when a commit is attempted without a prepared
// payment selection. The flow is compute-then-confirm; commit never invents
// a payment.
var ErrNoPayment = errors.New("no payment selection prepared")

// Journal records session lifecycle events for the audit trail.
type Journal interface {
	RecordOpen(ctx context.Context, registerID string, openingFloat decimal.Decimal, openedAt time.Time) error
	RecordClose(ctx context.Context, registerID string, closedAt time.Time) error
}

// Config holds the manager's non-dependency configuration.
type Config struct {
	// OrganizationID is stamped onto every committed sale.
	OrganizationID string
	// CommitTimeout bounds the sale persistence call. A commit that times
	// out is treated as failed; the cart is preserved so the operator can
	// retry.
	CommitTimeout time.Duration
}

// till is the working state of one physical register. Its mutex serializes
// the single operator's operations against concurrent HTTP delivery.
type till struct {
	mu      sync.Mutex
	session *register.Session
	cart    *cart.Cart
	pending *checkout.Payment
}

// Manager coordinates all registers of one organization.
type Manager struct {
	cfg     Config
	sales   checkout.Repository
	journal Journal
	lg      *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	tills map[string]*till
}

// NewManager creates a Manager persisting sales through sales and session
// events through journal.
func NewManager(cfg Config, sales checkout.Repository, journal Journal, lg *zap.Logger) *Manager {
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = 10 * time.Second
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Manager{
		cfg:     cfg,
		sales:   sales,
		journal: journal,
		lg:      lg,
		now:     time.Now,
		tills:   make(map[string]*till),
	}
}

// get returns the till for registerID, creating it closed and empty on first
// use.
func (m *Manager) get(registerID string) *till {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tills[registerID]
	if !ok {
		t = &till{
			session: register.NewSessionWithClock(m.now),
			cart:    cart.New(),
		}
		m.tills[registerID] = t
	}
	return t
}

// OpenRegister opens the till session with the given opening float.
func (m *Manager) OpenRegister(ctx context.Context, registerID string, openingFloat decimal.Decimal) error {
	t := m.get(registerID)
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.session.Open(openingFloat); err != nil {
		return err
	}

	if err := m.journal.RecordOpen(ctx, registerID, t.session.OpeningFloat(), t.session.OpenedAt()); err != nil {
		// The audit trail is part of the open contract; roll the session back.
		_ = t.session.Close()
		return errors.Wrap(err, "record session open")
	}

	m.lg.Info("register opened",
		zap.String("register_id", registerID),
		zap.String("opening_float", openingFloat.StringFixed(2)),
	)
	return nil
}

// CloseRegister closes the till session. The cart survives a close; only the
// session state changes. A pending payment is discarded.
func (m *Manager) CloseRegister(ctx context.Context, registerID string) error {
	t := m.get(registerID)
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.session.Close(); err != nil {
		return err
	}
	t.pending = nil

	if err := m.journal.RecordClose(ctx, registerID, m.now()); err != nil {
		// The session is already closed; losing the close event is logged,
		// not fatal.
		m.lg.Warn("record session close failed",
			zap.String("register_id", registerID),
			zap.Error(err),
		)
	}

	m.lg.Info("register closed", zap.String("register_id", registerID))
	return nil
}

// AddProduct puts one unit of p into the register's cart. Cart assembly is
// permitted while the register is closed; only commit requires an open
// session.
func (m *Manager) AddProduct(registerID string, p catalog.Product) {
	t := m.get(registerID)
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cart.Add(p)
	t.pending = nil
}

// RemoveProduct deletes the product's line entirely.
func (m *Manager) RemoveProduct(registerID, productID string) {
	t := m.get(registerID)
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cart.Remove(productID)
	t.pending = nil
}

// IncreaseQuantity bumps the product's line by one.
func (m *Manager) IncreaseQuantity(registerID, productID string) {
	t := m.get(registerID)
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cart.Increase(productID)
	t.pending = nil
}

// DecreaseQuantity lowers the product's line by one, flooring at 1.
func (m *Manager) DecreaseQuantity(registerID, productID string) {
	t := m.get(registerID)
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cart.Decrease(productID)
	t.pending = nil
}

// CancelCart abandons the in-progress sale: empties the cart and discards
// any pending payment. No persistence is involved.
func (m *Manager) CancelCart(registerID string) {
	t := m.get(registerID)
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cart.Clear()
	t.pending = nil
}

// PreparePayment computes the payment selection for the current cart total
// and stores it as the pending preview awaiting confirmation. Any later cart
// mutation invalidates it.
func (m *Manager) PreparePayment(registerID string, method checkout.Method, tendered decimal.Decimal) (checkout.Payment, error) {
	t := m.get(registerID)
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cart.IsEmpty() {
		return checkout.Payment{}, checkout.ErrEmptyCart
	}

	p, err := checkout.ComputePayment(t.cart.Total(), method, tendered)
	if err != nil {
		return checkout.Payment{}, err
	}
	t.pending = &p
	return p, nil
}

// CancelPayment discards the pending payment preview. Nothing has been
// persisted at this point, so there are no side effects.
func (m *Manager) CancelPayment(registerID string) {
	t := m.get(registerID)
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = nil
}

// CommitSale finalizes the pending sale. Preconditions: the session is open
// and a payment has been prepared. The persistence call is bounded by the
// configured commit timeout and is all-or-nothing: on any failure (including
// timeout and stock conflict) the cart and pending payment are left exactly
// as they were so the operator can retry, edit, or cancel.
func (m *Manager) CommitSale(ctx context.Context, registerID, customerName string) (*checkout.Sale, error) {
	t := m.get(registerID)
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.session.IsOpen() {
		return nil, register.ErrRegisterClosed
	}
	if t.cart.IsEmpty() {
		return nil, checkout.ErrEmptyCart
	}
	if t.pending == nil {
		return nil, ErrNoPayment
	}

	sale := &checkout.Sale{
		ID:             uuid.New().String(),
		OrganizationID: m.cfg.OrganizationID,
		RegisterID:     registerID,
		Lines:          checkout.NewSaleLines(t.cart.Lines()),
		Total:          t.cart.Total(),
		PaymentMethod:  t.pending.Method,
		AmountTendered: t.pending.AmountTendered,
		ChangeDue:      t.pending.ChangeDue,
		CustomerName:   customerName,
		CreatedAt:      m.now(),
	}

	commitCtx, cancel := context.WithTimeout(ctx, m.cfg.CommitTimeout)
	defer cancel()

	if err := m.sales.Create(commitCtx, sale); err != nil {
		m.lg.Warn("sale commit failed",
			zap.String("register_id", registerID),
			zap.String("sale_id", sale.ID),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "create sale")
	}

	t.cart.Clear()
	t.pending = nil

	m.lg.Info("sale committed",
		zap.String("register_id", registerID),
		zap.String("sale_id", sale.ID),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.String("payment_method", string(sale.PaymentMethod)),
	)
	return sale, nil
}

// Status is a point-in-time view of one register for display.
type Status struct {
	RegisterID   string
	Session      register.Status
	OpeningFloat decimal.Decimal
	OpenedAt     time.Time
	Lines        []cart.Line
	Total        decimal.Decimal
	Pending      *checkout.Payment
}

// Snapshot returns the register's current session, cart, and pending payment.
func (m *Manager) Snapshot(registerID string) Status {
	t := m.get(registerID)
	t.mu.Lock()
	defer t.mu.Unlock()

	st := Status{
		RegisterID:   registerID,
		Session:      t.session.Status(),
		OpeningFloat: t.session.OpeningFloat(),
		OpenedAt:     t.session.OpenedAt(),
		Lines:        t.cart.Lines(),
		Total:        t.cart.Total(),
	}
	if t.pending != nil {
		p := *t.pending
		st.Pending = &p
	}
	return st
}
