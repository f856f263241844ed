package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/verdantlabs/pos-register/internal/domain/catalog"
	"github.com/verdantlabs/pos-register/internal/domain/checkout"
	"github.com/verdantlabs/pos-register/internal/domain/org"
	"github.com/verdantlabs/pos-register/internal/till"
)

// --- Mock implementations ---

type mockCatalog struct {
	byID      map[string]*catalog.Product
	byBarcode map[string]*catalog.Product
}

func (m *mockCatalog) List(_ context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockCatalog) Search(_ context.Context, query string) ([]catalog.Product, error) {
	return nil, nil
}

func (m *mockCatalog) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, catalog.ErrNotFound
}

func (m *mockCatalog) GetByBarcode(_ context.Context, code string) (*catalog.Product, error) {
	if p, ok := m.byBarcode[code]; ok {
		return p, nil
	}
	return nil, catalog.ErrNotFound
}

type mockOrgRepo struct{}

func (mockOrgRepo) Get(_ context.Context) (*org.Organization, error) {
	return &org.Organization{ID: "org-1", Name: "Flora Verde LTDA"}, nil
}

type mockSaleRepo struct {
	created []*checkout.Sale
	err     error
}

func (m *mockSaleRepo) Create(_ context.Context, s *checkout.Sale) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, s)
	return nil
}

type nopJournal struct{}

func (nopJournal) RecordOpen(context.Context, string, decimal.Decimal, time.Time) error { return nil }
func (nopJournal) RecordClose(context.Context, string, time.Time) error                 { return nil }

// --- Helpers ---

type testEnv struct {
	router   http.Handler
	saleRepo *mockSaleRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tincture := &catalog.Product{
		ID: "p1", Name: "Tincture 30ml", Barcode: "789100001",
		UnitPrice: decimal.RequireFromString("25.50"), StockQuantity: 10,
	}
	balm := &catalog.Product{
		ID: "p2", Name: "Balm", Barcode: "789100002",
		UnitPrice: decimal.RequireFromString("10.00"), StockQuantity: 5,
	}
	products := &mockCatalog{
		byID:      map[string]*catalog.Product{"p1": tincture, "p2": balm},
		byBarcode: map[string]*catalog.Product{"789100001": tincture, "789100002": balm},
	}

	saleRepo := &mockSaleRepo{}
	tills := till.NewManager(
		till.Config{OrganizationID: "org-1", CommitTimeout: time.Second},
		saleRepo, nopJournal{}, zap.NewNop(),
	)

	h := New(products, mockOrgRepo{}, tills)
	return &testEnv{router: h.Routes(), saleRepo: saleRepo}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// --- Tests ---

func TestGetOrganization(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/organization", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeInto[organizationResponse](t, rec)
	assert.Equal(t, "Flora Verde LTDA", resp.Name)
}

func TestGetProductByBarcode(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/products/barcode/789100001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "25.50", decodeInto[productResponse](t, rec).UnitPrice)

	rec = e.do(t, http.MethodGet, "/products/barcode/000000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpenRegister(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/registers/caixa-01/open",
		map[string]any{"openingFloat": "100.00"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeInto[registerResponse](t, rec)
	assert.Equal(t, "open", resp.Status)
	assert.Equal(t, "100.00", resp.OpeningFloat)
	assert.NotNil(t, resp.OpenedAt)
}

func TestOpenRegister_NegativeFloat(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/registers/caixa-01/open",
		map[string]any{"openingFloat": "-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenRegister_Twice(t *testing.T) {
	e := newTestEnv(t)

	e.do(t, http.MethodPost, "/registers/caixa-01/open", map[string]any{"openingFloat": "100"})
	rec := e.do(t, http.MethodPost, "/registers/caixa-01/open", map[string]any{"openingFloat": "100"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddCartItem_UnknownProduct(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/registers/caixa-01/cart/items",
		map[string]any{"productId": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartFlow(t *testing.T) {
	e := newTestEnv(t)

	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p1"})
	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p1"})
	rec := e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p2"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeInto[registerResponse](t, rec)
	require.Len(t, resp.Lines, 2)
	assert.Equal(t, 2, resp.Lines[0].Quantity)
	assert.Equal(t, "61.00", resp.Total)
	assert.Equal(t, "R$ 61,00", resp.TotalDisplay)

	rec = e.do(t, http.MethodPost, "/registers/caixa-01/cart/items/p1/decrease", nil)
	resp = decodeInto[registerResponse](t, rec)
	assert.Equal(t, "35.50", resp.Total)

	rec = e.do(t, http.MethodDelete, "/registers/caixa-01/cart/items/p2", nil)
	resp = decodeInto[registerResponse](t, rec)
	require.Len(t, resp.Lines, 1)

	rec = e.do(t, http.MethodDelete, "/registers/caixa-01/cart", nil)
	resp = decodeInto[registerResponse](t, rec)
	assert.Empty(t, resp.Lines)
	assert.Equal(t, "0.00", resp.Total)
}

func TestPreparePayment_EmptyCart(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/registers/caixa-01/open", map[string]any{"openingFloat": "100"})

	rec := e.do(t, http.MethodPost, "/registers/caixa-01/payment",
		map[string]any{"method": "cash", "amountTendered": "10.00"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPreparePayment_UnknownMethod(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p1"})

	rec := e.do(t, http.MethodPost, "/registers/caixa-01/payment",
		map[string]any{"method": "cheque"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreparePayment_InsufficientCash(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/registers/caixa-01/open", map[string]any{"openingFloat": "100"})
	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p1"})
	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p1"})

	rec := e.do(t, http.MethodPost, "/registers/caixa-01/payment",
		map[string]any{"method": "cash", "amountTendered": "40.00"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCommit_ClosedRegister(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p1"})
	e.do(t, http.MethodPost, "/registers/caixa-01/payment", map[string]any{"method": "pix"})

	rec := e.do(t, http.MethodPost, "/registers/caixa-01/commit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, e.saleRepo.created)
}

func TestCommit_WithoutPayment(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/registers/caixa-01/open", map[string]any{"openingFloat": "100"})
	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p1"})

	rec := e.do(t, http.MethodPost, "/registers/caixa-01/commit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFullSaleFlow(t *testing.T) {
	e := newTestEnv(t)

	e.do(t, http.MethodPost, "/registers/caixa-01/open", map[string]any{"openingFloat": "100.00"})
	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p1"})
	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p1"})
	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p2"})

	rec := e.do(t, http.MethodPost, "/registers/caixa-01/payment",
		map[string]any{"method": "cash", "amountTendered": "70.00"})
	require.Equal(t, http.StatusOK, rec.Code)

	pay := decodeInto[paymentResponse](t, rec)
	assert.Equal(t, "9.00", pay.ChangeDue)
	assert.Equal(t, "R$ 9,00", pay.ChangeDueDisplay)

	rec = e.do(t, http.MethodPost, "/registers/caixa-01/commit",
		map[string]any{"customerName": "Ana"})
	require.Equal(t, http.StatusCreated, rec.Code)

	sale := decodeInto[saleResponse](t, rec)
	assert.NotEmpty(t, sale.SaleID)
	assert.Equal(t, "61.00", sale.Total)
	assert.Equal(t, "Ana", sale.CustomerName)
	require.Len(t, e.saleRepo.created, 1)

	// Cart is empty, register still open.
	rec = e.do(t, http.MethodGet, "/registers/caixa-01", nil)
	resp := decodeInto[registerResponse](t, rec)
	assert.Empty(t, resp.Lines)
	assert.Equal(t, "open", resp.Status)
}

func TestCommit_StockConflict(t *testing.T) {
	e := newTestEnv(t)
	e.saleRepo.err = checkout.ErrStockConflict

	e.do(t, http.MethodPost, "/registers/caixa-01/open", map[string]any{"openingFloat": "100"})
	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p1"})
	e.do(t, http.MethodPost, "/registers/caixa-01/payment", map[string]any{"method": "debit"})

	rec := e.do(t, http.MethodPost, "/registers/caixa-01/commit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Cart is preserved for retry.
	resp := decodeInto[registerResponse](t, e.do(t, http.MethodGet, "/registers/caixa-01", nil))
	assert.Len(t, resp.Lines, 1)
}

func TestCommit_RepositoryFailureIsRetryable(t *testing.T) {
	e := newTestEnv(t)
	e.saleRepo.err = errors.New("connection reset")

	e.do(t, http.MethodPost, "/registers/caixa-01/open", map[string]any{"openingFloat": "100"})
	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p1"})
	e.do(t, http.MethodPost, "/registers/caixa-01/payment", map[string]any{"method": "credit"})

	rec := e.do(t, http.MethodPost, "/registers/caixa-01/commit", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	e.saleRepo.err = nil
	rec = e.do(t, http.MethodPost, "/registers/caixa-01/commit", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCancelPayment(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/registers/caixa-01/cart/items", map[string]any{"productId": "p1"})
	e.do(t, http.MethodPost, "/registers/caixa-01/payment", map[string]any{"method": "pix"})

	rec := e.do(t, http.MethodDelete, "/registers/caixa-01/payment", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	resp := decodeInto[registerResponse](t, e.do(t, http.MethodGet, "/registers/caixa-01", nil))
	assert.Nil(t, resp.Payment)
	assert.Len(t, resp.Lines, 1)
}
