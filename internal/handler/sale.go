package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/verdantlabs/pos-register/internal/domain/checkout"
	"github.com/verdantlabs/pos-register/internal/domain/money"
	"github.com/verdantlabs/pos-register/internal/domain/register"
	"github.com/verdantlabs/pos-register/internal/till"
)

type paymentRequest struct {
	Method         string          `json:"method"`
	AmountTendered decimal.Decimal `json:"amountTendered"`
}

type commitRequest struct {
	CustomerName string `json:"customerName"`
}

// saleResponse is the receipt returned on a successful commit.
type saleResponse struct {
	SaleID           string    `json:"saleId"`
	Total            string    `json:"total"`
	TotalDisplay     string    `json:"totalDisplay"`
	PaymentMethod    string    `json:"paymentMethod"`
	AmountTendered   string    `json:"amountTendered"`
	ChangeDue        string    `json:"changeDue"`
	ChangeDueDisplay string    `json:"changeDueDisplay"`
	CustomerName     string    `json:"customerName,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// preparePayment computes the payment preview for the current cart. Nothing
// is persisted; the preview awaits explicit confirmation via commit.
func (h *Handler) preparePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	method, err := checkout.ParseMethod(req.Method)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	p, err := h.tills.PreparePayment(registerID(r), method, req.AmountTendered)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, paymentResponse{
		Method:           string(p.Method),
		AmountTendered:   p.AmountTendered.StringFixed(2),
		ChangeDue:        p.ChangeDue.StringFixed(2),
		ChangeDueDisplay: money.FormatBRL(p.ChangeDue),
	})
}

func (h *Handler) cancelPayment(w http.ResponseWriter, r *http.Request) {
	h.tills.CancelPayment(registerID(r))
	w.WriteHeader(http.StatusNoContent)
}

// commitSale finalizes the pending sale. A failed commit leaves the cart and
// payment untouched server-side, so the response tells the operator a plain
// retry is safe.
func (h *Handler) commitSale(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	sale, err := h.tills.CommitSale(r.Context(), registerID(r), req.CustomerName)
	if err != nil {
		switch {
		case errors.Is(err, register.ErrRegisterClosed),
			errors.Is(err, checkout.ErrEmptyCart),
			errors.Is(err, checkout.ErrStockConflict),
			errors.Is(err, till.ErrNoPayment):
			writeDomainError(w, r, err)
		default:
			zctx.From(r.Context()).Error("sale commit failed", zap.Error(err))
			writeError(w, r, http.StatusBadGateway, "sale was not committed; cart preserved, retry when ready")
		}
		return
	}

	writeJSON(w, r, http.StatusCreated, saleResponse{
		SaleID:           sale.ID,
		Total:            sale.Total.StringFixed(2),
		TotalDisplay:     money.FormatBRL(sale.Total),
		PaymentMethod:    string(sale.PaymentMethod),
		AmountTendered:   sale.AmountTendered.StringFixed(2),
		ChangeDue:        sale.ChangeDue.StringFixed(2),
		ChangeDueDisplay: money.FormatBRL(sale.ChangeDue),
		CustomerName:     sale.CustomerName,
		CreatedAt:        sale.CreatedAt,
	})
}
