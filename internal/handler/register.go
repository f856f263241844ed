package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/verdantlabs/pos-register/internal/domain/money"
	"github.com/verdantlabs/pos-register/internal/domain/register"
	"github.com/verdantlabs/pos-register/internal/till"
)

type openRegisterRequest struct {
	OpeningFloat decimal.Decimal `json:"openingFloat"`
}

// cartLineResponse is one line of the register's cart view.
type cartLineResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type paymentResponse struct {
	Method           string `json:"method"`
	AmountTendered   string `json:"amountTendered"`
	ChangeDue        string `json:"changeDue"`
	ChangeDueDisplay string `json:"changeDueDisplay"`
}

// registerResponse is the full register view: session, cart, and any pending
// payment preview.
type registerResponse struct {
	RegisterID   string             `json:"registerId"`
	Status       string             `json:"status"`
	OpeningFloat string             `json:"openingFloat,omitempty"`
	OpenedAt     *time.Time         `json:"openedAt,omitempty"`
	Lines        []cartLineResponse `json:"lines"`
	Total        string             `json:"total"`
	TotalDisplay string             `json:"totalDisplay"`
	Payment      *paymentResponse   `json:"payment,omitempty"`
}

func toRegisterResponse(st till.Status) registerResponse {
	resp := registerResponse{
		RegisterID:   st.RegisterID,
		Status:       string(st.Session),
		Lines:        make([]cartLineResponse, len(st.Lines)),
		Total:        st.Total.StringFixed(2),
		TotalDisplay: money.FormatBRL(st.Total),
	}
	if st.Session == register.StatusOpen {
		resp.OpeningFloat = st.OpeningFloat.StringFixed(2)
		openedAt := st.OpenedAt
		resp.OpenedAt = &openedAt
	}
	for i, l := range st.Lines {
		resp.Lines[i] = cartLineResponse{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			UnitPrice: l.Product.UnitPrice.StringFixed(2),
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal().StringFixed(2),
		}
	}
	if st.Pending != nil {
		resp.Payment = &paymentResponse{
			Method:           string(st.Pending.Method),
			AmountTendered:   st.Pending.AmountTendered.StringFixed(2),
			ChangeDue:        st.Pending.ChangeDue.StringFixed(2),
			ChangeDueDisplay: money.FormatBRL(st.Pending.ChangeDue),
		}
	}
	return resp
}

func registerID(r *http.Request) string {
	return chi.URLParam(r, "registerID")
}

func (h *Handler) getRegister(w http.ResponseWriter, r *http.Request) {
	st := h.tills.Snapshot(registerID(r))
	writeJSON(w, r, http.StatusOK, toRegisterResponse(st))
}

func (h *Handler) openRegister(w http.ResponseWriter, r *http.Request) {
	var req openRegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.tills.OpenRegister(r.Context(), registerID(r), req.OpeningFloat); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRegisterResponse(h.tills.Snapshot(registerID(r))))
}

func (h *Handler) closeRegister(w http.ResponseWriter, r *http.Request) {
	if err := h.tills.CloseRegister(r.Context(), registerID(r)); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRegisterResponse(h.tills.Snapshot(registerID(r))))
}
