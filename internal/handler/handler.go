// Package handler exposes the register core over HTTP. Handlers decode JSON
// requests, delegate to the till manager and repositories, and map domain
// errors to status codes; no business rules live here.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/verdantlabs/pos-register/internal/domain/catalog"
	"github.com/verdantlabs/pos-register/internal/domain/checkout"
	"github.com/verdantlabs/pos-register/internal/domain/money"
	"github.com/verdantlabs/pos-register/internal/domain/org"
	"github.com/verdantlabs/pos-register/internal/domain/register"
	"github.com/verdantlabs/pos-register/internal/till"
)

// Handler carries the HTTP surface's dependencies.
type Handler struct {
	products catalog.Repository
	orgs     org.Repository
	tills    *till.Manager
}

// New constructs a Handler.
func New(products catalog.Repository, orgs org.Repository, tills *till.Manager) *Handler {
	return &Handler{
		products: products,
		orgs:     orgs,
		tills:    tills,
	}
}

// Routes returns the API router, intended to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/products/barcode/{code}", h.getProductByBarcode)
	r.Get("/organization", h.getOrganization)

	r.Route("/registers/{registerID}", func(r chi.Router) {
		r.Get("/", h.getRegister)
		r.Post("/open", h.openRegister)
		r.Post("/close", h.closeRegister)

		r.Post("/cart/items", h.addCartItem)
		r.Delete("/cart/items/{productID}", h.removeCartItem)
		r.Post("/cart/items/{productID}/increase", h.increaseCartItem)
		r.Post("/cart/items/{productID}/decrease", h.decreaseCartItem)
		r.Delete("/cart", h.cancelCart)

		r.Post("/payment", h.preparePayment)
		r.Delete("/payment", h.cancelPayment)
		r.Post("/commit", h.commitSale)
	})

	return r
}

// errorResponse is the wire shape of every error payload.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Code: status, Message: message})
}

// decodeBody decodes the request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeDomainError maps known domain errors to client-facing status codes.
// Unknown errors become a 500 with a generic message; internals are logged,
// not leaked.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, checkout.ErrUnknownMethod):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, org.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, checkout.ErrInsufficientPayment):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, register.ErrRegisterClosed),
		errors.Is(err, register.ErrAlreadyOpen),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrStockConflict),
		errors.Is(err, till.ErrNoPayment):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
