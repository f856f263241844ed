package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/verdantlabs/pos-register/internal/domain/catalog"
)

// productResponse is the wire shape of a catalog product. Prices travel as
// fixed-point strings; nothing on the wire is binary floating point.
type productResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Barcode       string `json:"barcode,omitempty"`
	UnitPrice     string `json:"unitPrice"`
	StockQuantity int    `json:"stockQuantity"`
}

func toProductResponse(p catalog.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Barcode:       p.Barcode,
		UnitPrice:     p.UnitPrice.StringFixed(2),
		StockQuantity: p.StockQuantity,
	}
}

// listProducts returns the catalog, optionally filtered by ?q= name search.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []catalog.Product
		err      error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		products, err = h.products.Search(r.Context(), q)
	} else {
		products, err = h.products.List(r.Context())
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProductResponse(*p))
}

func (h *Handler) getProductByBarcode(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByBarcode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProductResponse(*p))
}

type organizationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) getOrganization(w http.ResponseWriter, r *http.Request) {
	o, err := h.orgs.Get(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, organizationResponse{ID: o.ID, Name: o.Name})
}
