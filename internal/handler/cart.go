package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type addItemRequest struct {
	ProductID string `json:"productId"`
}

// addCartItem resolves the product in the catalog and adds one unit to the
// register's cart. The catalog lookup is the only stock information this
// path sees; availability is enforced at commit time.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(r, &req); err != nil || req.ProductID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.tills.AddProduct(registerID(r), *p)
	writeJSON(w, r, http.StatusOK, toRegisterResponse(h.tills.Snapshot(registerID(r))))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	h.tills.RemoveProduct(registerID(r), chi.URLParam(r, "productID"))
	writeJSON(w, r, http.StatusOK, toRegisterResponse(h.tills.Snapshot(registerID(r))))
}

func (h *Handler) increaseCartItem(w http.ResponseWriter, r *http.Request) {
	h.tills.IncreaseQuantity(registerID(r), chi.URLParam(r, "productID"))
	writeJSON(w, r, http.StatusOK, toRegisterResponse(h.tills.Snapshot(registerID(r))))
}

func (h *Handler) decreaseCartItem(w http.ResponseWriter, r *http.Request) {
	h.tills.DecreaseQuantity(registerID(r), chi.URLParam(r, "productID"))
	writeJSON(w, r, http.StatusOK, toRegisterResponse(h.tills.Snapshot(registerID(r))))
}

func (h *Handler) cancelCart(w http.ResponseWriter, r *http.Request) {
	h.tills.CancelCart(registerID(r))
	writeJSON(w, r, http.StatusOK, toRegisterResponse(h.tills.Snapshot(registerID(r))))
}
