package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/seeds-admin/internal/common"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc *Service
}

func userID(r *http.Request) string {
	if id, ok := common.UserID(r.Context()); ok && id != "" {
		return id
	}
	return "admin"
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.Get(r.Context(), userID(r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ProductID == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "productId is required", nil)
		return
	}
	if payload.Qty == 0 {
		payload.Qty = 1
	}
	if payload.Qty < 0 || payload.Qty > MaxQuantity {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "qty is out of range", map[string]any{"max": MaxQuantity})
		return
	}
	view, err := h.Svc.Add(r.Context(), userID(r), payload.ProductID, payload.Qty)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": view})
}

// UpdateItem handles PATCH /api/v1/cart/items/{itemId}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Qty *int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Qty == nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "qty is required", nil)
		return
	}
	if *payload.Qty > MaxQuantity {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "qty is out of range", map[string]any{"max": MaxQuantity})
		return
	}
	view, err := h.Svc.SetQuantity(r.Context(), userID(r), chi.URLParam(r, "itemId"), *payload.Qty)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.Remove(r.Context(), userID(r), chi.URLParam(r, "itemId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Clear handles DELETE /api/v1/cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Clear(r.Context(), userID(r)); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
