package order

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/seeds-admin/internal/common"
)

// Handler serves order read endpoints.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/orders?page=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20, 100)
	orders, err := h.Service.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	start, end := common.Window(len(orders), page, perPage)
	w.Header().Set("X-Total-Count", strconv.Itoa(len(orders)))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders[start:end],
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(orders)},
	})
}

// Get handles GET /api/v1/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// AdminHandler provides administrative order management endpoints.
type AdminHandler struct {
	Service *Service
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// PatchStatus handles PATCH /api/v1/admin/orders/{id}/status.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	if req.Status == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "status is required", nil)
		return
	}
	o, err := h.Service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}
