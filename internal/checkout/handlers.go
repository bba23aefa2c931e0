package checkout

import (
	"encoding/json"
	"net/http"

	"github.com/noah-isme/seeds-admin/internal/common"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	Svc *Service
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	out, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}
