package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/seeds-admin/internal/common"
)

// Handler exposes catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"data": h.service.ListCategories(r.Context())})
}

// Products handles GET /api/v1/products?category=&includeInactive=.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	includeInactive, _ := strconv.ParseBool(q.Get("includeInactive"))
	if includeInactive && !common.HasRole(r.Context(), "admin") {
		includeInactive = false
	}
	products, err := h.service.ListProducts(r.Context(), q.Get("category"), includeInactive)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(products)))
	common.JSON(w, http.StatusOK, map[string]any{"data": products})
}

// Product handles GET /api/v1/products/{id}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// PricingPreview handles POST /api/v1/products/pricing.
func (h *Handler) PricingPreview(w http.ResponseWriter, r *http.Request) {
	var in PriceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	quote, err := h.service.PreviewPricing(in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

// Create handles POST /api/v1/admin/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": p})
}

// SetActive handles PATCH /api/v1/admin/products/{id}/active.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active *bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Active == nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "isActive is required", nil)
		return
	}
	if err := h.service.SetActive(r.Context(), chi.URLParam(r, "id"), *body.Active); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
