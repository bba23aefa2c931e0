package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	svc, err := NewService(ServiceConfig{Repository: NewMemoryRepository(), Cache: NewCache(nil, 0), Logger: zerolog.Nop()})
	require.NoError(t, err)
	return NewHandler(HandlerConfig{Service: svc}), svc
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCategoriesHandler(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.Categories(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 3)
	require.Equal(t, "Vegetable Seeds", body.Data[0].Name)
}

func TestCreateAndFetchProduct(t *testing.T) {
	h, _ := newTestHandler(t)

	payload := `{"name":"Sunflower","category":"Flower Seeds","mrp":120,"salePrice":90,"pricedBy":"sale"}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(payload)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "25.00", created.Data.OfferPercent.Decimal.StringFixed(2))

	rec = httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/"+created.Data.ID, nil), "id", created.Data.ID)
	h.Product(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Sunflower")

	rec = httptest.NewRecorder()
	req = withURLParam(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"isActive":false}`)), "id", created.Data.ID)
	h.SetActive(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.Products(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "0", rec.Header().Get("X-Total-Count"))
}

func TestPricingPreviewHandler(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.PricingPreview(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products/pricing", strings.NewReader(`{"mrp":200,"offerPercent":25}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"salePrice":"150"`)

	rec = httptest.NewRecorder()
	h.PricingPreview(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products/pricing", strings.NewReader(`{"mrp":0,"salePrice":10}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}
