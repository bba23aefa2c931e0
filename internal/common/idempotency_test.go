package common_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seeds-admin/internal/common"
)

func newIdem(t *testing.T) (common.Idem, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return common.Idem{R: client, TTL: time.Minute}, mr
}

func TestIdemRejectsReplay(t *testing.T) {
	idem, _ := newIdem(t)
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req.Header.Set("Idempotency-Key", "abc")
		req = req.WithContext(common.WithUserID(req.Context(), "admin-1"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusCreated, send().Code)
	replay := send()
	require.Equal(t, http.StatusConflict, replay.Code)
	require.Contains(t, replay.Body.String(), "IDEMPOTENT_REPLAY")
	require.Equal(t, 1, calls)
}

func TestIdemReleasesKeyOnFailure(t *testing.T) {
	for _, failure := range []int{http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(failure), func(t *testing.T) {
			idem, _ := newIdem(t)
			statuses := []int{failure, http.StatusCreated, http.StatusCreated}
			calls := 0
			handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(statuses[calls])
				calls++
			}))

			send := func() int {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
				req.Header.Set("Idempotency-Key", "retry-me")
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				return rec.Code
			}
			require.Equal(t, failure, send())
			require.Equal(t, http.StatusCreated, send())
			require.Equal(t, http.StatusConflict, send())
			require.Equal(t, 2, calls)
		})
	}
}

func TestIdemWithoutHeaderPassesThrough(t *testing.T) {
	idem, mr := newIdem(t)
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, mr.Keys())
}

func TestExternalServiceFailureEnvelope(t *testing.T) {
	cause := errors.New("connection refused")
	err := common.ExternalServiceFailure("ledger", cause)
	require.ErrorIs(t, err, common.ErrExternalService)
	require.ErrorIs(t, err, cause)

	rec := httptest.NewRecorder()
	common.WriteError(rec, err)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, common.CodeExternalFailure, body.Error.Code)
	require.Equal(t, true, body.Error.Details["retryable"])
	require.Equal(t, "ledger", body.Error.Details["service"])
}

func TestWindow(t *testing.T) {
	start, end := common.Window(5, 2, 2)
	require.Equal(t, 2, start)
	require.Equal(t, 4, end)
	start, end = common.Window(5, 4, 2)
	require.Equal(t, 5, start)
	require.Equal(t, 5, end)
}
