package register_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-register/internal/register"
)

type quoteResponse struct {
	Data register.Quote `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newService(t)
	r := chi.NewRouter()
	r.Route("/api/v1", (&register.Handler{Svc: svc}).Routes)
	return r
}

func TestHandlers(t *testing.T) {
	router := newRouter(t)

	t.Run("quote", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(`{"skus":["A","A","A","A","A","A","A"]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp quoteResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.EqualValues(t, 21000, resp.Data.Total)
		require.EqualValues(t, 16000, resp.Data.Net)
		require.EqualValues(t, 5000, resp.Data.Discount)
	})

	t.Run("empty basket", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(`{"skus":[]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown sku", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(`{"skus":["A","Q"]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "UNKNOWN_SKU", resp.Error.Code)
		require.Equal(t, "Q", resp.Error.Details["sku"])
	})

	t.Run("invalid body", func(t *testing.T) {
		for _, body := range []string{`{`, `{}`, `{"skus":[""]}`, `{"skus":["A"],"coupon":"x"}`} {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})

	t.Run("item lookup", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/items/c", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"price":5000`)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/items/zz", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rules", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data []string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, []string{"bundle-of-3-A", "bundle-of-2-B", "threshold-15000"}, resp.Data)
	})
}
