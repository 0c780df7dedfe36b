package discount_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/discount"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

var now = time.Date(2025, time.May, 10, 9, 0, 0, 0, time.UTC)

type viewsResponse struct {
	Data []discount.View `json:"data"`
}

type viewResponse struct {
	Data discount.View `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func policy(name string, active bool, start, end *time.Time) pricing.Policy {
	return pricing.Policy{
		ID:       uuid.New(),
		Name:     name,
		Type:     pricing.DiscountPercentage,
		Target:   pricing.TargetOrderAmount,
		Value:    decimal.NewFromInt(5),
		Active:   active,
		StartsAt: start,
		EndsAt:   end,
	}
}

func ptr(t time.Time) *time.Time { return &t }

func newRouter(store discount.Store) (http.Handler, *discount.Service) {
	svc := &discount.Service{Store: store, Logger: zerolog.Nop(), Now: func() time.Time { return now }}
	router := chi.NewRouter()
	router.Route("/api/discount-policies", (&discount.Handler{Svc: svc}).Routes)
	return router, svc
}

func TestActivePoliciesHonourWindowAndOrder(t *testing.T) {
	store := discount.NewMemoryStore(
		policy("open ended", true, nil, nil),
		policy("disabled", false, nil, nil),
		policy("expired", true, nil, ptr(now.Add(-time.Second))),
		policy("starts exactly now", true, ptr(now), nil),
		policy("ends exactly now", true, nil, ptr(now)),
		policy("upcoming", true, ptr(now.Add(time.Minute)), nil),
	)
	router, _ := newRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/discount-policies/active", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp viewsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	names := make([]string, 0, len(resp.Data))
	for _, v := range resp.Data {
		names = append(names, v.Name)
	}
	require.Equal(t, []string{"open ended", "starts exactly now", "ends exactly now"}, names)

	req = httptest.NewRequest(http.MethodGet, "/api/discount-policies", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 6)
}

func TestCreatePolicy(t *testing.T) {
	store := discount.NewMemoryStore()
	router, svc := newRouter(store)

	body := `{"name":"Brand sale","discountType":"PERCENTAGE","discountTarget":"BRAND","discountValue":"15","maxDiscountAmount":"200000","targetBrand":"Samsung"}`
	req := httptest.NewRequest(http.MethodPost, "/api/discount-policies", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp viewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Data.Active)
	require.True(t, resp.Data.MaxDiscountAmount.Valid)
	require.False(t, resp.Data.MinOrderAmount.Valid)

	active, err := svc.Active(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "Samsung", *active[0].TargetBrand)
}

func TestCreatePolicyValidation(t *testing.T) {
	router, _ := newRouter(discount.NewMemoryStore())
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{name: "unknown target", body: `{"name":"x","discountType":"PERCENTAGE","discountTarget":"EVERYTHING","discountValue":"5"}`, field: "discountTarget"},
		{name: "missing name", body: `{"discountType":"PERCENTAGE","discountTarget":"QUANTITY","discountValue":"5"}`, field: "name"},
		{name: "zero value", body: `{"name":"x","discountType":"FIXED_AMOUNT","discountTarget":"QUANTITY","discountValue":"0"}`, field: "discountValue"},
		{name: "percentage over 100", body: `{"name":"x","discountType":"PERCENTAGE","discountTarget":"QUANTITY","discountValue":"150"}`, field: "discountValue"},
		{name: "inverted quantity", body: `{"name":"x","discountType":"PERCENTAGE","discountTarget":"QUANTITY","discountValue":"5","minQuantity":5,"maxQuantity":2}`, field: "maxQuantity"},
		{name: "inverted window", body: `{"name":"x","discountType":"PERCENTAGE","discountTarget":"QUANTITY","discountValue":"5","startDate":"2025-05-02T00:00:00Z","endDate":"2025-05-01T00:00:00Z"}`, field: "endDate"},
		{name: "category without selector", body: `{"name":"x","discountType":"PERCENTAGE","discountTarget":"CATEGORY","discountValue":"5"}`, field: "targetCategory"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/discount-policies", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, "BAD_REQUEST", resp.Error.Code)
			if _, ok := resp.Error.Details["field"]; ok {
				require.Equal(t, tc.field, resp.Error.Details["field"])
			} else {
				require.Contains(t, resp.Error.Details, tc.field)
			}
		})
	}
}
