package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	inventoryapp "github.com/gemerp/backend/internal/application/inventory"
	"github.com/gemerp/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemHandler_Lifecycle(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items",
		testutil.ToJSONReader(t, map[string]any{"type": "Rough", "subtype": "Blue Sapphire Natural", "weight": 2.5}))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Operator", "nimal")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	item := testutil.DecodeResult[inventoryapp.ItemResponse](t, w)
	assert.Equal(t, "BSN0001", item.Code)
	assert.Equal(t, "In Stock", item.Status)
	assert.True(t, item.IsInInventory)
	assert.Equal(t, "nimal", item.CreatedBy)
	assert.Equal(t, "2.5", item.Weight.String())

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/items/%d", item.ID), nil)
	testutil.AssertSuccessResponse(t, w, http.StatusOK)

	w = s.do(t, http.MethodGet, "/api/v1/items/code/BSN0001", nil)
	testutil.AssertSuccessResponse(t, w, http.StatusOK)
	assert.Equal(t, item.ID, testutil.DecodeResult[inventoryapp.ItemResponse](t, w).ID)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/items/%d", item.ID), map[string]any{"comments": "silk inclusions"})
	testutil.AssertSuccessResponse(t, w, http.StatusOK)
	assert.Equal(t, "silk inclusions", testutil.DecodeResult[inventoryapp.ItemResponse](t, w).Comments)

	w = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/items/%d/status", item.ID), map[string]any{"status": "With C&P"})
	testutil.AssertSuccessResponse(t, w, http.StatusOK)
	assert.Equal(t, "With C&P", testutil.DecodeResult[inventoryapp.ItemResponse](t, w).Status)

	w = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/items/%d/status", item.ID), map[string]any{"status": "Polished Twice"})
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/items/%d", item.ID), nil)
	testutil.AssertSuccessResponse(t, w, http.StatusOK)
	assert.Equal(t, "Item deactivated", testutil.DecodeEnvelope(t, w).Message)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/items/%d", item.ID), nil)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, "NOT_FOUND")
	assert.NotEmpty(t, testutil.DecodeEnvelope(t, w).RequestID)
}

func TestItemHandler_List(t *testing.T) {
	s := newTestServer(t)
	for k := 0; k < 3; k++ {
		s.createItem(t, "Mix")
	}

	w := s.do(t, http.MethodGet, "/api/v1/items?page=1&page_size=2&type=Rough", nil)
	testutil.AssertSuccessResponse(t, w, http.StatusOK)
	items := testutil.DecodeResult[[]inventoryapp.ItemResponse](t, w)
	assert.Len(t, items, 2)
	assert.Contains(t, w.Body.String(), `"total":3`)
	assert.Contains(t, w.Body.String(), `"total_pages":2`)

	w = s.do(t, http.MethodGet, "/api/v1/items/reference?type=Rough", nil)
	testutil.AssertSuccessResponse(t, w, http.StatusOK)
	assert.Len(t, testutil.DecodeResult[[]inventoryapp.ItemResponse](t, w), 3)

	w = s.do(t, http.MethodGet, "/api/v1/items?type=Emerald", nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestItemHandler_CreateValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{"unknown type", map[string]any{"type": "Emerald", "subtype": "Mix"}, "type"},
		{"missing subtype", map[string]any{"type": "Rough"}, "subtype"},
		{"negative weight", map[string]any{"type": "Rough", "subtype": "Mix", "weight": "-1"}, "weight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/items", tt.body)
			testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")
			assert.Contains(t, w.Body.String(), `"field":"`+tt.field+`"`)
		})
	}

	t.Run("unmapped subtype inserts nothing", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/items", map[string]any{"type": "Rough", "subtype": "Moonstone Dust"})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")

		w = s.do(t, http.MethodGet, "/api/v1/items?include_closed=true", nil)
		assert.Contains(t, w.Body.String(), `"total":0`)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(`{"type":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")
	})

	t.Run("bad path id", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/items/abc", nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "BAD_REQUEST")
		w = s.do(t, http.MethodGet, "/api/v1/items/0", nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "BAD_REQUEST")
	})
}

func TestItemHandler_CreateWithPurchase(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/items", map[string]any{
		"type":    "Rough",
		"subtype": "Mix",
		"purchase": map[string]any{
			"amount":          "1000",
			"initial_payment": "600",
			"method":          "Cash",
		},
	})
	testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	item := testutil.DecodeResult[inventoryapp.ItemResponse](t, w)
	require.True(t, item.IsTransaction)
	assert.Equal(t, "1000", item.Cost.String())
	assert.Equal(t, "600", item.GivenAmount.String())
}
