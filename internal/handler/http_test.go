package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikhailRaia/menu-scraper/internal/auth"
	"github.com/MikhailRaia/menu-scraper/internal/middleware"
	"github.com/MikhailRaia/menu-scraper/internal/model"
	"github.com/MikhailRaia/menu-scraper/internal/service"
	"github.com/MikhailRaia/menu-scraper/internal/storage/memory"
	"github.com/MikhailRaia/menu-scraper/internal/validation"
)

type mockMenuService struct {
	ingestBatchFunc func(ctx context.Context, body []byte) (model.BatchResult, error)
	listItemsFunc   func(ctx context.Context, restaurant, sourceURL string) ([]model.MenuItem, error)
	healthFunc      func(ctx context.Context) model.HealthReport
}

func (m *mockMenuService) IngestBatch(ctx context.Context, body []byte) (model.BatchResult, error) {
	return m.ingestBatchFunc(ctx, body)
}

func (m *mockMenuService) ListItems(ctx context.Context, restaurant, sourceURL string) ([]model.MenuItem, error) {
	return m.listItemsFunc(ctx, restaurant, sourceURL)
}

func (m *mockMenuService) Health(ctx context.Context) model.HealthReport {
	return m.healthFunc(ctx)
}

const sampleBatch = `{
  "items": [
    {"restaurant_name": "Pizza Palace", "source_url": "https://pizza.palace.com/menu",
     "name": "Margherita Pizza", "description": "Fresh tomatoes, mozzarella, basil", "price": 14.50, "currency": "USD"},
    {"restaurant_name": "Pizza Palace", "source_url": "https://pizza.palace.com/menu",
     "name": "Pepperoni Pizza", "description": "Classic pepperoni with mozzarella", "price": 16.99, "currency": "USD"},
    {"restaurant_name": "Sushi Zen", "source_url": "https://sushi.zen.jp/tokyo",
     "name": "Salmon Nigiri", "description": "Fresh Atlantic salmon", "price": 6.50, "currency": "JPY"}
  ]
}`

const invalidBatch = `{"items":[{"restaurant_name":"","source_url":"https://test.com","name":"Test Item","price":-5.99,"currency":"XYZ"}]}`

func newTestRouter(t *testing.T, jwtService *auth.JWTService) http.Handler {
	t.Helper()

	currencies, err := validation.NewCurrencySet([]string{"USD", "EUR", "JPY"})
	require.NoError(t, err)

	svc := service.NewMenuService(memory.NewStorage(), validation.New(currencies, 1000), 100)

	var authMiddleware *middleware.AuthMiddleware
	if jwtService != nil {
		authMiddleware = middleware.NewAuthMiddleware(jwtService)
	}
	return NewHandler(svc, authMiddleware).RegisterRoutes()
}

func postBatch(t *testing.T, router http.Handler, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/menu-items/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func getItems(t *testing.T, router http.Handler, query string) []model.MenuItemResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/menu-items"+query, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var items []model.MenuItemResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	return items
}

func TestHandler_SampleBatchRoundTrip(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := postBatch(t, router, sampleBatch)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Batch processed successfully","saved_count":3,"total_requested":3}`, rr.Body.String())

	items := getItems(t, router, "?restaurant=Pizza%20Palace")
	require.Len(t, items, 2)
	prices := make(map[string]string, len(items))
	for _, item := range items {
		assert.Equal(t, "Pizza Palace", item.RestaurantName)
		assert.Equal(t, "USD", item.Currency)
		assert.NotEmpty(t, item.ID)
		assert.NotEmpty(t, item.ScrapedAt)
		prices[item.Name] = item.Price.String()
	}
	assert.Equal(t, map[string]string{"Margherita Pizza": "14.50", "Pepperoni Pizza": "16.99"}, prices)

	sushi := getItems(t, router, "?source_url=https://sushi.zen.jp/tokyo")
	require.Len(t, sushi, 1)
	assert.Equal(t, "Salmon Nigiri", sushi[0].Name)
	assert.Equal(t, "6.50", sushi[0].Price.String())
	require.NotNil(t, sushi[0].Description)
	assert.Equal(t, "Fresh Atlantic salmon", *sushi[0].Description)

	assert.Len(t, getItems(t, router, ""), 3)
	assert.Len(t, getItems(t, router, "?restaurant=zen&source_url=https://pizza.palace.com/menu"), 3)
	assert.Empty(t, getItems(t, router, "?restaurant=burger"))
}

func TestHandler_SaveBatch(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
		wantError   string
		wantSaved   int
		wantTotal   int
	}{
		{
			name:        "All invalid",
			body:        invalidBatch,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
			wantError:   "Validation failed",
		},
		{
			name: "Mixed batch",
			body: `{"items":[
				{"restaurant_name":"Cafe","source_url":"https://cafe.example","name":"Latte","price":3.5,"currency":"EUR"},
				{"restaurant_name":"Cafe","source_url":"https://cafe.example","name":"Free Water","price":0,"currency":"EUR"},
				{"restaurant_name":"Cafe","source_url":"https://cafe.example","name":"Mocha","price":"4.25","currency":"eur"},
				{"restaurant_name":"  ","source_url":"https://cafe.example","name":"Tea","price":2,"currency":"EUR"},
				{"restaurant_name":"Cafe","source_url":"https://cafe.example","name":"Scone","price":2,"currency":"GBP"}]}`,
			contentType: "application/json; charset=utf-8",
			wantStatus:  http.StatusOK,
			wantSaved:   2,
			wantTotal:   5,
		},
		{
			name:        "Broken JSON",
			body:        `{"items":[`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
			wantError:   "Malformed request",
		},
		{
			name:        "Missing items",
			body:        `{"menu":[]}`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
			wantError:   "Malformed request",
		},
		{
			name:        "Empty items",
			body:        `{"items":[]}`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
			wantError:   "Malformed request",
		},
		{
			name:        "Missing currency key",
			body:        `{"items":[{"restaurant_name":"A","source_url":"https://a.example","name":"B","price":1}]}`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
			wantError:   "Malformed request",
		},
		{
			name:        "Wrong content type",
			body:        sampleBatch,
			contentType: "text/plain",
			wantStatus:  http.StatusBadRequest,
			wantError:   "Malformed request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, nil)

			rr := postBatch(t, router, tt.body, "Content-Type", tt.contentType)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())

			if tt.wantError != "" {
				var resp model.ErrorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantError, resp.Error)
				assert.NotEmpty(t, resp.Message)
				return
			}

			var resp model.BatchResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantSaved, resp.SavedCount)
			assert.Equal(t, tt.wantTotal, resp.TotalRequested)
		})
	}
}

func TestHandler_SaveBatch_PartialBatchesAcrossSizes(t *testing.T) {
	valid := `{"restaurant_name":"Diner","source_url":"https://diner.example","name":"Eggs","price":5,"currency":"USD"}`
	invalid := `{"restaurant_name":"Diner","source_url":"https://diner.example","name":"Eggs","price":-1,"currency":"USD"}`

	for _, n := range []int{1, 3} {
		for _, m := range []int{0, 1, 4} {
			t.Run(fmt.Sprintf("%d valid %d invalid", n, m), func(t *testing.T) {
				router := newTestRouter(t, nil)

				parts := make([]string, 0, n+m)
				for i := 0; i < m; i++ {
					parts = append(parts, invalid)
				}
				for i := 0; i < n; i++ {
					parts = append(parts, valid)
				}

				rr := postBatch(t, router, `{"items":[`+strings.Join(parts, ",")+`]}`)
				require.Equal(t, http.StatusOK, rr.Code)

				var resp model.BatchResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, n, resp.SavedCount)
				assert.Equal(t, n+m, resp.TotalRequested)
				assert.Len(t, getItems(t, router, ""), n)
			})
		}
	}
}

func TestHandler_SaveBatch_InvalidStoresNothing(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := postBatch(t, router, invalidBatch)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, getItems(t, router, ""))
}

func TestHandler_SaveBatch_Gzip(t *testing.T) {
	router := newTestRouter(t, nil)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(sampleBatch))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/menu-items/batch", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"saved_count":3`)
}

func TestHandler_SaveBatch_Auth(t *testing.T) {
	jwtService := auth.NewJWTService("ingest-secret", 0)
	router := newTestRouter(t, jwtService)

	rr := postBatch(t, router, sampleBatch)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), `"error":"Unauthorized"`)

	token, err := jwtService.GenerateToken("scraper")
	require.NoError(t, err)

	rr = postBatch(t, router, sampleBatch, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Len(t, getItems(t, router, ""), 3, "queries stay open when ingestion auth is on")
}

func TestHandler_SaveBatch_StorageFailure(t *testing.T) {
	mockService := &mockMenuService{
		ingestBatchFunc: func(ctx context.Context, body []byte) (model.BatchResult, error) {
			return model.BatchResult{}, fmt.Errorf("%w: connection refused", service.ErrPersistence)
		},
	}
	router := NewHandler(mockService, nil).RegisterRoutes()

	rr := postBatch(t, router, sampleBatch)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error","message":"Failed to process batch request"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "connection refused")
}

func TestHandler_ListItems_Error(t *testing.T) {
	mockService := &mockMenuService{
		listItemsFunc: func(ctx context.Context, restaurant, sourceURL string) ([]model.MenuItem, error) {
			return nil, errors.New("query failed")
		},
	}
	router := NewHandler(mockService, nil).RegisterRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/menu-items", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Internal server error")
}

func TestHandler_ListItems_PassesFilters(t *testing.T) {
	var gotRestaurant, gotSourceURL string
	mockService := &mockMenuService{
		listItemsFunc: func(ctx context.Context, restaurant, sourceURL string) ([]model.MenuItem, error) {
			gotRestaurant, gotSourceURL = restaurant, sourceURL
			return nil, nil
		},
	}
	router := NewHandler(mockService, nil).RegisterRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/menu-items?restaurant=Pizza+Palace&source_url=https%3A%2F%2Fpizza.palace.com%2Fmenu", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Pizza Palace", gotRestaurant)
	assert.Equal(t, "https://pizza.palace.com/menu", gotSourceURL)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestHandler_Health(t *testing.T) {
	tests := []struct {
		name   string
		report model.HealthReport
	}{
		{
			name: "Up",
			report: model.HealthReport{
				Status:    model.StatusUp,
				Timestamp: "2025-01-15T10:30:00.000",
				Database:  model.DatabaseHealth{Status: model.StatusConnected},
			},
		},
		{
			name: "Degraded still answers 200",
			report: model.HealthReport{
				Status:    model.StatusDegraded,
				Timestamp: "2025-01-15T10:30:00.000",
				Database:  model.DatabaseHealth{Status: model.StatusDisconnected, Error: "connection refused"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockMenuService{
				healthFunc: func(ctx context.Context) model.HealthReport { return tt.report },
			}
			router := NewHandler(mockService, nil).RegisterRoutes()

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)

			var got model.HealthReport
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, tt.report, got)
		})
	}
}

func TestHandler_HealthWithCounts(t *testing.T) {
	router := newTestRouter(t, nil)
	postBatch(t, router, sampleBatch)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "UP", body["status"])

	database := body["database"].(map[string]any)
	assert.Equal(t, "CONNECTED", database["status"])
	assert.Equal(t, float64(3), database["menu_items"])
	assert.Equal(t, float64(2), database["restaurants"])
}

func TestHandler_UnknownRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/menu-items/batch", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/restaurants", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), `"error":"Not found"`)
}
