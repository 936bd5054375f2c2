package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sweetshop/api/internal/domain/sweet"
	"github.com/sweetshop/api/internal/http/handlers"
)

type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Fake implementation of the handlers.Inventory interface

type fakeInventory struct {
	addFn      func(ctx context.Context, req sweet.SweetRequest) (sweet.Sweet, error)
	getFn      func(ctx context.Context, id string) (sweet.Sweet, error)
	listFn     func(ctx context.Context) ([]sweet.Sweet, error)
	searchFn   func(ctx context.Context, f sweet.SearchFilter) ([]sweet.Sweet, error)
	updateFn   func(ctx context.Context, id string, req sweet.SweetRequest) (sweet.Sweet, error)
	removeFn   func(ctx context.Context, id string) error
	purchaseFn func(ctx context.Context, id string, quantity int) (sweet.Sweet, error)
	restockFn  func(ctx context.Context, id string, quantity int) (sweet.Sweet, error)
}

func (f *fakeInventory) Add(ctx context.Context, req sweet.SweetRequest) (sweet.Sweet, error) {
	if f.addFn != nil {
		return f.addFn(ctx, req)
	}

	return sweet.Sweet{}, nil
}

func (f *fakeInventory) GetByID(ctx context.Context, id string) (sweet.Sweet, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return sweet.Sweet{}, nil
}

func (f *fakeInventory) List(ctx context.Context) ([]sweet.Sweet, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}

	return nil, nil
}

func (f *fakeInventory) Search(ctx context.Context, filter sweet.SearchFilter) ([]sweet.Sweet, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, filter)
	}

	return nil, nil
}

func (f *fakeInventory) Update(ctx context.Context, id string, req sweet.SweetRequest) (sweet.Sweet, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}

	return sweet.Sweet{}, nil
}

func (f *fakeInventory) Remove(ctx context.Context, id string) error {
	if f.removeFn != nil {
		return f.removeFn(ctx, id)
	}

	return nil
}

func (f *fakeInventory) Purchase(ctx context.Context, id string, quantity int) (sweet.Sweet, error) {
	if f.purchaseFn != nil {
		return f.purchaseFn(ctx, id, quantity)
	}

	return sweet.Sweet{}, nil
}

func (f *fakeInventory) Restock(ctx context.Context, id string, quantity int) (sweet.Sweet, error) {
	if f.restockFn != nil {
		return f.restockFn(ctx, id, quantity)
	}

	return sweet.Sweet{}, nil
}

func sampleSweet(id string) sweet.Sweet {
	now := time.Now().UTC().UnixMilli()

	return sweet.Sweet{
		ID:          id,
		Name:        "Gummy Bears",
		Category:    "gummies",
		Price:       decimal.RequireFromString("2.99"),
		Quantity:    50,
		Description: "A bag of assorted fruit gummy bears.",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

const validSweetBody = `{
	"name": "Gummy Bears",
	"category": "gummies",
	"price": "2.99",
	"quantity": 50,
	"description": "A bag of assorted fruit gummy bears."
}`

func TestCreateSweetHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		inventorySetUp func(*fakeInventory)
		wantStatusCode int
	}{
		{
			name: "success",
			body: validSweetBody,
			inventorySetUp: func(f *fakeInventory) {
				f.addFn = func(ctx context.Context, req sweet.SweetRequest) (sweet.Sweet, error) {
					s := sampleSweet(newUUID())
					s.Name = req.Name
					return s, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "validation_error",
			body: `{"name": "x"}`, // too short, everything else missing
			inventorySetUp: func(f *fakeInventory) {
				// binding fails before the service is reached
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "invalid_price",
			body: `{
				"name": "Gummy Bears",
				"category": "gummies",
				"price": "0",
				"quantity": 50,
				"description": "A bag of assorted fruit gummy bears."
			}`,
			inventorySetUp: func(f *fakeInventory) {
				f.addFn = func(ctx context.Context, req sweet.SweetRequest) (sweet.Sweet, error) {
					return sweet.Sweet{}, &sweet.ValidationError{Field: "price", Message: "must be greater than zero"}
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store_error",
			body: validSweetBody,
			inventorySetUp: func(f *fakeInventory) {
				f.addFn = func(ctx context.Context, req sweet.SweetRequest) (sweet.Sweet, error) {
					return sweet.Sweet{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			inventory := &fakeInventory{}

			if tt.inventorySetUp != nil {
				tt.inventorySetUp(inventory)
			}

			h := handlers.NewSweetsHandler(inventory)

			r := setupRouter(http.MethodPost, "/sweets", h.CreateSweet)

			req := httptest.NewRequest(http.MethodPost, "/sweets", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestListSweetsHandler(t *testing.T) {
	tests := []struct {
		name           string
		inventorySetUp func(*fakeInventory)
		wantStatusCode int
		wantBody       string
	}{
		{
			name: "success",
			inventorySetUp: func(f *fakeInventory) {
				f.listFn = func(ctx context.Context) ([]sweet.Sweet, error) {
					return []sweet.Sweet{sampleSweet("id-1"), sampleSweet("id-2")}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			// empty catalog must serialize as [] not null
			name: "empty_catalog",
			inventorySetUp: func(f *fakeInventory) {
				f.listFn = func(ctx context.Context) ([]sweet.Sweet, error) {
					return nil, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantBody:       "[]",
		},
		{
			name: "store_error",
			inventorySetUp: func(f *fakeInventory) {
				f.listFn = func(ctx context.Context) ([]sweet.Sweet, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			inventory := &fakeInventory{}

			if tt.inventorySetUp != nil {
				tt.inventorySetUp(inventory)
			}

			h := handlers.NewSweetsHandler(inventory)
			r := setupRouter(http.MethodGet, "/sweets", h.ListSweets)

			req := httptest.NewRequest(http.MethodGet, "/sweets", nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Fatalf("got body %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestListSweetsHandler_ETagNotModified(t *testing.T) {
	inventory := &fakeInventory{}
	calls := 0

	inventory.listFn = func(ctx context.Context) ([]sweet.Sweet, error) {
		calls++
		return []sweet.Sweet{sampleSweet("id-1")}, nil
	}

	h := handlers.NewSweetsHandler(inventory)
	r := setupRouter(http.MethodGet, "/sweets", h.ListSweets)

	w1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodGet, "/sweets", nil)
	r.ServeHTTP(w1, req1)

	if w1.Code != http.StatusOK {
		t.Fatalf("first call got %d body=%s", w1.Code, w1.Body.String())
	}

	etag := w1.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header in first response")
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/sweets", nil)
	req2.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w2, req2)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("second call got %d, want %d, body=%s", w2.Code, http.StatusNotModified, w2.Body.String())
	}

	if w2.Body.Len() != 0 {
		t.Fatalf("expected empty body for 304, got %q", w2.Body.String())
	}

	// every request still reads fresh, nothing is cached
	if calls != 2 {
		t.Fatalf("expected store to be read on each request, got %d calls", calls)
	}
}

func TestGetSweetByIDHandler(t *testing.T) {
	validID := newUUID()
	missingID := newUUID()

	tests := []struct {
		name           string
		url            string
		inventorySetUp func(*fakeInventory)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/sweets/" + validID,
			inventorySetUp: func(f *fakeInventory) {
				f.getFn = func(ctx context.Context, id string) (sweet.Sweet, error) {
					return sampleSweet(id), nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			url:  "/sweets/" + missingID,
			inventorySetUp: func(f *fakeInventory) {
				f.getFn = func(ctx context.Context, id string) (sweet.Sweet, error) {
					return sweet.Sweet{}, sweet.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "store_error",
			url:  "/sweets/" + validID,
			inventorySetUp: func(f *fakeInventory) {
				f.getFn = func(ctx context.Context, id string) (sweet.Sweet, error) {
					return sweet.Sweet{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			inventory := &fakeInventory{}

			if tt.inventorySetUp != nil {
				tt.inventorySetUp(inventory)
			}

			h := handlers.NewSweetsHandler(inventory)
			r := setupRouter(http.MethodGet, "/sweets/:id", h.GetSweetByID)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Price string `json:"price"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				// exact decimal string, no float drift
				if resp.Price != "2.99" {
					t.Fatalf("got price %q, want %q", resp.Price, "2.99")
				}
			}
		})
	}
}

func TestSearchSweetsHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		inventorySetUp func(*fakeInventory)
		wantStatusCode int
	}{
		{
			name: "filters_are_passed_through",
			url:  "/sweets/search?name=gummy&category=gummies&minPrice=1.50&maxPrice=5",
			inventorySetUp: func(f *fakeInventory) {
				f.searchFn = func(ctx context.Context, filter sweet.SearchFilter) ([]sweet.Sweet, error) {
					if filter.Name == nil || *filter.Name != "gummy" {
						return nil, errors.New("name filter not passed")
					}
					if filter.Category == nil || *filter.Category != "gummies" {
						return nil, errors.New("category filter not passed")
					}
					if filter.MinPrice == nil || !filter.MinPrice.Equal(decimal.RequireFromString("1.50")) {
						return nil, errors.New("minPrice filter not passed")
					}
					if filter.MaxPrice == nil || !filter.MaxPrice.Equal(decimal.RequireFromString("5")) {
						return nil, errors.New("maxPrice filter not passed")
					}

					return []sweet.Sweet{sampleSweet("id-1")}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "no_filters_matches_everything",
			url:  "/sweets/search",
			inventorySetUp: func(f *fakeInventory) {
				f.searchFn = func(ctx context.Context, filter sweet.SearchFilter) ([]sweet.Sweet, error) {
					if filter.Name != nil || filter.Category != nil || filter.MinPrice != nil || filter.MaxPrice != nil {
						return nil, errors.New("expected an empty filter")
					}

					return []sweet.Sweet{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid_min_price",
			url:            "/sweets/search?minPrice=cheap",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_max_price",
			url:            "/sweets/search?maxPrice=12..5",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store_error",
			url:  "/sweets/search?name=gummy",
			inventorySetUp: func(f *fakeInventory) {
				f.searchFn = func(ctx context.Context, filter sweet.SearchFilter) ([]sweet.Sweet, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			inventory := &fakeInventory{}

			if tt.inventorySetUp != nil {
				tt.inventorySetUp(inventory)
			}

			h := handlers.NewSweetsHandler(inventory)
			r := setupRouter(http.MethodGet, "/sweets/search", h.SearchSweets)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdateSweetHandler(t *testing.T) {
	validID := newUUID()
	missingID := newUUID()

	tests := []struct {
		name           string
		url            string
		body           string
		inventorySetUp func(*fakeInventory)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/sweets/" + validID,
			body: validSweetBody,
			inventorySetUp: func(f *fakeInventory) {
				f.updateFn = func(ctx context.Context, id string, req sweet.SweetRequest) (sweet.Sweet, error) {
					s := sampleSweet(id)
					s.Name = req.Name
					return s, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			url:  "/sweets/" + missingID,
			body: validSweetBody,
			inventorySetUp: func(f *fakeInventory) {
				f.updateFn = func(ctx context.Context, id string, req sweet.SweetRequest) (sweet.Sweet, error) {
					return sweet.Sweet{}, sweet.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "validation_error",
			url:            "/sweets/" + validID,
			body:           `{"name": ""}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			inventory := &fakeInventory{}

			if tt.inventorySetUp != nil {
				tt.inventorySetUp(inventory)
			}

			h := handlers.NewSweetsHandler(inventory)

			r := setupRouter(http.MethodPut, "/sweets/:id", h.UpdateSweet)
			req := httptest.NewRequest(http.MethodPut, tt.url, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestDeleteSweetHandler(t *testing.T) {
	validID := newUUID()
	missingID := newUUID()

	tests := []struct {
		name           string
		url            string
		inventorySetUp func(*fakeInventory)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/sweets/" + validID,
			inventorySetUp: func(f *fakeInventory) {
				f.removeFn = func(ctx context.Context, id string) error {
					return nil
				}
			},
			wantStatusCode: http.StatusNoContent,
		},
		{
			name: "not_found",
			url:  "/sweets/" + missingID,
			inventorySetUp: func(f *fakeInventory) {
				f.removeFn = func(ctx context.Context, id string) error {
					return sweet.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "store_error",
			url:  "/sweets/" + validID,
			inventorySetUp: func(f *fakeInventory) {
				f.removeFn = func(ctx context.Context, id string) error {
					return errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			inventory := &fakeInventory{}

			if tt.inventorySetUp != nil {
				tt.inventorySetUp(inventory)
			}

			h := handlers.NewSweetsHandler(inventory)

			r := setupRouter(http.MethodDelete, "/sweets/:id", h.DeleteSweet)

			req := httptest.NewRequest(http.MethodDelete, tt.url, nil)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestPurchaseSweetHandler(t *testing.T) {
	validID := newUUID()

	tests := []struct {
		name           string
		body           string
		inventorySetUp func(*fakeInventory)
		wantStatusCode int
		wantErrCode    string
	}{
		{
			name: "success",
			body: `{"quantity": 5}`,
			inventorySetUp: func(f *fakeInventory) {
				f.purchaseFn = func(ctx context.Context, id string, quantity int) (sweet.Sweet, error) {
					s := sampleSweet(id)
					s.Quantity -= quantity
					return s, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "insufficient_stock",
			body: `{"quantity": 1000}`,
			inventorySetUp: func(f *fakeInventory) {
				f.purchaseFn = func(ctx context.Context, id string, quantity int) (sweet.Sweet, error) {
					return sweet.Sweet{}, sweet.ErrInsufficientStock
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantErrCode:    "insufficient_stock",
		},
		{
			name: "not_found",
			body: `{"quantity": 5}`,
			inventorySetUp: func(f *fakeInventory) {
				f.purchaseFn = func(ctx context.Context, id string, quantity int) (sweet.Sweet, error) {
					return sweet.Sweet{}, sweet.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "zero_quantity",
			body:           `{"quantity": 0}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "negative_quantity",
			body:           `{"quantity": -3}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			inventory := &fakeInventory{}

			if tt.inventorySetUp != nil {
				tt.inventorySetUp(inventory)
			}

			h := handlers.NewSweetsHandler(inventory)

			r := setupRouter(http.MethodPost, "/sweets/:id/purchase", h.PurchaseSweet)

			req := httptest.NewRequest(http.MethodPost, "/sweets/"+validID+"/purchase", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantErrCode != "" {
				var resp apiErrorResponse

				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal error response: %v", err)
				}

				if resp.Error.Code != tt.wantErrCode {
					t.Fatalf("got error code %q, want %q", resp.Error.Code, tt.wantErrCode)
				}
			}
		})
	}
}

func TestRestockSweetHandler(t *testing.T) {
	validID := newUUID()

	tests := []struct {
		name           string
		body           string
		inventorySetUp func(*fakeInventory)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"quantity": 10}`,
			inventorySetUp: func(f *fakeInventory) {
				f.restockFn = func(ctx context.Context, id string, quantity int) (sweet.Sweet, error) {
					s := sampleSweet(id)
					s.Quantity += quantity
					return s, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			body: `{"quantity": 10}`,
			inventorySetUp: func(f *fakeInventory) {
				f.restockFn = func(ctx context.Context, id string, quantity int) (sweet.Sweet, error) {
					return sweet.Sweet{}, sweet.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "zero_quantity",
			body:           `{"quantity": 0}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			inventory := &fakeInventory{}

			if tt.inventorySetUp != nil {
				tt.inventorySetUp(inventory)
			}

			h := handlers.NewSweetsHandler(inventory)

			r := setupRouter(http.MethodPost, "/sweets/:id/restock", h.RestockSweet)

			req := httptest.NewRequest(http.MethodPost, "/sweets/"+validID+"/restock", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
