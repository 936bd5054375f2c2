package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sweetshop/api/internal/config"
	"github.com/sweetshop/api/internal/domain/sweet"
)

type Inventory interface {
	Add(ctx context.Context, req sweet.SweetRequest) (sweet.Sweet, error)
	GetByID(ctx context.Context, id string) (sweet.Sweet, error)
	List(ctx context.Context) ([]sweet.Sweet, error)
	Search(ctx context.Context, f sweet.SearchFilter) ([]sweet.Sweet, error)
	Update(ctx context.Context, id string, req sweet.SweetRequest) (sweet.Sweet, error)
	Remove(ctx context.Context, id string) error
	Purchase(ctx context.Context, id string, quantity int) (sweet.Sweet, error)
	Restock(ctx context.Context, id string, quantity int) (sweet.Sweet, error)
}

type SweetsHandler struct {
	inventory Inventory
}

func NewSweetsHandler(inventory Inventory) *SweetsHandler {
	return &SweetsHandler{inventory: inventory}
}

func (h *SweetsHandler) CreateSweet(ctx *gin.Context) {
	var req sweet.SweetRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	created, err := h.inventory.Add(cctx, req)

	if err != nil {
		respondSweetError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *SweetsHandler) ListSweets(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	sweets, err := h.inventory.List(cctx)

	if err != nil {
		respondSweetError(ctx, err)
		return
	}

	if sweets == nil {
		sweets = []sweet.Sweet{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, sweets)
}

func (h *SweetsHandler) GetSweetByID(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	s, err := h.inventory.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		respondSweetError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, s)
}

// SearchSweets filters the catalog by query params. All params are optional;
// present ones combine with AND.
func (h *SweetsHandler) SearchSweets(ctx *gin.Context) {
	filter, ok := parseSearchFilter(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	sweets, err := h.inventory.Search(cctx, filter)

	if err != nil {
		respondSweetError(ctx, err)
		return
	}

	if sweets == nil {
		sweets = []sweet.Sweet{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, sweets)
}

func (h *SweetsHandler) UpdateSweet(ctx *gin.Context) {
	var req sweet.SweetRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.inventory.Update(cctx, ctx.Param("id"), req)

	if err != nil {
		respondSweetError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *SweetsHandler) DeleteSweet(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.inventory.Remove(cctx, ctx.Param("id")); err != nil {
		respondSweetError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *SweetsHandler) PurchaseSweet(ctx *gin.Context) {
	var req sweet.PurchaseRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.inventory.Purchase(cctx, ctx.Param("id"), req.Quantity)

	if err != nil {
		respondSweetError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *SweetsHandler) RestockSweet(ctx *gin.Context) {
	var req sweet.RestockRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.inventory.Restock(cctx, ctx.Param("id"), req.Quantity)

	if err != nil {
		respondSweetError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func parseSearchFilter(ctx *gin.Context) (sweet.SearchFilter, bool) {
	var filter sweet.SearchFilter

	if name := strings.TrimSpace(ctx.Query("name")); name != "" {
		filter.Name = &name
	}

	if category := strings.TrimSpace(ctx.Query("category")); category != "" {
		filter.Category = &category
	}

	if raw := strings.TrimSpace(ctx.Query("minPrice")); raw != "" {
		v, err := decimal.NewFromString(raw)

		if err != nil {
			RespondBadRequest(ctx, "Invalid search parameters", gin.H{
				"fields": []FieldError{{Field: "minPrice", Rule: "numeric", Message: "must be a decimal number"}},
			})
			return filter, false
		}
		filter.MinPrice = &v
	}

	if raw := strings.TrimSpace(ctx.Query("maxPrice")); raw != "" {
		v, err := decimal.NewFromString(raw)

		if err != nil {
			RespondBadRequest(ctx, "Invalid search parameters", gin.H{
				"fields": []FieldError{{Field: "maxPrice", Rule: "numeric", Message: "must be a decimal number"}},
			})
			return filter, false
		}
		filter.MaxPrice = &v
	}

	return filter, true
}

// respondSweetError maps inventory errors to HTTP responses. Kept in one
// place so every sweet endpoint reports the same shapes.
func respondSweetError(ctx *gin.Context, err error) {
	var validationErr *sweet.ValidationError

	switch {
	case errors.Is(err, sweet.ErrNotFound):
		RespondNotFound(ctx, "Sweet not found")
	case errors.Is(err, sweet.ErrInsufficientStock):
		RespondError(ctx, http.StatusBadRequest, "insufficient_stock", "Not enough stock to fulfil the purchase.", nil)
	case errors.As(err, &validationErr):
		RespondBadRequest(ctx, "Invalid request body", gin.H{
			"fields": []FieldError{{Field: validationErr.Field, Rule: "invalid", Message: validationErr.Message}},
		})
	default:
		RespondInternal(ctx, "Could not complete the operation")
	}
}
