package sweet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Sweet struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"` // exact decimal, marshals as a quoted string
	Quantity    int             `json:"quantity"`
	Description string          `json:"description"`
	CreatedAt   int64           `json:"createdAt"` // epoch millis
	UpdatedAt   int64           `json:"updatedAt"` // refreshed on every mutation
}

var (
	ErrNotFound          = errors.New("sweet not found")
	ErrInsufficientStock = errors.New("insufficient quantity available")
)

// SweetRequest is the full payload for both create and update; updates
// replace every field wholesale, there is no partial update.
type SweetRequest struct {
	Name        string          `json:"name" binding:"required,min=2,max=100"`
	Category    string          `json:"category" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" binding:"min=0"`
	Description string          `json:"description" binding:"required,min=10,max=500"`
}

type PurchaseRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// with pointers if optional, it will be nil; omitted filters match everything
type SearchFilter struct {
	Name     *string
	Category *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// Matches applies the filter with AND semantics: substring match on name
// (case-insensitive), exact match on category, inclusive price bounds.
func (f SearchFilter) Matches(s Sweet) bool {
	if f.Name != nil && !containsFold(s.Name, *f.Name) {
		return false
	}
	if f.Category != nil && s.Category != *f.Category {
		return false
	}
	if f.MinPrice != nil && s.Price.Cmp(*f.MinPrice) < 0 {
		return false
	}
	if f.MaxPrice != nil && s.Price.Cmp(*f.MaxPrice) > 0 {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Validate re-checks the field constraints the HTTP binding tags cannot
// express (the decimal price in particular), so the service holds the
// invariants even for callers that bypass the API layer.
func (r SweetRequest) Validate() error {
	if n := len(r.Name); n < 2 || n > 100 {
		return &ValidationError{Field: "name", Message: "must be between 2 and 100 characters"}
	}
	if r.Category == "" {
		return &ValidationError{Field: "category", Message: "is required"}
	}
	if !r.Price.IsPositive() {
		return &ValidationError{Field: "price", Message: "must be greater than zero"}
	}
	if r.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	if n := len(r.Description); n < 10 || n > 500 {
		return &ValidationError{Field: "description", Message: "must be between 10 and 500 characters"}
	}
	return nil
}
