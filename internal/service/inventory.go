package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sweetshop/api/internal/domain/sweet"
)

// SweetStore is the durable catalog. Purchase and Restock are store-level
// operations on purpose: the store's transaction boundary is what keeps two
// concurrent purchases from jointly overdrawing stock.
type SweetStore interface {
	Create(ctx context.Context, s sweet.Sweet) (sweet.Sweet, error)
	GetByID(ctx context.Context, id string) (sweet.Sweet, error)
	List(ctx context.Context) ([]sweet.Sweet, error)
	Search(ctx context.Context, f sweet.SearchFilter) ([]sweet.Sweet, error)
	Update(ctx context.Context, id string, req sweet.SweetRequest, updatedAt int64) (sweet.Sweet, error)
	Delete(ctx context.Context, id string) error
	Purchase(ctx context.Context, id string, quantity int, updatedAt int64) (sweet.Sweet, error)
	Restock(ctx context.Context, id string, quantity int, updatedAt int64) (sweet.Sweet, error)
}

// StockRecorder receives successful stock movements (metrics hook).
type StockRecorder interface {
	RecordMovement(direction string, units int)
}

type InventoryService struct {
	store SweetStore
	stock StockRecorder
}

func NewInventoryService(store SweetStore, stock StockRecorder) *InventoryService {
	return &InventoryService{store: store, stock: stock}
}

// Add validates the payload, assigns id and timestamps and persists.
// There is no uniqueness constraint on name or category.
func (s *InventoryService) Add(ctx context.Context, req sweet.SweetRequest) (sweet.Sweet, error) {
	if err := req.Validate(); err != nil {
		return sweet.Sweet{}, err
	}

	now := time.Now().UTC().UnixMilli()

	return s.store.Create(ctx, sweet.Sweet{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *InventoryService) GetByID(ctx context.Context, id string) (sweet.Sweet, error) {
	return s.store.GetByID(ctx, id)
}

// List returns the full catalog in store-native order.
func (s *InventoryService) List(ctx context.Context) ([]sweet.Sweet, error) {
	return s.store.List(ctx)
}

func (s *InventoryService) Search(ctx context.Context, f sweet.SearchFilter) ([]sweet.Sweet, error) {
	return s.store.Search(ctx, f)
}

// Update replaces all five mutable fields wholesale and refreshes updatedAt.
func (s *InventoryService) Update(ctx context.Context, id string, req sweet.SweetRequest) (sweet.Sweet, error) {
	if err := req.Validate(); err != nil {
		return sweet.Sweet{}, err
	}

	return s.store.Update(ctx, id, req, time.Now().UTC().UnixMilli())
}

func (s *InventoryService) Remove(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Purchase decrements stock by quantity. The requested quantity must already
// be >= 1 (caller-validated); the sufficiency check happens inside the store
// so it cannot race a concurrent purchase.
func (s *InventoryService) Purchase(ctx context.Context, id string, quantity int) (sweet.Sweet, error) {
	out, err := s.store.Purchase(ctx, id, quantity, time.Now().UTC().UnixMilli())

	if err != nil {
		return sweet.Sweet{}, err
	}

	if s.stock != nil {
		s.stock.RecordMovement("purchase", quantity)
	}

	return out, nil
}

// Restock increments stock by quantity (caller-validated >= 1).
func (s *InventoryService) Restock(ctx context.Context, id string, quantity int) (sweet.Sweet, error) {
	out, err := s.store.Restock(ctx, id, quantity, time.Now().UTC().UnixMilli())

	if err != nil {
		return sweet.Sweet{}, err
	}

	if s.stock != nil {
		s.stock.RecordMovement("restock", quantity)
	}

	return out, nil
}
