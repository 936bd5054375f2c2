package memory

import (
	"context"
	"sync"

	"github.com/sweetshop/api/internal/domain/sweet"
)

type SweetsRepo struct {
	mu     sync.RWMutex
	sweets map[string]sweet.Sweet
}

func NewSweetsRepo() *SweetsRepo {
	return &SweetsRepo{
		sweets: make(map[string]sweet.Sweet),
	}
}

func (r *SweetsRepo) Create(_ context.Context, s sweet.Sweet) (sweet.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweets[s.ID] = s

	return s, nil
}

func (r *SweetsRepo) GetByID(_ context.Context, id string) (sweet.Sweet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sweets[id]

	if !ok {
		return sweet.Sweet{}, sweet.ErrNotFound
	}

	return s, nil
}

// List order is map-native; callers must not rely on it.
func (r *SweetsRepo) List(_ context.Context) ([]sweet.Sweet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sweet.Sweet, 0, len(r.sweets))

	for _, s := range r.sweets {
		out = append(out, s)
	}

	return out, nil
}

func (r *SweetsRepo) Search(_ context.Context, f sweet.SearchFilter) ([]sweet.Sweet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sweet.Sweet, 0)

	for _, s := range r.sweets {
		if f.Matches(s) {
			out = append(out, s)
		}
	}

	return out, nil
}

func (r *SweetsRepo) Update(_ context.Context, id string, req sweet.SweetRequest, updatedAt int64) (sweet.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sweets[id]

	if !ok {
		return sweet.Sweet{}, sweet.ErrNotFound
	}

	s.Name = req.Name
	s.Category = req.Category
	s.Price = req.Price
	s.Quantity = req.Quantity
	s.Description = req.Description
	s.UpdatedAt = updatedAt

	r.sweets[id] = s

	return s, nil
}

func (r *SweetsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sweets[id]; !ok {
		return sweet.ErrNotFound
	}

	delete(r.sweets, id)

	return nil
}

// Purchase holds the write lock across check and decrement, the in-memory
// stand-in for the conditional UPDATE the postgres repo issues.
func (r *SweetsRepo) Purchase(_ context.Context, id string, quantity int, updatedAt int64) (sweet.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sweets[id]

	if !ok {
		return sweet.Sweet{}, sweet.ErrNotFound
	}

	if s.Quantity < quantity {
		return sweet.Sweet{}, sweet.ErrInsufficientStock
	}

	s.Quantity -= quantity
	s.UpdatedAt = updatedAt
	r.sweets[id] = s

	return s, nil
}

func (r *SweetsRepo) Restock(_ context.Context, id string, quantity int, updatedAt int64) (sweet.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sweets[id]

	if !ok {
		return sweet.Sweet{}, sweet.ErrNotFound
	}

	s.Quantity += quantity
	s.UpdatedAt = updatedAt
	r.sweets[id] = s

	return s, nil
}
