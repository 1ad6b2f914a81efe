package medicines

import (
	"context"
	"strings"
	"sync"
)

// Repository exposes the medicine inventory.
type Repository interface {
	// FindByName matches case-insensitively on a partial name and
	// returns the first match by id, or ErrMedicineNotFound.
	FindByName(ctx context.Context, name string) (*Medicine, error)

	// Deduct removes n units from the named medicine's stock. It fails
	// with ErrInsufficientStock when fewer than n units remain; the
	// check and the decrement are atomic. n <= 0 is a no-op success.
	Deduct(ctx context.Context, name string, n int) (*Medicine, error)

	// Refill adds n units to the named medicine's stock. n <= 0 is a
	// no-op success.
	Refill(ctx context.Context, name string, n int) (*Medicine, error)
}

// MemoryRepository keeps the inventory in process memory.
type MemoryRepository struct {
	mu   sync.Mutex
	rows []Medicine
}

// NewMemoryRepository seeds an in-memory inventory.
func NewMemoryRepository(seed []Medicine) *MemoryRepository {
	rows := make([]Medicine, len(seed))
	copy(rows, seed)
	return &MemoryRepository{rows: rows}
}

func (r *MemoryRepository) FindByName(ctx context.Context, name string) (*Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.findLocked(name)
	if idx < 0 {
		return nil, ErrMedicineNotFound
	}
	out := r.rows[idx]
	return &out, nil
}

func (r *MemoryRepository) Deduct(ctx context.Context, name string, n int) (*Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.findLocked(name)
	if idx < 0 {
		return nil, ErrMedicineNotFound
	}
	if n <= 0 {
		out := r.rows[idx]
		return &out, nil
	}
	if r.rows[idx].Quantity < n {
		return nil, ErrInsufficientStock
	}
	r.rows[idx].Quantity -= n
	out := r.rows[idx]
	return &out, nil
}

func (r *MemoryRepository) Refill(ctx context.Context, name string, n int) (*Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.findLocked(name)
	if idx < 0 {
		return nil, ErrMedicineNotFound
	}
	if n > 0 {
		r.rows[idx].Quantity += n
	}
	out := r.rows[idx]
	return &out, nil
}

func (r *MemoryRepository) findLocked(name string) int {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return -1
	}
	for i, row := range r.rows {
		if strings.Contains(strings.ToLower(row.Name), needle) {
			return i
		}
	}
	return -1
}
