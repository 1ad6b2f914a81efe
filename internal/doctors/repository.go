package doctors

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository owns the doctor pool state transitions.
//
// Reserve is the allocation primitive and must be atomic: selecting a
// candidate and flipping it to reserved are one operation with respect to
// concurrent callers, so two reservations can never claim the same doctor.
type Repository interface {
	// Reserve claims one available doctor, preferring an exact
	// specialization match and falling back to any available doctor,
	// lowest id first. Returns ErrNoDoctorAvailable when the pool is
	// exhausted.
	Reserve(ctx context.Context, specialization string, now time.Time) (*Doctor, error)

	// Confirm firms up the booking on the given doctor: the doctor stays
	// unavailable and the reservation timestamp is refreshed to now, so
	// the confirmed slot is held for a full ttl before the sweep returns
	// the doctor to the pool. Confirming an already confirmed doctor is a
	// no-op success with a refreshed timestamp. Unknown ids return
	// ErrDoctorNotFound.
	Confirm(ctx context.Context, id int64, now time.Time) (*Doctor, error)

	// ReleaseStale flips every doctor whose reservation is at least ttl
	// old back to available, returning how many were released.
	ReleaseStale(ctx context.Context, now time.Time, ttl time.Duration) (int64, error)

	// ListAvailable returns the available doctors ordered by id.
	ListAvailable(ctx context.Context) ([]Doctor, error)

	// GetByID fetches one doctor or ErrDoctorNotFound.
	GetByID(ctx context.Context, id int64) (*Doctor, error)
}

// MemoryRepository keeps the pool in process memory. A single mutex guards
// the select-then-flip sequence, which is what makes Reserve atomic here.
type MemoryRepository struct {
	mu      sync.Mutex
	byID    map[int64]*Doctor
	ordered []int64
}

// NewMemoryRepository seeds an in-memory pool. All doctors start available.
func NewMemoryRepository(seed []Doctor) *MemoryRepository {
	r := &MemoryRepository{byID: make(map[int64]*Doctor, len(seed))}
	for _, d := range seed {
		doc := d
		doc.Available = true
		doc.ReservedAt = nil
		r.byID[doc.ID] = &doc
		r.ordered = append(r.ordered, doc.ID)
	}
	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i] < r.ordered[j] })
	return r
}

func (r *MemoryRepository) Reserve(ctx context.Context, specialization string, now time.Time) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fallback *Doctor
	for _, id := range r.ordered {
		doc := r.byID[id]
		if !doc.Available {
			continue
		}
		if specialization != "" && doc.Specialization == specialization {
			return r.claimLocked(doc, now), nil
		}
		if fallback == nil {
			fallback = doc
		}
	}
	if fallback == nil {
		return nil, ErrNoDoctorAvailable
	}
	return r.claimLocked(fallback, now), nil
}

func (r *MemoryRepository) claimLocked(doc *Doctor, now time.Time) *Doctor {
	ts := now.UTC()
	doc.Available = false
	doc.ReservedAt = &ts
	out := *doc
	return &out
}

func (r *MemoryRepository) Confirm(ctx context.Context, id int64, now time.Time) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.byID[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return r.claimLocked(doc, now), nil
}

func (r *MemoryRepository) ReleaseStale(ctx context.Context, now time.Time, ttl time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	threshold := now.UTC().Add(-ttl)
	var released int64
	for _, doc := range r.byID {
		if doc.Available || doc.ReservedAt == nil {
			continue
		}
		// A lease exactly ttl old is stale.
		if !doc.ReservedAt.After(threshold) {
			doc.Available = true
			doc.ReservedAt = nil
			released++
		}
	}
	return released, nil
}

func (r *MemoryRepository) ListAvailable(ctx context.Context) ([]Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Doctor, 0, len(r.ordered))
	for _, id := range r.ordered {
		if doc := r.byID[id]; doc.Available {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.byID[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	out := *doc
	return &out, nil
}
