package patients

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Repository stores patient registrations.
type Repository interface {
	// Create persists a new registration and returns it with its id and
	// registration time filled in.
	Create(ctx context.Context, p Patient) (*Patient, error)

	// GetByName returns the most recent registration whose name matches
	// case-insensitively, or ErrPatientNotFound.
	GetByName(ctx context.Context, name string) (*Patient, error)

	// GetByID returns one registration or ErrPatientNotFound.
	GetByID(ctx context.Context, id int64) (*Patient, error)

	// FullCase returns the registration joined with its assigned doctor.
	// A patient without a doctor still yields a case with empty doctor
	// fields.
	FullCase(ctx context.Context, id int64) (*Case, error)
}

// DoctorLookup resolves a doctor id to its display fields. The in-memory
// repository uses it to join cases without depending on the doctors package
// internals.
type DoctorLookup func(ctx context.Context, id int64) (name, specialization string, err error)

// MemoryRepository keeps registrations in process memory.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   []Patient
	lookup DoctorLookup
	now    func() time.Time
}

// NewMemoryRepository builds an empty in-memory store. lookup may be nil,
// in which case cases carry no doctor fields.
func NewMemoryRepository(lookup DoctorLookup) *MemoryRepository {
	return &MemoryRepository{nextID: 1, lookup: lookup, now: time.Now}
}

func (r *MemoryRepository) Create(ctx context.Context, p Patient) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = r.nextID
	r.nextID++
	p.RegisteredAt = r.now().UTC()
	r.rows = append(r.rows, p)
	out := p
	return &out, nil
}

func (r *MemoryRepository) GetByName(ctx context.Context, name string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := strings.ToLower(strings.TrimSpace(name))
	matches := make([]Patient, 0, 1)
	for _, row := range r.rows {
		if strings.ToLower(row.Name) == target {
			matches = append(matches, row)
		}
	}
	if len(matches) == 0 {
		return nil, ErrPatientNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].RegisteredAt.Equal(matches[j].RegisteredAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].RegisteredAt.After(matches[j].RegisteredAt)
	})
	out := matches[0]
	return &out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.ID == id {
			out := row
			return &out, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (r *MemoryRepository) FullCase(ctx context.Context, id int64) (*Case, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c := &Case{Patient: *p}
	if p.DoctorID != nil && r.lookup != nil {
		name, spec, err := r.lookup(ctx, *p.DoctorID)
		if err == nil {
			c.DoctorName = name
			c.DoctorSpecialization = spec
		}
	}
	return c, nil
}
