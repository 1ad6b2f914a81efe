package doctors

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func seededRepo() *MemoryRepository {
	return NewMemoryRepository([]Doctor{
		{ID: 1, Name: "Dr. Asha Verma", Specialization: "Cardiology", Available: true},
		{ID: 2, Name: "Dr. Rohan Iyer", Specialization: "Neurology", Available: true},
		{ID: 3, Name: "Dr. Meera Pillai", Specialization: "Orthopedics", Available: true},
	})
}

func TestMemoryRepositoryReservePrefersSpecialization(t *testing.T) {
	repo := seededRepo()
	now := time.Now()

	doc, err := repo.Reserve(context.Background(), "Neurology", now)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if doc.ID != 2 {
		t.Fatalf("expected neurologist (id 2), got id %d", doc.ID)
	}
	if doc.Available {
		t.Fatal("reserved doctor still marked available")
	}
	if doc.ReservedAt == nil {
		t.Fatal("reserved doctor has no reservation time")
	}
}

func TestMemoryRepositoryReserveFallsBackToLowestID(t *testing.T) {
	repo := seededRepo()

	doc, err := repo.Reserve(context.Background(), "Dermatology", time.Now())
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if doc.ID != 1 {
		t.Fatalf("expected lowest-id fallback (id 1), got id %d", doc.ID)
	}
}

func TestMemoryRepositoryReserveExhausted(t *testing.T) {
	repo := seededRepo()
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		if _, err := repo.Reserve(ctx, "", now); err != nil {
			t.Fatalf("Reserve %d: %v", i, err)
		}
	}
	if _, err := repo.Reserve(ctx, "", now); !errors.Is(err, ErrNoDoctorAvailable) {
		t.Fatalf("expected ErrNoDoctorAvailable, got %v", err)
	}
}

func TestMemoryRepositoryConcurrentReserveSingleWinner(t *testing.T) {
	repo := NewMemoryRepository([]Doctor{
		{ID: 1, Name: "Dr. Asha Verma", Specialization: "Cardiology", Available: true},
	})
	ctx := context.Background()
	now := time.Now()

	const callers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, losses := 0, 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Reserve(ctx, "Cardiology", now)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrNoDoctorAvailable):
				losses++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	if losses != callers-1 {
		t.Fatalf("expected %d losers, got %d", callers-1, losses)
	}
}

func TestMemoryRepositoryReleaseStaleBoundary(t *testing.T) {
	ttl := 20 * time.Minute
	now := time.Now().UTC()

	repo := seededRepo()
	ctx := context.Background()

	// id 1 reserved exactly ttl ago, id 2 just inside the window.
	if _, err := repo.Reserve(ctx, "Cardiology", now.Add(-ttl)); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, err := repo.Reserve(ctx, "Neurology", now.Add(-ttl).Add(time.Second)); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	released, err := repo.ReleaseStale(ctx, now, ttl)
	if err != nil {
		t.Fatalf("ReleaseStale: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected 1 released, got %d", released)
	}

	one, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !one.Available || one.ReservedAt != nil {
		t.Fatal("doctor reserved exactly ttl ago should be released")
	}

	two, err := repo.GetByID(ctx, 2)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if two.Available {
		t.Fatal("doctor inside the ttl window must keep its reservation")
	}
}

func TestMemoryRepositoryConfirmRefreshesReservation(t *testing.T) {
	repo := seededRepo()
	ctx := context.Background()
	now := time.Now()

	doc, err := repo.Reserve(ctx, "Cardiology", now)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	confirmedAt := now.Add(15 * time.Minute)
	confirmed, err := repo.Confirm(ctx, doc.ID, confirmedAt)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed.Available {
		t.Fatal("confirmed doctor must stay unavailable")
	}
	if confirmed.ReservedAt == nil || !confirmed.ReservedAt.Equal(confirmedAt.UTC()) {
		t.Fatalf("confirm must re-stamp the reservation, got %v", confirmed.ReservedAt)
	}

	// The confirmation re-arms the lease: a sweep that would have reclaimed
	// the original reservation leaves the confirmed booking alone.
	released, err := repo.ReleaseStale(ctx, now.Add(25*time.Minute), 20*time.Minute)
	if err != nil {
		t.Fatalf("ReleaseStale: %v", err)
	}
	if released != 0 {
		t.Fatalf("sweep released %d freshly confirmed bookings", released)
	}

	// One full ttl after confirmation the doctor returns to the pool, so
	// capacity is never lost.
	released, err = repo.ReleaseStale(ctx, confirmedAt.Add(20*time.Minute), 20*time.Minute)
	if err != nil {
		t.Fatalf("ReleaseStale: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected the confirmed slot to expire after a full ttl, released %d", released)
	}
	doc, err = repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !doc.Available || doc.ReservedAt != nil {
		t.Fatalf("doctor must rejoin the pool after the confirmed slot lapses: %+v", doc)
	}
}

func TestMemoryRepositoryConfirmUnknownDoctor(t *testing.T) {
	repo := seededRepo()

	if _, err := repo.Confirm(context.Background(), 404, time.Now()); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestMemoryRepositoryListAvailable(t *testing.T) {
	repo := seededRepo()
	ctx := context.Background()

	if _, err := repo.Reserve(ctx, "Neurology", time.Now()); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	avail, err := repo.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(avail) != 2 {
		t.Fatalf("expected 2 available doctors, got %d", len(avail))
	}
	if avail[0].ID != 1 || avail[1].ID != 3 {
		t.Fatalf("expected ids [1 3], got [%d %d]", avail[0].ID, avail[1].ID)
	}
}
