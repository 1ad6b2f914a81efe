package doctors

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func TestPostgresRepositoryReserve(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE doctors")).
		WithArgs("Cardiology", now).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "specialization", "available", "reserved_at"}).
			AddRow(int64(1), "Dr. Asha Verma", "Cardiology", false, &now))

	repo := NewPostgresRepositoryWithPool(mock)
	doc, err := repo.Reserve(context.Background(), "Cardiology", now)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if doc.ID != 1 || doc.Available {
		t.Fatalf("unexpected doctor: %+v", doc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresRepositoryReserveExhausted(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE doctors")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepositoryWithPool(mock)
	if _, err := repo.Reserve(context.Background(), "Cardiology", time.Now()); !errors.Is(err, ErrNoDoctorAvailable) {
		t.Fatalf("expected ErrNoDoctorAvailable, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresRepositoryConfirmRefreshesLease(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SET available = FALSE, reserved_at = $2")).
		WithArgs(int64(2), now).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "specialization", "available", "reserved_at"}).
			AddRow(int64(2), "Dr. Rohan Iyer", "Neurology", false, &now))

	repo := NewPostgresRepositoryWithPool(mock)
	doc, err := repo.Confirm(context.Background(), 2, now)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if doc.ReservedAt == nil || !doc.ReservedAt.Equal(now) {
		t.Fatalf("confirm must re-stamp reserved_at, got %v", doc.ReservedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresRepositoryConfirmUnknown(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE doctors")).
		WithArgs(int64(404), now).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepositoryWithPool(mock)
	if _, err := repo.Confirm(context.Background(), 404, now); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestPostgresRepositoryReleaseStale(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ttl := 20 * time.Minute
	mock.ExpectExec(regexp.QuoteMeta("UPDATE doctors")).
		WithArgs(now.Add(-ttl)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	repo := NewPostgresRepositoryWithPool(mock)
	released, err := repo.ReleaseStale(context.Background(), now, ttl)
	if err != nil {
		t.Fatalf("ReleaseStale: %v", err)
	}
	if released != 3 {
		t.Fatalf("expected 3 released, got %d", released)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
