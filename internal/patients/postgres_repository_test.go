package patients

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func TestPostgresRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	registered := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	doctorID := int64(2)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO patients")).
		WithArgs("Asha Verma", 34, "chest pain", &doctorID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "age", "reason", "doctor_id", "registered_at"}).
			AddRow(int64(5), "Asha Verma", 34, "chest pain", doctorID, registered))

	repo := NewPostgresRepositoryWithPool(mock)
	p, err := repo.Create(context.Background(), Patient{Name: "Asha Verma", Age: 34, Reason: "chest pain", DoctorID: &doctorID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID != 5 || p.DoctorID == nil || *p.DoctorID != 2 {
		t.Fatalf("unexpected patient: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresRepositoryGetByNameMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, age, reason, doctor_id, registered_at")).
		WithArgs("nobody").
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepositoryWithPool(mock)
	if _, err := repo.GetByName(context.Background(), "nobody"); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestPostgresRepositoryFullCase(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	registered := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN doctors")).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "age", "reason", "doctor_id", "registered_at", "name", "specialization"}).
			AddRow(int64(5), "Asha Verma", 34, "chest pain", int64(2), registered, "Dr. Rohan Iyer", "Cardiology"))

	repo := NewPostgresRepositoryWithPool(mock)
	c, err := repo.FullCase(context.Background(), 5)
	if err != nil {
		t.Fatalf("FullCase: %v", err)
	}
	if c.DoctorName != "Dr. Rohan Iyer" || c.DoctorSpecialization != "Cardiology" {
		t.Fatalf("doctor not joined: %+v", c)
	}
	if c.Patient.DoctorID == nil || *c.Patient.DoctorID != 2 {
		t.Fatalf("doctor id not carried: %+v", c.Patient)
	}
}
