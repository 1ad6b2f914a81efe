package patients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores registrations in the relational database.
type PostgresRepository struct {
	pool pgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// NewPostgresRepositoryWithPool allows injecting mocks for tests.
func NewPostgresRepositoryWithPool(pool pgxPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, p Patient) (*Patient, error) {
	query := `
		INSERT INTO patients (name, age, reason, doctor_id, registered_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, name, age, reason, doctor_id, registered_at
	`
	row := r.pool.QueryRow(ctx, query, p.Name, p.Age, p.Reason, p.DoctorID)
	out, err := scanPatient(row)
	if err != nil {
		return nil, fmt.Errorf("patients: create failed: %w", err)
	}
	return out, nil
}

// GetByName resolves to the newest registration under that name, so a
// returning patient always confirms their latest visit.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Patient, error) {
	query := `
		SELECT id, name, age, reason, doctor_id, registered_at
		FROM patients
		WHERE LOWER(name) = LOWER($1)
		ORDER BY registered_at DESC, id DESC
		LIMIT 1
	`
	out, err := scanPatient(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: get by name failed: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Patient, error) {
	query := `
		SELECT id, name, age, reason, doctor_id, registered_at
		FROM patients
		WHERE id = $1
	`
	out, err := scanPatient(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: get by id failed: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) FullCase(ctx context.Context, id int64) (*Case, error) {
	query := `
		SELECT p.id, p.name, p.age, p.reason, p.doctor_id, p.registered_at,
		       d.name, d.specialization
		FROM patients p
		LEFT JOIN doctors d ON d.id = p.doctor_id
		WHERE p.id = $1
	`
	var (
		p          Patient
		doctorID   sql.NullInt64
		registered time.Time
		docName    sql.NullString
		docSpec    sql.NullString
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Age, &p.Reason, &doctorID, &registered, &docName, &docSpec,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: full case failed: %w", err)
	}
	p.RegisteredAt = registered
	if doctorID.Valid {
		p.DoctorID = &doctorID.Int64
	}
	return &Case{
		Patient:              p,
		DoctorName:           docName.String,
		DoctorSpecialization: docSpec.String,
	}, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var (
		p        Patient
		doctorID sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Reason, &doctorID, &p.RegisteredAt); err != nil {
		return nil, err
	}
	if doctorID.Valid {
		p.DoctorID = &doctorID.Int64
	}
	return &p, nil
}
