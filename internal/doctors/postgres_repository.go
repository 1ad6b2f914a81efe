package doctors

import (
	"context"
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

// PostgresRepository stores the doctor pool in the relational database.
type PostgresRepository struct {
	pool pgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("doctors: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// NewPostgresRepositoryWithPool allows injecting mocks for tests.
func NewPostgresRepositoryWithPool(pool pgxPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Reserve claims one available doctor in a single statement. The inner
// select and the update commit together, so concurrent reservations cannot
// claim the same row; SKIP LOCKED keeps contending claims from serializing
// on a doctor another transaction already picked.
func (r *PostgresRepository) Reserve(ctx context.Context, specialization string, now time.Time) (*Doctor, error) {
	query := `
		UPDATE doctors
		SET available = FALSE, reserved_at = $2
		WHERE id = (
			SELECT id FROM doctors
			WHERE available = TRUE
			ORDER BY (specialization = $1) DESC, id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, name, specialization, available, reserved_at
	`
	row := r.pool.QueryRow(ctx, query, specialization, now.UTC())
	doc, err := scanDoctor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoDoctorAvailable
		}
		return nil, fmt.Errorf("doctors: reserve failed: %w", err)
	}
	return doc, nil
}

// Confirm firms up the booking and refreshes reserved_at, so the confirmed
// slot is held for a full ttl before the sweep reclaims the doctor;
// confirming twice is a no-op with a newer timestamp.
func (r *PostgresRepository) Confirm(ctx context.Context, id int64, now time.Time) (*Doctor, error) {
	query := `
		UPDATE doctors
		SET available = FALSE, reserved_at = $2
		WHERE id = $1
		RETURNING id, name, specialization, available, reserved_at
	`
	row := r.pool.QueryRow(ctx, query, id, now.UTC())
	doc, err := scanDoctor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: confirm failed: %w", err)
	}
	return doc, nil
}

// ReleaseStale reclaims every lease at least ttl old.
func (r *PostgresRepository) ReleaseStale(ctx context.Context, now time.Time, ttl time.Duration) (int64, error) {
	query := `
		UPDATE doctors
		SET available = TRUE, reserved_at = NULL
		WHERE available = FALSE AND reserved_at <= $1
	`
	tag, err := r.pool.Exec(ctx, query, now.UTC().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("doctors: release stale failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) ListAvailable(ctx context.Context) ([]Doctor, error) {
	query := `
		SELECT id, name, specialization, available, reserved_at
		FROM doctors
		WHERE available = TRUE
		ORDER BY id ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("doctors: list available failed: %w", err)
	}
	defer rows.Close()

	var out []Doctor
	for rows.Next() {
		doc, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("doctors: scan failed: %w", err)
		}
		out = append(out, *doc)
	}
	if out == nil {
		out = []Doctor{}
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	query := `
		SELECT id, name, specialization, available, reserved_at
		FROM doctors
		WHERE id = $1
	`
	doc, err := scanDoctor(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: select failed: %w", err)
	}
	return doc, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var doc Doctor
	if err := row.Scan(&doc.ID, &doc.Name, &doc.Specialization, &doc.Available, &doc.ReservedAt); err != nil {
		return nil, err
	}
	return &doc, nil
}
