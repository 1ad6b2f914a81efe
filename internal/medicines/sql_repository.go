package medicines

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// SQLRepository stores the inventory in the relational database via
// database/sql.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository initializes a repo over an open database handle.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	if db == nil {
		panic("medicines: db handle required")
	}
	return &SQLRepository{db: db}
}

// FindByName matches on a partial, case-insensitive name so "paracetamol"
// finds "Paracetamol 500mg".
func (r *SQLRepository) FindByName(ctx context.Context, name string) (*Medicine, error) {
	query := `
		SELECT id, name, quantity, price
		FROM medicines
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY id ASC
		LIMIT 1
	`
	m, err := scanMedicine(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMedicineNotFound
		}
		return nil, fmt.Errorf("medicines: find by name failed: %w", err)
	}
	return m, nil
}

// Deduct decrements stock in one guarded statement so concurrent
// deductions cannot oversell. Non-positive quantities change nothing.
func (r *SQLRepository) Deduct(ctx context.Context, name string, n int) (*Medicine, error) {
	if n <= 0 {
		return r.FindByName(ctx, name)
	}
	query := `
		UPDATE medicines
		SET quantity = quantity - $2
		WHERE name ILIKE '%' || $1 || '%' AND quantity >= $2
		RETURNING id, name, quantity, price
	`
	m, err := scanMedicine(r.db.QueryRowContext(ctx, query, name, n))
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("medicines: deduct failed: %w", err)
	}
	// Distinguish an unknown medicine from one that is out of stock.
	if _, lookupErr := r.FindByName(ctx, name); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, ErrInsufficientStock
}

func (r *SQLRepository) Refill(ctx context.Context, name string, n int) (*Medicine, error) {
	if n <= 0 {
		return r.FindByName(ctx, name)
	}
	query := `
		UPDATE medicines
		SET quantity = quantity + $2
		WHERE name ILIKE '%' || $1 || '%'
		RETURNING id, name, quantity, price
	`
	m, err := scanMedicine(r.db.QueryRowContext(ctx, query, name, n))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMedicineNotFound
		}
		return nil, fmt.Errorf("medicines: refill failed: %w", err)
	}
	return m, nil
}

func scanMedicine(row *sql.Row) (*Medicine, error) {
	var m Medicine
	if err := row.Scan(&m.ID, &m.Name, &m.Quantity, &m.Price); err != nil {
		return nil, err
	}
	return &m, nil
}
