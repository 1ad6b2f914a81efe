package medicines

import "errors"

var (
	// ErrMedicineNotFound is returned when no inventory row matches.
	ErrMedicineNotFound = errors.New("medicines: medicine not found")

	// ErrInsufficientStock is returned when a deduction asks for more
	// units than remain.
	ErrInsufficientStock = errors.New("medicines: insufficient stock")
)
