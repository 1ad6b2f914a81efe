package doctors

import "errors"

var (
	// ErrNoDoctorAvailable is returned when no doctor can satisfy a
	// reservation. Terminal for the request; callers must not retry.
	ErrNoDoctorAvailable = errors.New("no doctor available")

	// ErrDoctorNotFound is returned when a confirm or lookup references an
	// unknown doctor id. Stale references are expected; callers treat this
	// as non-fatal.
	ErrDoctorNotFound = errors.New("doctor not found")
)
