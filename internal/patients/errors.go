package patients

import "errors"

// ErrPatientNotFound is returned when no registration matches the lookup.
var ErrPatientNotFound = errors.New("patients: patient not found")
