package patients

import "time"

// Patient is one registration. The same person registering twice produces
// two rows; lookups by name resolve to the most recent one.
type Patient struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Reason       string    `json:"reason"`
	DoctorID     *int64    `json:"doctor_id,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Case is the patient joined with their assigned doctor, the unit the
// summarizer works from.
type Case struct {
	Patient              Patient `json:"patient"`
	DoctorName           string  `json:"doctor_name,omitempty"`
	DoctorSpecialization string  `json:"doctor_specialization,omitempty"`
}
