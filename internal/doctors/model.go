package doctors

import "time"

// Doctor is a pool member subject to lease and reclaim. The pool is seeded
// externally; this package only flips availability state.
type Doctor struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Specialization string     `json:"specialization"`
	Available      bool       `json:"available"`
	ReservedAt     *time.Time `json:"reserved_at,omitempty"`
}
