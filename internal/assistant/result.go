package assistant

import (
	"github.com/wolfman30/hospital-ai-platform/internal/doctors"
	"github.com/wolfman30/hospital-ai-platform/internal/retrieval"
)

// Result is the single response shape every query resolves to, whatever the
// action. Kind names the action taken; OK distinguishes "done" from
// "couldn't". Downstream failures surface here as structured results, not
// transport errors.
type Result struct {
	Kind       string                `json:"kind"`
	OK         bool                  `json:"ok"`
	Message    string                `json:"message,omitempty"`
	Missing    []string              `json:"missing,omitempty"`
	PatientID  int64                 `json:"patient_id,omitempty"`
	Doctor     *doctors.Doctor       `json:"doctor,omitempty"`
	Reasoning  string                `json:"reasoning,omitempty"`
	Summary    string                `json:"summary,omitempty"`
	Answer     string                `json:"answer,omitempty"`
	References []retrieval.PageGroup `json:"references,omitempty"`
}

func failure(kind, message string) *Result {
	return &Result{Kind: kind, OK: false, Message: message}
}
