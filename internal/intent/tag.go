package intent

import "strings"

// Tag identifies the backend action a query resolves to.
type Tag string

const (
	TagRegisterPatient      Tag = "register_patient"
	TagConfirmAppointment   Tag = "confirm_appointment"
	TagMedicineAvailability Tag = "medicine_availability"
	TagSummarizeCase        Tag = "summarize_case"
	TagKnowledgeBase        Tag = "answer_from_knowledge_base"
)

// knownTags is the closed action set. Classifier output that does not match
// one of these (case-insensitively) falls back to TagKnowledgeBase.
var knownTags = map[Tag]struct{}{
	TagRegisterPatient:      {},
	TagConfirmAppointment:   {},
	TagMedicineAvailability: {},
	TagSummarizeCase:        {},
	TagKnowledgeBase:        {},
}

// ParseTag normalizes raw classifier output into a member of the closed set.
// Anything unrecognized maps to TagKnowledgeBase so every query has a
// handled path.
func ParseTag(raw string) Tag {
	tag := Tag(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownTags[tag]; ok {
		return tag
	}
	return TagKnowledgeBase
}
