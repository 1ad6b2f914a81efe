package intent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/wolfman30/hospital-ai-platform/internal/llm"
	"github.com/wolfman30/hospital-ai-platform/pkg/logging"
)

// extractionPrompts maps each tag to its structured-extraction instruction.
// TagKnowledgeBase has no entry: the fallback path needs no parameters.
var extractionPrompts = map[Tag]string{
	TagRegisterPatient: `Extract the patient's name, age, and reason for the visit from the following query. ` +
		`Return only JSON: {"name": ..., "age": ..., "reason": ...}`,
	TagConfirmAppointment: `Extract the patient's name from the following query. ` +
		`Return only JSON: {"name": ...}`,
	TagMedicineAvailability: `Extract the medicine name from the following query. ` +
		`Return only JSON: {"medicine_name": ...}`,
	TagSummarizeCase: `Extract the patient ID from the following query. ` +
		`Return only JSON: {"patient_id": ...}`,
}

// Extractor asks the model for a structured parameter object per action.
type Extractor struct {
	client llm.Client
	model  string
	logger *logging.Logger
}

// NewExtractor creates an LLM-backed parameter extractor.
func NewExtractor(client llm.Client, model string, logger *logging.Logger) *Extractor {
	if client == nil {
		panic("intent: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{client: client, model: model, logger: logger}
}

// Extract returns the parameter set for the query under the given tag.
// Model failure, malformed output, or a tag without a template all yield an
// empty set; the caller's own validation decides what is fatal.
func (e *Extractor) Extract(ctx context.Context, query string, tag Tag) Params {
	prompt, ok := extractionPrompts[tag]
	if !ok {
		return Params{}
	}

	resp, err := e.client.Complete(ctx, llm.Request{
		Model:     e.model,
		Messages:  []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: prompt + "\n\nQuery: " + query + "\n\nAnswer:"}},
		MaxTokens: 100,
	})
	if err != nil {
		e.logger.Warn("parameter extraction failed", "tag", tag, "error", err)
		return Params{}
	}

	params, err := parseParams(resp.Text)
	if err != nil {
		e.logger.Warn("parameter extraction returned malformed JSON", "tag", tag, "error", err)
		return Params{}
	}
	return params
}

// parseParams strips code fences and surrounding prose, then decodes the
// remaining object.
func parseParams(raw string) (Params, error) {
	content := strings.TrimSpace(raw)
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}

	var params Params
	if err := json.Unmarshal([]byte(content), &params); err != nil {
		return nil, err
	}
	if params == nil {
		params = Params{}
	}
	return params, nil
}
