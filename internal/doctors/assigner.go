package doctors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wolfman30/hospital-ai-platform/internal/llm"
	"github.com/wolfman30/hospital-ai-platform/pkg/logging"
)

const assignerSystemPrompt = `You are an intelligent hospital assistant.
Task: pick the most suitable specialization for a patient based on their medical reason.
You must choose from the provided roster and explain briefly.
Respond with JSON only: {"specialization": "<one specialization from the roster>", "reasoning": "<one or two sentences>"}`

// Assigner reserves a doctor for a registration, using the model only as a
// hint source. The model suggests a specialization; the repository's
// deterministic selection rule (exact match, else lowest available id) does
// the actual claim, so malformed model output can never mis-book.
type Assigner struct {
	service *Service
	client  llm.Client
	model   string
	logger  *logging.Logger
}

// NewAssigner wires the model-informed assignment path.
func NewAssigner(service *Service, client llm.Client, model string, logger *logging.Logger) *Assigner {
	if service == nil {
		panic("doctors: service required")
	}
	if client == nil {
		panic("doctors: llm client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Assigner{service: service, client: client, model: model, logger: logger}
}

// Assign reserves a doctor suited to the visit reason and returns the
// reservation plus the model's free-text justification. The model failing
// or answering off-roster degrades to the deterministic fallback claim;
// ErrNoDoctorAvailable is only returned when the pool is truly exhausted.
func (a *Assigner) Assign(ctx context.Context, reason string) (*Doctor, string, error) {
	roster, err := a.service.ListAvailable(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("doctors: load roster: %w", err)
	}
	if len(roster) == 0 {
		return nil, "", ErrNoDoctorAvailable
	}

	hint, reasoning := a.specializationHint(ctx, reason, roster)

	doc, err := a.service.Reserve(ctx, hint)
	if err != nil {
		return nil, "", err
	}
	if reasoning == "" {
		reasoning = fmt.Sprintf("Assigned %s (%s), the first available doctor.", doc.Name, doc.Specialization)
	}
	return doc, reasoning, nil
}

// specializationHint asks the model to map the visit reason onto the
// roster. Invalid output yields an empty hint, which Reserve treats as
// "any available doctor".
func (a *Assigner) specializationHint(ctx context.Context, reason string, roster []Doctor) (string, string) {
	specs := make(map[string]string, len(roster))
	lines := make([]string, 0, len(roster))
	for _, doc := range roster {
		specs[strings.ToLower(doc.Specialization)] = doc.Specialization
		lines = append(lines, fmt.Sprintf("- %s (%s)", doc.Name, doc.Specialization))
	}

	userPrompt := fmt.Sprintf("Available doctors:\n%s\n\nPatient's reason: %s\n\nWhich specialization should handle this case and why?",
		strings.Join(lines, "\n"), reason)

	resp, err := a.client.Complete(ctx, llm.Request{
		Model:     a.model,
		System:    []string{assignerSystemPrompt},
		Messages:  []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: userPrompt}},
		MaxTokens: 300,
	})
	if err != nil {
		a.logger.Warn("doctor assignment hint unavailable, using fallback order", "error", err)
		return "", ""
	}

	content := strings.TrimSpace(resp.Text)
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		content = content[start : end+1]
	}

	var parsed struct {
		Specialization string `json:"specialization"`
		Reasoning      string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		a.logger.Warn("doctor assignment hint malformed, using fallback order", "error", err)
		return "", ""
	}

	canonical, ok := specs[strings.ToLower(strings.TrimSpace(parsed.Specialization))]
	if !ok {
		a.logger.Warn("doctor assignment hint off roster, using fallback order",
			"specialization", parsed.Specialization)
		return "", strings.TrimSpace(parsed.Reasoning)
	}
	return canonical, strings.TrimSpace(parsed.Reasoning)
}
