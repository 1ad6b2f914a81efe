package intent

import (
	"context"
	"strings"

	"github.com/wolfman30/hospital-ai-platform/internal/llm"
	"github.com/wolfman30/hospital-ai-platform/pkg/logging"
)

const classifierPrompt = `You are an intelligent hospital assistant. Classify the user's request into exactly ONE of the following actions:

- register_patient: registering a new patient for a visit
- confirm_appointment: confirming an appointment with an already assigned doctor
- medicine_availability: checking whether a medicine is in stock
- summarize_case: summarizing an existing patient's case
- answer_from_knowledge_base: any medical question answerable from reference documents

Respond with the action name only, lower-case, as a single word.

User request: %s

Action:`

// Classifier maps a free-form query to a member of the closed Tag set.
type Classifier struct {
	client llm.Client
	model  string
	logger *logging.Logger
}

// NewClassifier creates an LLM-backed intent classifier.
func NewClassifier(client llm.Client, model string, logger *logging.Logger) *Classifier {
	if client == nil {
		panic("intent: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Classifier{client: client, model: model, logger: logger}
}

// Classify returns the action tag for the query. It is total: model
// failures and unrecognized labels degrade to TagKnowledgeBase rather than
// surfacing an error.
func (c *Classifier) Classify(ctx context.Context, query string) Tag {
	query = strings.TrimSpace(query)
	if query == "" {
		return TagKnowledgeBase
	}

	prompt := strings.Replace(classifierPrompt, "%s", query, 1)

	resp, err := c.client.Complete(ctx, llm.Request{
		Model:     c.model,
		Messages:  []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: prompt}},
		MaxTokens: 20,
	})
	if err != nil {
		c.logger.Warn("intent classification failed, using fallback", "error", err)
		return TagKnowledgeBase
	}

	tag := ParseTag(firstWord(resp.Text))
	c.logger.Debug("query classified", "tag", tag)
	return tag
}

// firstWord isolates the label when the model pads its answer with prose.
func firstWord(s string) string {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,:;\"'`")
}
