package intent

import (
	"context"
	"errors"
	"testing"
)

func TestExtractor_Extract(t *testing.T) {
	tests := []struct {
		name     string
		tag      Tag
		response string
		wantName string
		wantAge  int
	}{
		{
			name:     "clean JSON",
			tag:      TagRegisterPatient,
			response: `{"name": "Asha", "age": 29, "reason": "chest pain"}`,
			wantName: "Asha",
			wantAge:  29,
		},
		{
			name:     "fenced JSON",
			tag:      TagRegisterPatient,
			response: "```json\n{\"name\": \"Asha\", \"age\": 29, \"reason\": \"chest pain\"}\n```",
			wantName: "Asha",
			wantAge:  29,
		},
		{
			name:     "prose around JSON",
			tag:      TagRegisterPatient,
			response: `Here you go: {"name": "Asha", "age": "29", "reason": "chest pain"} hope that helps`,
			wantName: "Asha",
			wantAge:  29,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(&stubLLM{response: tt.response}, "model-id", nil)
			params := e.Extract(context.Background(), "Register patient Asha, age 29, chest pain", tt.tag)
			if got := params.String("name"); got != tt.wantName {
				t.Fatalf("name = %q, want %q", got, tt.wantName)
			}
			if got := params.Int("age"); got != tt.wantAge {
				t.Fatalf("age = %d, want %d", got, tt.wantAge)
			}
		})
	}
}

func TestExtractor_MalformedNeverPanics(t *testing.T) {
	malformed := []string{
		"", "not json at all", "{", `{"name": }`, "``````", "null",
		`[1, 2, 3]`,
	}
	for _, out := range malformed {
		e := NewExtractor(&stubLLM{response: out}, "model-id", nil)
		params := e.Extract(context.Background(), "query", TagRegisterPatient)
		if params == nil {
			t.Fatalf("Extract returned nil params for model output %q", out)
		}
		if len(params) != 0 {
			t.Fatalf("expected empty params for %q, got %#v", out, params)
		}
	}
}

func TestExtractor_ModelError(t *testing.T) {
	e := NewExtractor(&stubLLM{err: errors.New("unavailable")}, "model-id", nil)
	params := e.Extract(context.Background(), "query", TagSummarizeCase)
	if params == nil || len(params) != 0 {
		t.Fatalf("expected empty params on model error, got %#v", params)
	}
}

func TestExtractor_FallbackTagNeedsNoModel(t *testing.T) {
	model := &stubLLM{response: `{"name": "x"}`}
	e := NewExtractor(model, "model-id", nil)

	params := e.Extract(context.Background(), "what is asthma?", TagKnowledgeBase)
	if len(params) != 0 {
		t.Fatalf("fallback tag should yield empty params, got %#v", params)
	}
	if len(model.requests) != 0 {
		t.Fatalf("fallback tag should not call the model")
	}
}

func TestParamsAccessors(t *testing.T) {
	p := Params{"name": "  Asha ", "age": float64(29), "patient_id": "17", "weird": []any{1}}
	if p.String("name") != "Asha" {
		t.Fatalf("String should trim, got %q", p.String("name"))
	}
	if p.Int("age") != 29 {
		t.Fatalf("Int from float64 = %d", p.Int("age"))
	}
	if p.Int("patient_id") != 17 {
		t.Fatalf("Int from numeric string = %d", p.Int("patient_id"))
	}
	if p.String("missing") != "" || p.Int("missing") != 0 {
		t.Fatal("absent keys must yield zero values")
	}
	if p.String("weird") != "" || p.Int("weird") != 0 {
		t.Fatal("mistyped values must yield zero values")
	}
}

// json "null" decodes into a nil map without error; parseParams must still
// hand back a usable empty set.
func TestParseParamsNull(t *testing.T) {
	params, err := parseParams("null")
	if err != nil {
		t.Fatalf("parseParams(null) error: %v", err)
	}
	if params == nil {
		t.Fatal("parseParams(null) returned nil map")
	}
}
