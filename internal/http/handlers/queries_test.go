package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wolfman30/hospital-ai-platform/internal/assistant"
	"github.com/wolfman30/hospital-ai-platform/pkg/logging"
)

type stubDispatcher struct {
	result *assistant.Result
	err    error
	query  string
}

func (s *stubDispatcher) Handle(ctx context.Context, query string) (*assistant.Result, error) {
	s.query = query
	return s.result, s.err
}

func (s *stubDispatcher) Shutdown(ctx context.Context) error { return nil }

func TestQueryHandlerSuccess(t *testing.T) {
	dispatcher := &stubDispatcher{result: &assistant.Result{
		Kind: "medicine_availability", OK: true, Message: "Paracetamol 500mg is available: 200 units at 2.50 each.",
	}}
	h := NewQueryHandler(dispatcher, logging.Default())

	req := httptest.NewRequest(http.MethodPost, "/v1/queries",
		strings.NewReader(`{"query": "do you have paracetamol?"}`))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res assistant.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.OK || res.Kind != "medicine_availability" {
		t.Fatalf("unexpected body: %+v", res)
	}
	if dispatcher.query != "do you have paracetamol?" {
		t.Fatalf("dispatcher saw %q", dispatcher.query)
	}
}

func TestQueryHandlerDomainFailureStays200(t *testing.T) {
	dispatcher := &stubDispatcher{result: &assistant.Result{
		Kind: "register_patient", OK: false, Message: "All doctors are currently booked. Please try again in a little while.",
	}}
	h := NewQueryHandler(dispatcher, logging.Default())

	req := httptest.NewRequest(http.MethodPost, "/v1/queries",
		strings.NewReader(`{"query": "register me"}`))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("domain failures must stay HTTP 200, got %d", rec.Code)
	}
}

func TestQueryHandlerRejectsBadRequests(t *testing.T) {
	h := NewQueryHandler(&stubDispatcher{}, logging.Default())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"query": `},
		{"empty query", `{"query": "   "}`},
		{"missing field", `{}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/queries", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.Handle(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestQueryHandlerShuttingDown(t *testing.T) {
	h := NewQueryHandler(&stubDispatcher{err: assistant.ErrOrchestratorClosed}, logging.Default())

	req := httptest.NewRequest(http.MethodPost, "/v1/queries",
		strings.NewReader(`{"query": "anything"}`))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
