package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wolfman30/hospital-ai-platform/pkg/logging"
)

type countingProcessor struct {
	mu      sync.Mutex
	queries []string
	result  *Result
	err     error
}

func (p *countingProcessor) Handle(ctx context.Context, query string) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, query)
	return p.result, p.err
}

func (p *countingProcessor) Shutdown(ctx context.Context) error { return nil }

func TestOrchestratorRoundTrip(t *testing.T) {
	processor := &countingProcessor{result: &Result{Kind: "answer_from_knowledge_base", OK: true, Answer: "9am to 5pm"}}
	o := NewOrchestrator(processor, NewMemoryQueue(8), logging.Default(), WithReceiveWaitSeconds(1))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = o.Shutdown(ctx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := o.Handle(ctx, "When are visiting hours?")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.OK || res.Answer != "9am to 5pm" {
		t.Fatalf("unexpected result: %+v", res)
	}

	processor.mu.Lock()
	defer processor.mu.Unlock()
	if len(processor.queries) != 1 || processor.queries[0] != "When are visiting hours?" {
		t.Fatalf("processor saw %v", processor.queries)
	}
}

func TestOrchestratorPropagatesProcessorError(t *testing.T) {
	wantErr := errors.New("boom")
	processor := &countingProcessor{err: wantErr}
	o := NewOrchestrator(processor, NewMemoryQueue(8), logging.Default(), WithReceiveWaitSeconds(1))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = o.Shutdown(ctx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := o.Handle(ctx, "anything"); !errors.Is(err, wantErr) {
		t.Fatalf("expected processor error, got %v", err)
	}
}

func TestOrchestratorConcurrentCallers(t *testing.T) {
	processor := &countingProcessor{result: &Result{Kind: "answer_from_knowledge_base", OK: true}}
	o := NewOrchestrator(processor, NewMemoryQueue(64), logging.Default(),
		WithWorkerCount(4), WithReceiveWaitSeconds(1))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = o.Shutdown(ctx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := o.Handle(ctx, "q")
			if err != nil {
				errs <- err
				return
			}
			if !res.OK {
				errs <- errors.New("unexpected failure result")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	processor.mu.Lock()
	defer processor.mu.Unlock()
	if len(processor.queries) != callers {
		t.Fatalf("expected %d processed queries, got %d", callers, len(processor.queries))
	}
}

func TestOrchestratorShutdownUnblocksCallers(t *testing.T) {
	processor := &countingProcessor{result: &Result{OK: true}}
	// No workers consuming fast enough: use a zero-worker-equivalent by
	// shutting down before the receive loop picks the job up.
	o := NewOrchestrator(processor, NewMemoryQueue(1), logging.Default(), WithReceiveWaitSeconds(1))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := o.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	callCtx, callCancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer callCancel()
	if _, err := o.Handle(callCtx, "late"); err == nil {
		t.Fatal("Handle after shutdown must not succeed")
	}
}
