package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/hospital-ai-platform/pkg/logging"
)

// ErrOrchestratorClosed indicates the dispatcher is no longer accepting work.
var ErrOrchestratorClosed = errors.New("assistant: orchestrator closed")

const (
	defaultWorkers          = 2
	defaultReceiveWait      = 2  // seconds
	defaultReceiveMax       = 5  // messages
	maxReceiveWaitSeconds   = 20 // SQS limit
	maxReceiveBatchMessages = 10
)

type orchestratorConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// OrchestratorOption configures the dispatcher.
type OrchestratorOption func(*orchestratorConfig)

// WithWorkerCount overrides the number of queue polling goroutines.
func WithWorkerCount(workers int) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		if workers > 0 {
			cfg.workers = workers
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait time for ReceiveMessage calls.
func WithReceiveWaitSeconds(seconds int) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxReceiveWaitSeconds {
			seconds = maxReceiveWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize overrides how many messages each poll should return.
func WithReceiveBatchSize(size int) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchMessages {
			size = maxReceiveBatchMessages
		}
		cfg.receiveBatchSize = size
	}
}

// Orchestrator routes queries through a queue before invoking the
// dispatcher. Each query is an independent unit of work: the HTTP handler
// blocks on its own job while a worker pool drains the queue, so the
// system can point at LocalStack SQS in development and AWS SQS in
// production without touching the handlers.
type Orchestrator struct {
	processor Dispatcher
	queue     queueClient
	logger    *logging.Logger

	cfg orchestratorConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pending sync.Map // jobID -> chan dispatchResult
}

var _ Dispatcher = (*Orchestrator)(nil)

type dispatchResult struct {
	result *Result
	err    error
}

type queuePayload struct {
	ID    string `json:"id"`
	Query string `json:"query"`
}

// NewOrchestrator wires a queue-backed dispatcher around the supplied
// processor and starts its workers.
func NewOrchestrator(processor Dispatcher, queue queueClient, logger *logging.Logger, opts ...OrchestratorOption) *Orchestrator {
	if processor == nil {
		panic("assistant: processor cannot be nil")
	}
	if queue == nil {
		panic("assistant: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := orchestratorConfig{
		workers:          defaultWorkers,
		receiveWaitSecs:  defaultReceiveWait,
		receiveBatchSize: defaultReceiveMax,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		processor: processor,
		queue:     queue,
		logger:    logger,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
	}

	for i := 0; i < cfg.workers; i++ {
		o.wg.Add(1)
		go o.runWorker(i + 1)
	}

	return o
}

// Handle enqueues the query and blocks until a worker resolves it.
func (o *Orchestrator) Handle(ctx context.Context, query string) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	jobID := uuid.NewString()
	body, err := json.Marshal(queuePayload{ID: jobID, Query: query})
	if err != nil {
		return nil, fmt.Errorf("assistant: failed to encode payload: %w", err)
	}

	resultCh := make(chan dispatchResult, 1)
	o.pending.Store(jobID, resultCh)
	defer o.pending.Delete(jobID)

	if err := o.queue.Send(ctx, string(body)); err != nil {
		return nil, fmt.Errorf("assistant: failed to enqueue query: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		return res.result, res.err
	}
}

// Shutdown stops worker goroutines and notifies any pending callers.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	o.pending.Range(func(key, value any) bool {
		if ch, ok := value.(chan dispatchResult); ok {
			select {
			case ch <- dispatchResult{err: ErrOrchestratorClosed}:
			default:
			}
		}
		o.pending.Delete(key)
		return true
	})

	return o.processor.Shutdown(ctx)
}

func (o *Orchestrator) runWorker(workerID int) {
	defer o.wg.Done()
	o.logger.Debug("query orchestrator worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-o.ctx.Done():
			o.logger.Debug("query orchestrator worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := o.queue.Receive(o.ctx, o.cfg.receiveBatchSize, o.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			o.logger.Error("failed to receive query jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			o.handleQueueMessage(msg)
		}
	}
}

func (o *Orchestrator) handleQueueMessage(msg queueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		o.logger.Error("failed to decode query job", "error", err)
		deleteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.queue.Delete(deleteCtx, msg.ReceiptHandle)
		return
	}

	result, err := o.processor.Handle(o.ctx, payload.Query)

	deleteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if delErr := o.queue.Delete(deleteCtx, msg.ReceiptHandle); delErr != nil {
		o.logger.Error("failed to delete query job", "error", delErr)
	}

	o.deliverResult(payload.ID, result, err)
}

func (o *Orchestrator) deliverResult(jobID string, result *Result, err error) {
	value, ok := o.pending.Load(jobID)
	if !ok {
		o.logger.Debug("no waiting caller for query job", "job_id", jobID)
		return
	}

	ch, ok := value.(chan dispatchResult)
	if !ok {
		o.logger.Error("query orchestrator pending map corrupted", "job_id", jobID)
		o.pending.Delete(jobID)
		return
	}

	select {
	case ch <- dispatchResult{result: result, err: err}:
	default:
	}
}
