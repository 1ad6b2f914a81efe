package llm

import (
	"context"
	"time"
)

// TimeoutClient enforces a wall-clock budget on every completion call.
// Each Complete runs under its own context.WithTimeout, so a hung provider
// turns into an ordinary error after the budget instead of stalling the
// caller indefinitely.
type TimeoutClient struct {
	inner   Client
	timeout time.Duration
}

// NewTimeoutClient wraps a completion client with a per-call deadline.
// A timeout of zero or less disables the budget.
func NewTimeoutClient(inner Client, timeout time.Duration) *TimeoutClient {
	if inner == nil {
		panic("llm: inner client cannot be nil")
	}
	return &TimeoutClient{inner: inner, timeout: timeout}
}

// Complete forwards the request under the configured deadline. The caller's
// context still applies; the budget only tightens it.
func (c *TimeoutClient) Complete(ctx context.Context, req Request) (Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.inner.Complete(ctx, req)
}
