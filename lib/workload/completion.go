// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/dirload/lib/clock"
)

// Oracle reports whether the run has ended.
type Oracle interface {
	Done() bool
}

// Completion is the run's Oracle. It goes from running to finished once
// and never back.
type Completion struct {
	finished atomic.Bool
	once     sync.Once
	reason   atomic.Pointer[string]
	closed   chan struct{}
}

// NewCompletion returns a running Completion.
func NewCompletion() *Completion {
	return &Completion{closed: make(chan struct{})}
}

// Done reports whether Finish has been called.
func (c *Completion) Done() bool { return c.finished.Load() }

// Finish ends the run. Only the first call has an effect; its reason is
// kept.
func (c *Completion) Finish(reason string) {
	c.once.Do(func() {
		c.reason.Store(&reason)
		c.finished.Store(true)
		close(c.closed)
	})
}

// Finished returns a channel closed by Finish.
func (c *Completion) Finished() <-chan struct{} { return c.closed }

// Reason returns why the run finished, or "" while it is running.
func (c *Completion) Reason() string {
	if reason := c.reason.Load(); reason != nil {
		return *reason
	}
	return ""
}

// FinishAfter finishes the run once elapsed has passed on clk. The
// returned function cancels the limit.
func (c *Completion) FinishAfter(clk clock.Clock, elapsed time.Duration) (cancel func()) {
	timer := clk.AfterFunc(elapsed, func() { c.Finish("elapsed time reached") })
	return func() { timer.Stop() }
}

// FinishOnCancel finishes the run when ctx is cancelled. The goroutine it
// starts exits when either side is done.
func (c *Completion) FinishOnCancel(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			c.Finish("cancelled: " + context.Cause(ctx).Error())
		case <-c.closed:
		}
	}()
}
