// Package workloop provides a single serializing execution context. Every action handed to a
// WorkLoop runs on one goroutine, one at a time, so state touched only from the loop needs no
// further locking. Interrupt notifications are coalesced and run on the same goroutine.
package workloop

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/pinctrl/logging"
	"go.viam.com/pinctrl/utils"
)

// ErrClosed is returned by Run once the loop has been closed.
var ErrClosed = errors.New("work loop closed")

type loopKey struct{}

type request struct {
	ctx    context.Context
	fn     func(context.Context) error
	result chan error
}

// A WorkLoop serializes actions onto one goroutine.
type WorkLoop struct {
	name       string
	logger     logging.Logger
	requests   chan request
	interrupts chan struct{}
	handler    atomic.Value
	closed     atomic.Bool
	workers    utils.StoppableWorkers
}

// New starts a work loop.
func New(name string, logger logging.Logger) *WorkLoop {
	w := &WorkLoop{
		name:       name,
		logger:     logger,
		requests:   make(chan request),
		interrupts: make(chan struct{}, 1),
	}
	w.workers = utils.NewStoppableWorkersWithContext(context.WithValue(context.Background(), loopKey{}, w), w.loop)
	return w
}

// OnLoop reports whether ctx was handed out by this loop, i.e. whether the caller is already
// running on it.
func (w *WorkLoop) OnLoop(ctx context.Context) bool {
	owner, ok := ctx.Value(loopKey{}).(*WorkLoop)
	return ok && owner == w
}

// Run executes fn on the loop and waits for it. When ctx already belongs to the loop, fn runs
// inline. Cancelling ctx only abandons a request that has not started yet; a started fn
// always runs to completion.
func (w *WorkLoop) Run(ctx context.Context, fn func(context.Context) error) error {
	if w.OnLoop(ctx) {
		return fn(ctx)
	}
	if w.closed.Load() {
		return ErrClosed
	}
	req := request{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case w.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.workers.Context().Done():
		return ErrClosed
	}
	return <-req.result
}

// SetInterruptHandler sets the function run on the loop for each coalesced Interrupt.
func (w *WorkLoop) SetInterruptHandler(handler func(ctx context.Context)) {
	w.handler.Store(handler)
}

// Interrupt signals the loop to run its interrupt handler. It never blocks; signals raised
// while one is already pending are merged into it.
func (w *WorkLoop) Interrupt() {
	if w.closed.Load() {
		return
	}
	select {
	case w.interrupts <- struct{}{}:
	default:
	}
}

// Close stops the loop and waits for the running action, if any. It must not be called from
// the loop itself.
func (w *WorkLoop) Close() {
	if w.closed.Swap(true) {
		return
	}
	w.workers.Stop()
}

func (w *WorkLoop) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.requests:
			req.result <- w.safely(context.WithValue(req.ctx, loopKey{}, w), req.fn)
		case <-w.interrupts:
			handler, _ := w.handler.Load().(func(context.Context))
			if handler == nil {
				continue
			}
			if err := w.safely(ctx, func(ctx context.Context) error {
				handler(ctx)
				return nil
			}); err != nil {
				w.logger.Errorw("interrupt handler failed", "loop", w.name, "error", err)
			}
		}
	}
}

func (w *WorkLoop) safely(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic on %s: %v", w.name, r)
			w.logger.Errorw("recovered from panic", "loop", w.name, "panic", fmt.Sprint(r))
		}
	}()
	return fn(ctx)
}
