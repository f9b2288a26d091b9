// Package dispatch decides where observer callbacks run.
//
// A Dispatcher is picked when the observer is registered: Direct runs
// callbacks on the goroutine producing them, a Loop marshals them onto the
// goroutine that owns the loop (typically the one driving a user interface).
package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/haivivi/echoprint/go/pkg/buffer"
)

// Dispatcher runs fn on its delivery context.
type Dispatcher interface {
	Dispatch(fn func())
}

// Func adapts an ordinary function to Dispatcher.
type Func func(fn func())

// Dispatch implements Dispatcher.
func (f Func) Dispatch(fn func()) { f(fn) }

// Direct runs every callback synchronously on the calling goroutine.
var Direct Dispatcher = direct{}

type direct struct{}

func (direct) Dispatch(fn func()) { fn() }

// Loop is a single-goroutine delivery context. Dispatch enqueues without
// blocking; Run executes queued functions in order on the goroutine that
// calls it.
type Loop struct {
	q      *buffer.Queue[func()]
	logger *slog.Logger
}

// NewLoop creates a Loop. A nil logger means slog.Default().
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		q:      buffer.NewQueue[func()](8),
		logger: logger,
	}
}

// Dispatch queues fn. Functions dispatched after Close are dropped.
func (l *Loop) Dispatch(fn func()) {
	if err := l.q.Push(fn); err != nil {
		l.logger.Warn("dispatch: loop closed, dropping callback")
	}
}

// Run executes queued functions until ctx is done or the loop is closed and
// drained. It returns nil after Close and ctx.Err() on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	for {
		fn, err := l.q.Pop(ctx)
		if err != nil {
			if errors.Is(err, buffer.ErrIteratorDone) {
				return nil
			}
			return err
		}
		l.invoke(fn)
	}
}

// Drain runs every function queued so far on the calling goroutine and
// returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		fn, ok := l.q.TryPop()
		if !ok {
			return n
		}
		l.invoke(fn)
		n++
	}
}

// Pending returns the number of queued functions.
func (l *Loop) Pending() int {
	return l.q.Len()
}

// Close stops accepting functions. Run returns once the queue is empty.
func (l *Loop) Close() error {
	return l.q.CloseWrite()
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatch: callback panicked", "panic", r)
		}
	}()
	fn()
}
