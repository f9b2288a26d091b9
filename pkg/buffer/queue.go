package buffer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrIteratorDone is returned by Pop when the queue is closed for writing and
// every element has been consumed.
var ErrIteratorDone = errors.New("iterator done")

// Queue is an unbounded thread-safe FIFO. Push never blocks; Pop blocks until
// an element is available or the queue is closed.
//
// Readers wait on a notify channel of size 1 which writers signal without
// blocking. CloseWrite lets readers drain what is left; Close drops pending
// elements and unblocks everyone.
type Queue[T any] struct {
	notify chan struct{}

	mu         sync.Mutex
	closeWrite bool
	closeErr   error
	items      []T
}

// NewQueue creates a Queue with capacity hint n.
func NewQueue[T any](n int) *Queue[T] {
	return &Queue[T]{
		notify: make(chan struct{}, 1),
		items:  make([]T, 0, n),
	}
}

// Push appends v to the tail of the queue.
//
// Returns io.ErrClosedPipe (wrapped) once the queue is closed for writing.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closeErr != nil {
		return fmt.Errorf("buffer: push to closed queue: %w", q.closeErr)
	}
	if q.closeWrite {
		return fmt.Errorf("buffer: push to closed queue: %w", io.ErrClosedPipe)
	}
	q.items = append(q.items, v)
	q.signalLocked()
	return nil
}

func (q *Queue[T]) signalLocked() {
	if q.closeWrite {
		return
	}
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes and returns the head of the queue, blocking until one is
// available, ctx is done, or the queue is closed.
func (q *Queue[T]) Pop(ctx context.Context) (v T, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		if q.closeErr != nil {
			err = fmt.Errorf("buffer: pop from closed queue: %w", q.closeErr)
			return
		}
		if q.closeWrite {
			err = ErrIteratorDone
			return
		}
		q.mu.Unlock()
		select {
		case <-q.notify:
		case <-ctx.Done():
			q.mu.Lock()
			err = ctx.Err()
			return
		}
		q.mu.Lock()
	}
	if q.closeErr != nil {
		err = fmt.Errorf("buffer: pop from closed queue: %w", q.closeErr)
		return
	}
	v = q.popLocked()
	if len(q.items) > 0 {
		// Another reader may be parked on notify.
		q.signalLocked()
	}
	return v, nil
}

// TryPop removes and returns the head of the queue without blocking.
func (q *Queue[T]) TryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closeErr != nil || len(q.items) == 0 {
		return v, false
	}
	return q.popLocked(), true
}

func (q *Queue[T]) popLocked() T {
	var zero T
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = q.items[:0:0]
	}
	return v
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// CloseWrite prevents further pushes. Pending elements can still be popped;
// after that Pop returns ErrIteratorDone.
func (q *Queue[T]) CloseWrite() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closeWrite {
		return nil
	}
	q.closeWrite = true
	close(q.notify)
	return nil
}

// CloseWithError closes both ends and drops pending elements. If err is nil,
// io.ErrClosedPipe is used.
func (q *Queue[T]) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closeErr != nil {
		return nil
	}
	q.closeErr = err
	q.items = nil
	if !q.closeWrite {
		q.closeWrite = true
		close(q.notify)
	}
	return nil
}

// Close is CloseWithError(io.ErrClosedPipe).
func (q *Queue[T]) Close() error {
	return q.CloseWithError(io.ErrClosedPipe)
}
