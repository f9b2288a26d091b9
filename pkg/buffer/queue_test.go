package buffer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[int](4)
	for i := 0; i < 10; i++ {
		if err := q.Push(i); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	if q.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", q.Len())
	}
	for i := 0; i < 10; i++ {
		v, err := q.Pop(context.Background())
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if v != i {
			t.Fatalf("Pop = %d, want %d", v, i)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Fatal("TryPop on empty queue returned ok")
	}
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewQueue[string](0)
	got := make(chan string, 1)
	go func() {
		v, err := q.Pop(context.Background())
		if err != nil {
			t.Errorf("Pop: %v", err)
		}
		got <- v
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case v := <-got:
		t.Fatalf("Pop returned %q before Push", v)
	default:
	}

	q.Push("hello")
	select {
	case v := <-got:
		if v != "hello" {
			t.Fatalf("Pop = %q", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up")
	}
}

func TestQueue_PopContext(t *testing.T) {
	q := NewQueue[int](0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := q.Pop(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestQueue_CloseWriteDrains(t *testing.T) {
	q := NewQueue[int](0)
	q.Push(1)
	q.Push(2)
	q.CloseWrite()
	q.CloseWrite()

	if err := q.Push(3); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("Push after CloseWrite = %v", err)
	}
	for _, want := range []int{1, 2} {
		v, err := q.Pop(context.Background())
		if err != nil || v != want {
			t.Fatalf("Pop = %d, %v; want %d", v, err, want)
		}
	}
	if _, err := q.Pop(context.Background()); err != ErrIteratorDone {
		t.Fatalf("expected ErrIteratorDone, got %v", err)
	}
}

func TestQueue_CloseWithError(t *testing.T) {
	q := NewQueue[int](0)
	q.Push(1)
	boom := errors.New("boom")
	q.CloseWithError(boom)

	if _, err := q.Pop(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Pop after close = %v, want boom", err)
	}
	if _, ok := q.TryPop(); ok {
		t.Fatal("TryPop after close returned ok")
	}
	if err := q.Push(2); !errors.Is(err, boom) {
		t.Fatalf("Push after close = %v", err)
	}
}

func TestQueue_CloseUnblocksReaders(t *testing.T) {
	q := NewQueue[int](0)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := q.Pop(context.Background()); err == nil {
				t.Error("Pop returned nil error after Close")
			}
		}()
	}
	time.Sleep(10 * time.Millisecond)
	q.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("readers not unblocked by Close")
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue[int](0)
	const producers, each = 4, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q.Push(i)
			}
		}()
	}

	received := 0
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for received < producers*each {
		if _, err := q.Pop(ctx); err != nil {
			t.Fatalf("Pop after %d: %v", received, err)
		}
		received++
	}
	wg.Wait()
	if q.Len() != 0 {
		t.Fatalf("Len() = %d after draining", q.Len())
	}
}
