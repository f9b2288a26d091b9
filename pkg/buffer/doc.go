// Package buffer provides thread-safe buffers for handing values between
// goroutines.
//
//   - Queue: an unbounded FIFO whose Push never blocks. Used as the run queue
//     of a delivery loop, where producers must not wait on the consumer.
//
// Queues support graceful shutdown through CloseWrite() (pops continue until
// empty) or CloseWithError() (immediate closure).
//
// Example usage:
//
//	q := buffer.NewQueue[func()](16)
//	q.Push(func() { fmt.Println("hello") })
//
//	fn, err := q.Pop(ctx)
//	if err == nil {
//	    fn()
//	}
//
//	q.CloseWrite()
package buffer
