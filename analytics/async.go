package analytics

import (
	"context"
	"sync"
	"sync/atomic"
)

// AsyncOptions configure the asynchronous sink.
type AsyncOptions struct {
	// Capacity bounds the event queue.
	Capacity int
	// OnError is invoked when the inner sink rejects an event.
	OnError func(event Event, err error)
}

// DefaultAsyncOptions is the default configuration.
var DefaultAsyncOptions = AsyncOptions{
	Capacity: 256,
}

// Async wraps a sink with a bounded queue drained by a single background
// goroutine. Record never blocks: events beyond capacity are dropped and
// counted. Close drains the queue, stops the worker, and is idempotent.
type Async struct {
	sink Sink
	ch   chan Event

	mu     sync.RWMutex
	closed bool

	dropped  atomic.Int64
	failures atomic.Int64
	onError  func(event Event, err error)

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewAsync starts the delivery worker for sink.
func NewAsync(sink Sink, optFns ...func(o *AsyncOptions)) *Async {
	opts := DefaultAsyncOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultAsyncOptions.Capacity
	}

	a := &Async{
		sink:    sink,
		ch:      make(chan Event, opts.Capacity),
		onError: opts.OnError,
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *Async) run() {
	defer a.wg.Done()
	for event := range a.ch {
		if err := a.sink.Record(context.Background(), event); err != nil {
			a.failures.Add(1)
			if a.onError != nil {
				a.onError(event, err)
			}
		}
	}
}

// Record enqueues event without blocking. Events offered after Close or while
// the queue is full are dropped and counted; the returned error is always nil.
func (a *Async) Record(_ context.Context, event Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.dropped.Add(1)
		return nil
	}
	select {
	case a.ch <- event:
	default:
		a.dropped.Add(1)
	}
	return nil
}

// Close stops accepting events and waits for the queue to drain.
func (a *Async) Close() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()
	})
	a.wg.Wait()
	return nil
}

// Dropped returns the number of events rejected due to a full queue or a
// closed sink.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

// Failures returns the number of events the inner sink rejected.
func (a *Async) Failures() int64 {
	return a.failures.Load()
}

var _ Sink = (*Async)(nil)
