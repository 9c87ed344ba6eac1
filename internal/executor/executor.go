// Package executor provides the execution contexts stores and deferred jobs
// run on: an inline executor and a single-goroutine serial executor with an
// unbounded FIFO.
package executor

import (
	"sync"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
)

// ErrExecutorClosed is returned when work is submitted to a closed executor.
var ErrExecutorClosed = ferrors.LifecycleError("executor is closed").Build()

// Executor runs submitted functions. Implementations used as a store
// delivery context must run functions one at a time in submission order.
type Executor interface {
	Execute(fn func()) error
}

// Inline runs every function synchronously on the caller's goroutine.
type Inline struct{}

// Execute runs fn immediately.
func (Inline) Execute(fn func()) error {
	fn()
	return nil
}

// Serial runs functions one at a time, in submission order, on a single
// dedicated goroutine. Execute never blocks.
type Serial struct {
	name string

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}

	onPanic func(recovered any)
}

// SerialOption configures a Serial executor.
type SerialOption func(*Serial)

// WithPanicHandler installs a handler for panics escaping submitted functions.
// Without one the panic is re-raised and crashes the process.
func WithPanicHandler(fn func(recovered any)) SerialOption {
	return func(s *Serial) { s.onPanic = fn }
}

// NewSerial starts a serial executor goroutine.
func NewSerial(name string, opts ...SerialOption) *Serial {
	s := &Serial{
		name: name,
		done: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	go s.loop()
	return s
}

// Name returns the executor name.
func (s *Serial) Name() string { return s.name }

// Execute enqueues fn. It fails with ErrExecutorClosed after Close.
func (s *Serial) Execute(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrExecutorClosed
	}
	s.queue = append(s.queue, fn)
	s.cond.Signal()
	return nil
}

// Pending returns the number of queued functions that have not started.
func (s *Serial) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close stops accepting work. Already queued functions still run; Done is
// closed once the queue has drained. Close is idempotent.
func (s *Serial) Close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Done is closed when the executor goroutine has exited.
func (s *Serial) Done() <-chan struct{} { return s.done }

func (s *Serial) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, fn := range batch {
			s.run(fn)
		}
	}
}

func (s *Serial) run(fn func()) {
	if s.onPanic != nil {
		defer func() {
			if r := recover(); r != nil {
				s.onPanic(r)
			}
		}()
	}
	fn()
}
