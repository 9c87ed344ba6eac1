package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/screenstore/internal/executor"
	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/logfields"
	"git.home.luguber.info/inful/screenstore/internal/observability"
)

// Reducer computes the next state. It must be pure: no I/O, no mutation of
// its inputs. Unhandled combinations return the input state unchanged.
type Reducer[S, A any] func(state S, action A) S

type snapshot[S any] struct {
	state   S
	version uint64
}

type options struct {
	logger   *slog.Logger
	delivery executor.Executor
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDeliveryExecutor sets the context observers are invoked on. The
// executor must run functions one at a time in submission order. By default
// observers run on the store's own serial executor.
func WithDeliveryExecutor(exec executor.Executor) Option {
	return func(o *options) { o.delivery = exec }
}

// Store owns the current state of one screen.
type Store[S, A any] struct {
	name     string
	reducer  Reducer[S, A]
	logger   *slog.Logger
	serial   *executor.Serial
	delivery executor.Executor

	current atomic.Pointer[snapshot[S]]

	mu       sync.Mutex
	closed   atomic.Bool
	inflight map[*Future[S]]struct{}

	subsMu    sync.RWMutex
	subs      map[uint64]*subscriber[S]
	nextSubID atomic.Uint64

	hooks hooks[S, A]
}

// New creates an active store holding initial.
func New[S, A any](name string, initial S, reducer Reducer[S, A], opts ...Option) *Store[S, A] {
	if reducer == nil {
		panic(ferrors.ProgrammerError("store requires a reducer").WithContext("store", name).Build())
	}
	o := options{logger: slog.Default(), delivery: executor.Inline{}}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store[S, A]{
		name:     name,
		reducer:  reducer,
		logger:   o.logger,
		delivery: o.delivery,
		inflight: make(map[*Future[S]]struct{}),
		subs:     make(map[uint64]*subscriber[S]),
	}
	s.serial = executor.NewSerial("store/"+name, executor.WithPanicHandler(func(r any) {
		s.logger.Error("Store executor recovered panic", logfields.Store(name), logfields.Panic(r))
	}))
	s.current.Store(&snapshot[S]{state: initial})
	return s
}

// Name returns the store name.
func (s *Store[S, A]) Name() string { return s.name }

// State returns the last published state. It never blocks and keeps working
// after Close.
func (s *Store[S, A]) State() S { return s.current.Load().state }

// Version returns the number of transitions applied so far.
func (s *Store[S, A]) Version() uint64 { return s.current.Load().version }

// Closed reports whether Close has been called.
func (s *Store[S, A]) Closed() bool { return s.closed.Load() }

// Dispatch queues action for application and returns immediately. Actions
// are applied one at a time in the order Dispatch was called. After Close the
// returned future has already failed with ErrStoreClosed.
func (s *Store[S, A]) Dispatch(action A) *Future[S] {
	id := uuid.NewString()

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		s.logger.Debug("Dispatch after close", logfields.Store(s.name), logfields.Action(ActionName(action)))
		return failedFuture[S](id, ErrStoreClosed.WithContext("store", s.name))
	}
	f := newFuture[S](id)
	s.inflight[f] = struct{}{}
	err := s.serial.Execute(func() { s.apply(f, action) })
	s.mu.Unlock()

	if err != nil {
		s.settle(f, ErrStoreClosed.WithContext("store", s.name))
		return f
	}
	s.runOnDispatch(id, action)
	return f
}

// Close moves the store to Closed. Every queued future fails with
// ErrStoreClosed and all observers are detached. Calling Close twice panics.
func (s *Store[S, A]) Close() error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		panic(ferrors.ProgrammerError("store closed twice").WithContext("store", s.name).Build())
	}
	s.closed.Store(true)
	pending := s.inflight
	s.inflight = nil
	s.mu.Unlock()

	s.serial.Close()
	detached := s.detachAll()

	closedErr := ErrStoreClosed.WithContext("store", s.name)
	for f := range pending {
		f.abort(closedErr)
	}

	s.logger.Debug("Store closed",
		logfields.Store(s.name),
		logfields.Version(s.Version()),
		slog.Int("failed_futures", len(pending)),
		slog.Int("detached_observers", detached))
	return nil
}

// Done is closed once the serial executor has drained after Close.
func (s *Store[S, A]) Done() <-chan struct{} { return s.serial.Done() }

func (s *Store[S, A]) apply(f *Future[S], action A) {
	if s.closed.Load() {
		s.settle(f, ErrStoreClosed.WithContext("store", s.name))
		return
	}
	if !f.claim() {
		s.forget(f)
		return
	}

	prev := s.current.Load()
	start := time.Now()
	next, err := s.reduce(prev.state, action, f.id)
	took := time.Since(start)
	if err != nil {
		s.settle(f, err)
		return
	}

	snap := &snapshot[S]{state: next, version: prev.version + 1}
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		s.settle(f, ErrStoreClosed.WithContext("store", s.name))
		return
	}
	s.current.Store(snap)
	s.mu.Unlock()

	ctx := observability.WithDispatchID(observability.WithStore(context.Background(), s.name), f.id)
	observability.Log(ctx, s.logger, slog.LevelDebug, "Action applied",
		logfields.Action(ActionName(action)),
		logfields.Version(snap.version),
		logfields.Took(took))

	s.runOnApplied(Transition[S, A]{
		Store:      s.name,
		DispatchID: f.id,
		Version:    snap.version,
		Action:     action,
		Prev:       prev.state,
		Next:       next,
		Took:       took,
	})

	s.publish(snap, f)
}

// reduce runs the reducer and converts a panic into a programmer error.
func (s *Store[S, A]) reduce(state S, action A, dispatchID string) (next S, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = asProgrammerError(r).WithContext("store", s.name).WithContext("action", ActionName(action))
		s.logger.Error("Reducer rejected action",
			logfields.Store(s.name),
			logfields.DispatchID(dispatchID),
			logfields.Action(ActionName(action)),
			logfields.Error(err))
		s.runOnPanic(PanicInfo{
			Store:      s.name,
			DispatchID: dispatchID,
			Source:     PanicInReducer,
			Recovered:  r,
			Err:        err,
		})
	}()
	return s.reducer(state, action), nil
}

func (s *Store[S, A]) publish(snap *snapshot[S], f *Future[S]) {
	subs := s.subscribers()
	deliver := func() {
		for _, sub := range subs {
			if s.closed.Load() {
				break
			}
			s.deliver(sub, snap, f.id)
		}
		if s.closed.Load() {
			s.settle(f, ErrStoreClosed.WithContext("store", s.name))
			return
		}
		s.forget(f)
		f.complete(snap.state)
	}
	if err := s.delivery.Execute(deliver); err != nil {
		s.settle(f, ferrors.WrapError(err, ferrors.CategoryLifecycle, "delivery executor rejected state").
			WithContext("store", s.name).
			Build())
	}
}

func (s *Store[S, A]) deliver(sub *subscriber[S], snap *snapshot[S], dispatchID string) {
	sub.callMu.Lock()
	defer sub.callMu.Unlock()
	if !sub.accept(snap.version) {
		return
	}
	sub.caller.Store(goroutineID())
	defer sub.caller.Store(0)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Observer panicked",
				logfields.Store(s.name),
				logfields.Subscriber(sub.id),
				logfields.Version(snap.version),
				logfields.Panic(r))
			s.runOnPanic(PanicInfo{
				Store:      s.name,
				DispatchID: dispatchID,
				Source:     PanicInObserver,
				Recovered:  r,
			})
		}
	}()
	sub.observer(snap.state)
}

// settle fails f and drops it from the in-flight set.
func (s *Store[S, A]) settle(f *Future[S], err error) {
	s.forget(f)
	f.abort(err)
}

func (s *Store[S, A]) forget(f *Future[S]) {
	s.mu.Lock()
	if s.inflight != nil {
		delete(s.inflight, f)
	}
	s.mu.Unlock()
}

func asProgrammerError(r any) *ferrors.ClassifiedError {
	if err, ok := r.(error); ok {
		if ce, ok := ferrors.AsClassified(err); ok && ce.IsCategory(ferrors.CategoryProgrammer) {
			return ce
		}
		return ferrors.WrapError(err, ferrors.CategoryProgrammer, "reducer panicked").Fatal().Build()
	}
	return ferrors.ProgrammerError(fmt.Sprintf("reducer panicked: %v", r)).Build()
}
