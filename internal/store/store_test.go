package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/screenstore/internal/executor"
	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
)

type counterAction struct {
	delta int
	gate  chan struct{}
	boom  bool
}

type counter struct {
	Total int
	Log   []int
}

func counterReducer(s counter, a counterAction) counter {
	if a.gate != nil {
		<-a.gate
	}
	if a.boom {
		panic(ferrors.ProgrammerError("negative counter").Build())
	}
	log := make([]int, len(s.Log), len(s.Log)+1)
	copy(log, s.Log)
	return counter{Total: s.Total + a.delta, Log: append(log, a.delta)}
}

func newCounter(t *testing.T, opts ...Option) *Store[counter, counterAction] {
	t.Helper()
	s := New("counter", counter{}, counterReducer, opts...)
	t.Cleanup(func() {
		if !s.Closed() {
			_ = s.Close()
		}
	})
	return s
}

func wait[S any](t *testing.T, f *Future[S]) (S, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()
	return f.Wait(ctx)
}

func TestDispatch_AppliesInOrder(t *testing.T) {
	s := newCounter(t)

	var last *Future[counter]
	for i := 1; i <= 5; i++ {
		last = s.Dispatch(counterAction{delta: i})
	}
	state, err := wait(t, last)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, state.Log)
	assert.Equal(t, 15, s.State().Total)
	assert.Equal(t, uint64(5), s.Version())
}

func TestDispatch_ConcurrentCallersNeverRace(t *testing.T) {
	s := newCounter(t)

	var wg sync.WaitGroup
	futures := make(chan *Future[counter], 400)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				futures <- s.Dispatch(counterAction{delta: 1})
			}
		}()
	}
	wg.Wait()
	close(futures)
	for f := range futures {
		_, err := wait(t, f)
		require.NoError(t, err)
	}

	assert.Equal(t, 400, s.State().Total)
	assert.Equal(t, uint64(400), s.Version())
}

func TestDispatch_NeverBlocks(t *testing.T) {
	s := newCounter(t)
	gate := make(chan struct{})

	first := s.Dispatch(counterAction{delta: 1, gate: gate})
	done := make(chan struct{})
	go func() {
		s.Dispatch(counterAction{delta: 1})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked behind a running reducer")
	}
	assert.Equal(t, 0, s.State().Total, "State must not block and must show the last published snapshot")

	close(gate)
	_, err := wait(t, first)
	require.NoError(t, err)
}

func TestFuture_ResolvesAfterDelivery(t *testing.T) {
	s := newCounter(t)
	var delivered atomic.Int32
	_, err := s.Subscribe(t.Context(), func(counter) { delivered.Add(1) })
	require.NoError(t, err)

	_, err = wait(t, s.Dispatch(counterAction{delta: 1}))
	require.NoError(t, err)
	assert.Equal(t, int32(1), delivered.Load())
}

func TestSubscribe_TwoObserversEachNotifiedOnce(t *testing.T) {
	s := newCounter(t)

	var a, b []counter
	var mu sync.Mutex
	_, err := s.Subscribe(t.Context(), func(c counter) { mu.Lock(); a = append(a, c); mu.Unlock() })
	require.NoError(t, err)
	_, err = s.Subscribe(t.Context(), func(c counter) { mu.Lock(); b = append(b, c); mu.Unlock() })
	require.NoError(t, err)

	want, err := wait(t, s.Dispatch(counterAction{delta: 7}))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []counter{want}, a)
	assert.Equal(t, []counter{want}, b)
}

func TestSubscribe_NotRetroactive(t *testing.T) {
	s := newCounter(t)
	_, err := wait(t, s.Dispatch(counterAction{delta: 1}))
	require.NoError(t, err)

	var got []int
	_, err = s.Subscribe(t.Context(), func(c counter) { got = append(got, c.Total) })
	require.NoError(t, err)
	_, err = wait(t, s.Dispatch(counterAction{delta: 1}))
	require.NoError(t, err)

	assert.Equal(t, []int{2}, got)
}

func TestUnsubscribe_StopsDeliveryAndIsIdempotent(t *testing.T) {
	s := newCounter(t)
	var calls atomic.Int32
	sub, err := s.Subscribe(t.Context(), func(counter) { calls.Add(1) })
	require.NoError(t, err)

	_, err = wait(t, s.Dispatch(counterAction{delta: 1}))
	require.NoError(t, err)

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.False(t, sub.Active())
	assert.Equal(t, 0, s.SubscriberCount())

	_, err = wait(t, s.Dispatch(counterAction{delta: 1}))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUnsubscribe_DuringDeliveryKeepsOtherObservers(t *testing.T) {
	s := newCounter(t)

	var other atomic.Int32
	var self *Subscription
	var selfCalls atomic.Int32
	self, err := s.Subscribe(t.Context(), func(counter) {
		selfCalls.Add(1)
		self.Unsubscribe()
	})
	require.NoError(t, err)
	_, err = s.Subscribe(t.Context(), func(counter) { other.Add(1) })
	require.NoError(t, err)

	_, err = wait(t, s.Dispatch(counterAction{delta: 1}))
	require.NoError(t, err)
	_, err = wait(t, s.Dispatch(counterAction{delta: 1}))
	require.NoError(t, err)

	assert.Equal(t, int32(1), selfCalls.Load())
	assert.Equal(t, int32(2), other.Load())
}

func TestUnsubscribe_WaitsForRunningObserver(t *testing.T) {
	s := newCounter(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	sub, err := s.Subscribe(t.Context(), func(counter) {
		close(entered)
		<-release
	})
	require.NoError(t, err)

	f := s.Dispatch(counterAction{delta: 1})
	<-entered

	unsubscribed := make(chan struct{})
	go func() {
		sub.Unsubscribe()
		close(unsubscribed)
	}()

	select {
	case <-unsubscribed:
		t.Fatal("Unsubscribe returned while the observer was still running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	select {
	case <-unsubscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("Unsubscribe did not return after the observer finished")
	}
	_, err = wait(t, f)
	require.NoError(t, err)
}

func TestUnsubscribe_NoCallStartsAfterReturn(t *testing.T) {
	for range 200 {
		s := New("counter", counter{}, counterReducer)
		var unsubscribed, late atomic.Bool
		sub, err := s.Subscribe(t.Context(), func(counter) {
			if unsubscribed.Load() {
				late.Store(true)
			}
		})
		require.NoError(t, err)

		f := s.Dispatch(counterAction{delta: 1})
		sub.Unsubscribe()
		unsubscribed.Store(true)

		_, err = wait(t, f)
		require.NoError(t, err)
		require.NoError(t, s.Close())
		require.False(t, late.Load(), "observer called after Unsubscribe returned")
	}
}

func TestSubscribe_ContextEndsSubscription(t *testing.T) {
	s := newCounter(t)
	ctx, cancel := context.WithCancel(t.Context())

	var calls atomic.Int32
	sub, err := s.Subscribe(ctx, func(counter) { calls.Add(1) })
	require.NoError(t, err)

	cancel()
	require.Eventually(t, func() bool { return !sub.Active() }, time.Second, time.Millisecond)

	_, err = wait(t, s.Dispatch(counterAction{delta: 1}))
	require.NoError(t, err)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 0, s.SubscriberCount())
}

func TestSubscribe_RejectsDoneContextAndNilObserver(t *testing.T) {
	s := newCounter(t)

	_, err := s.Subscribe(t.Context(), nil)
	assert.ErrorIs(t, err, ErrNilObserver)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = s.Subscribe(ctx, func(counter) {})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryCanceled))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClose_DispatchAndSubscribeFail(t *testing.T) {
	s := New("counter", counter{}, counterReducer)
	var calls atomic.Int32
	_, err := s.Subscribe(t.Context(), func(counter) { calls.Add(1) })
	require.NoError(t, err)

	_, err = wait(t, s.Dispatch(counterAction{delta: 3}))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	f := s.Dispatch(counterAction{delta: 1})
	select {
	case <-f.Done():
	default:
		t.Fatal("future after close must already be resolved")
	}
	assert.ErrorIs(t, f.Err(), ErrStoreClosed)

	_, err = s.Subscribe(t.Context(), func(counter) {})
	assert.ErrorIs(t, err, ErrStoreClosed)

	assert.Equal(t, 3, s.State().Total)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, s.SubscriberCount())
}

func TestClose_FailsQueuedFutures(t *testing.T) {
	s := New("counter", counter{}, counterReducer)
	gate := make(chan struct{})

	running := s.Dispatch(counterAction{delta: 1, gate: gate})
	queued := []*Future[counter]{
		s.Dispatch(counterAction{delta: 1}),
		s.Dispatch(counterAction{delta: 1}),
	}

	require.NoError(t, s.Close())
	for _, f := range queued {
		_, err := wait(t, f)
		assert.ErrorIs(t, err, ErrStoreClosed)
	}
	_, err := wait(t, running)
	assert.ErrorIs(t, err, ErrStoreClosed)

	close(gate)
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("store executor did not stop")
	}
	assert.Equal(t, 0, s.State().Total)
}

func TestClose_TwicePanics(t *testing.T) {
	s := New("counter", counter{}, counterReducer)
	require.NoError(t, s.Close())

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, ferrors.IsProgrammerError(err))
	}()
	_ = s.Close()
}

func TestClose_FromObserver(t *testing.T) {
	s := New("counter", counter{}, counterReducer)
	_, err := s.Subscribe(t.Context(), func(counter) { _ = s.Close() })
	require.NoError(t, err)

	_, err = wait(t, s.Dispatch(counterAction{delta: 1}))
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.True(t, s.Closed())
	assert.Equal(t, 1, s.State().Total)
}

func TestFuture_CancelBeforeApplied(t *testing.T) {
	s := newCounter(t)
	gate := make(chan struct{})

	first := s.Dispatch(counterAction{delta: 1, gate: gate})
	second := s.Dispatch(counterAction{delta: 10})
	third := s.Dispatch(counterAction{delta: 100})

	assert.True(t, second.Cancel())
	assert.False(t, second.Cancel())

	close(gate)
	_, err := wait(t, third)
	require.NoError(t, err)
	_, err = wait(t, second)
	assert.ErrorIs(t, err, ErrDispatchCanceled)
	_, err = wait(t, first)
	require.NoError(t, err)

	assert.Equal(t, 101, s.State().Total)
	assert.False(t, first.Cancel())
}

func TestReducerProgrammerError_FailsFutureAndKeepsState(t *testing.T) {
	s := newCounter(t)
	var panics []PanicInfo
	s.OnPanic(func(p PanicInfo) { panics = append(panics, p) })

	_, err := wait(t, s.Dispatch(counterAction{delta: 2}))
	require.NoError(t, err)

	f := s.Dispatch(counterAction{boom: true})
	_, err = wait(t, f)
	require.Error(t, err)
	assert.True(t, ferrors.IsProgrammerError(err))

	assert.Equal(t, 2, s.State().Total)
	assert.Equal(t, uint64(1), s.Version())
	require.Len(t, panics, 1)
	assert.Equal(t, PanicInReducer, panics[0].Source)
	assert.Equal(t, f.ID(), panics[0].DispatchID)

	_, err = wait(t, s.Dispatch(counterAction{delta: 1}))
	require.NoError(t, err)
	assert.Equal(t, 3, s.State().Total)
}

func TestReducerPlainPanic_BecomesProgrammerError(t *testing.T) {
	s := New("plain", 0, func(int, string) int { panic("unexpected") })
	t.Cleanup(func() { _ = s.Close() })

	_, err := wait(t, s.Dispatch("x"))
	require.Error(t, err)
	assert.True(t, ferrors.IsProgrammerError(err))
}

func TestObserverPanic_IsRecovered(t *testing.T) {
	s := newCounter(t)
	var reported atomic.Int32
	s.OnPanic(func(p PanicInfo) {
		if p.Source == PanicInObserver {
			reported.Add(1)
		}
	})

	var healthy atomic.Int32
	_, err := s.Subscribe(t.Context(), func(counter) { panic("render failed") })
	require.NoError(t, err)
	_, err = s.Subscribe(t.Context(), func(counter) { healthy.Add(1) })
	require.NoError(t, err)

	_, err = wait(t, s.Dispatch(counterAction{delta: 1}))
	require.NoError(t, err)
	_, err = wait(t, s.Dispatch(counterAction{delta: 1}))
	require.NoError(t, err)

	assert.Equal(t, int32(2), healthy.Load())
	assert.Equal(t, int32(2), reported.Load())
}

func TestHooks_DispatchAndApplied(t *testing.T) {
	s := newCounter(t)

	var mu sync.Mutex
	var dispatched []string
	var transitions []Transition[counter, counterAction]
	s.OnDispatch(func(id string, _ counterAction) {
		mu.Lock()
		dispatched = append(dispatched, id)
		mu.Unlock()
	})
	s.OnApplied(func(tr Transition[counter, counterAction]) {
		mu.Lock()
		transitions = append(transitions, tr)
		mu.Unlock()
	})

	f := s.Dispatch(counterAction{delta: 4})
	_, err := wait(t, f)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{f.ID()}, dispatched)
	require.Len(t, transitions, 1)
	tr := transitions[0]
	assert.Equal(t, "counter", tr.Store)
	assert.Equal(t, uint64(1), tr.Version)
	assert.Equal(t, 0, tr.Prev.Total)
	assert.Equal(t, 4, tr.Next.Total)
	assert.Equal(t, 4, tr.Action.delta)
}

func TestHooks_PanicInHookDoesNotStopStore(t *testing.T) {
	s := newCounter(t)
	s.OnApplied(func(Transition[counter, counterAction]) { panic("hook") })

	state, err := wait(t, s.Dispatch(counterAction{delta: 1}))
	require.NoError(t, err)
	assert.Equal(t, 1, state.Total)
}

func TestDeliveryExecutor_SerializesObservers(t *testing.T) {
	ui := executor.NewSerial("ui")
	t.Cleanup(ui.Close)

	a := newCounter(t, WithDeliveryExecutor(ui))
	b := New("other", counter{}, counterReducer, WithDeliveryExecutor(ui))
	t.Cleanup(func() { _ = b.Close() })

	var running, overlap atomic.Int32
	observe := func(counter) {
		if running.Add(1) > 1 {
			overlap.Add(1)
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
	}
	_, err := a.Subscribe(t.Context(), observe)
	require.NoError(t, err)
	_, err = b.Subscribe(t.Context(), observe)
	require.NoError(t, err)

	var futures []*Future[counter]
	for range 20 {
		futures = append(futures, a.Dispatch(counterAction{delta: 1}), b.Dispatch(counterAction{delta: 1}))
	}
	for _, f := range futures {
		_, err := wait(t, f)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(0), overlap.Load())
}

func TestDeliveryExecutorClosed_FailsFuture(t *testing.T) {
	ui := executor.NewSerial("ui")
	ui.Close()
	s := newCounter(t, WithDeliveryExecutor(ui))

	_, err := wait(t, s.Dispatch(counterAction{delta: 1}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, executor.ErrExecutorClosed))
}

func TestNew_NilReducerPanics(t *testing.T) {
	assert.Panics(t, func() { New[int, int]("nil", 0, nil) })
}

func TestActionName(t *testing.T) {
	assert.Equal(t, "counterAction", ActionName(counterAction{}))
	assert.Equal(t, "counterAction", ActionName(&counterAction{}))
	assert.Equal(t, "<nil>", ActionName(nil))
}
