package readyqueue

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/screenstore/internal/executor"
)

func waitDone(t *testing.T, j *Job) {
	t.Helper()
	select {
	case <-j.Done():
	case <-time.After(time.Second):
		t.Fatalf("job %s did not finish", j.Name())
	}
}

func TestQueue_StartRunsPausedJobs(t *testing.T) {
	q := New(nil)
	var ran atomic.Int32

	a := NewJob("a", executor.Inline{}, func() { ran.Add(1) })
	b := NewJob("b", executor.Inline{}, func() { ran.Add(1) })
	require.NoError(t, q.Add(a))
	require.NoError(t, q.Add(b))
	assert.Equal(t, int32(0), ran.Load(), "jobs must not run before Start")
	assert.Equal(t, 2, q.Len())

	assert.Equal(t, 2, q.Start())
	assert.Equal(t, int32(2), ran.Load())
	assert.Equal(t, JobCompleted, a.State())
	assert.Equal(t, 0, q.Len())
	assert.True(t, q.Executed())
}

func TestQueue_CancelledJobsAreSkipped(t *testing.T) {
	q := New(nil)
	var ran atomic.Bool
	j := NewJob("skip", executor.Inline{}, func() { ran.Store(true) })
	require.NoError(t, q.Add(j))

	assert.True(t, j.Cancel())
	assert.False(t, j.Cancel())
	assert.Equal(t, 0, q.Start())
	assert.False(t, ran.Load())
	assert.Equal(t, JobCancelled, j.State())
	waitDone(t, j)
}

func TestQueue_AddAfterStartFails(t *testing.T) {
	q := New(nil)
	q.Start()

	err := q.Add(NewJob("late", executor.Inline{}, func() {}))
	assert.ErrorIs(t, err, ErrQueueExecuted)
	assert.Equal(t, 0, q.Start(), "Start is one-shot")
}

func TestQueue_AddRejectsStartedOrFinishedJobs(t *testing.T) {
	q := New(nil)

	done := NewJob("done", executor.Inline{}, func() {})
	require.NoError(t, done.Start())
	assert.ErrorIs(t, q.Add(done), ErrJobNotPaused)

	cancelled := NewJob("cancelled", executor.Inline{}, func() {})
	cancelled.Cancel()
	assert.ErrorIs(t, q.Add(cancelled), ErrJobNotPaused)
}

func TestJob_RunsOnItsExecutor(t *testing.T) {
	serial := executor.NewSerial("jobs")
	t.Cleanup(serial.Close)

	q := New(nil)
	gate := make(chan struct{})
	j := NewJob("serial", serial, func() { <-gate })
	require.NoError(t, q.Add(j))

	assert.Equal(t, 1, q.Start())
	assert.Equal(t, JobRunning, j.State())
	assert.False(t, j.Cancel())

	close(gate)
	waitDone(t, j)
	assert.Equal(t, JobCompleted, j.State())
}

func TestJob_StartOnClosedExecutor(t *testing.T) {
	serial := executor.NewSerial("closed")
	serial.Close()

	j := NewJob("orphan", serial, func() {})
	assert.ErrorIs(t, j.Start(), executor.ErrExecutorClosed)
	assert.Equal(t, JobCancelled, j.State())
	waitDone(t, j)
}

func TestQueuesAreIndependent(t *testing.T) {
	first, second := New(nil), New(nil)
	first.Start()
	assert.NoError(t, second.Add(NewJob("x", nil, func() {})))
}
