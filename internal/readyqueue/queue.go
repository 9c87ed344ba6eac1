// Package readyqueue defers startup work until the application reports it is
// ready (the first screen state has been published). A Queue is created and
// owned by the application and passed to the components that need it.
package readyqueue

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"git.home.luguber.info/inful/screenstore/internal/executor"
	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/logfields"
)

var (
	// ErrQueueExecuted is returned by Add once Start has run.
	ErrQueueExecuted = ferrors.LifecycleError("ready queue already executed").Build()
	// ErrJobNotPaused is returned by Add for jobs that are running or finished.
	ErrJobNotPaused = ferrors.ValidationError("job is not paused").Build()
)

// JobState is the lifecycle state of a Job.
type JobState int32

const (
	JobPaused JobState = iota
	JobRunning
	JobCompleted
	JobCancelled
)

func (s JobState) String() string {
	switch s {
	case JobPaused:
		return "paused"
	case JobRunning:
		return "running"
	case JobCompleted:
		return "completed"
	case JobCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Job is a unit of deferred work bound to the executor it will run on.
type Job struct {
	name  string
	exec  executor.Executor
	fn    func()
	state atomic.Int32
	done  chan struct{}
	once  sync.Once
}

// NewJob creates a paused job.
func NewJob(name string, exec executor.Executor, fn func()) *Job {
	if exec == nil {
		exec = executor.Inline{}
	}
	return &Job{name: name, exec: exec, fn: fn, done: make(chan struct{})}
}

// Name returns the job name.
func (j *Job) Name() string { return j.name }

// State returns the current job state.
func (j *Job) State() JobState { return JobState(j.state.Load()) }

// Done is closed when the job completed or was cancelled.
func (j *Job) Done() <-chan struct{} { return j.done }

// Cancel prevents a paused job from ever running. It reports false when the
// job already started or finished.
func (j *Job) Cancel() bool {
	if !j.state.CompareAndSwap(int32(JobPaused), int32(JobCancelled)) {
		return false
	}
	j.finish()
	return true
}

// Start runs a paused job on its executor without going through a queue.
func (j *Job) Start() error {
	if !j.state.CompareAndSwap(int32(JobPaused), int32(JobRunning)) {
		return ErrJobNotPaused.WithContext("job", j.name).WithContext("state", j.State().String())
	}
	err := j.exec.Execute(func() {
		defer func() {
			j.state.Store(int32(JobCompleted))
			j.finish()
		}()
		j.fn()
	})
	if err != nil {
		j.state.Store(int32(JobCancelled))
		j.finish()
		return err
	}
	return nil
}

func (j *Job) finish() { j.once.Do(func() { close(j.done) }) }

// Queue holds paused jobs until Start.
type Queue struct {
	logger *slog.Logger

	mu       sync.Mutex
	jobs     []*Job
	executed bool
}

// New creates an empty queue.
func New(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{logger: logger}
}

// Add queues a paused job.
func (q *Queue) Add(j *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.executed {
		q.logger.Warn("Ready queue already executed; not adding job", logfields.Job(j.Name()))
		return ErrQueueExecuted.WithContext("job", j.Name())
	}
	if st := j.State(); st != JobPaused {
		q.logger.Warn("Not adding a job that is not paused", logfields.Job(j.Name()), slog.String("state", st.String()))
		return ErrJobNotPaused.WithContext("job", j.Name()).WithContext("state", st.String())
	}
	q.jobs = append(q.jobs, j)
	return nil
}

// Start starts every queued job that was not cancelled, clears the queue and
// rejects further Adds. Subsequent calls do nothing. It returns the number
// of jobs started.
func (q *Queue) Start() int {
	q.mu.Lock()
	if q.executed {
		q.mu.Unlock()
		return 0
	}
	jobs := q.jobs
	q.jobs = nil
	q.executed = true
	q.mu.Unlock()

	started := 0
	for _, j := range jobs {
		if j.State() == JobCancelled {
			continue
		}
		if err := j.Start(); err != nil {
			q.logger.Warn("Deferred job did not start", logfields.Job(j.Name()), logfields.Error(err))
			continue
		}
		started++
	}
	q.logger.Debug("Ready queue executed", slog.Int("started", started), slog.Int("queued", len(jobs)))
	return started
}

// Executed reports whether Start has run.
func (q *Queue) Executed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.executed
}

// Len returns the number of jobs waiting for Start.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
