package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultRejected ResultLabel = "rejected"
	ResultFailed   ResultLabel = "failed"
	ResultSkipped  ResultLabel = "skipped"
)

// Recorder defines observability hooks for stores and their collaborators.
type Recorder interface {
	IncDispatched(store, action string)
	ObserveReduceDuration(store, action string, d time.Duration)
	IncApplied(store, action string, result ResultLabel)
	IncObserverPanic(store string)
	SetVersion(store string, v uint64)
	IncJournalWrite(result ResultLabel)
	IncRelayPublish(subject string, result ResultLabel)
	ObserveSyncDuration(screen string, d time.Duration, result ResultLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncDispatched(string, string)                           {}
func (NoopRecorder) ObserveReduceDuration(string, string, time.Duration)    {}
func (NoopRecorder) IncApplied(string, string, ResultLabel)                 {}
func (NoopRecorder) IncObserverPanic(string)                                {}
func (NoopRecorder) SetVersion(string, uint64)                              {}
func (NoopRecorder) IncJournalWrite(ResultLabel)                            {}
func (NoopRecorder) IncRelayPublish(string, ResultLabel)                    {}
func (NoopRecorder) ObserveSyncDuration(string, time.Duration, ResultLabel) {}

var _ Recorder = NoopRecorder{}
