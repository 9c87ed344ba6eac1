package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "screenstore"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	dispatched     *prom.CounterVec
	reduceDuration *prom.HistogramVec
	applied        *prom.CounterVec
	observerPanics *prom.CounterVec
	version        *prom.GaugeVec
	journalWrites  *prom.CounterVec
	relayPublishes *prom.CounterVec
	syncDuration   *prom.HistogramVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.dispatched = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "actions_dispatched_total",
			Help:      "Actions queued on a store",
		}, []string{"store", "action"})
		pr.reduceDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "reduce_duration_seconds",
			Help:      "Duration of individual reductions",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"store", "action"})
		pr.applied = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "actions_applied_total",
			Help:      "Action outcomes by store and result",
		}, []string{"store", "action", "result"})
		pr.observerPanics = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "observer_panics_total",
			Help:      "Observer callbacks that panicked",
		}, []string{"store"})
		pr.version = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "state_version",
			Help:      "Number of transitions applied by a store",
		}, []string{"store"})
		pr.journalWrites = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "journal_writes_total",
			Help:      "Journal appends by result",
		}, []string{"result"})
		pr.relayPublishes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "relay_publishes_total",
			Help:      "State snapshots published to NATS by result",
		}, []string{"subject", "result"})
		pr.syncDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync runs",
			Buckets:   prom.DefBuckets,
		}, []string{"screen", "result"})
		reg.MustRegister(pr.dispatched, pr.reduceDuration, pr.applied, pr.observerPanics, pr.version, pr.journalWrites, pr.relayPublishes, pr.syncDuration)
	})
	return pr
}

func (p *PrometheusRecorder) IncDispatched(store, action string) {
	if p == nil || p.dispatched == nil {
		return
	}
	p.dispatched.WithLabelValues(store, action).Inc()
}

func (p *PrometheusRecorder) ObserveReduceDuration(store, action string, d time.Duration) {
	if p == nil || p.reduceDuration == nil {
		return
	}
	p.reduceDuration.WithLabelValues(store, action).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncApplied(store, action string, result ResultLabel) {
	if p == nil || p.applied == nil {
		return
	}
	p.applied.WithLabelValues(store, action, string(result)).Inc()
}

func (p *PrometheusRecorder) IncObserverPanic(store string) {
	if p == nil || p.observerPanics == nil {
		return
	}
	p.observerPanics.WithLabelValues(store).Inc()
}

func (p *PrometheusRecorder) SetVersion(store string, v uint64) {
	if p == nil || p.version == nil {
		return
	}
	p.version.WithLabelValues(store).Set(float64(v))
}

func (p *PrometheusRecorder) IncJournalWrite(result ResultLabel) {
	if p == nil || p.journalWrites == nil {
		return
	}
	p.journalWrites.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncRelayPublish(subject string, result ResultLabel) {
	if p == nil || p.relayPublishes == nil {
		return
	}
	p.relayPublishes.WithLabelValues(subject, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveSyncDuration(screen string, d time.Duration, result ResultLabel) {
	if p == nil || p.syncDuration == nil {
		return
	}
	p.syncDuration.WithLabelValues(screen, string(result)).Observe(d.Seconds())
}
