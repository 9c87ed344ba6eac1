// Package metrics provides store and collaborator metrics.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing; PrometheusRecorder registers collectors on a
// registry that HTTPHandler serves.
//
//	rec := metrics.NewPrometheusRecorder(reg)
//	metrics.Instrument(rec, historyStore)
//
// Instrument wires a Recorder to a store through its dispatch, applied and
// panic hooks, so stores themselves never depend on this package.
package metrics
