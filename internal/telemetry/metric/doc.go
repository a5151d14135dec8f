// Package metric provides Prometheus metrics for booklend.
//
// The CLI is short lived, so nothing is scraped. Metrics are collected
// into a private registry during a run and, when --metrics-file is set,
// written once at exit in the text exposition format for the node
// exporter textfile collector.
//
//   - prometheus.go: the registry and the recording helpers
//   - collector.go: a constant build info collector
package metric
