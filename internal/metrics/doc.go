// Package metrics provides build metrics for SiteBuilder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder. The build command swaps in a PrometheusRecorder when a metrics file
// is configured; after each build the registry is written in the Prometheus text
// exposition format so a node_exporter textfile collector can pick it up.
package metrics
