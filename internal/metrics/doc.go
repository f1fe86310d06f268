// Package metrics records request metrics for the relkit static file server.
//
// Components receive a Recorder and default to NoopRecorder, so metrics cost
// nothing unless the server is started with --metrics. The Prometheus
// implementation registers its collectors on a private registry that is
// exposed through PrometheusRecorder.Handler.
package metrics
