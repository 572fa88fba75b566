// Package telemetry records build metrics and traces.
//
// Metrics live on a private Prometheus registry so that a build never
// touches the global one; the CLI writes them to a text file with
// --metrics-file for node_exporter's textfile collector or CI artifacts.
//
// Traces go to the global OpenTelemetry tracer provider. Without a
// provider installed the spans are no-ops.
package telemetry
