// Package instrument exposes the store engine's counters as Prometheus
// metrics and traces action executions with OpenTelemetry. It is built
// entirely on the engine's public surface.
package instrument
