// Package otel bridges pipeline metrics into an OpenTelemetry meter using
// observable instruments, so any configured OTel exporter can ship them.
package otel
