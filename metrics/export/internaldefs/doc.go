// Package internaldefs holds the shared metric definition tables consumed
// by the Prometheus and OpenTelemetry exporters. It is internal to the
// exporter packages and carries no runtime state.
package internaldefs
