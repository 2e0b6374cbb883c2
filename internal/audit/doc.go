// Package audit implements async event dispatching for admission decisions
// and internal failures.
//
// # Components
//
//   - [Sink] — interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher] — buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event] — structured record with timestamp, operation, outcome, and failure detail.
//
// The dispatcher is the only place raw internal error text is allowed to
// flow; the error envelope returned to callers never carries it.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import admitkit or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
