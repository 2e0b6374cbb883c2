// Package rate implements fixed-window request counting for the admission
// pipeline.
//
// # Window semantics
//
// Each key owns one counter window. The first observation in a window fixes
// the reset instant at now+window; later observations only increment the
// counter. When the reset instant passes, the next observation replaces the
// window before incrementing. Denial is a normal return value, never an
// error.
//
// Two counter stores exist: an in-process mutex-guarded map (the default,
// swept lazily) and a Redis store using INCR + conditional EXPIRE on first
// hit for multi-instance deployments.
//
// # What this package must NOT do
//
//   - Choose policies (limit/window pairs); the pipeline selects those
//     per operation.
//   - Be imported outside the admitkit module.
package rate
