// Package middleware provides net/http adapters for the admission
// pipeline.
//
// [Guard] authenticates requests before they reach a handler and places
// the verified [admitkit.Identity] in the request context, where
// [IdentityFromContext] retrieves it. Failures are written as standard
// fault envelopes.
package middleware
