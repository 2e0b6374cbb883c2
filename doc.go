// Package admitkit is a request-admission pipeline for user-account services.
//
// Every inbound account operation passes, in fixed order, through rate
// limiting, input validation, bearer-token authentication (for protected
// operations), and finally the storage collaborator. Any failure along the
// way short-circuits and is normalized into a single error envelope with a
// closed taxonomy of kinds, so callers always see one consistent wire shape.
//
// The entry point is the [Builder]:
//
//	pipeline, err := admitkit.New().
//		WithConfig(admitkit.DefaultConfig()).
//		WithUserStore(store).
//		Build()
//
// The resulting [Pipeline] exposes the account operations (Register, Login,
// Profile, UpdateProfile, Refresh). Pipeline methods are safe to call from
// multiple goroutines after initialization through [Builder.Build].
//
// HTTP integration lives in the middleware package; metric export lives
// under metrics/export.
package admitkit
