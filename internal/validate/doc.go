// Package validate implements data-driven schema validation for the
// admission pipeline.
//
// A Schema is an ordered table of fields, each with an ordered chain of
// checks. Applying a schema never stops at the first violation: every field
// is checked and every field may accumulate several messages. On success the
// result carries normalized values (trimmed, lower-cased) that callers use
// downstream instead of the raw input.
//
// The rule table is the single validated surface; rules are written out
// explicitly here rather than derived by reflection from transport structs.
package validate
