// Package token issues and verifies the signed bearer credentials accepted
// by the admission pipeline.
//
// Credentials are JWTs signed with a process-wide symmetric secret (HS256).
// Payloads are immutable once issued; refreshing means issuing a brand-new
// token. Verification collapses every failure — malformed, forged, expired —
// into the single [ErrInvalid] sentinel so callers cannot distinguish a bad
// signature from a past expiry.
//
// Rotating the signing secret invalidates all previously issued tokens;
// there is no grace-period verification against old secrets.
package token
