// Package resolver picks the upstream model id for each request.
//
// Resolution is a two-tier decision: verify the tentative selection with a
// cheap single-model lookup, and only fall back to the expensive
// full-listing auto-selection when verification fails. Verification failure
// is an ordinary result consumed by the auto-selection path, not control
// flow by exception. Resolution always terminates with a usable id.
package resolver
