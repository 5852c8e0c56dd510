// Package catalog caches the upstream model listing.
//
// Directory is a single-slot TTL memo: the whole listing is replaced
// atomically on refresh, readers never see a partial mapping, and the entry
// expires one hour after fetch. Search applies the AND-composed filter set
// used by the search_models tool. Store persists the same single slot to
// SQLite so a restarted process starts warm when the snapshot is still
// inside the TTL.
//
// The directory is constructed once and passed explicitly to the components
// that need it; there is no package-level instance.
package catalog
