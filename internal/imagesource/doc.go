// Package imagesource resolves tool-call image references into bytes ready
// for the upstream API: data URIs decode in-process, file:// URLs and
// absolute paths read from disk, http(s) URLs fetch with a bounded timeout.
// Relative paths and unknown schemes are rejected with typed errors so the
// tool layer can distinguish bad arguments from processing failures.
package imagesource
