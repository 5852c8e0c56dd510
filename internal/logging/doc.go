// Package logging centralizes slog construction and attribute conventions.
//
// The serve command speaks the MCP protocol on stdout, so log output always
// defaults to stderr and may additionally be mirrored to a file. Console
// format is a compact single-line rendering with colorized levels on
// terminals; json format uses the stock slog JSON handler.
package logging
