// Package mcp implements the Model Context Protocol server side: a
// line-delimited JSON-RPC 2.0 loop over stdio handling initialize, ping,
// tools/list, and tools/call. Logging goes to stderr; stdout carries only
// protocol frames.
package mcp
