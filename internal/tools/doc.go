// Package tools implements the tool surface exposed over MCP: chat
// completion, single- and multi-image analysis, and catalog search,
// lookup, and validation. Handlers never return transport errors;
// every failure is rendered as an error Result with a request id.
package tools
