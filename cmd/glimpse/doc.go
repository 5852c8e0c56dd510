// Package main hosts the glimpse CLI entrypoint and command graph.
//
// The Cobra-based command tree starts the stdio MCP server, lists catalog
// models on the terminal, and scaffolds configuration. It centralizes config
// resolution and structured logging setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
