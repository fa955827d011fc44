// Package mcp provides an MCP (Model Context Protocol) server adapter for groundwork.
// It lets AI assistants ask grounded questions against the local library.
package mcp

import "errors"

// ErrMissingAskService is returned when the ask service is not provided.
var ErrMissingAskService = errors.New("mcp: ask service is required")
