// Package server implements the MCP (Model Context Protocol) server for kolam
// generation and digitization.
//
// This package provides a JSON-RPC 2.0 server that exposes the kolam
// generator, the image digitizer and an optional pattern library through the
// MCP protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Pattern Generation:
//   - kolam_generate: Build a symmetric matrix and render it
//   - kolam_render: Render a given matrix of pattern ids
//   - kolam_check_symmetry: Validate a matrix and report its symmetries
//   - kolam_themes: List themes and palettes
//
// Digitization:
//   - kolam_digitize: Recover the matrix from a photo or scan
//   - kolam_compare: Ink overlap of two images
//
// Pattern Library (only when a store is attached):
//   - pattern_save, pattern_list, pattern_get, pattern_update, pattern_delete
//   - template_list, template_get
//   - preferences_get, preferences_update
//
// Stored preferences fill in the theme, grid size, symmetry, stroke, dot size
// and density that a kolam_generate call leaves unset.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(server.Options{Store: store})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
