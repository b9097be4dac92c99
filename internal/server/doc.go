// Package server implements the MCP (Model Context Protocol) server for
// handwriting segmentation.
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
//   - page_load: Page dimensions, format and reference-scale size
//   - page_extract_words: Lines and word boxes in reading order
//   - word_segment: Projection segmentation of one word, with intermediates
//   - page_segment: Lines, words and character slice ranges of a page
//   - page_read: Segmentation plus letter classification, as text
//   - page_annotate: PNG overlay of word boxes and character cuts
//
// # Image Caching
//
// Pages are decoded once and cached by path for the lifetime of the server.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: for segmentation failures, an object with error_code, stage,
//     message and, when known, line and word; otherwise the error string
//
// # Usage
//
//	pipe, _ := pipeline.New(config.Default(), logger)
//	srv := server.New(pipe, logger)
//	if err := srv.Run(); err != nil {
//	    logger.Fatal("server stopped", zap.Error(err))
//	}
package server
