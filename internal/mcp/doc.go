// Package mcp exposes focus-ocr over the Model Context Protocol.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line, so that an
// MCP client can run OCR on local files without the HTTP service:
//
//	focus-ocr mcp
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_ocr: the same pipeline as POST /ocr, reading from a path
//   - image_highlight_mask: mask statistics, marked regions and optionally
//     the mask itself as a PNG
//   - image_dimensions: width, height and format
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 and the Go error string in data. Lines that are not valid JSON get a
// -32700 parse error with a null id.
//
// Stdout carries protocol messages only; logs must go to stderr.
package mcp
