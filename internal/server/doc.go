// Package server implements an MCP (Model Context Protocol) server that
// exposes parking lot occupancy analysis as tools.
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
//   - frame_info: Frame dimensions, format and color check
//   - frame_preprocess: Binary mask (and optionally every stage) as base64 PNG
//   - lot_classify: Per-slot state and counts for a frame
//   - lot_render: Annotated overlay as base64 PNG
//   - slot_crop: One slot cut from the frame or the mask
//
// Lot tools take the slot layout inline (positions) or from a slots file and
// fall back to the configuration the server was started with.
//
// # Image Caching
//
// Frames are cached by path for the lifetime of the server, so repeated
// calls on the same frame skip decoding.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses:
//   - -32602: the tool arguments could not be decoded
//   - -32000: the tool failed (missing file, invalid frame, slot outside the
//     frame, ...)
//   - data: the Go error string
package server
