// Package httputil provides the HTTP plumbing shared by the erlayout API.
//
// # Overview
//
// The helpers keep handlers small and make every response look the same:
//
//   - [WriteJSON]: encode a value with a status code
//   - [WriteError]: map a coded error to a status and a JSON error body
//   - [DecodeJSON]: read a size-limited request body, rejecting unknown fields
//   - [RequestID]: middleware that tags each request with a UUID
//
// # Errors
//
// [StatusFor] maps [errors.Code] values to HTTP status codes. Client
// mistakes (invalid documents, tiers, formats) become 4xx responses; errors
// without a code become 500 and their details are not exposed.
//
// Error bodies have the shape:
//
//	{"error": {"code": "INVALID_TIER", "message": "...", "problems": ["..."]}}
//
// [errors.Code]: github.com/matzehuels/erlayout/pkg/errors.Code
package httputil
