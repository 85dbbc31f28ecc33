// Package query implements the generic analytical layer shared by every
// entity type: schema-driven filtering, pagination with metadata, declarative
// relationship joins and grouped aggregation. This file defines the error
// values reused across those components. The sentinels allow handlers to
// distinguish between different failure scenarios, for example a malformed
// filter parameter (client error) versus a foreign key pointing at a record
// that no longer exists (data-integrity error that must be surfaced, not
// masked).
package query

import "errors"

// ErrInvalidFilter is returned when a filter parameter names an unknown
// field, uses an operator the field's kind does not support, or carries a
// value that cannot be parsed for that kind. Handlers should translate
// this into an HTTP 400 response.
var ErrInvalidFilter = errors.New("invalid filter")

// ErrInvalidPagination is returned when the requested page or size is zero
// or negative. Handlers should translate this into an HTTP 400 response.
var ErrInvalidPagination = errors.New("invalid pagination")

// ErrDanglingReference is returned when a join hop follows a foreign key
// whose target record does not exist. A broken reference means corrupted
// data upstream; reports fail loudly instead of under-counting. Handlers
// should translate this into an HTTP 500 response with a distinct code.
var ErrDanglingReference = errors.New("dangling reference")
