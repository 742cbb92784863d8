// internal/core/domain/errors.go
package domain

import "errors"

// Domain-level sentinel errors.
var (
	// Input errors
	ErrEmptyOrigin     = errors.New("origin cannot be empty")
	ErrNoInputRecords  = errors.New("input source yielded no records")
	ErrMissingColumns  = errors.New("input is missing required columns")
	ErrMalformedRecord = errors.New("malformed input record")

	// Construction errors (process-fatal before any record is dispatched)
	ErrASNTableBuild   = errors.New("asn table construction failed")
	ErrInputOpenFailed = errors.New("input source open failed")

	// Run errors
	ErrRunCanceled = errors.New("run was canceled")
)
