package lob

import "errors"

// Programming errors. These are fatal and must never be used as
// recoverable control flow; callers that hit them have violated an
// internal invariant of the pool or the ladder.
var (
	ErrPoolExhausted = errors.New("lob: object pool exhausted")
	ErrForeignHandle = errors.New("lob: release of handle foreign to this pool")
)
