package workload

import "errors"

var (
	// ErrInvalidSize is returned when an entry cannot be parsed as an integer.
	ErrInvalidSize = errors.New("size must be an integer")
	// ErrNonPositiveSize is returned when an entry is zero or negative.
	ErrNonPositiveSize = errors.New("size must be greater than zero")
	// ErrTooManyEntries is returned when a list exceeds MaxEntries.
	ErrTooManyEntries = errors.New("too many entries")
	// ErrInvalidBlockCount is returned when a requested block count is negative.
	ErrInvalidBlockCount = errors.New("block count must be zero or positive")
)
