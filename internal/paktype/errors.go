package paktype

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrFormat matches every *FormatError via errors.Is.
var ErrFormat = errors.New("pakfs: invalid container format")

// Reasons carried by a FormatError.
var (
	// ErrBadMagic is returned when the container does not start with "PACK".
	ErrBadMagic = errors.New("pakfs: bad magic")

	// ErrNegativeEntryCount is returned when the header declares a negative table length.
	ErrNegativeEntryCount = errors.New("pakfs: negative entry count")

	// ErrPartialRecord is returned in strict mode when the table length is not
	// a multiple of the record size.
	ErrPartialRecord = errors.New("pakfs: partial table record")

	// ErrTableOutOfRange is returned when the entry table lies outside the container.
	ErrTableOutOfRange = errors.New("pakfs: entry table out of range")

	// ErrEntryOutOfRange is returned when an entry's byte range lies outside the container.
	ErrEntryOutOfRange = errors.New("pakfs: entry out of range")

	// ErrDuplicateEntry is returned when duplicate names are rejected.
	ErrDuplicateEntry = errors.New("pakfs: duplicate entry name")
)

// Entry reader errors.
var (
	// ErrInvalidOffset is returned when seeking outside [0, size] of an entry.
	ErrInvalidOffset = fmt.Errorf("pakfs: invalid offset: %w", fs.ErrInvalid)

	// ErrClosed is returned by operations on a closed entry reader.
	ErrClosed = fmt.Errorf("pakfs: reader closed: %w", fs.ErrClosed)

	// ErrReadOnly is returned by every mutating operation.
	ErrReadOnly = fmt.Errorf("pakfs: read-only: %w", errors.ErrUnsupported)

	// ErrNotDir is returned when a directory operation targets an entry.
	ErrNotDir = fmt.Errorf("pakfs: not a directory: %w", fs.ErrInvalid)
)

// ErrDigestMismatch is returned when entry content does not match an expected digest.
var ErrDigestMismatch = errors.New("pakfs: digest mismatch")

// FormatError reports a malformed container. No partial index is ever built
// from a container that produced a FormatError.
type FormatError struct {
	// Path is the container path, if known.
	Path string

	// Offset is the container offset where the problem was detected, or -1
	// when the problem is not tied to one location.
	Offset int64

	// Err is one of the reason sentinels above.
	Err error
}

func (e *FormatError) Error() string {
	msg := e.Err.Error()
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	return msg
}

// Unwrap returns the reason.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// ErrSizeOverflow is returned when a size does not fit the platform int.
var ErrSizeOverflow = errors.New("pakfs: size overflow")
