package pakfs

import (
	"errors"

	"github.com/meigma/pakfs/internal/file"
	"github.com/meigma/pakfs/internal/index"
	"github.com/meigma/pakfs/internal/location"
	"github.com/meigma/pakfs/internal/paktype"
)

// Re-export types from internal packages for the public API.
type (
	// Entry describes one file stored in a container.
	Entry = paktype.Entry

	// FormatError reports a malformed container.
	FormatError = paktype.FormatError

	// DuplicatePolicy controls how repeated entry names are handled.
	DuplicatePolicy = paktype.DuplicatePolicy

	// Index is the immutable name to entry mapping of an archive.
	Index = index.Index

	// EntryReader is a seekable, read-only view of one entry.
	// It is not safe for concurrent use.
	EntryReader = file.Reader

	// Location addresses an archive or one of its entries.
	Location = location.Location
)

// Re-export duplicate policies.
const (
	DuplicatesLastWins = paktype.DuplicatesLastWins
	DuplicatesReject   = paktype.DuplicatesReject
)

// Sentinel errors re-exported from internal/paktype.
var (
	// ErrFormat matches every *FormatError.
	ErrFormat = paktype.ErrFormat

	// ErrBadMagic is returned when a container does not start with "PACK".
	ErrBadMagic = paktype.ErrBadMagic

	// ErrNegativeEntryCount is returned when the header declares a negative table length.
	ErrNegativeEntryCount = paktype.ErrNegativeEntryCount

	// ErrPartialRecord is returned in strict mode for a trailing partial table record.
	ErrPartialRecord = paktype.ErrPartialRecord

	// ErrTableOutOfRange is returned when the entry table lies outside the container.
	ErrTableOutOfRange = paktype.ErrTableOutOfRange

	// ErrEntryOutOfRange is returned when an entry's bytes lie outside the container.
	ErrEntryOutOfRange = paktype.ErrEntryOutOfRange

	// ErrDuplicateEntry is returned when duplicate names are rejected.
	ErrDuplicateEntry = paktype.ErrDuplicateEntry

	// ErrInvalidOffset is returned when seeking outside an entry. It wraps fs.ErrInvalid.
	ErrInvalidOffset = paktype.ErrInvalidOffset

	// ErrClosed is returned by operations on a closed reader. It wraps fs.ErrClosed.
	ErrClosed = paktype.ErrClosed

	// ErrReadOnly is returned by every mutating operation. It wraps errors.ErrUnsupported.
	ErrReadOnly = paktype.ErrReadOnly

	// ErrNotDir is returned when a directory operation targets an entry.
	ErrNotDir = paktype.ErrNotDir

	// ErrDigestMismatch is returned by Verify when content differs.
	ErrDigestMismatch = paktype.ErrDigestMismatch

	// ErrSizeOverflow is returned when an entry does not fit in memory on this platform.
	ErrSizeOverflow = paktype.ErrSizeOverflow
)

// ErrRegistryClosed is returned by a Registry after Close.
var ErrRegistryClosed = errors.New("pakfs: registry closed")
