// Package format decodes the PAK container header and entry table.
//
// Layout (all integers little-endian, signed 32-bit):
//
//	0   magic "PACK"
//	4   table offset
//	8   table length in bytes
//
// The table is an array of 64-byte records: 56 bytes of NUL or space padded
// name, the entry offset and the entry size.
package format

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/meigma/pakfs/internal/paktype"
	"github.com/meigma/pakfs/internal/sizing"
)

// Format constants.
const (
	Magic      = "PACK"
	HeaderSize = 12
	NameSize   = 56
	RecordSize = 64
)

type (
	Entry       = paktype.Entry
	FormatError = paktype.FormatError
)

type header struct {
	ID          [4]byte
	TableOffset int32
	TableLength int32
}

type record struct {
	Name   [NameSize]byte
	Offset int32
	Size   int32
}

// Option configures table decoding.
type Option func(*config)

type config struct {
	strict bool
	path   string
}

// WithStrictTableLength rejects tables whose length is not a multiple of
// RecordSize. By default the trailing partial record is ignored.
func WithStrictTableLength(strict bool) Option {
	return func(c *config) {
		c.strict = strict
	}
}

// WithPath sets the container path reported in a FormatError.
func WithPath(path string) Option {
	return func(c *config) {
		c.path = path
	}
}

// Parse decodes the entry table of an in-memory container.
func Parse(data []byte, opts ...Option) ([]Entry, error) {
	return ReadTable(bytes.NewReader(data), opts...)
}

// ReadTable decodes the entry table from r. Entries are returned in table order.
//
// r is rewound to the start before decoding; its position afterwards is unspecified.
func ReadTable(r io.ReadSeeker, opts ...Option) ([]Entry, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	formatErr := func(off int64, reason error) error {
		return &FormatError{Path: cfg.path, Offset: off, Err: reason}
	}

	size, err := sizing.SizeOf(r)
	if err != nil {
		return nil, fmt.Errorf("measure container: %w", err)
	}

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h.ID); err != nil {
		return nil, fmt.Errorf("read magic: %w", noEOF(err))
	}
	if string(h.ID[:]) != Magic {
		return nil, formatErr(0, paktype.ErrBadMagic)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.TableOffset); err != nil {
		return nil, fmt.Errorf("read table offset: %w", noEOF(err))
	}
	if err := binary.Read(r, binary.LittleEndian, &h.TableLength); err != nil {
		return nil, fmt.Errorf("read table length: %w", noEOF(err))
	}

	count := h.TableLength / RecordSize
	if count < 0 {
		return nil, formatErr(8, paktype.ErrNegativeEntryCount)
	}
	if cfg.strict && h.TableLength%RecordSize != 0 {
		return nil, formatErr(8, paktype.ErrPartialRecord)
	}

	if count == 0 {
		return []Entry{}, nil
	}

	tableOffset := int64(h.TableOffset)
	if !sizing.InRange(tableOffset, int64(count)*RecordSize, size) {
		return nil, formatErr(4, paktype.ErrTableOutOfRange)
	}
	if _, err := r.Seek(tableOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to table: %w", err)
	}

	entries := make([]Entry, 0, count)
	for i := range int64(count) {
		recOffset := tableOffset + i*RecordSize
		var rec record
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("read table record %d: %w", i, noEOF(err))
		}
		e, err := decodeRecord(&rec, size)
		if err != nil {
			return nil, formatErr(recOffset, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeRecord(rec *record, containerSize int64) (Entry, error) {
	offset, err := sizing.FromInt32(rec.Offset, paktype.ErrEntryOutOfRange)
	if err != nil {
		return Entry{}, err
	}
	size, err := sizing.FromInt32(rec.Size, paktype.ErrEntryOutOfRange)
	if err != nil {
		return Entry{}, err
	}
	if !sizing.InRange(int64(offset), int64(size), containerSize) {
		return Entry{}, paktype.ErrEntryOutOfRange
	}
	return Entry{Name: DecodeName(rec.Name[:]), Offset: offset, Size: size}, nil
}

// DecodeName converts a padded name field to a string. The name ends at the
// first NUL; trailing whitespace is trimmed.
func DecodeName(b []byte) string {
	if n := bytes.IndexByte(b, 0); n >= 0 {
		b = b[:n]
	}
	return strings.TrimRight(string(b), " \t\r\n")
}

// noEOF turns a clean EOF inside a fixed-size field into io.ErrUnexpectedEOF.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
