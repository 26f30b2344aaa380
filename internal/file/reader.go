package file

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/meigma/pakfs/internal/paktype"
)

// DefaultBufferSize is the size of the read-ahead buffer used by a Reader.
const DefaultBufferSize = 8 << 10

// Handle is the container file a Reader reads from. The Reader owns the
// handle and closes it on Close.
type Handle interface {
	io.ReaderAt
	io.Closer
}

// Reader is a seekable, read-only view of one entry's byte range.
//
// All positions are relative to the start of the entry. Reads are served
// from a fixed-size buffer that is refilled from the container one chunk at
// a time with positioned reads, so the handle carries no shared cursor.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	h     Handle
	entry Entry
	name  string // reported by Stat
	base  int64
	size  int64

	pos    int64  // cursor, in [0, size]
	buf    []byte // read-ahead storage
	data   []byte // valid window of buf
	bufPos int64  // entry position of data[0]

	closed bool
}

// Interface compliance.
var (
	_ fs.File     = (*Reader)(nil)
	_ io.Seeker   = (*Reader)(nil)
	_ io.ReaderAt = (*Reader)(nil)
	_ io.Writer   = (*Reader)(nil)
)

// NewReader returns a Reader over entry e of the container behind h.
// A bufSize <= 0 selects DefaultBufferSize.
func NewReader(h Handle, e Entry, bufSize int) *Reader {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Reader{
		h:     h,
		entry: e,
		name:  e.Name,
		base:  int64(e.Offset),
		size:  int64(e.Size),
		buf:   make([]byte, bufSize),
	}
}

// Entry returns the descriptor the reader is bounded to.
func (r *Reader) Entry() Entry {
	return r.entry
}

// SetName changes the name Stat reports. It does not affect which entry
// is read.
func (r *Reader) SetName(name string) {
	r.name = name
}

// Size returns the entry size. It stays valid after Close.
func (r *Reader) Size() int64 {
	return r.size
}

// Position returns the cursor relative to the start of the entry. It stays
// valid after Close.
func (r *Reader) Position() int64 {
	return r.pos
}

// Read implements io.Reader. It never advances past the end of the entry and
// returns io.EOF once the cursor reaches it.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	remaining := r.size - r.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	if !r.buffered(r.pos) {
		if err := r.fill(remaining); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.data[r.pos-r.bufPos:])
	r.pos += int64(n)
	return n, nil
}

// buffered reports whether pos falls inside the valid buffer window.
func (r *Reader) buffered(pos int64) bool {
	return pos >= r.bufPos && pos < r.bufPos+int64(len(r.data))
}

// fill loads the next chunk starting at the cursor.
func (r *Reader) fill(remaining int64) error {
	chunk := int64(len(r.buf))
	if remaining < chunk {
		chunk = remaining
	}
	n, err := r.h.ReadAt(r.buf[:chunk], r.base+r.pos)
	if int64(n) < chunk {
		r.data = nil
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("read %s at %d: %w", r.entry.Name, r.pos, err)
	}
	r.data = r.buf[:n]
	r.bufPos = r.pos
	return nil
}

// Seek implements io.Seeker. Offsets are relative to the entry, and the
// resulting position must lie in [0, Size()].
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if r.closed {
		return 0, ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = r.size + offset
	default:
		return r.pos, fmt.Errorf("seek %s: whence %d: %w", r.entry.Name, whence, ErrInvalidOffset)
	}
	if err := r.SetPosition(abs); err != nil {
		return r.pos, err
	}
	return r.pos, nil
}

// SetPosition moves the cursor to pos. On error the cursor is unchanged.
func (r *Reader) SetPosition(pos int64) error {
	if r.closed {
		return ErrClosed
	}
	if pos < 0 || pos > r.size {
		return fmt.Errorf("seek %s to %d (size %d): %w", r.entry.Name, pos, r.size, ErrInvalidOffset)
	}
	r.pos = pos
	return nil
}

// ReadAt implements io.ReaderAt over the entry. It does not move the cursor
// or touch the read-ahead buffer.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("read %s at %d: %w", r.entry.Name, off, ErrInvalidOffset)
	}
	if off >= r.size {
		return 0, io.EOF
	}
	want := len(p)
	if remaining := r.size - off; remaining < int64(want) {
		want = int(remaining)
	}
	n, err := r.h.ReadAt(p[:want], r.base+off)
	if n < want {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return n, fmt.Errorf("read %s at %d: %w", r.entry.Name, off, err)
	}
	if want < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Write always fails: entries are read-only. After Close it reports
// ErrClosed instead.
func (r *Reader) Write([]byte) (int, error) {
	return 0, r.readOnly()
}

// WriteAt always fails like Write.
func (r *Reader) WriteAt([]byte, int64) (int, error) {
	return 0, r.readOnly()
}

// Truncate always fails like Write.
func (r *Reader) Truncate(int64) error {
	return r.readOnly()
}

func (r *Reader) readOnly() error {
	if r.closed {
		return ErrClosed
	}
	return ErrReadOnly
}

// Stat returns file info for the entry.
func (r *Reader) Stat() (fs.FileInfo, error) {
	if r.closed {
		return nil, ErrClosed
	}
	return NewInfoAs(r.entry, r.name), nil
}

// Close releases the container handle. Every later call fails with ErrClosed.
func (r *Reader) Close() error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	r.buf = nil
	r.data = nil
	return r.h.Close()
}

// Re-exported so callers of this package need not import paktype.
type Entry = paktype.Entry

var (
	ErrClosed        = paktype.ErrClosed
	ErrInvalidOffset = paktype.ErrInvalidOffset
	ErrReadOnly      = paktype.ErrReadOnly
)
