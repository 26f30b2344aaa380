package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileSink writes entries below a destination directory with atomic writes.
//
// Each entry is written to a temporary file next to its final path and
// renamed into place on Commit, so partially written files are never
// visible at the final path.
type FileSink struct {
	fs        afero.Fs
	destDir   string
	overwrite bool
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithFs sets the destination filesystem. The default is the OS filesystem.
func WithFs(fsys afero.Fs) FileSinkOption {
	return func(s *FileSink) {
		s.fs = fsys
	}
}

// NewFileSink creates a FileSink that writes to destDir.
func NewFileSink(destDir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{destDir: destDir}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	return s
}

// Target returns the destination path for an entry name. Names that are
// absolute or would escape the destination are rejected with fs.ErrInvalid.
func (s *FileSink) Target(name string) (string, error) {
	if !fs.ValidPath(name) || name == "." {
		return "", &fs.PathError{Op: "extract", Path: name, Err: fs.ErrInvalid}
	}
	return filepath.Join(s.destDir, filepath.FromSlash(name)), nil
}

// ShouldProcess returns false if the file already exists and overwrite is disabled.
func (s *FileSink) ShouldProcess(e Entry) (bool, error) {
	dest, err := s.Target(e.Name)
	if err != nil {
		return false, err
	}
	if s.overwrite {
		return true, nil
	}
	_, err = s.fs.Stat(dest)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	return false, nil
}

// Writer returns a Committer that writes to a temp file and renames on Commit.
func (s *FileSink) Writer(e Entry) (Committer, error) {
	dest, err := s.Target(e.Name)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(dest)
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".pakfs-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &fileCommitter{fs: s.fs, dest: dest, tmp: tmp, overwrite: s.overwrite}, nil
}

// fileCommitter writes to a temp file and renames on Commit.
type fileCommitter struct {
	fs        afero.Fs
	dest      string
	tmp       afero.File
	overwrite bool
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tmp.Write(p)
}

// Commit closes the temp file and renames it to the final path.
func (c *fileCommitter) Commit() error {
	tmpPath := c.tmp.Name()
	if err := c.tmp.Close(); err != nil {
		_ = c.fs.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}

	if c.overwrite {
		if info, err := c.fs.Stat(c.dest); err == nil && info.IsDir() {
			_ = c.fs.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
			return &fs.PathError{Op: "extract", Path: c.dest, Err: errors.New("is a directory")}
		}
	}

	if err := c.fs.Rename(tmpPath, c.dest); err != nil {
		_ = c.fs.Remove(tmpPath) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.dest, err)
	}
	return nil
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	_ = c.tmp.Close() //nolint:errcheck // we're cleaning up
	return c.fs.Remove(c.tmp.Name())
}
