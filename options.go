package pakfs

import (
	"log/slog"

	"github.com/spf13/afero"

	"github.com/meigma/pakfs/internal/file"
)

// Option configures an Archive, a Registry, or a standalone entry reader.
type Option func(*config)

type config struct {
	fs          afero.Fs
	logger      *slog.Logger
	bufferSize  int
	duplicates  DuplicatePolicy
	strictTable bool
}

func newConfig(opts []Option) config {
	cfg := config{bufferSize: file.DefaultBufferSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.fs == nil {
		cfg.fs = afero.NewOsFs()
	}
	return cfg
}

// log returns the logger, falling back to a discard logger if nil.
func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// onOS reports whether containers live on the host filesystem.
func (c *config) onOS() bool {
	_, ok := c.fs.(*afero.OsFs)
	return ok
}

// WithLogger sets the logger for index builds, registry activity, and
// extraction. A nil logger discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithFs sets the filesystem containers are opened from (default: the OS
// filesystem). Tests typically pass afero.NewMemMapFs().
func WithFs(fsys afero.Fs) Option {
	return func(c *config) {
		c.fs = fsys
	}
}

// WithBufferSize sets the read-ahead buffer of every entry reader
// (default 8 KiB). Values <= 0 restore the default.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = file.DefaultBufferSize
		}
		c.bufferSize = n
	}
}

// WithDuplicates sets how repeated entry names are handled when the index is
// built. The default is DuplicatesLastWins.
func WithDuplicates(p DuplicatePolicy) Option {
	return func(c *config) {
		c.duplicates = p
	}
}

// WithStrictTableLength rejects containers whose table length is not a
// multiple of the 64-byte record size. By default the trailing partial
// record is ignored.
func WithStrictTableLength(strict bool) Option {
	return func(c *config) {
		c.strictTable = strict
	}
}

// CopyOption configures CopyTo and CopyAll.
type CopyOption func(*copyConfig)

type copyConfig struct {
	overwrite bool
	workers   int
	dest      afero.Fs
}

// CopyWithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func CopyWithOverwrite(overwrite bool) CopyOption {
	return func(c *copyConfig) {
		c.overwrite = overwrite
	}
}

// CopyWithWorkers sets how many entries are extracted concurrently.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func CopyWithWorkers(n int) CopyOption {
	return func(c *copyConfig) {
		c.workers = n
	}
}

// CopyWithFs sets the destination filesystem. The default is the
// filesystem the archive is read from.
func CopyWithFs(fsys afero.Fs) CopyOption {
	return func(c *copyConfig) {
		c.dest = fsys
	}
}

// ExportOption configures WriteTar.
type ExportOption func(*exportConfig)

type exportConfig struct {
	zstd  bool
	level int
}

// ExportWithZstd compresses the tar stream with zstd at the given level
// (1 fastest to 22 smallest; 0 selects the default level).
func ExportWithZstd(level int) ExportOption {
	return func(c *exportConfig) {
		c.zstd = true
		c.level = level
	}
}
