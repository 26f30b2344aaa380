package pakfs

import (
	"context"
	"io"

	"github.com/meigma/pakfs/internal/batch"
)

// CopyStats summarizes an extraction.
type CopyStats = batch.Stats

// CopyTo extracts the named entries below destDir, creating parent
// directories as needed. Each file is written to a temporary file and renamed
// into place.
//
// By default:
//   - Existing files are skipped (use CopyWithOverwrite to overwrite)
//   - Entries are extracted by GOMAXPROCS workers (use CopyWithWorkers to change)
//
// A name that is not in the archive fails with fs.ErrNotExist before
// anything is written. A name that is absolute or contains ".." elements
// fails with fs.ErrInvalid.
func (a *Archive) CopyTo(ctx context.Context, destDir string, names []string, opts ...CopyOption) (CopyStats, error) {
	if len(names) == 0 {
		return CopyStats{}, nil
	}
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		e, err := a.lookup("extract", name)
		if err != nil {
			return CopyStats{}, err
		}
		entries = append(entries, e)
	}
	return a.copyEntries(ctx, destDir, entries, opts)
}

// CopyAll extracts every entry below destDir. See CopyTo.
func (a *Archive) CopyAll(ctx context.Context, destDir string, opts ...CopyOption) (CopyStats, error) {
	entries, err := a.Entries()
	if err != nil {
		return CopyStats{}, err
	}
	return a.copyEntries(ctx, destDir, entries, opts)
}

func (a *Archive) copyEntries(ctx context.Context, destDir string, entries []Entry, opts []CopyOption) (CopyStats, error) {
	cfg := copyConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.dest == nil {
		cfg.dest = a.cfg.fs
	}

	sink := batch.NewFileSink(destDir,
		batch.WithFs(cfg.dest),
		batch.WithOverwrite(cfg.overwrite),
	)
	// Validate every target before the first write.
	for _, e := range entries {
		if _, err := sink.Target(e.Name); err != nil {
			return CopyStats{}, err
		}
	}

	proc := batch.NewProcessor(
		func(e Entry) (io.ReadCloser, error) { return a.OpenEntry(e) },
		batch.WithWorkers(cfg.workers),
		batch.WithLogger(a.cfg.log()),
	)
	return proc.Process(ctx, entries, sink)
}
