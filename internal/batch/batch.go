// Package batch copies many archive entries to a sink, optionally in parallel.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/pakfs/internal/paktype"
)

// Entry is an alias for paktype.Entry.
type Entry = paktype.Entry

// OpenFunc opens an independent reader over one entry's bytes.
type OpenFunc func(Entry) (io.ReadCloser, error)

// Sink receives entry content.
type Sink interface {
	// ShouldProcess reports whether the entry needs to be written.
	ShouldProcess(e Entry) (bool, error)

	// Writer returns a destination for the entry's bytes.
	Writer(e Entry) (Committer, error)
}

// Committer is a pending write that becomes visible on Commit.
type Committer interface {
	io.Writer
	Commit() error
	Discard() error
}

// Stats summarizes a Process call.
type Stats struct {
	FileCount  int
	TotalBytes int64
	Skipped    int
}

// Processor copies entries from an archive to a Sink.
type Processor struct {
	open    OpenFunc
	workers int // 0 = GOMAXPROCS, <0 = serial, >0 = fixed count
	logger  *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of entries copied concurrently.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithLogger sets the logger for per-entry debug events.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor returns a Processor that reads entries through open.
func NewProcessor(open OpenFunc, opts ...ProcessorOption) *Processor {
	p := &Processor{open: open}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Process copies every entry the sink accepts. It stops at the first error
// or when ctx is canceled; entries already committed stay in place.
func (p *Processor) Process(ctx context.Context, entries []Entry, sink Sink) (Stats, error) {
	var (
		files   atomic.Int64
		bytes   atomic.Int64
		skipped atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workerCount(len(entries)))

	for _, e := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ok, err := sink.ShouldProcess(e)
			if err != nil {
				return err
			}
			if !ok {
				p.logger.Debug("skip existing entry", "entry", e.Name)
				skipped.Add(1)
				return nil
			}
			n, err := p.copyEntry(e, sink)
			if err != nil {
				return err
			}
			p.logger.Debug("copied entry", "entry", e.Name, "bytes", n)
			files.Add(1)
			bytes.Add(n)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return Stats{
		FileCount:  int(files.Load()),
		TotalBytes: bytes.Load(),
		Skipped:    int(skipped.Load()),
	}, err
}

func (p *Processor) copyEntry(e Entry, sink Sink) (int64, error) {
	src, err := p.open(e)
	if err != nil {
		return 0, fmt.Errorf("batch: open %s: %w", e.Name, err)
	}
	defer src.Close()

	w, err := sink.Writer(e)
	if err != nil {
		return 0, fmt.Errorf("batch: %s: %w", e.Name, err)
	}
	n, err := io.Copy(w, src)
	if err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return n, fmt.Errorf("batch: copy %s: %w", e.Name, err)
	}
	if n != int64(e.Size) {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return n, fmt.Errorf("batch: copy %s: %d of %d bytes: %w", e.Name, n, e.Size, io.ErrUnexpectedEOF)
	}
	if err := w.Commit(); err != nil {
		return n, fmt.Errorf("batch: %s: %w", e.Name, err)
	}
	return n, nil
}

// workerCount determines the number of workers to use for processing.
func (p *Processor) workerCount(n int) int {
	if n < 2 || p.workers < 0 {
		return 1
	}
	workers := p.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		return 1
	}
	return workers
}
