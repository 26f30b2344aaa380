package pakfs

import (
	"archive/tar"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/meigma/pakfs/internal/file"
)

// WriteTar streams every entry, in table order, to w as a tar archive of
// read-only regular files. With ExportWithZstd the stream is compressed.
func (a *Archive) WriteTar(w io.Writer, opts ...ExportOption) (err error) {
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	entries, err := a.Entries()
	if err != nil {
		return err
	}

	if cfg.zstd {
		level := zstd.SpeedDefault
		if cfg.level != 0 {
			level = zstd.EncoderLevelFromZstd(cfg.level)
		}
		enc, encErr := zstd.NewWriter(w, zstd.WithEncoderLevel(level))
		if encErr != nil {
			return fmt.Errorf("create zstd encoder: %w", encErr)
		}
		defer func() {
			if cerr := enc.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close zstd encoder: %w", cerr)
			}
		}()
		w = enc
	}

	tw := tar.NewWriter(w)
	for _, e := range entries {
		if err := a.writeTarEntry(tw, e); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	return nil
}

func (a *Archive) writeTarEntry(tw *tar.Writer, e Entry) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     e.Name,
		Mode:     int64(file.EntryMode),
		Size:     int64(e.Size),
		ModTime:  time.Unix(0, 0),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("tar header %s: %w", e.Name, err)
	}

	r, err := a.OpenEntry(e)
	if err != nil {
		return err
	}
	defer r.Close()

	if _, err := io.Copy(tw, r); err != nil {
		return fmt.Errorf("tar %s: %w", e.Name, err)
	}
	a.cfg.log().Debug("exported entry", "entry", e.Name, "bytes", e.Size)
	return nil
}
