package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meigma/pakfs"
)

var (
	exportZstd  bool
	exportLevel int
)

var exportCmd = &cobra.Command{
	Use:   "export <archive> <out.tar|->",
	Short: "Re-package an archive as a tar stream",
	Long: `Export writes every entry of an archive, in table order, to a tar file.
Use "-" to write to stdout.

Examples:
  pakfs export id1/pak0.pak pak0.tar
  pakfs export --zstd id1/pak0.pak pak0.tar.zst
  pakfs export id1/pak0.pak - | tar -t`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportZstd, "zstd", false, "Compress the tar stream with zstd")
	exportCmd.Flags().IntVar(&exportLevel, "level", 0, "zstd compression level (1-22, 0 = default)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	reg := newRegistry()
	defer reg.Close()

	a, err := reg.OpenOrGet(args[0])
	if err != nil {
		return err
	}

	var opts []pakfs.ExportOption
	if exportZstd {
		opts = append(opts, pakfs.ExportWithZstd(exportLevel))
	}

	var w io.Writer = cmd.OutOrStdout()
	if out := args[1]; out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", out, cerr)
			}
		}()
		w = f
	}
	return a.WriteTar(w, opts...)
}
