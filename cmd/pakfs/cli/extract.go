package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/pakfs"
)

var extractCmd = &cobra.Command{
	Use:   "extract <archive> <dest> [entry...]",
	Short: "Extract entries to a directory",
	Long: `Extract writes entries below a destination directory, creating
subdirectories from the '/' separated parts of entry names.

Every file is written atomically. Existing files are skipped unless
--overwrite is set. Entry names that are absolute or contain ".." are
refused.

Examples:
  pakfs extract id1/pak0.pak ./out
  pakfs extract --overwrite id1/pak0.pak ./out maps/e1m1.bsp`,
	Args: cobra.MinimumNArgs(2),
	RunE: runExtract,
}

func init() {
	flags := extractCmd.Flags()
	flags.Bool("overwrite", false, "Overwrite existing files")
	flags.Int("workers", 0, "Entries extracted concurrently (0 = one per CPU, -1 = serial)")
	for key, name := range map[string]string{
		"extract.overwrite": "overwrite",
		"extract.workers":   "workers",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	reg := newRegistry()
	defer reg.Close()

	a, err := reg.OpenOrGet(args[0])
	if err != nil {
		return err
	}
	dest := args[1]
	opts := []pakfs.CopyOption{
		pakfs.CopyWithOverwrite(cfg.Extract.Overwrite),
		pakfs.CopyWithWorkers(cfg.Extract.Workers),
	}

	var stats pakfs.CopyStats
	if names := args[2:]; len(names) > 0 {
		stats, err = a.CopyTo(ctx, dest, names, opts...)
	} else {
		stats, err = a.CopyAll(ctx, dest, opts...)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d files (%s) to %s",
		stats.FileCount, humanize.IBytes(uint64(stats.TotalBytes)), dest) //nolint:gosec // byte counts are non-negative
	if stats.Skipped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", skipped %d existing", stats.Skipped)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
