package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/pakfs"
)

var statCmd = &cobra.Command{
	Use:   "stat <archive>[!<entry>] | <archive> <entry>",
	Short: "Show details of an archive or entry",
	Long: `Stat prints the table record of an entry, or a summary of the archive
when no entry is named.

Examples:
  pakfs stat id1/pak0.pak
  pakfs stat id1/pak0.pak!maps/e1m1.bsp`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runStat,
}

func init() {
	rootCmd.AddCommand(statCmd)
}

func runStat(cmd *cobra.Command, args []string) error {
	reg := newRegistry()
	defer reg.Close()

	a, name, err := reg.Resolve(args[0])
	if err != nil {
		return err
	}
	if len(args) == 2 {
		name = args[1]
	}

	if name == "" {
		return printArchiveStat(cmd.OutOrStdout(), a)
	}
	e, err := a.Entry(name)
	if err != nil {
		return err
	}
	printEntryStat(cmd.OutOrStdout(), e)
	return nil
}

func printArchiveStat(w io.Writer, a *pakfs.Archive) error {
	entries, err := a.Entries()
	if err != nil {
		return err
	}
	var total uint64
	for _, e := range entries {
		total += uint64(e.Size)
	}
	fmt.Fprintf(w, "Archive: %s\n", a.Path())
	fmt.Fprintf(w, "Entries: %d\n", len(entries))
	fmt.Fprintf(w, "Content: %s (%d bytes)\n", humanize.IBytes(total), total)
	return nil
}

func printEntryStat(w io.Writer, e pakfs.Entry) {
	fmt.Fprintf(w, "  Name: %s\n", e.Name)
	fmt.Fprintf(w, "  Size: %s (%d bytes)\n", humanize.IBytes(uint64(e.Size)), e.Size)
	fmt.Fprintf(w, "Offset: %d\n", e.Offset)
	fmt.Fprintf(w, "   End: %d\n", e.End())
}
