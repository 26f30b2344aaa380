package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/pakfs"
)

var (
	listLong  bool
	listHuman bool
)

var listCmd = &cobra.Command{
	Use:     "ls <archive>",
	Aliases: []string{"list"},
	Short:   "List the entries of an archive",
	Long: `Ls prints every entry of an archive in table order.

Examples:
  pakfs ls id1/pak0.pak
  pakfs ls -l id1/pak0.pak
  pakfs ls -lH id1/pak0.pak`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listLong, "long", "l", false, "Use long listing format")
	listCmd.Flags().BoolVarP(&listHuman, "human-readable", "H", false, "Print sizes in human-readable format")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	reg := newRegistry()
	defer reg.Close()

	a, err := reg.OpenOrGet(args[0])
	if err != nil {
		return err
	}
	entries, err := a.Entries()
	if err != nil {
		return err
	}

	if listLong {
		printLongListing(cmd.OutOrStdout(), entries, listHuman)
	} else {
		printShortListing(cmd.OutOrStdout(), entries)
	}
	return nil
}

// printShortListing prints just the entry names.
func printShortListing(w io.Writer, entries []pakfs.Entry) {
	for _, e := range entries {
		fmt.Fprintln(w, e.Name)
	}
}

// printLongListing prints size, offset, and name in aligned columns.
func printLongListing(w io.Writer, entries []pakfs.Entry, human bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", formatSize(uint64(e.Size), human), e.Offset, e.Name)
	}
	tw.Flush()
}

// formatSize formats a byte count for display.
func formatSize(n uint64, human bool) string {
	if human {
		return humanize.IBytes(n)
	}
	return strconv.FormatUint(n, 10)
}
