package cli

import (
	"io"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <archive>!<entry>... | <archive> <entry>...",
	Short: "Output entries to stdout",
	Long: `Cat streams one or more entries to stdout without extracting them.

Examples:
  pakfs cat id1/pak0.pak!default.cfg
  pakfs cat id1/pak0.pak default.cfg quake.rc
  pakfs cat pak:id1/pak0.pak!gfx/palette.lmp > palette.lmp`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCat,
}

func init() {
	rootCmd.AddCommand(catCmd)
}

func runCat(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	reg := newRegistry()
	defer reg.Close()

	refs, err := resolveEntries(reg, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := ref.archive.Entry(ref.name)
		if err != nil {
			return err
		}
		r, err := ref.archive.OpenEntry(e)
		if err != nil {
			return err
		}
		_, err = io.Copy(out, r)
		r.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
