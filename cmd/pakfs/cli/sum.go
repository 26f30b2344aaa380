package cli

import (
	"fmt"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
)

var sumAlgorithm string

var sumCmd = &cobra.Command{
	Use:   "sum <archive> [entry...]",
	Short: "Print content digests of entries",
	Long: `Sum prints the digest of each named entry, or of every entry when none
is named, in the form "<algorithm>:<hex>  <name>".

Examples:
  pakfs sum id1/pak0.pak
  pakfs sum --algorithm sha512 id1/pak0.pak progs.dat`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSum,
}

func init() {
	sumCmd.Flags().StringVarP(&sumAlgorithm, "algorithm", "a", string(digest.Canonical), "Digest algorithm (sha256, sha384, sha512)")
	rootCmd.AddCommand(sumCmd)
}

func runSum(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	alg := digest.Algorithm(sumAlgorithm)
	if !alg.Available() {
		return fmt.Errorf("unsupported algorithm %q: %w", sumAlgorithm, digest.ErrDigestUnsupported)
	}

	reg := newRegistry()
	defer reg.Close()

	a, err := reg.OpenOrGet(args[0])
	if err != nil {
		return err
	}
	names := args[1:]
	if len(names) == 0 {
		idx, err := a.Index()
		if err != nil {
			return err
		}
		names = idx.Names()
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		d, err := a.Digest(name, alg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", d, name)
	}
	return nil
}
