// Command pakfs lists, reads, and extracts the entries of PAK archives.
package main

import (
	"os"

	"github.com/meigma/pakfs/cmd/pakfs/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
