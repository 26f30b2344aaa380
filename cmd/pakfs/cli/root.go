// Package cli implements the pakfs command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/pakfs"
	"github.com/meigma/pakfs/cmd/pakfs/cli/config"
)

// Build information set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pakfs",
	Short: "Inspect and extract PAK archives",
	Long: `Pakfs reads PAK archives in place.

It lists entries, streams single entries to stdout, computes digests,
and extracts or re-packages whole archives without unpacking them first.

Entries are addressed as <archive>!<entry>, optionally with a pak: prefix:
  pakfs cat id1/pak0.pak!default.cfg
  pakfs cat pak:id1/pak0.pak!gfx/palette.lmp`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/pakfs/config.yaml)")
	flags.BoolP("verbose", "v", false, "Enable verbose debug logging")
	flags.Bool("strict", false, "Reject tables whose length is not a multiple of 64")
	flags.Bool("reject-duplicates", false, "Reject archives that repeat an entry name")
	flags.Int("buffer-size", 8<<10, "Read buffer size per entry reader in bytes")

	for key, name := range map[string]string{
		"verbose":                   "verbose",
		"archive.strict":            "strict",
		"archive.reject-duplicates": "reject-duplicates",
		"archive.buffer-size":       "buffer-size",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
	}
	return err
}

// loadConfig reads .env, the config file, and PAKFS_* variables into cfg.
// Flags take precedence over the environment, which takes precedence over
// the file.
func loadConfig(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else if dir, err := config.Dir(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// archiveOptions converts the effective configuration to library options.
func archiveOptions() []pakfs.Option {
	opts := []pakfs.Option{
		pakfs.WithStrictTableLength(cfg.Archive.Strict),
		pakfs.WithBufferSize(cfg.Archive.BufferSize),
	}
	if cfg.Archive.RejectDuplicates {
		opts = append(opts, pakfs.WithDuplicates(pakfs.DuplicatesReject))
	}
	if cfg.Verbose {
		opts = append(opts, pakfs.WithLogger(
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
		))
	}
	return opts
}

// newRegistry creates the registry shared by one command invocation.
func newRegistry() *pakfs.Registry {
	return pakfs.NewRegistry(archiveOptions()...)
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// formatError converts pakfs errors to user-friendly messages.
func formatError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, pakfs.ErrBadMagic):
		return "Error: not a PAK archive (bad magic)"
	case errors.Is(err, pakfs.ErrDuplicateEntry):
		return fmt.Sprintf("Error: archive repeats an entry name: %v", err)
	case errors.Is(err, pakfs.ErrFormat):
		return fmt.Sprintf("Error: invalid or corrupt archive: %v", err)
	case errors.Is(err, pakfs.ErrDigestMismatch):
		return fmt.Sprintf("Error: digest mismatch: %v", err)
	case errors.Is(err, pakfs.ErrNotDir):
		return fmt.Sprintf("Error: not a directory: %v", err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("Error: not found: %v", err)
	case errors.Is(err, fs.ErrInvalid):
		return fmt.Sprintf("Error: invalid path: %v", err)
	case errors.Is(err, context.Canceled):
		return "Error: operation canceled"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
