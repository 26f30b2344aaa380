package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by the CLI,
// e.g. PAKFS_ARCHIVE_STRICT.
const EnvPrefix = "PAKFS"

// Config represents the pakfs CLI configuration.
// Use mapstructure tags for Viper unmarshaling.
type Config struct {
	Verbose bool          `mapstructure:"verbose"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Extract ExtractConfig `mapstructure:"extract"`
}

// ArchiveConfig holds settings applied to every archive the CLI opens.
type ArchiveConfig struct {
	Strict           bool `mapstructure:"strict"`
	RejectDuplicates bool `mapstructure:"reject-duplicates"`
	BufferSize       int  `mapstructure:"buffer-size"`
}

// ExtractConfig holds extraction defaults.
type ExtractConfig struct {
	Workers   int  `mapstructure:"workers"`
	Overwrite bool `mapstructure:"overwrite"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Archive: ArchiveConfig{BufferSize: 8 << 10},
	}
}

// SetDefaults registers the values of Default with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("archive.strict", d.Archive.Strict)
	v.SetDefault("archive.reject-duplicates", d.Archive.RejectDuplicates)
	v.SetDefault("archive.buffer-size", d.Archive.BufferSize)
	v.SetDefault("extract.workers", d.Extract.Workers)
	v.SetDefault("extract.overwrite", d.Extract.Overwrite)
}

// BindEnv makes v read PAKFS_* environment variables. Dots and dashes in
// keys become underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load unmarshals the effective configuration from v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
