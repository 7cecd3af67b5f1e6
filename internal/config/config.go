// Package config loads the slabdemo CLI's settings through Viper,
// following the same bind-flags-then-unmarshal flow
// gcsfuse's cmd/root.go uses: flags and an optional YAML file both feed
// one Viper instance, which is then unmarshalled into a plain struct.
package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds everything slabdemo needs to build a slab.Context and
// configure logging.
type Config struct {
	BlockSize uint   `mapstructure:"block-size" yaml:"block-size"`
	ChunkSize uint   `mapstructure:"chunk-size" yaml:"chunk-size"`
	LogLevel  string `mapstructure:"log-level" yaml:"log-level"`
	Debug     bool   `mapstructure:"debug" yaml:"debug"`
}

// Default returns the settings slabdemo starts with before flags or a
// config file are applied.
func Default() Config {
	return Config{
		BlockSize: 8192,
		ChunkSize: 64,
		LogLevel:  "info",
		Debug:     false,
	}
}

// BindFlags registers slabdemo's persistent flags against v, mirroring
// cfg.BindFlags in gcsfuse.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	d := Default()

	flags.Uint("block-size", d.BlockSize, "block size in bytes for the demo slab context")
	flags.Uint("chunk-size", d.ChunkSize, "chunk size in bytes for the demo slab context")
	flags.String("log-level", d.LogLevel, "zerolog level: debug, info, warn, error")
	flags.Bool("debug", d.Debug, "run the integrity check during demos (a no-op unless built with -tags slabdebug)")

	return v.BindPFlags(flags)
}

// Load reads an optional YAML file at path (if non-empty) into v, then
// unmarshals the merged flag/file/default view into a Config.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// RenderYAML renders cfg back to YAML, used by slabdemo's "config"
// subcommand to print the effective settings.
func (c Config) RenderYAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
