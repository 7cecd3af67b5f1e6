package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zhnt/slabmem/internal/config"
)

var (
	cfgFile       string
	bindErr       error
	loadedConfig  config.Config
	configLoadErr error

	v = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "slabdemo",
	Short: "Exercise the fixed-chunk slab allocator",
	Long: `slabdemo builds a slab memory context from flags or a YAML
config file and runs it through a demonstration workload, reporting
block counts, free space, and cumulative allocation counters
afterward.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		return configLoadErr
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "path to a YAML config file")
	bindErr = config.BindFlags(v, rootCmd.PersistentFlags())

	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(allCmd)
}

func initConfig() {
	loadedConfig, configLoadErr = config.Load(v, cfgFile)
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(loadedConfig.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
