package config

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestLoadAppliesDefaultsWithoutFile(t *testing.T) {
	v := viper.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(v, flags); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BlockSize != Default().BlockSize {
		t.Fatalf("BlockSize = %d, want default %d", cfg.BlockSize, Default().BlockSize)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadHonorsParsedFlag(t *testing.T) {
	v := viper.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(v, flags); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flags.Parse([]string{"--chunk-size=128"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChunkSize != 128 {
		t.Fatalf("ChunkSize = %d, want 128", cfg.ChunkSize)
	}
}

func TestRenderYAMLIncludesBlockSizeKey(t *testing.T) {
	cfg := Default()
	out, err := cfg.RenderYAML()
	if err != nil {
		t.Fatalf("RenderYAML: %v", err)
	}
	if !strings.Contains(out, "block-size") {
		t.Fatalf("RenderYAML() = %q, missing block-size key", out)
	}
}
