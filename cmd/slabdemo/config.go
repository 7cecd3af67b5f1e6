package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := loadedConfig.RenderYAML()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}
