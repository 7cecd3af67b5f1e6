package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every demonstration in sequence",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runUsageDemo(); err != nil {
			return err
		}
		fmt.Println("\n" + strings.Repeat("=", 60) + "\n")

		out, err := loadedConfig.RenderYAML()
		if err != nil {
			return err
		}
		fmt.Print(out)
		fmt.Println("\n" + strings.Repeat("=", 60) + "\n")

		return runMonitorDemo()
	},
}
