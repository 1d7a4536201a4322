package kcal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect kcal configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := conf.Redacted()
		if path, err := resolveDBPath(); err == nil {
			shown.DBPath = path
		}
		return printJSON(cmd, shown)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), conf.Path)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configPathCmd)
}
