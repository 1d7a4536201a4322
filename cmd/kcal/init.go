package kcal

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/service"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize local kcal database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			first, err := service.MarkLaunched(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized kcal database at %s\n", path)
			if first {
				fmt.Fprintln(cmd.OutOrStdout(), "Welcome! Next: `kcal profile set` and `kcal goal calc`.")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
