package kcal

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/service"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the photo analysis cache",
}

var cachePurgeAll bool

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cached analyses (or all with --all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			n, err := service.PurgeAnalysisCache(sqldb, cachePurgeAll)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d cached analyses\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cachePurgeCmd.Flags().BoolVar(&cachePurgeAll, "all", false, "Delete every cached analysis, not only expired ones")
}
