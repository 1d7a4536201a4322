package kcal

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/service"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run data integrity checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			corrupt := "none"
			if len(report.CorruptState) > 0 {
				corrupt = strings.Join(report.CorruptState, ", ")
			}
			fmt.Fprintf(out, "Corrupt state records: %s\n", corrupt)
			fmt.Fprintf(out, "Entries with missing photos: %d\n", report.MissingImages)
			fmt.Fprintf(out, "Expired analysis cache rows: %d\n", report.ExpiredCacheRows)
			if doctorFix {
				fmt.Fprintf(out, "Dropped state records: %d\n", report.FixedStateRecords)
				fmt.Fprintf(out, "Cleared photo references: %d\n", report.ClearedImageRefs)
				fmt.Fprintf(out, "Purged cache rows: %d\n", report.PurgedCacheRows)
				report, err = service.RunDoctor(sqldb, false)
				if err != nil {
					return err
				}
			}
			if !report.Healthy() {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Attempt safe auto-fixes")
}
