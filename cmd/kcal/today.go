package kcal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/nutrition"
	"github.com/ChristopherCousin/Kcal/internal/service"
)

const barWidth = 20

var (
	todayDate string
	todayJSON bool
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show the day's intake, goal progress and coaching comment",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := time.Now()
		if todayDate != "" {
			parsed, err := service.ParseDate(todayDate)
			if err != nil {
				return err
			}
			target = parsed
		}
		return withDB(func(sqldb *sql.DB) error {
			s, err := service.Summary(sqldb, target)
			if err != nil {
				return err
			}
			if todayJSON {
				return printJSON(cmd, s)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Date: %s\n", s.Date)
			if s.Goals == nil {
				fmt.Fprintf(out, "Intake: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n", s.Totals.Kcal, s.Totals.ProteinG, s.Totals.CarbG, s.Totals.FatG)
				fmt.Fprintln(out, "Goal: not set")
			} else {
				fmt.Fprintf(out, "Calories %s %5.0f / %d kcal (%.0f%%)\n", nutrition.Bar(s.Progress.Kcal, barWidth), s.Totals.Kcal, s.Goals.Kcal, s.Progress.Kcal)
				fmt.Fprintf(out, "Protein  %s %5.1f / %d g (%.0f%%)\n", nutrition.Bar(s.Progress.Protein, barWidth), s.Totals.ProteinG, s.Goals.ProteinG, s.Progress.Protein)
				fmt.Fprintf(out, "Carbs    %s %5.1f / %d g (%.0f%%)\n", nutrition.Bar(s.Progress.Carb, barWidth), s.Totals.CarbG, s.Goals.CarbG, s.Progress.Carb)
				fmt.Fprintf(out, "Fat      %s %5.1f / %d g (%.0f%%)\n", nutrition.Bar(s.Progress.Fat, barWidth), s.Totals.FatG, s.Goals.FatG, s.Progress.Fat)
			}
			fmt.Fprintf(out, "Status: %s\n", s.Status)
			fmt.Fprintf(out, "Coach: %s\n", s.Comment)
			if len(s.Entries) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "ID\tDATE\tMEAL\tDESCRIPTION\tKCAL\tP\tC\tF\tSOURCE")
				for _, e := range s.Entries {
					printEntryRow(cmd, e)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(todayCmd)
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date YYYY-MM-DD (default today)")
	todayCmd.Flags().BoolVar(&todayJSON, "json", false, "Print the summary as JSON")
}
