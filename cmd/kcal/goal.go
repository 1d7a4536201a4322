package kcal

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/service"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage daily calorie and macro goals",
}

var (
	goalProvider string
	goalJSON     bool
)

var goalCalcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate goals from the profile and store them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return withDB(func(sqldb *sql.DB) error {
			p, err := service.LoadProfile(sqldb)
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("no profile configured; run `kcal profile set` first")
			}
			calc, err := goalCalculator(goalProvider)
			if err != nil {
				return err
			}
			result, err := service.CalculateGoals(ctx, sqldb, calc, *p)
			if err != nil {
				return err
			}
			if goalJSON {
				return printJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source: %s (tried %s)\n", result.Source, strings.Join(result.Attempts, " -> "))
			fmt.Fprintf(out, "BMR: %.0f kcal\nMaintenance: %d kcal\nGoal: %d kcal\n", result.BMR, result.Maintenance, result.GoalCalories)
			fmt.Fprintf(out, "Protein: %dg (%d%%)\nCarbs: %dg (%d%%)\nFat: %dg (%d%%)\n",
				result.ProteinG, result.ProteinPercent, result.CarbG, result.CarbPercent, result.FatG, result.FatPercent)
			if result.MealsPerDay > 0 {
				fmt.Fprintf(out, "Meals/day: %d\n", result.MealsPerDay)
			}
			if result.FeedingWindow != "" {
				fmt.Fprintf(out, "Feeding window: %s\n", result.FeedingWindow)
			}
			printList(cmd, "Recommended foods", result.RecommendedFoods)
			printList(cmd, "Foods to avoid", result.FoodsToAvoid)
			printList(cmd, "Supplements", result.Supplements)
			for _, w := range result.Warnings {
				fmt.Fprintf(out, "Warning: %s\n", w)
			}
			return nil
		})
	},
}

func printList(cmd *cobra.Command, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", title, strings.Join(items, ", "))
}

var (
	goalKcal    int
	goalProtein int
	goalCarbs   int
	goalFat     int
)

var goalSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set daily goals manually",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := model.UserGoals{Kcal: goalKcal, ProteinG: goalProtein, CarbG: goalCarbs, FatG: goalFat}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.SaveManualGoals(sqldb, g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set goal %d kcal | P %dg | C %dg | F %dg\n", g.Kcal, g.ProteinG, g.CarbG, g.FatG)
			return nil
		})
	},
}

var goalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			g, err := service.LoadGoals(sqldb)
			if err != nil {
				return err
			}
			if g == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No goal configured")
				return nil
			}
			if goalJSON {
				return printJSON(cmd, g)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Goal: %d kcal | P %dg | C %dg | F %dg\n", g.Kcal, g.ProteinG, g.CarbG, g.FatG)
			return nil
		})
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past goal calculations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			records, err := service.ListCalculations(sqldb, historyLimit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No calculations yet")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DATE\tSOURCE\tBMR\tMAINT\tGOAL\tP\tC\tF")
			for _, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.0f\t%d\t%d\t%d\t%d\t%d\n",
					formatEntryTime(r.CalculatedAt), r.Source, r.BMR, r.Maintenance, r.GoalKcal, r.ProteinG, r.CarbG, r.FatG)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(goalCmd, historyCmd)
	goalCmd.AddCommand(goalCalcCmd, goalSetCmd, goalShowCmd)

	goalCalcCmd.Flags().StringVar(&goalProvider, "provider", "", "Provider to try first: openai, supabase, google_vision or local (default from config)")
	goalCalcCmd.Flags().BoolVar(&goalJSON, "json", false, "Print the result as JSON")
	goalShowCmd.Flags().BoolVar(&goalJSON, "json", false, "Print goals as JSON")

	goalSetCmd.Flags().IntVar(&goalKcal, "kcal", 0, "Daily kcal (>= 500)")
	goalSetCmd.Flags().IntVar(&goalProtein, "protein", 0, "Protein grams (>= 10)")
	goalSetCmd.Flags().IntVar(&goalCarbs, "carbs", 0, "Carb grams (>= 10)")
	goalSetCmd.Flags().IntVar(&goalFat, "fat", 0, "Fat grams (>= 5)")
	for _, name := range []string{"kcal", "protein", "carbs", "fat"} {
		_ = goalSetCmd.MarkFlagRequired(name)
	}

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum records (0 for all)")
}
