package kcal

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/service"
)

var coachCmd = &cobra.Command{
	Use:   "coach",
	Short: "AI meal plans and progress analysis (needs an OpenAI key)",
}

var (
	coachWeekday   string
	coachWeekend   string
	coachDiet      string
	coachAllergies string
	coachJSON      bool
)

var coachPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a weekday and weekend nutrition plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		opts := service.PlanOptions{
			WeekdayActivity:    coachWeekday,
			WeekendActivity:    coachWeekend,
			DietaryPreferences: splitList(coachDiet),
			FoodAllergies:      splitList(coachAllergies),
		}
		return withDB(func(sqldb *sql.DB) error {
			coach := &service.Coach{Client: openAIClient()}
			plan, err := coach.GeneratePlan(ctx, sqldb, opts)
			if err != nil {
				return err
			}
			if coachJSON {
				return printJSON(cmd, plan)
			}
			printDayPlan(cmd, "Weekdays", plan.WeekdayPlan)
			printDayPlan(cmd, "Weekends", plan.WeekendPlan)
			if len(plan.Tips) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Tips:")
				for _, tip := range plan.Tips {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", tip)
				}
			}
			return nil
		})
	},
}

func printDayPlan(cmd *cobra.Command, title string, p service.DayPlan) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d kcal | P %dg | C %dg | F %dg\n", title, p.Calories.Int(), p.Protein.Int(), p.Carbs.Int(), p.Fat.Int())
	for _, m := range p.Meals {
		fmt.Fprintf(out, "  %s (%d kcal): %s\n", m.Name, m.Macros.Kcal.Int(), strings.Join(m.Foods, ", "))
	}
}

var coachProgressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Analyze recent entries against your goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return withDB(func(sqldb *sql.DB) error {
			coach := &service.Coach{Client: openAIClient()}
			a, err := coach.AnalyzeProgress(ctx, sqldb)
			if err != nil {
				return err
			}
			if coachJSON {
				return printJSON(cmd, a)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.AnalysisTitle)
			fmt.Fprintln(out, a.Summary)
			fmt.Fprintf(out, "Alignment with goals: %s\n", a.AlignmentWithGoals)
			fmt.Fprintf(out, "Nutritional balance: %s\n", a.NutritionalBalance)
			printList(cmd, "Dietary", a.Recommendations.Dietary)
			printList(cmd, "Activity", a.Recommendations.Activity)
			fmt.Fprintf(out, "Suggested macros: P %dg | C %dg | F %dg\n",
				a.SuggestedMacros.Protein.Int(), a.SuggestedMacros.Carbs.Int(), a.SuggestedMacros.Fat.Int())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(coachCmd)
	coachCmd.AddCommand(coachPlanCmd, coachProgressCmd)

	coachPlanCmd.Flags().StringVar(&coachWeekday, "weekday-activity", "", "Typical weekday activity")
	coachPlanCmd.Flags().StringVar(&coachWeekend, "weekend-activity", "", "Typical weekend activity")
	coachPlanCmd.Flags().StringVar(&coachDiet, "diet", "", "Comma-separated dietary preferences")
	coachPlanCmd.Flags().StringVar(&coachAllergies, "allergies", "", "Comma-separated food allergies")
	coachPlanCmd.Flags().BoolVar(&coachJSON, "json", false, "Print the plan as JSON")
	coachProgressCmd.Flags().BoolVar(&coachJSON, "json", false, "Print the analysis as JSON")
}
