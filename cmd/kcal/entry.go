package kcal

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/catalog"
	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/service"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Manage food entries",
}

var (
	entryDescription string
	entryKcal        float64
	entryProtein     float64
	entryCarbs       float64
	entryFat         float64
	entryMeal        string
	entryDate        string
	entryTime        string
)

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an entry with explicit macros",
	RunE: func(cmd *cobra.Command, args []string) error {
		consumed, err := parseDateTimeOrNow(entryDate, entryTime)
		if err != nil {
			return err
		}
		in := service.CreateEntryInput{
			Description: entryDescription,
			Macros:      model.Macros{Kcal: entryKcal, ProteinG: entryProtein, CarbG: entryCarbs, FatG: entryFat},
			Source:      model.SourceManual,
			Meal:        entryMeal,
			Consumed:    consumed,
		}
		return withDB(func(sqldb *sql.DB) error {
			e, err := service.CreateEntry(sqldb, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added entry %d\n", e.ID)
			return nil
		})
	},
}

var (
	quickKcal    float64
	quickPortion string
)

var entryQuickCmd = &cobra.Command{
	Use:   "quick <description>",
	Short: "Quick-add an estimate from a description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		consumed, err := parseDateTimeOrNow(entryDate, entryTime)
		if err != nil {
			return err
		}
		in := service.QuickAddInput{
			Description: strings.Join(args, " "),
			Kcal:        quickKcal,
			Portion:     quickPortion,
			Meal:        entryMeal,
			Consumed:    consumed,
		}
		return withDB(func(sqldb *sql.DB) error {
			e, err := service.QuickAdd(sqldb, in)
			if err != nil {
				return err
			}
			printAdded(cmd, e)
			return nil
		})
	},
}

var entryCommonCmd = &cobra.Command{
	Use:   "common <meal-type> [name]",
	Short: "List common meals for a meal type, or log one by name",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mealType := strings.ToLower(args[0])
		if !catalog.IsMealType(mealType) {
			return fmt.Errorf("meal type must be one of %s", strings.Join(catalog.MealTypes, ", "))
		}
		if len(args) == 1 {
			fmt.Fprintln(cmd.OutOrStdout(), "NAME\tKCAL\tP\tC\tF")
			for _, m := range catalog.CommonMeals(mealType) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.0f\t%.1f\t%.1f\t%.1f\n", m.Name, m.Macros.Kcal, m.Macros.ProteinG, m.Macros.CarbG, m.Macros.FatG)
			}
			return nil
		}
		consumed, err := parseDateTimeOrNow(entryDate, entryTime)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			e, err := service.AddCommonMeal(sqldb, mealType, args[1], consumed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added entry %d: %s (%.0f kcal)\n", e.ID, e.Description, e.Macros.Kcal)
			return nil
		})
	},
}

var (
	listDate     string
	listFromDate string
	listToDate   string
	listMeal     string
	listLimit    int
	listJSON     bool
)

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := service.ListEntriesFilter{
			Date:     listDate,
			FromDate: listFromDate,
			ToDate:   listToDate,
			Meal:     listMeal,
			Limit:    listLimit,
		}
		return withDB(func(sqldb *sql.DB) error {
			entries, err := service.ListEntries(sqldb, filter)
			if err != nil {
				return err
			}
			if listJSON {
				return printJSON(cmd, entries)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tDATE\tMEAL\tDESCRIPTION\tKCAL\tP\tC\tF\tSOURCE")
			for _, e := range entries {
				printEntryRow(cmd, e)
			}
			return nil
		})
	},
}

func printEntryRow(cmd *cobra.Command, e model.FoodEntry) {
	meal := e.Meal
	if meal == "" {
		meal = "-"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%.0f\t%.1f\t%.1f\t%.1f\t%s\n",
		e.ID, formatEntryTime(e.ConsumedAt), meal, e.Description, e.Macros.Kcal, e.Macros.ProteinG, e.Macros.CarbG, e.Macros.FatG, e.Source)
}

var entryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			e, err := service.EntryByID(sqldb, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID: %d\n", e.ID)
			fmt.Fprintf(out, "Date: %s\n", formatEntryTime(e.ConsumedAt))
			fmt.Fprintf(out, "Description: %s\n", e.Description)
			fmt.Fprintf(out, "Calories: %.0f\n", e.Macros.Kcal)
			fmt.Fprintf(out, "Protein: %.1f\nCarbs: %.1f\nFat: %.1f\n", e.Macros.ProteinG, e.Macros.CarbG, e.Macros.FatG)
			fmt.Fprintf(out, "Source: %s\n", e.Source)
			if e.Meal != "" {
				fmt.Fprintf(out, "Meal: %s\n", e.Meal)
			}
			if e.ImageRef != "" {
				fmt.Fprintf(out, "Image: %s\n", e.ImageRef)
			}
			return nil
		})
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("entry id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteEntry(sqldb, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %d\n", id)
			return nil
		})
	},
}

func addWhenFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&entryMeal, "meal", "", "Meal type: breakfast, lunch, dinner or snack")
	cmd.Flags().StringVar(&entryDate, "date", "", "Date in YYYY-MM-DD")
	cmd.Flags().StringVar(&entryTime, "time", "", "Time in HH:MM")
}

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entryAddCmd, entryQuickCmd, entryCommonCmd, entryListCmd, entryShowCmd, entryDeleteCmd)

	entryAddCmd.Flags().StringVar(&entryDescription, "description", "", "What you ate")
	entryAddCmd.Flags().Float64Var(&entryKcal, "kcal", 0, "Calories")
	entryAddCmd.Flags().Float64Var(&entryProtein, "protein", 0, "Protein grams")
	entryAddCmd.Flags().Float64Var(&entryCarbs, "carbs", 0, "Carb grams")
	entryAddCmd.Flags().Float64Var(&entryFat, "fat", 0, "Fat grams")
	addWhenFlags(entryAddCmd)
	_ = entryAddCmd.MarkFlagRequired("description")

	entryQuickCmd.Flags().Float64Var(&quickKcal, "kcal", 0, "Known calories; estimated from the description when omitted")
	entryQuickCmd.Flags().StringVar(&quickPortion, "portion", "normal", "Portion: small, normal or large")
	addWhenFlags(entryQuickCmd)

	entryCommonCmd.Flags().StringVar(&entryDate, "date", "", "Date in YYYY-MM-DD")
	entryCommonCmd.Flags().StringVar(&entryTime, "time", "", "Time in HH:MM")

	entryListCmd.Flags().StringVar(&listDate, "date", "", "Filter by date YYYY-MM-DD")
	entryListCmd.Flags().StringVar(&listFromDate, "from", "", "Filter from date YYYY-MM-DD")
	entryListCmd.Flags().StringVar(&listToDate, "to", "", "Filter to date YYYY-MM-DD")
	entryListCmd.Flags().StringVar(&listMeal, "meal", "", "Filter by meal type")
	entryListCmd.Flags().IntVar(&listLimit, "limit", 50, "Result limit")
	entryListCmd.Flags().BoolVar(&listJSON, "json", false, "Print entries as JSON")
}
