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

var foodCmd = &cobra.Command{
	Use:   "food",
	Short: "Search foods and log them by weight",
}

var (
	foodLimit int
	foodJSON  bool
	foodPick  int
	foodGrams float64
	foodMeal  string
	foodLog   bool
)

var foodSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search Open Food Facts, falling back to the built-in catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		result, err := foodSearcher().Search(ctx, strings.Join(args, " "), foodLimit)
		if err != nil {
			return err
		}
		if foodJSON {
			return printJSON(cmd, result)
		}
		printFoods(cmd, result)
		return nil
	},
}

func printFoods(cmd *cobra.Command, result service.SearchResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source: %s\n", result.Source)
	if len(result.Foods) == 0 {
		fmt.Fprintln(out, "No foods found")
		return
	}
	fmt.Fprintln(out, "#\tNAME\tBRAND\tKCAL/100g\tP\tC\tF")
	for i, f := range result.Foods {
		fmt.Fprintf(out, "%d\t%s\t%s\t%.0f\t%.1f\t%.1f\t%.1f\n", i+1, f.Name, f.Brand, f.Per100g.Kcal, f.Per100g.ProteinG, f.Per100g.CarbG, f.Per100g.FatG)
	}
}

var foodAddCmd = &cobra.Command{
	Use:   "add <query>",
	Short: "Search and log the picked result scaled to grams",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		result, err := foodSearcher().Search(ctx, strings.Join(args, " "), foodLimit)
		if err != nil {
			return err
		}
		if foodPick < 1 || foodPick > len(result.Foods) {
			printFoods(cmd, result)
			return fmt.Errorf("--pick must be between 1 and %d", len(result.Foods))
		}
		return logFood(cmd, result.Foods[foodPick-1])
	},
}

var foodBarcodeCmd = &cobra.Command{
	Use:   "barcode <code>",
	Short: "Look up a product by barcode on Open Food Facts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		food, err := foodSearcher().LookupBarcode(ctx, args[0])
		if err != nil {
			return err
		}
		if foodJSON {
			if err := printJSON(cmd, food); err != nil {
				return err
			}
		} else {
			printFoods(cmd, service.SearchResult{Source: service.SearchSourceOpenFoodFacts, Foods: []catalog.Food{food}})
			if food.ServingG > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Serving: %.0fg\n", food.ServingG)
			}
		}
		if !foodLog {
			return nil
		}
		return logFood(cmd, food)
	},
}

func logFood(cmd *cobra.Command, food catalog.Food) error {
	consumed, err := parseDateTimeOrNow(entryDate, entryTime)
	if err != nil {
		return err
	}
	return withDB(func(sqldb *sql.DB) error {
		e, err := service.AddFood(sqldb, service.AddFoodInput{Food: food, Grams: foodGrams, Meal: foodMeal, Consumed: consumed})
		if err != nil {
			return err
		}
		printAdded(cmd, e)
		return nil
	})
}

func printAdded(cmd *cobra.Command, e model.FoodEntry) {
	fmt.Fprintf(cmd.OutOrStdout(), "Added entry %d: %s (%.0f kcal | P %.1fg | C %.1fg | F %.1fg)\n",
		e.ID, e.Description, e.Macros.Kcal, e.Macros.ProteinG, e.Macros.CarbG, e.Macros.FatG)
}

func init() {
	rootCmd.AddCommand(foodCmd)
	foodCmd.AddCommand(foodSearchCmd, foodAddCmd, foodBarcodeCmd)

	for _, c := range []*cobra.Command{foodSearchCmd, foodAddCmd} {
		c.Flags().IntVar(&foodLimit, "limit", 10, "Maximum results (up to 50)")
	}
	foodSearchCmd.Flags().BoolVar(&foodJSON, "json", false, "Print results as JSON")
	foodBarcodeCmd.Flags().BoolVar(&foodJSON, "json", false, "Print the product as JSON")

	foodAddCmd.Flags().IntVar(&foodPick, "pick", 1, "1-based index of the result to log")
	foodBarcodeCmd.Flags().BoolVar(&foodLog, "log", false, "Log the product as an entry")
	for _, c := range []*cobra.Command{foodAddCmd, foodBarcodeCmd} {
		c.Flags().Float64Var(&foodGrams, "grams", 0, "Grams eaten (default one serving, or 100 g)")
		c.Flags().StringVar(&foodMeal, "meal", "", "Meal type: breakfast, lunch, dinner or snack")
		c.Flags().StringVar(&entryDate, "date", "", "Date in YYYY-MM-DD")
		c.Flags().StringVar(&entryTime, "time", "", "Time in HH:MM")
	}
}
