package kcal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/app"
	"github.com/ChristopherCousin/Kcal/internal/service"
)

var photoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Analyze meal photos",
}

var (
	photoProvider string
	photoLog      bool
	photoMeal     string
	photoJSON     bool
)

var photoAnalyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Identify foods and estimate macros from a photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meal, err := service.NormalizeMeal(photoMeal)
		if err != nil {
			return err
		}
		img, err := service.LoadImage(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			analyzer, err := photoAnalyzer(sqldb, photoProvider)
			if err != nil {
				return err
			}
			result, err := analyzer.Analyze(ctx, img)
			if errors.Is(err, service.ErrNotFood) {
				fmt.Fprintln(cmd.OutOrStdout(), err.Error())
				return nil
			}
			if err != nil {
				return err
			}
			if photoJSON {
				if err := printJSON(cmd, result); err != nil {
					return err
				}
			} else {
				printAnalysis(cmd, result)
			}
			if !photoLog {
				return nil
			}
			ref, err := service.StorePhoto(app.PhotosDir(path), img)
			if err != nil {
				return err
			}
			entries, err := service.LogAnalysis(sqldb, result, meal, ref, time.Now())
			if err != nil {
				_ = os.Remove(ref)
				return err
			}
			ids := make([]string, 0, len(entries))
			for _, e := range entries {
				ids = append(ids, fmt.Sprint(e.ID))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %d entries: %s\n", len(entries), strings.Join(ids, ", "))
			return nil
		})
	},
}

func printAnalysis(cmd *cobra.Command, a service.Analysis) {
	out := cmd.OutOrStdout()
	source := a.Provider
	if a.FromCache {
		source += " (cached)"
	}
	fmt.Fprintf(out, "Provider: %s\n", source)
	fmt.Fprintln(out, "FOOD\tPORTION\tCONF\tKCAL\tP\tC\tF")
	for _, f := range a.Foods {
		fmt.Fprintf(out, "%s\t%s\t%d%%\t%.0f\t%.1f\t%.1f\t%.1f\n", f.Name, f.Portion, f.Confidence, f.Macros.Kcal, f.Macros.ProteinG, f.Macros.CarbG, f.Macros.FatG)
	}
	t := a.Totals()
	fmt.Fprintf(out, "Total: %.0f kcal | P %.1fg | C %.1fg | F %.1fg\n", t.Kcal, t.ProteinG, t.CarbG, t.FatG)
	if a.BestFor != "" {
		fmt.Fprintf(out, "Best for: %s\n", a.BestFor)
	}
}

func init() {
	rootCmd.AddCommand(photoCmd)
	photoCmd.AddCommand(photoAnalyzeCmd)

	photoAnalyzeCmd.Flags().StringVar(&photoProvider, "provider", "", "Provider to try first: openai, google_vision or supabase (default from config)")
	photoAnalyzeCmd.Flags().BoolVar(&photoLog, "log", false, "Log each detected food as an entry")
	photoAnalyzeCmd.Flags().StringVar(&photoMeal, "meal", "", "Meal type for logged entries")
	photoAnalyzeCmd.Flags().BoolVar(&photoJSON, "json", false, "Print the analysis as JSON")
}
