package kcal

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/service"
)

var (
	exportFormat string
	exportOut    string
	importIn     string
	importMode   string
	importDryRun bool
)

// formatFor picks the export format from the flag or the file extension.
func formatFor(flag, path string) string {
	if f := strings.ToLower(strings.TrimSpace(flag)); f != "" {
		return f
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		return "zst"
	case ".csv":
		return "csv"
	default:
		return "json"
	}
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export profile, goals, entries and history (json, zst or csv)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(exportOut) == "" {
			return fmt.Errorf("--out is required")
		}
		return withDB(func(sqldb *sql.DB) error {
			data, err := service.ExportDataSnapshot(sqldb)
			if err != nil {
				return err
			}
			switch format := formatFor(exportFormat, exportOut); format {
			case "json", "zst":
				b, err := service.EncodeSnapshot(data, format == "zst")
				if err != nil {
					return err
				}
				if err := os.WriteFile(exportOut, b, 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
			case "csv":
				if err := writeEntriesCSV(exportOut, data.Entries); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported --format %q (use json, zst or csv)", exportFormat)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(data.Entries), exportOut)
			return nil
		})
	},
}

func writeEntriesCSV(path string, entries []service.ExportEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export csv: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "timestamp", "meal", "description", "kcal", "protein_g", "carb_g", "fat_g", "source", "image_ref"}); err != nil {
		return fmt.Errorf("write export csv header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.ConsumedAt,
			e.Meal,
			e.Description,
			strconv.FormatFloat(e.Kcal, 'f', -1, 64),
			strconv.FormatFloat(e.ProteinG, 'f', -1, 64),
			strconv.FormatFloat(e.CarbG, 'f', -1, 64),
			strconv.FormatFloat(e.FatG, 'f', -1, 64),
			e.Source,
			e.ImageRef,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write export csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush export csv: %w", err)
	}
	return nil
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a json or zst snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(importIn) == "" {
			return fmt.Errorf("--in is required")
		}
		raw, err := os.ReadFile(importIn)
		if err != nil {
			return fmt.Errorf("read import file: %w", err)
		}
		data, err := service.DecodeSnapshot(raw)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.ImportDataSnapshotWithOptions(sqldb, data, service.ImportOptions{
				Mode:   service.ImportMode(strings.ToLower(strings.TrimSpace(importMode))),
				DryRun: importDryRun,
			})
			if err != nil {
				return err
			}
			prefix := "Imported"
			if importDryRun {
				prefix = "Dry run"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: inserted=%d updated=%d skipped=%d conflicts=%d\n",
				prefix, report.Inserted, report.Updated, report.Skipped, report.Conflicts)
			for _, w := range report.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "Warning: %s\n", w)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Export format: json, zst or csv (default from --out extension)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file path")
	importCmd.Flags().StringVar(&importIn, "in", "", "Input snapshot (.json or .zst)")
	importCmd.Flags().StringVar(&importMode, "mode", "merge", "Conflict mode: fail, skip, merge or replace")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and report without writing")
}
