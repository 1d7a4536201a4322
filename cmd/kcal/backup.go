package kcal

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/app"
	"github.com/ChristopherCousin/Kcal/internal/service"
)

var (
	backupOut    string
	backupDir    string
	backupJSON   bool
	restoreForce bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create, list and restore database backups",
}

// backupLocation resolves the database path and the directory backups
// live in.
func backupLocation() (dbPath, dir string, err error) {
	dbPath, err = resolveDBPath()
	if err != nil {
		return "", "", err
	}
	if backupDir != "" {
		return dbPath, backupDir, nil
	}
	return dbPath, app.BackupsDir(dbPath), nil
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the database into the backups directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, dir, err := backupLocation()
		if err != nil {
			return err
		}
		target := backupOut
		if target == "" {
			target = filepath.Join(dir, "kcal-"+time.Now().Format("20060102-150405")+".db")
		}
		return withDB(func(sqldb *sql.DB) error {
			info, err := service.CreateBackup(sqldb, target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s (%d bytes)\nsha256 %s\n", info.Path, info.SizeBytes, info.Checksum)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, dir, err := backupLocation()
		if err != nil {
			return err
		}
		backups, err := service.ListBackups(dir)
		if err != nil {
			return err
		}
		if backupJSON {
			return printJSON(cmd, backups)
		}
		if len(backups) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No backups in %s\n", dir)
			return nil
		}
		for _, b := range backups {
			sum := b.Checksum
			if sum == "" {
				sum = "(no checksum)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d bytes  %s\n", b.CreatedAt.Local().Format("2006-01-02 15:04"), filepath.Base(b.Path), b.SizeBytes, sum)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Replace the database with a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _, err := backupLocation()
		if err != nil {
			return err
		}
		if err := service.RestoreBackup(args[0], dbPath, restoreForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from %s\n", dbPath, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd)
	backupCmd.PersistentFlags().StringVar(&backupDir, "dir", "", "Backups directory (default: backups/ next to the database)")

	backupCreateCmd.Flags().StringVar(&backupOut, "out", "", "Backup file path (overrides --dir)")
	backupListCmd.Flags().BoolVar(&backupJSON, "json", false, "Print JSON")
	backupRestoreCmd.Flags().BoolVar(&restoreForce, "force", false, "Overwrite an existing database")
}
