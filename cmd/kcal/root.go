package kcal

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/config"
	"github.com/ChristopherCousin/Kcal/internal/logging"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	conf *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "kcal",
	Short: "kcal tracks calories and macros from your terminal",
	Long:  "kcal is a local-first calorie and macro tracker with goal calculation, photo analysis, food search and AI coaching.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Logger.Level = logLevel
		}
		logger, err := logging.New(loaded.Logger.Level, loaded.Logger.Format, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		log.Logger = logger
		conf = loaded
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
}
