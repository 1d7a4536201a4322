package kcal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ChristopherCousin/Kcal/internal/app"
	"github.com/ChristopherCousin/Kcal/internal/config"
	"github.com/ChristopherCousin/Kcal/internal/db"
	"github.com/ChristopherCousin/Kcal/internal/metrics"
	"github.com/ChristopherCousin/Kcal/internal/provider/googlevision"
	"github.com/ChristopherCousin/Kcal/internal/provider/openai"
	"github.com/ChristopherCousin/Kcal/internal/provider/openfoodfacts"
	"github.com/ChristopherCousin/Kcal/internal/provider/supabase"
	"github.com/ChristopherCousin/Kcal/internal/service"
)

func withDB(run func(*sql.DB) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.OpenMigrated(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()
	return run(sqldb)
}

func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if conf != nil && conf.DBPath != "" {
		return conf.DBPath, nil
	}
	return app.DefaultDBPath()
}

// commandContext is cancelled on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func openAIClient() *openai.Client {
	return &openai.Client{
		APIKey:    conf.OpenAI.APIKey,
		Endpoint:  conf.OpenAI.Endpoint,
		Model:     conf.OpenAI.Model,
		MaxTokens: conf.OpenAI.MaxTokens,
	}
}

func googleVisionClient() *googlevision.Client {
	return &googlevision.Client{APIKey: conf.GoogleVision.APIKey, Endpoint: conf.GoogleVision.Endpoint}
}

func supabaseClient() *supabase.Client {
	return &supabase.Client{ProjectURL: conf.Supabase.ProjectURL, APIKey: conf.Supabase.APIKey}
}

func foodSearcher() *service.FoodSearcher {
	return &service.FoodSearcher{
		Client: &openfoodfacts.Client{BaseURL: conf.OpenFoodFacts.BaseURL},
		Logger: log.Logger,
	}
}

// providerOrDefault returns the --provider value, or the configured one
// when empty. Unknown names are rejected.
func providerOrDefault(provider string) (string, error) {
	if provider == "" {
		return conf.AI.Provider, nil
	}
	if err := config.CheckProvider(provider); err != nil {
		return "", err
	}
	return provider, nil
}

func goalCalculator(provider string) (*service.GoalCalculator, error) {
	provider, err := providerOrDefault(provider)
	if err != nil {
		return nil, err
	}
	return &service.GoalCalculator{
		Strategies: service.GoalStrategies(provider, openAIClient(), supabaseClient(), log.Logger),
		Timeout:    conf.AI.Timeout,
		Logger:     log.Logger,
		Metrics:    metrics.Noop(),
	}, nil
}

func photoAnalyzer(sqldb *sql.DB, provider string) (*service.PhotoAnalyzer, error) {
	provider, err := providerOrDefault(provider)
	if err != nil {
		return nil, err
	}
	return &service.PhotoAnalyzer{
		Analyzers: service.PhotoAnalyzers(provider, openAIClient(), googleVisionClient(), supabaseClient()),
		DB:        sqldb,
		CacheTTL:  conf.AI.CacheTTL,
		Timeout:   conf.AI.Timeout,
		Logger:    log.Logger,
		Metrics:   metrics.Noop(),
	}, nil
}

func parseInt64Arg(name, value string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return v, nil
}

func parseDateTimeOrNow(date, timeStr string) (time.Time, error) {
	date = strings.TrimSpace(date)
	timeStr = strings.TrimSpace(timeStr)
	if date == "" && timeStr == "" {
		return time.Now(), nil
	}
	if date == "" {
		return time.Time{}, fmt.Errorf("--date is required when --time is set")
	}
	if timeStr == "" {
		t, err := time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
		}
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date/--time (expected YYYY-MM-DD and HH:MM)")
	}
	return t, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

func formatEntryTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
