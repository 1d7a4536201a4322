package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChristopherCousin/Kcal/internal/config"
	"github.com/ChristopherCousin/Kcal/internal/llm"
	"github.com/ChristopherCousin/Kcal/internal/metrics"
	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/nutrition"
	"github.com/ChristopherCousin/Kcal/internal/provider/openai"
	"github.com/ChristopherCousin/Kcal/internal/provider/supabase"
)

const metricsKindGoals = "goals"

// GoalStrategy computes a recommendation for a profile.
type GoalStrategy interface {
	Name() string
	Compute(ctx context.Context, p model.UserProfile) (nutrition.Recommendation, error)
}

type LocalGoals struct{}

func (LocalGoals) Name() string { return config.ProviderLocal }

func (LocalGoals) Compute(_ context.Context, p model.UserProfile) (nutrition.Recommendation, error) {
	return nutrition.Compute(p)
}

type OpenAIGoals struct {
	Client *openai.Client
}

func (s *OpenAIGoals) Name() string { return config.ProviderOpenAI }

func (s *OpenAIGoals) Compute(ctx context.Context, p model.UserProfile) (nutrition.Recommendation, error) {
	if s.Client == nil || !s.Client.Configured() {
		return nutrition.Recommendation{}, ErrProviderNotConfigured
	}
	content, _, err := s.Client.Complete(ctx, []openai.Message{
		openai.System(llm.SystemNutritionist),
		openai.User(llm.GoalPrompt(p)),
	})
	if err != nil {
		return nutrition.Recommendation{}, err
	}
	return decodeRemoteRecommendation(content, p, config.ProviderOpenAI)
}

type SupabaseGoals struct {
	Client *supabase.Client
}

func (s *SupabaseGoals) Name() string { return config.ProviderSupabase }

func (s *SupabaseGoals) Compute(ctx context.Context, p model.UserProfile) (nutrition.Recommendation, error) {
	if s.Client == nil || !s.Client.Configured() {
		return nutrition.Recommendation{}, ErrProviderNotConfigured
	}
	content, _, err := s.Client.CalculateNutrition(ctx, llm.GoalPrompt(p), p)
	if err != nil {
		return nutrition.Recommendation{}, err
	}
	return decodeRemoteRecommendation(content, p, config.ProviderSupabase)
}

// remoteRecommendation tolerates numbers sent as strings and lists sent
// as a single string.
type remoteRecommendation struct {
	BMR              llm.Number  `json:"bmr"`
	Maintenance      llm.Number  `json:"maintenance"`
	GoalCalories     llm.Number  `json:"goalCalories"`
	Protein          llm.Number  `json:"protein"`
	Carbs            llm.Number  `json:"carbs"`
	Fat              llm.Number  `json:"fat"`
	ProteinPercent   llm.Number  `json:"proteinPercent"`
	CarbsPercent     llm.Number  `json:"carbsPercent"`
	FatPercent       llm.Number  `json:"fatPercent"`
	MealsPerDay      llm.Number  `json:"mealsPerDay"`
	FeedingWindow    string      `json:"feedingWindow"`
	RecommendedFoods llm.Strings `json:"recommendedFoods"`
	FoodsToAvoid     llm.Strings `json:"foodsToAvoid"`
	Supplements      llm.Strings `json:"supplements"`
}

func decodeRemoteRecommendation(content string, p model.UserProfile, source string) (nutrition.Recommendation, error) {
	var r remoteRecommendation
	if err := llm.Decode(content, &r); err != nil {
		return nutrition.Recommendation{}, err
	}
	if r.GoalCalories.Int() <= 0 && r.Maintenance.Int() <= 0 && r.Protein.Int() <= 0 {
		return nutrition.Recommendation{}, fmt.Errorf("%s response has no usable figures", source)
	}
	rec := nutrition.Recommendation{
		BMR:              r.BMR.Float(),
		Maintenance:      r.Maintenance.Int(),
		GoalCalories:     r.GoalCalories.Int(),
		ProteinG:         r.Protein.Int(),
		CarbG:            r.Carbs.Int(),
		FatG:             r.Fat.Int(),
		ProteinPercent:   r.ProteinPercent.Int(),
		CarbPercent:      r.CarbsPercent.Int(),
		FatPercent:       r.FatPercent.Int(),
		MealsPerDay:      r.MealsPerDay.Int(),
		FeedingWindow:    r.FeedingWindow,
		RecommendedFoods: r.RecommendedFoods,
		FoodsToAvoid:     r.FoodsToAvoid,
		Supplements:      r.Supplements,
		Source:           source,
	}
	return nutrition.FillMissing(rec, p), nil
}

// GoalResult is a recommendation plus the providers tried to reach it.
type GoalResult struct {
	nutrition.Recommendation
	Attempts []string `json:"attempts"`
	Failures []string `json:"failures,omitempty"`
}

// GoalCalculator runs strategies in order until one succeeds.
type GoalCalculator struct {
	Strategies []GoalStrategy
	Timeout    time.Duration
	Logger     zerolog.Logger
	Metrics    metrics.Recorder
}

func (c *GoalCalculator) recorder() metrics.Recorder {
	if c.Metrics == nil {
		return metrics.Noop()
	}
	return c.Metrics
}

func (c *GoalCalculator) Calculate(ctx context.Context, p model.UserProfile) (GoalResult, error) {
	if err := nutrition.ValidateProfile(p); err != nil {
		return GoalResult{}, err
	}
	if len(c.Strategies) == 0 {
		return GoalResult{}, fmt.Errorf("no goal strategies configured")
	}
	rec := c.recorder()
	attempts := make([]string, 0, len(c.Strategies))
	failures := make([]string, 0, len(c.Strategies))
	for i, s := range c.Strategies {
		name := s.Name()
		attempts = append(attempts, name)

		callCtx := ctx
		cancel := func() {}
		if c.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		}
		started := time.Now()
		out, err := s.Compute(callCtx, p)
		cancel()
		rec.ObserveProviderDuration(metricsKindGoals, name, time.Since(started))
		if err == nil {
			rec.IncProviderAttempt(metricsKindGoals, name, "ok")
			c.Logger.Debug().Str("kind", metricsKindGoals).Str("provider", name).Msg("goal calculation succeeded")
			return GoalResult{Recommendation: out, Attempts: attempts, Failures: failures}, nil
		}
		outcome := "error"
		if errors.Is(err, ErrProviderNotConfigured) {
			outcome = "unconfigured"
		}
		rec.IncProviderAttempt(metricsKindGoals, name, outcome)
		failures = append(failures, fmt.Sprintf("%s: %v", name, err))
		if i < len(c.Strategies)-1 {
			rec.IncFallback(metricsKindGoals, name)
			c.Logger.Warn().Str("kind", metricsKindGoals).Str("provider", name).Err(err).Msg("goal provider failed, trying next")
		}
		if ctx.Err() != nil {
			break
		}
	}
	return GoalResult{Attempts: attempts, Failures: failures}, fmt.Errorf("%w: [%s]", ErrAllProvidersFailed, strings.Join(failures, "; "))
}

// alternateProvider is the provider tried after primary fails.
func alternateProvider(primary string) string {
	switch primary {
	case config.ProviderSupabase:
		return config.ProviderOpenAI
	case config.ProviderOpenAI:
		return config.ProviderGoogleVision
	default:
		return config.ProviderOpenAI
	}
}

// ProviderOrder lists the configured provider followed by its alternate,
// without duplicates and without local. For photos a local primary means
// OpenAI vision, the only analyzer that needs no separate setup.
func ProviderOrder(primary string) []string {
	primary = normalizeName(primary)
	order := make([]string, 0, 2)
	if primary != "" && primary != config.ProviderLocal {
		order = append(order, primary)
	}
	alt := alternateProvider(primary)
	if alt != primary {
		order = append(order, alt)
	}
	return order
}

// GoalStrategies builds the chain for primary: remote providers in
// provider order, skipping those that cannot calculate goals, then local.
// A local primary never contacts a remote provider.
func GoalStrategies(primary string, oa *openai.Client, sb *supabase.Client, logger zerolog.Logger) []GoalStrategy {
	if normalizeName(primary) == config.ProviderLocal {
		return []GoalStrategy{LocalGoals{}}
	}
	out := make([]GoalStrategy, 0, 3)
	for _, name := range ProviderOrder(primary) {
		switch name {
		case config.ProviderOpenAI:
			out = append(out, &OpenAIGoals{Client: oa})
		case config.ProviderSupabase:
			out = append(out, &SupabaseGoals{Client: sb})
		default:
			logger.Debug().Str("provider", name).Msg("provider cannot calculate goals, skipping")
		}
	}
	return append(out, LocalGoals{})
}

// CalculateGoals runs the chain, stores the resulting goals and appends
// the calculation to history.
func CalculateGoals(ctx context.Context, db *sql.DB, calc *GoalCalculator, p model.UserProfile) (GoalResult, error) {
	res, err := calc.Calculate(ctx, p)
	if err != nil {
		return res, err
	}
	if err := SaveGoals(db, res.Goals()); err != nil {
		return res, err
	}
	if _, err := AppendCalculation(db, res.Recommendation, p, time.Now()); err != nil {
		return res, err
	}
	return res, nil
}
