package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ChristopherCousin/Kcal/internal/catalog"
	"github.com/ChristopherCousin/Kcal/internal/config"
	"github.com/ChristopherCousin/Kcal/internal/llm"
	"github.com/ChristopherCousin/Kcal/internal/metrics"
	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/provider/googlevision"
	"github.com/ChristopherCousin/Kcal/internal/provider/openai"
	"github.com/ChristopherCousin/Kcal/internal/provider/supabase"
)

const (
	metricsKindPhoto        = "photo"
	DefaultAnalysisCacheTTL = 7 * 24 * time.Hour
	maxVisionLabels         = 5
	supabaseFoodConfidence  = 90
)

type DetectedFood struct {
	Name       string                     `json:"name"`
	Portion    string                     `json:"portion"`
	Confidence int                        `json:"confidence"`
	Macros     model.Macros               `json:"macros"`
	Position   *googlevision.BoundingPoly `json:"position,omitempty"`
}

// Analysis is the outcome of a photo analysis.
type Analysis struct {
	Provider  string         `json:"provider"`
	Foods     []DetectedFood `json:"foods"`
	BestFor   string         `json:"bestFor,omitempty"`
	FromCache bool           `json:"fromCache,omitempty"`
	Attempts  []string       `json:"attempts,omitempty"`
}

func (a Analysis) Totals() model.Macros {
	var total model.Macros
	for _, f := range a.Foods {
		total = total.Add(f.Macros)
	}
	return total
}

// FoodAnalyzer detects foods in an image. ErrNotFood is a definitive
// answer, not a provider failure.
type FoodAnalyzer interface {
	Name() string
	Analyze(ctx context.Context, img Image) (Analysis, error)
}

type OpenAIVision struct {
	Client *openai.Client
}

func (a *OpenAIVision) Name() string { return config.ProviderOpenAI }

type visionMacros struct {
	Kcal    llm.Number `json:"kcal"`
	Protein llm.Number `json:"protein"`
	Carb    llm.Number `json:"carb"`
	Fat     llm.Number `json:"fat"`
}

type visionFood struct {
	Name       string       `json:"name"`
	Portion    llm.Text     `json:"portion"`
	Confidence llm.Number   `json:"confidence"`
	Macros     visionMacros `json:"macros"`
}

type visionReply struct {
	IsFood  *bool        `json:"isFood"`
	Message string       `json:"message"`
	Foods   []visionFood `json:"foods"`
}

func (a *OpenAIVision) Analyze(ctx context.Context, img Image) (Analysis, error) {
	if a.Client == nil || !a.Client.Configured() {
		return Analysis{}, ErrProviderNotConfigured
	}
	content, _, err := a.Client.Complete(ctx, []openai.Message{
		openai.System(llm.SystemNutritionExpert),
		openai.UserWithImage(llm.FoodPhotoPrompt, img.DataURL()),
	})
	if err != nil {
		return Analysis{}, err
	}
	return parseVisionReply(content)
}

func parseVisionReply(content string) (Analysis, error) {
	var reply visionReply
	if err := llm.Decode(content, &reply); err != nil {
		return Analysis{}, err
	}
	if reply.IsFood != nil && !*reply.IsFood {
		if reply.Message != "" {
			return Analysis{}, fmt.Errorf("%w: %s", ErrNotFood, reply.Message)
		}
		return Analysis{}, ErrNotFood
	}
	out := Analysis{Provider: config.ProviderOpenAI, Foods: make([]DetectedFood, 0, len(reply.Foods))}
	for _, f := range reply.Foods {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		out.Foods = append(out.Foods, DetectedFood{
			Name:       catalog.FormatFoodName(name),
			Portion:    string(f.Portion),
			Confidence: f.Confidence.Int(),
			Macros: model.Macros{
				Kcal:     math.Max(0, math.Round(f.Macros.Kcal.Float())),
				ProteinG: math.Max(0, round1(f.Macros.Protein.Float())),
				CarbG:    math.Max(0, round1(f.Macros.Carb.Float())),
				FatG:     math.Max(0, round1(f.Macros.Fat.Float())),
			},
		})
	}
	if len(out.Foods) == 0 {
		return Analysis{}, ErrNotFood
	}
	return out, nil
}

type GoogleVision struct {
	Client *googlevision.Client
}

func (a *GoogleVision) Name() string { return config.ProviderGoogleVision }

func (a *GoogleVision) Analyze(ctx context.Context, img Image) (Analysis, error) {
	if a.Client == nil || !a.Client.Configured() {
		return Analysis{}, ErrProviderNotConfigured
	}
	ann, _, err := a.Client.Annotate(ctx, img.Base64)
	if err != nil {
		return Analysis{}, err
	}
	foods := foodsFromAnnotation(ann)
	if len(foods) == 0 {
		return Analysis{}, ErrNotFood
	}
	return Analysis{Provider: config.ProviderGoogleVision, Foods: foods}, nil
}

// foodsFromAnnotation keeps the first food labels, merges localized
// objects by name and estimates macros from the catalog.
func foodsFromAnnotation(ann googlevision.Annotation) []DetectedFood {
	foods := make([]DetectedFood, 0, maxVisionLabels)
	index := map[string]int{}
	add := func(name string, score float64, pos *googlevision.BoundingPoly) {
		key := strings.ToLower(strings.TrimSpace(name))
		if i, ok := index[key]; ok {
			if pos != nil {
				foods[i].Position = pos
			}
			return
		}
		portion, macros := catalog.Estimate(name)
		index[key] = len(foods)
		foods = append(foods, DetectedFood{
			Name:       catalog.FormatFoodName(name),
			Portion:    portion,
			Confidence: int(math.Round(score * 100)),
			Macros:     macros,
			Position:   pos,
		})
	}

	labels := 0
	for _, l := range ann.Labels {
		if !catalog.IsFoodLabel(l.Description) {
			continue
		}
		if labels == maxVisionLabels {
			break
		}
		labels++
		add(l.Description, l.Score, nil)
	}
	if labels == 0 {
		return nil
	}
	for _, o := range ann.Objects {
		if catalog.IsFoodLabel(o.Name) {
			add(o.Name, o.Score, o.BoundingPoly)
		}
	}
	sort.SliceStable(foods, func(i, j int) bool { return foods[i].Confidence > foods[j].Confidence })
	return foods
}

type SupabaseVision struct {
	Client *supabase.Client
}

func (a *SupabaseVision) Name() string { return config.ProviderSupabase }

type summaryReply struct {
	Foods    llm.Strings `json:"foods"`
	Calories llm.Number  `json:"calories"`
	Macros   struct {
		Protein llm.Number `json:"protein"`
		Carbs   llm.Number `json:"carbs"`
		Fat     llm.Number `json:"fat"`
	} `json:"macros"`
	BestFor string `json:"bestFor"`
}

func (a *SupabaseVision) Analyze(ctx context.Context, img Image) (Analysis, error) {
	if a.Client == nil || !a.Client.Configured() {
		return Analysis{}, ErrProviderNotConfigured
	}
	content, _, err := a.Client.AnalyzeFood(ctx, img.Base64, llm.FoodSummaryPrompt)
	if err != nil {
		return Analysis{}, err
	}
	return parseSummaryReply(content)
}

// parseSummaryReply splits meal totals evenly across the named foods.
func parseSummaryReply(content string) (Analysis, error) {
	var reply summaryReply
	if err := llm.Decode(content, &reply); err != nil {
		return Analysis{}, err
	}
	names := make([]string, 0, len(reply.Foods))
	for _, n := range reply.Foods {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return Analysis{}, ErrNotFood
	}
	share := 1 / float64(len(names))
	out := Analysis{Provider: config.ProviderSupabase, BestFor: reply.BestFor, Foods: make([]DetectedFood, 0, len(names))}
	for _, n := range names {
		out.Foods = append(out.Foods, DetectedFood{
			Name:       catalog.FormatFoodName(n),
			Portion:    "1 serving",
			Confidence: supabaseFoodConfidence,
			Macros: model.Macros{
				Kcal:     math.Max(0, math.Round(reply.Calories.Float()*share)),
				ProteinG: math.Max(0, round1(reply.Macros.Protein.Float()*share)),
				CarbG:    math.Max(0, round1(reply.Macros.Carbs.Float()*share)),
				FatG:     math.Max(0, round1(reply.Macros.Fat.Float()*share)),
			},
		})
	}
	return out, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// PhotoAnalyzers builds the analyzer chain for the configured provider.
func PhotoAnalyzers(primary string, oa *openai.Client, gv *googlevision.Client, sb *supabase.Client) []FoodAnalyzer {
	out := make([]FoodAnalyzer, 0, 2)
	for _, name := range ProviderOrder(primary) {
		switch name {
		case config.ProviderOpenAI:
			out = append(out, &OpenAIVision{Client: oa})
		case config.ProviderGoogleVision:
			out = append(out, &GoogleVision{Client: gv})
		case config.ProviderSupabase:
			out = append(out, &SupabaseVision{Client: sb})
		}
	}
	return out
}

// PhotoAnalyzer runs analyzers in order, consulting the analysis cache
// before each provider call.
type PhotoAnalyzer struct {
	Analyzers []FoodAnalyzer
	DB        *sql.DB
	CacheTTL  time.Duration
	Timeout   time.Duration
	Logger    zerolog.Logger
	Metrics   metrics.Recorder
}

func (p *PhotoAnalyzer) recorder() metrics.Recorder {
	if p.Metrics == nil {
		return metrics.Noop()
	}
	return p.Metrics
}

func (p *PhotoAnalyzer) Analyze(ctx context.Context, img Image) (Analysis, error) {
	if len(p.Analyzers) == 0 {
		return Analysis{}, fmt.Errorf("%w: no photo analysis provider configured", ErrProviderNotConfigured)
	}
	rec := p.recorder()
	attempts := make([]string, 0, len(p.Analyzers))
	failures := make([]string, 0, len(p.Analyzers))
	for i, a := range p.Analyzers {
		name := a.Name()
		attempts = append(attempts, name)

		if p.DB != nil {
			cached, found, err := lookupAnalysisCache(p.DB, name, img.SHA256)
			if err != nil {
				return Analysis{}, err
			}
			if found {
				rec.IncCacheHits()
				p.Logger.Debug().Str("provider", name).Str("sha256", img.SHA256).Msg("analysis cache hit")
				cached.Provider = name
				cached.FromCache = true
				cached.Attempts = attempts
				return cached, nil
			}
			rec.IncCacheMisses()
		}

		callCtx := ctx
		cancel := func() {}
		if p.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		started := time.Now()
		result, err := a.Analyze(callCtx, img)
		cancel()
		rec.ObserveProviderDuration(metricsKindPhoto, name, time.Since(started))
		if err == nil {
			rec.IncProviderAttempt(metricsKindPhoto, name, "ok")
			result.Provider = name
			result.Attempts = attempts
			if p.DB != nil {
				ttl := p.CacheTTL
				if ttl <= 0 {
					ttl = DefaultAnalysisCacheTTL
				}
				if err := upsertAnalysisCache(p.DB, name, img.SHA256, result, time.Now().Add(ttl)); err != nil {
					return Analysis{}, err
				}
			}
			return result, nil
		}
		if errors.Is(err, ErrNotFood) {
			rec.IncProviderAttempt(metricsKindPhoto, name, "not_food")
			return Analysis{Provider: name, Attempts: attempts}, err
		}
		outcome := "error"
		if errors.Is(err, ErrProviderNotConfigured) {
			outcome = "unconfigured"
		}
		rec.IncProviderAttempt(metricsKindPhoto, name, outcome)
		failures = append(failures, fmt.Sprintf("%s: %v", name, err))
		if i < len(p.Analyzers)-1 {
			rec.IncFallback(metricsKindPhoto, name)
			p.Logger.Warn().Str("kind", metricsKindPhoto).Str("provider", name).Err(err).Msg("photo provider failed, trying next")
		}
		if ctx.Err() != nil {
			break
		}
	}
	return Analysis{Attempts: attempts}, fmt.Errorf("%w: [%s]", ErrAllProvidersFailed, strings.Join(failures, "; "))
}

func lookupAnalysisCache(db *sql.DB, provider, sum string) (Analysis, bool, error) {
	var raw, expiresAtRaw string
	err := db.QueryRow(`
SELECT result_json, expires_at FROM analysis_cache
WHERE provider = ? AND image_sha256 = ?
`, provider, sum).Scan(&raw, &expiresAtRaw)
	if err == sql.ErrNoRows {
		return Analysis{}, false, nil
	}
	if err != nil {
		return Analysis{}, false, fmt.Errorf("lookup analysis cache: %w", err)
	}
	expiresAt, err := time.Parse(time.RFC3339, expiresAtRaw)
	if err != nil {
		return Analysis{}, false, fmt.Errorf("parse analysis cache expiry: %w", err)
	}
	if time.Now().After(expiresAt) {
		return Analysis{}, false, nil
	}
	var out Analysis
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Analysis{}, false, nil
	}
	return out, true, nil
}

func upsertAnalysisCache(db *sql.DB, provider, sum string, result Analysis, expiresAt time.Time) error {
	result.Attempts = nil
	result.FromCache = false
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode analysis cache: %w", err)
	}
	_, err = db.Exec(`
INSERT INTO analysis_cache(provider, image_sha256, result_json, fetched_at, expires_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(provider, image_sha256) DO UPDATE SET
  result_json=excluded.result_json,
  fetched_at=excluded.fetched_at,
  expires_at=excluded.expires_at
`, provider, sum, string(raw), storedTime(time.Now()), storedTime(expiresAt))
	if err != nil {
		return fmt.Errorf("upsert analysis cache: %w", err)
	}
	return nil
}

// PurgeAnalysisCache removes expired rows, or every row when all is set.
func PurgeAnalysisCache(db *sql.DB, all bool) (int64, error) {
	query := `DELETE FROM analysis_cache WHERE expires_at < ?`
	args := []any{storedTime(time.Now())}
	if all {
		query = `DELETE FROM analysis_cache`
		args = nil
	}
	res, err := db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge analysis cache: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge analysis cache rows affected: %w", err)
	}
	return affected, nil
}

// LogAnalysis appends one ai-photo entry per detected food, all or none.
func LogAnalysis(db *sql.DB, a Analysis, meal, imageRef string, at time.Time) ([]model.FoodEntry, error) {
	if len(a.Foods) == 0 {
		return nil, fmt.Errorf("analysis has no foods to log")
	}
	meal, err := NormalizeMeal(meal)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = time.Now()
	}
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin photo log tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	out := make([]model.FoodEntry, 0, len(a.Foods))
	for _, f := range a.Foods {
		desc := f.Name
		if f.Portion != "" {
			desc = fmt.Sprintf("%s (%s)", f.Name, f.Portion)
		}
		e, err := createEntry(tx, CreateEntryInput{
			Description: desc,
			Macros:      f.Macros,
			Source:      model.SourceAIPhoto,
			Meal:        meal,
			ImageRef:    imageRef,
			Consumed:    at,
		})
		if err != nil {
			return nil, fmt.Errorf("log %q: %w", f.Name, err)
		}
		out = append(out, e)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit photo log: %w", err)
	}
	return out, nil
}
