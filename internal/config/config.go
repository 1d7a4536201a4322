package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI       = "openai"
	ProviderGoogleVision = "google_vision"
	ProviderSupabase     = "supabase"
	ProviderLocal        = "local"
)

// Providers are the accepted ai.provider and --provider values.
var Providers = []string{ProviderOpenAI, ProviderGoogleVision, ProviderSupabase, ProviderLocal}

// CheckProvider rejects names outside Providers.
func CheckProvider(name string) error {
	if !validate.Enum(name, Providers) {
		return fmt.Errorf("unknown provider %q (use %s)", name, strings.Join(Providers, ", "))
	}
	return nil
}

type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic,disabled"`
	Format string `mapstructure:"format" validate:"required|in:console,json"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider" validate:"required|in:openai,google_vision,supabase,local"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"required"`
	CacheTTL time.Duration `mapstructure:"cacheTTL"`
}

type OpenAIConfig struct {
	APIKey    string `mapstructure:"apiKey"`
	Endpoint  string `mapstructure:"endpoint" validate:"required|fullUrl"`
	Model     string `mapstructure:"model" validate:"required"`
	MaxTokens int    `mapstructure:"maxTokens" validate:"required|min:1"`
}

type GoogleVisionConfig struct {
	APIKey   string `mapstructure:"apiKey"`
	Endpoint string `mapstructure:"endpoint" validate:"required|fullUrl"`
}

type SupabaseConfig struct {
	ProjectURL string `mapstructure:"projectUrl"`
	APIKey     string `mapstructure:"apiKey"`
}

type OpenFoodFactsConfig struct {
	BaseURL string `mapstructure:"baseUrl"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Size    int           `mapstructure:"size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host" validate:"required"`
	Port        int    `mapstructure:"port" validate:"required|min:1|max:65535"`
	JWTSecret   string `mapstructure:"jwtSecret"`
	AllowOrigin string `mapstructure:"allowOrigin"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type Config struct {
	Path          string              `mapstructure:"-"`
	DBPath        string              `mapstructure:"dbPath"`
	Logger        LoggerConfig        `mapstructure:"logger"`
	AI            AIConfig            `mapstructure:"ai"`
	OpenAI        OpenAIConfig        `mapstructure:"openai"`
	GoogleVision  GoogleVisionConfig  `mapstructure:"googleVision"`
	Supabase      SupabaseConfig      `mapstructure:"supabase"`
	OpenFoodFacts OpenFoodFactsConfig `mapstructure:"openFoodFacts"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Server        ServerConfig        `mapstructure:"server"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "warn")
	v.SetDefault("logger.format", "console")
	v.SetDefault("ai.provider", ProviderLocal)
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.cacheTTL", 7*24*time.Hour)
	v.SetDefault("openai.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.maxTokens", 1000)
	v.SetDefault("googleVision.endpoint", "https://vision.googleapis.com/v1/images:annotate")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 16)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8787)
	v.SetDefault("server.allowOrigin", "*")
	v.SetDefault("metrics.enabled", true)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("KCAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("dbPath", "KCAL_DB")
	_ = v.BindEnv("logger.level", "KCAL_LOG_LEVEL")
	_ = v.BindEnv("logger.format", "KCAL_LOG_FORMAT")
	_ = v.BindEnv("ai.provider", "KCAL_AI_PROVIDER")
	_ = v.BindEnv("openai.apiKey", "KCAL_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.model", "KCAL_OPENAI_MODEL", "OPENAI_MODEL")
	_ = v.BindEnv("googleVision.apiKey", "KCAL_GOOGLE_VISION_API_KEY", "GOOGLE_VISION_API_KEY")
	_ = v.BindEnv("supabase.projectUrl", "KCAL_SUPABASE_URL", "SUPABASE_URL")
	_ = v.BindEnv("supabase.apiKey", "KCAL_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY")
	_ = v.BindEnv("server.jwtSecret", "KCAL_JWT_SECRET", "SUPABASE_JWT_SECRET")
	_ = v.BindEnv("server.port", "KCAL_PORT", "PORT")
}

// DefaultPath is where Load looks when no explicit file is given.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "kcal", "config.yaml"), nil
}

// Load reads .env from the working directory, then the YAML file at path,
// then the environment. A missing file is fine unless path was given
// explicitly.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		def, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = def
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	conf.Path = path
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) Validate() error {
	v := validate.Struct(c)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %s", v.Errors.One())
	}
	switch c.AI.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return errors.New("invalid config: ai.provider is openai but openai.apiKey is empty")
		}
	case ProviderGoogleVision:
		if c.GoogleVision.APIKey == "" {
			return errors.New("invalid config: ai.provider is google_vision but googleVision.apiKey is empty")
		}
	case ProviderSupabase:
		if c.Supabase.ProjectURL == "" || c.Supabase.APIKey == "" {
			return errors.New("invalid config: ai.provider is supabase but supabase.projectUrl or supabase.apiKey is empty")
		}
	case ProviderLocal:
	default:
		return fmt.Errorf("invalid config: unknown ai.provider %q", c.AI.Provider)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	c.OpenAI.APIKey = mask(c.OpenAI.APIKey)
	c.GoogleVision.APIKey = mask(c.GoogleVision.APIKey)
	c.Supabase.APIKey = mask(c.Supabase.APIKey)
	c.Server.JWTSecret = mask(c.Server.JWTSecret)
	return c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-2:]
}
