// README: Config loader with env defaults for HTTP, LLM, flights, cache, storage and telemetry settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported LLM providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

var ErrMissingAPIKey = errors.New("config: llm api key is required")

type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	JudgeModel  string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// PricingConfig holds USD cost per one million tokens.
type PricingConfig struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

type FlightsConfig struct {
	AmadeusKey    string
	AmadeusSecret string
	BaseURL       string
	Timeout       time.Duration
	BestEffort    bool
	DefaultOrigin string
}

// UseMock reports whether flight search must fall back to the offline strategy.
func (f FlightsConfig) UseMock() bool {
	return f.AmadeusKey == "" || f.AmadeusSecret == ""
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type TelemetryConfig struct {
	Enabled  bool
	Endpoint string
}

type Config struct {
	HTTP struct {
		Addr        string
		CORSOrigins []string

		// RequestTimeout bounds one trip request end to end.
		RequestTimeout time.Duration
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Maps struct {
		APIKey string
	}
	Firebase struct {
		ProjectID       string
		CredentialsFile string
	}
	// Quota is enforced only for authenticated callers with a database configured.
	Quota struct {
		MonthlyTrips int
	}
	Log struct {
		Level  string
		Format string
		File   string
	}
	Telemetry TelemetryConfig
	LLM       LLMConfig
	Pricing   PricingConfig
	Flights   FlightsConfig
	Cache     CacheConfig
}

// Load reads configuration from the environment, after merging a .env file when one exists.
func Load() (Config, error) {
	_ = godotenv.Load()
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("TRIPGENIE_HTTP_ADDR", ":8080")
	v.SetDefault("TRIPGENIE_CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("TRIPGENIE_REQUEST_TIMEOUT", 3*time.Minute)
	v.SetDefault("TRIPGENIE_LLM_PROVIDER", ProviderGemini)
	v.SetDefault("TRIPGENIE_TEMPERATURE", 0.0)
	v.SetDefault("TRIPGENIE_MAX_TOKENS", 4000)
	v.SetDefault("TRIPGENIE_LLM_TIMEOUT", 30*time.Second)
	v.SetDefault("TRIPGENIE_LLM_MAX_RETRIES", 1)
	v.SetDefault("TRIPGENIE_INPUT_COST_PER_MTOK", 3.0)
	v.SetDefault("TRIPGENIE_OUTPUT_COST_PER_MTOK", 15.0)
	v.SetDefault("AMADEUS_BASE_URL", "https://test.api.amadeus.com")
	v.SetDefault("TRIPGENIE_FLIGHT_TIMEOUT", 15*time.Second)
	v.SetDefault("TRIPGENIE_FLIGHTS_BEST_EFFORT", false)
	v.SetDefault("TRIPGENIE_DEFAULT_ORIGIN", "NYC")
	v.SetDefault("TRIPGENIE_CACHE_ENABLED", true)
	v.SetDefault("TRIPGENIE_CACHE_TTL", time.Hour)
	v.SetDefault("TRIPGENIE_QUOTA_MONTHLY_TRIPS", 0)
	v.SetDefault("TRIPGENIE_LOG_LEVEL", "info")
	v.SetDefault("TRIPGENIE_LOG_FORMAT", "console")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	return v
}

func fromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = v.GetString("TRIPGENIE_HTTP_ADDR")
	cfg.HTTP.CORSOrigins = splitList(v.GetString("TRIPGENIE_CORS_ORIGINS"))
	cfg.HTTP.RequestTimeout = v.GetDuration("TRIPGENIE_REQUEST_TIMEOUT")
	cfg.DB.DSN = v.GetString("TRIPGENIE_DB_DSN")
	cfg.Redis.Addr = v.GetString("TRIPGENIE_REDIS_ADDR")
	cfg.Maps.APIKey = v.GetString("GOOGLE_MAPS_API_KEY")
	cfg.Firebase.ProjectID = v.GetString("TRIPGENIE_FIREBASE_PROJECT_ID")
	cfg.Firebase.CredentialsFile = v.GetString("TRIPGENIE_FIREBASE_CREDENTIALS")
	cfg.Quota.MonthlyTrips = v.GetInt("TRIPGENIE_QUOTA_MONTHLY_TRIPS")
	cfg.Log.Level = v.GetString("TRIPGENIE_LOG_LEVEL")
	cfg.Log.Format = v.GetString("TRIPGENIE_LOG_FORMAT")
	cfg.Log.File = v.GetString("TRIPGENIE_LOG_FILE")
	cfg.Telemetry.Enabled = v.GetBool("OTEL_ENABLED")
	cfg.Telemetry.Endpoint = v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")

	provider := strings.ToLower(strings.TrimSpace(v.GetString("TRIPGENIE_LLM_PROVIDER")))
	cfg.LLM = LLMConfig{
		Provider:    provider,
		BaseURL:     v.GetString("TRIPGENIE_LLM_BASE_URL"),
		Model:       v.GetString("TRIPGENIE_PRIMARY_MODEL"),
		JudgeModel:  v.GetString("TRIPGENIE_JUDGE_MODEL"),
		Temperature: float32(v.GetFloat64("TRIPGENIE_TEMPERATURE")),
		MaxTokens:   v.GetInt("TRIPGENIE_MAX_TOKENS"),
		Timeout:     v.GetDuration("TRIPGENIE_LLM_TIMEOUT"),
		MaxRetries:  v.GetInt("TRIPGENIE_LLM_MAX_RETRIES"),
	}
	switch provider {
	case ProviderGemini:
		cfg.LLM.APIKey = v.GetString("GEMINI_API_KEY")
	case ProviderAnthropic:
		cfg.LLM.APIKey = v.GetString("ANTHROPIC_API_KEY")
	case ProviderOpenAI:
		cfg.LLM.APIKey = v.GetString("OPENAI_API_KEY")
	default:
		return Config{}, fmt.Errorf("config: unsupported llm provider %q", provider)
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel(provider)
	}
	if cfg.LLM.JudgeModel == "" {
		cfg.LLM.JudgeModel = cfg.LLM.Model
	}

	cfg.Pricing = PricingConfig{
		InputPerMTok:  v.GetFloat64("TRIPGENIE_INPUT_COST_PER_MTOK"),
		OutputPerMTok: v.GetFloat64("TRIPGENIE_OUTPUT_COST_PER_MTOK"),
	}
	cfg.Flights = FlightsConfig{
		AmadeusKey:    v.GetString("AMADEUS_API_KEY"),
		AmadeusSecret: v.GetString("AMADEUS_API_SECRET"),
		BaseURL:       strings.TrimRight(v.GetString("AMADEUS_BASE_URL"), "/"),
		Timeout:       v.GetDuration("TRIPGENIE_FLIGHT_TIMEOUT"),
		BestEffort:    v.GetBool("TRIPGENIE_FLIGHTS_BEST_EFFORT"),
		DefaultOrigin: strings.ToUpper(v.GetString("TRIPGENIE_DEFAULT_ORIGIN")),
	}
	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("TRIPGENIE_CACHE_ENABLED"),
		TTL:     v.GetDuration("TRIPGENIE_CACHE_TTL"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the rest of the program relies on.
func (c Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w (provider %s)", ErrMissingAPIKey, c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("config: TRIPGENIE_LLM_TIMEOUT must be positive")
	}
	if c.Flights.Timeout <= 0 {
		return errors.New("config: TRIPGENIE_FLIGHT_TIMEOUT must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return errors.New("config: TRIPGENIE_LLM_MAX_RETRIES must not be negative")
	}
	if c.Quota.MonthlyTrips < 0 {
		return errors.New("config: TRIPGENIE_QUOTA_MONTHLY_TRIPS must not be negative")
	}
	if c.LLM.MaxTokens <= 0 {
		return errors.New("config: TRIPGENIE_MAX_TOKENS must be positive")
	}
	return nil
}

// DefaultModel returns the model used when TRIPGENIE_PRIMARY_MODEL is unset.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "claude-sonnet-4-20250514"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return "gemini-2.0-flash"
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
