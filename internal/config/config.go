// Package config loads podcast-kpi settings from config.yaml, PODCAST_*
// environment variables and built-in defaults.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/podcast-kpi/internal/cost"
	"github.com/sells-group/podcast-kpi/internal/kpi"
)

// Provider names accepted by extract.guest_provider and extract.topic_provider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderAnthropic  = "anthropic"
)

// Config is the top-level application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Input      InputConfig      `yaml:"input" mapstructure:"input"`
	OpenRouter OpenRouterConfig `yaml:"openrouter" mapstructure:"openrouter"`
	Ollama     OllamaConfig     `yaml:"ollama" mapstructure:"ollama"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	KPI        KPIConfig        `yaml:"kpi" mapstructure:"kpi"`
	Pricing    []ModelPricing   `yaml:"pricing" mapstructure:"pricing"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the stage cache backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver" validate:"oneof=sqlite postgres memory"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url" validate:"required_unless=Driver memory"`
}

// InputConfig locates the raw video export.
type InputConfig struct {
	Path  string `yaml:"path" mapstructure:"path" validate:"required"`
	Sheet string `yaml:"sheet" mapstructure:"sheet"`
}

type OpenRouterConfig struct {
	Key         string  `yaml:"key" mapstructure:"key" validate:"required"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Model       string  `yaml:"model" mapstructure:"model" validate:"required"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature" validate:"min=0,max=2"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens" validate:"min=1,max=4096"`
}

type OllamaConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Model   string `yaml:"model" mapstructure:"model" validate:"required"`
}

type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key" validate:"required"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	Model     string `yaml:"model" mapstructure:"model" validate:"required"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens" validate:"min=1,max=4096"`
}

// ExtractConfig picks the language-model backend of each extraction stage.
type ExtractConfig struct {
	GuestProvider     string  `yaml:"guest_provider" mapstructure:"guest_provider" validate:"oneof=openrouter ollama anthropic"`
	TopicProvider     string  `yaml:"topic_provider" mapstructure:"topic_provider" validate:"oneof=openrouter ollama anthropic"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"min=0"`
	ShowProgress      bool    `yaml:"show_progress" mapstructure:"show_progress"`
}

type KPIConfig struct {
	NameMatchThreshold   float64     `yaml:"name_match_threshold" mapstructure:"name_match_threshold" validate:"gt=0,lte=100"`
	IncludeUnnamedGuests bool        `yaml:"include_unnamed_guests" mapstructure:"include_unnamed_guests"`
	Weights              kpi.Weights `yaml:"weights" mapstructure:"weights"`
}

// ModelPricing is the per-million-token price of one model.
type ModelPricing struct {
	Model  string  `yaml:"model" mapstructure:"model" validate:"required"`
	Input  float64 `yaml:"input" mapstructure:"input" validate:"min=0"`
	Output float64 `yaml:"output" mapstructure:"output" validate:"min=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// Load reads configuration from config.yaml (if present), environment variables,
// and defaults. Environment variables use the PODCAST_ prefix with underscores
// replacing dots (e.g., PODCAST_OPENROUTER_KEY).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PODCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	w := kpi.DefaultWeights()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/cache.db")
	v.SetDefault("input.path", "data/raw/DIARY_all_pod.csv")
	v.SetDefault("openrouter.key", "")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.temperature", 0.1)
	v.SetDefault("openrouter.max_tokens", 200)
	v.SetDefault("ollama.base_url", "http://localhost:11434/v1")
	v.SetDefault("ollama.model", "llama3.2:3b")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 200)
	v.SetDefault("extract.guest_provider", ProviderOpenRouter)
	v.SetDefault("extract.topic_provider", ProviderOllama)
	v.SetDefault("extract.requests_per_second", 0)
	v.SetDefault("extract.show_progress", true)
	v.SetDefault("kpi.name_match_threshold", kpi.DefaultNameMatchThreshold)
	v.SetDefault("kpi.include_unnamed_guests", false)
	v.SetDefault("kpi.weights.comments", w.Comments)
	v.SetDefault("kpi.weights.likes", w.Likes)
	v.SetDefault("kpi.weights.views", w.Views)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the always-required sections (store, extract, kpi, log,
// pricing) and any additional named sections ("input", "openrouter",
// "ollama", "anthropic").
func (c *Config) Validate(sections ...string) error {
	v := validator.New()

	check := map[string]any{
		"store":   c.Store,
		"extract": c.Extract,
		"kpi":     c.KPI,
		"log":     c.Log,
	}
	order := []string{"store", "extract", "kpi", "log"}
	for _, s := range sections {
		switch s {
		case "input":
			check[s] = c.Input
		case ProviderOpenRouter:
			check[s] = c.OpenRouter
		case ProviderOllama:
			check[s] = c.Ollama
		case ProviderAnthropic:
			check[s] = c.Anthropic
		default:
			return eris.Errorf("config: unknown section %q", s)
		}
		order = append(order, s)
	}

	for _, name := range order {
		if err := v.Struct(check[name]); err != nil {
			return eris.Wrapf(err, "config: invalid %s", name)
		}
	}
	for i, p := range c.Pricing {
		if err := v.Struct(p); err != nil {
			return eris.Wrapf(err, "config: invalid pricing[%d]", i)
		}
	}
	if err := c.KPI.Weights.Validate(); err != nil {
		return eris.Wrap(err, "config: invalid kpi")
	}
	return nil
}

// ProviderSections returns the provider sections the configured extraction
// stages depend on, without duplicates.
func (c *Config) ProviderSections() []string {
	out := []string{c.Extract.GuestProvider}
	if c.Extract.TopicProvider != c.Extract.GuestProvider {
		out = append(out, c.Extract.TopicProvider)
	}
	return out
}

// Rates returns the pricing table: built-in rates overlaid with the
// configured ones.
func (c *Config) Rates() cost.Rates {
	rates := cost.DefaultRates()
	for _, p := range c.Pricing {
		rates.Models[p.Model] = cost.ModelRate{Input: p.Input, Output: p.Output}
	}
	return rates
}

// InitLogger sets up the global zap logger based on config.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
