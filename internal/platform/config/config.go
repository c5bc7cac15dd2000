package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/23Serhii/avesint-platform/internal/source"
)

const (
	minConcurrency        = 1
	minRefreshIntervalSec = 5
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`

	TGAPIID       int    `env:"TG_API_ID,required"`
	TGAPIHash     string `env:"TG_API_HASH,required"`
	TGPhone       string `env:"TG_PHONE"`
	TG2FAPassword string `env:"TG_2FA_PASSWORD"`
	TGSessionPath string `env:"TG_SESSION_PATH" envDefault:"./osint.session"`

	MaxConcurrency            int      `env:"TG_MAX_CONCURRENCY" envDefault:"3"`
	Channels                  []string `env:"TG_CHANNELS" envSeparator:","`
	ChannelRefreshIntervalSec int      `env:"TG_CHANNEL_REFRESH_INTERVAL_SEC" envDefault:"10"`
	SourceCategoryMapJSON     string   `env:"OSINT_SOURCE_CATEGORY_MAP_JSON"`

	BackendURL    string `env:"AVESINT_API_URL" envDefault:"http://localhost:3000/api"`
	BackendAPIKey string `env:"AVESINT_API_KEY"`

	OllamaURL string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	LLMModel  string `env:"LLM_MODEL" envDefault:"gemma3:12b"`

	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"120s"`
	IngestTimeout  time.Duration `env:"INGEST_TIMEOUT" envDefault:"30s"`
	SourcesTimeout time.Duration `env:"SOURCES_TIMEOUT" envDefault:"10s"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

// Load reads the environment (plus an optional .env file) and applies the
// documented lower bounds. Missing Telegram credentials are the only fatal
// configuration failure and surface here, before any processing begins.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyBounds(cfg)

	return cfg, nil
}

func applyBounds(cfg *Config) {
	if cfg.MaxConcurrency < minConcurrency {
		cfg.MaxConcurrency = minConcurrency
	}

	if cfg.ChannelRefreshIntervalSec < minRefreshIntervalSec {
		cfg.ChannelRefreshIntervalSec = minRefreshIntervalSec
	}

	cfg.Channels = cleanChannels(cfg.Channels)
}

func cleanChannels(raw []string) []string {
	out := make([]string, 0, len(raw))

	for _, c := range raw {
		if h := source.NormalizeHandle(c); h != "" {
			out = append(out, h)
		}
	}

	return out
}

// RefreshInterval is the registry/membership reconcile period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.ChannelRefreshIntervalSec) * time.Second
}

// CategoryOverrides parses the static handle-to-category override map.
// Malformed JSON yields an empty map; values outside the allowed categories
// are kept here and ignored at resolution time.
func (c *Config) CategoryOverrides() map[string]string {
	if c.SourceCategoryMapJSON == "" {
		return map[string]string{}
	}

	overrides := map[string]string{}
	if err := json.Unmarshal([]byte(c.SourceCategoryMapJSON), &overrides); err != nil {
		return map[string]string{}
	}

	return overrides
}
