package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the passage catalog.
type Config struct {
	DBPath        string
	ServerPort    int
	LogLevel      string
	Environment   string
	SentryDSN     string
	CorpusDir     string
	RateLimit     RateLimit
	CacheTTL      time.Duration
	IngestWorkers int
	LLMEndpoint   string
	LLMAPIKey     string
	LLMModel      string
	ProofreadRPS  float64
	ShutdownGrace time.Duration
}

// RateLimit configures the per-client limiter in front of the HTTP routes.
type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

const (
	defaultDBPath        = "./data/guka.db"
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultEnvironment   = "development"
	defaultCorpusDir     = "./data/corpus"
	defaultRateRPS       = 5.0
	defaultRateBurst     = 20
	defaultRateClientTTL = 10 * time.Minute
	defaultCacheTTL      = time.Minute
	defaultIngestWorkers = 4
	defaultLLMModel      = "openai/gpt-4o-mini"
	defaultProofreadRPS  = 3.0
	defaultShutdownGrace = 10 * time.Second
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		Environment:   getEnv("ENV", defaultEnvironment),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		CorpusDir:     getEnv("CORPUS_DIR", defaultCorpusDir),
		LLMEndpoint:   os.Getenv("LLM_ENDPOINT"),
		LLMAPIKey:     os.Getenv("LLM_API_KEY"),
		LLMModel:      getEnv("LLM_MODEL", defaultLLMModel),
		ShutdownGrace: defaultShutdownGrace,
	}

	var err error

	if cfg.ServerPort, err = intEnv("SERVER_PORT", defaultServerPort); err != nil {
		return nil, err
	}
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, eris.Errorf("invalid SERVER_PORT value: %d out of range", cfg.ServerPort)
	}

	if cfg.RateLimit.RequestsPerSecond, err = floatEnv("RATE_LIMIT_RPS", defaultRateRPS); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = intEnv("RATE_LIMIT_BURST", defaultRateBurst); err != nil {
		return nil, err
	}
	if cfg.RateLimit.ClientTTL, err = durationEnv("RATE_LIMIT_CLIENT_TTL", defaultRateClientTTL); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", defaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.IngestWorkers, err = intEnv("INGEST_WORKERS", defaultIngestWorkers); err != nil {
		return nil, err
	}
	if cfg.ProofreadRPS, err = floatEnv("PROOFREAD_RPS", defaultProofreadRPS); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the configured environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := getEnv(key, strconv.Itoa(fallback))
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := getEnv(key, strconv.FormatFloat(fallback, 'f', -1, 64))
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, fallback.String())
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}
