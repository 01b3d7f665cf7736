package quizimages

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingCredential is returned when the selected AI provider has no API key
var ErrMissingCredential = errors.New("missing AI credential")

// Provider names accepted by AI_PROVIDER
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

const (
	DefaultBatchSize = 8
	MaxBatchSize     = 12
)

// Config holds the runtime settings shared by the binaries
type Config struct {
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	BatchSize      int
	MaxEscalations int
	AIDelay        time.Duration
	SearchDelay    time.Duration
	BatchDelay     time.Duration

	DBDriver string
	DBDSN    string
	CacheTTL time.Duration

	WikipediaLang    string
	CommonsUserAgent string

	Verbose bool
}

// ConfigFromEnv reads the configuration from the environment
func ConfigFromEnv() Config {
	return Config{
		Provider:     strings.ToLower(envOr("AI_PROVIDER", ProviderGemini)),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  envOr("OPENAI_MODEL", "gpt-4o-mini"),

		BatchSize:      envInt("QUIZIMAGES_BATCH_SIZE", DefaultBatchSize),
		MaxEscalations: envInt("QUIZIMAGES_MAX_ESCALATIONS", MaxEscalationsPerQuiz),
		AIDelay:        envDuration("QUIZIMAGES_AI_DELAY", 1500*time.Millisecond),
		SearchDelay:    envDuration("QUIZIMAGES_SEARCH_DELAY", 300*time.Millisecond),
		BatchDelay:     envDuration("QUIZIMAGES_BATCH_DELAY", 3*time.Second),

		DBDriver: envOr("QUIZIMAGES_DB_DRIVER", "sqlite3"),
		DBDSN:    envOr("QUIZIMAGES_DB_DSN", "quizimages.db"),
		CacheTTL: envDuration("QUIZIMAGES_CACHE_TTL", 7*24*time.Hour),

		WikipediaLang:    envOr("WIKIPEDIA_LANG", "nl"),
		CommonsUserAgent: envOr("COMMONS_USER_AGENT", "quizimages/1.0 (educational quiz illustration)"),

		Verbose: envBool("QUIZIMAGES_VERBOSE", false),
	}
}

// Validate checks the provider and its credential
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrMissingCredential)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("unknown AI provider %q", c.Provider)
	}
	return nil
}

// EffectiveBatchSize clamps the configured batch size to [1, MaxBatchSize]
func (c Config) EffectiveBatchSize() int {
	switch {
	case c.BatchSize <= 0:
		return DefaultBatchSize
	case c.BatchSize > MaxBatchSize:
		return MaxBatchSize
	}
	return c.BatchSize
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

// envDuration accepts Go durations ("2s") or a bare number of milliseconds
func envDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}
