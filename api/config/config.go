package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	ModelProvider   string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiEndpoint  string
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	// Retry policy for the generative text service.
	LLMMaxAttempts int
	LLMBaseDelay   time.Duration
	LLMMaxJitter   time.Duration
	LLMTimeout     time.Duration

	YouTubeAPIKey string
	RedisURL      string
	VideoCacheTTL time.Duration

	JWTSecret    string
	KeywordLimit int
	MaterialsDir string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DBDriver:        getEnv("DB_DRIVER", "sqlite"),
		DBPath:          getEnv("DB_PATH", "./storage/studyguide.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		ModelProvider:   getEnv("MODEL_PROVIDER", "gemini"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiEndpoint:  getEnv("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta/models"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		LLMMaxAttempts:  getEnvInt("LLM_MAX_ATTEMPTS", 4),
		LLMBaseDelay:    getEnvDuration("LLM_BASE_DELAY", 500*time.Millisecond),
		LLMMaxJitter:    getEnvDuration("LLM_MAX_JITTER", 500*time.Millisecond),
		LLMTimeout:      getEnvDuration("LLM_TIMEOUT", 0),
		YouTubeAPIKey:   getEnv("YOUTUBE_API_KEY", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		VideoCacheTTL:   getEnvDuration("VIDEO_CACHE_TTL", 24*time.Hour),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		KeywordLimit:    getEnvInt("KEYWORD_LIMIT", 8),
		MaterialsDir:    getEnv("MATERIALS_DIR", "./storage/materials"),
	}

	if cfg.LLMMaxAttempts < 1 {
		cfg.LLMMaxAttempts = 1
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration accepts Go duration strings ("750ms") or plain milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
