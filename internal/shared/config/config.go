package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	DatabaseURL     string
	CORSAllowOrigin []string

	EdinetBaseURL         string
	EdinetAPIKey          string
	EdinetMinInterval     time.Duration
	EdinetTimeout         time.Duration
	EdinetRetryCount      int
	EdinetUserAgent       string
	SentimentDictPath     string
	SentimentPositiveMin  float64
	SentimentNegativeMax  float64
	SentimentOccurrenceCap int

	LLMProvider string
	LLMModel    string
	LLMAPIKey   string
	LLMTimeout  time.Duration

	SessionTTLSentiment     time.Duration
	SessionTTLComprehensive time.Duration
	SessionReuseWindow      time.Duration
	SessionPurgeInterval    time.Duration

	BatchChunkSize    int
	BatchRetryCount   int
	BatchDBRetryCount int
	NightBatchTime    string
	AutoDateMode      string
	CompanyUpdateMode string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	_ = godotenv.Load(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		DatabaseURL:     dbURL,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		EdinetBaseURL:          getEnv("EDINET_BASE_URL", "https://api.edinet-fsa.go.jp/api/v2"),
		EdinetAPIKey:           getEnv("EDINET_API_KEY", ""),
		EdinetMinInterval:      getDuration("EDINET_MIN_INTERVAL", 2*time.Second),
		EdinetTimeout:          getDuration("EDINET_TIMEOUT", 60*time.Second),
		EdinetRetryCount:       getInt("EDINET_RETRY_COUNT", 3),
		EdinetUserAgent:        getEnv("EDINET_USER_AGENT", "kabu-insight-batch/1.0"),
		SentimentDictPath:      getEnv("SENTIMENT_DICT_PATH", ""),
		SentimentPositiveMin:   getFloat("SENTIMENT_POSITIVE_MIN", 0.15),
		SentimentNegativeMax:   getFloat("SENTIMENT_NEGATIVE_MAX", -0.15),
		SentimentOccurrenceCap: getInt("SENTIMENT_OCCURRENCE_CAP", 10),

		LLMProvider: getEnv("LLM_PROVIDER", "openai"),
		LLMModel:    getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMTimeout:  getDuration("LLM_TIMEOUT", 30*time.Second),

		SessionTTLSentiment:     getDuration("SESSION_TTL_SENTIMENT", 24*time.Hour),
		SessionTTLComprehensive: getDuration("SESSION_TTL_COMPREHENSIVE", 48*time.Hour),
		SessionReuseWindow:      getDuration("SESSION_REUSE_WINDOW", time.Hour),
		SessionPurgeInterval:    getDuration("SESSION_PURGE_INTERVAL", 15*time.Minute),

		BatchChunkSize:    getInt("BATCH_CHUNK_SIZE", 100),
		BatchRetryCount:   getInt("BATCH_RETRY_COUNT", 3),
		BatchDBRetryCount: getInt("BATCH_DB_RETRY_COUNT", 3),
		NightBatchTime:    getEnv("NIGHT_BATCH_TIME", "22:00"),
		AutoDateMode:      getEnv("AUTO_DATE_MODE", "time_based"),
		CompanyUpdateMode: getEnv("COMPANY_UPDATE_MODE", "incremental"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config %s invalid float: %v", key, err)
		return def
	}
	return val
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
