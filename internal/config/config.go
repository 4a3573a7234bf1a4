package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Together AI (summarization)
	TogetherAPIKey      string
	TogetherAPIURL      string
	TogetherTextModel   string
	TogetherVisionModel string

	// Google Generative AI (embeddings)
	GeminiAPIKey          string
	GoogleEmbeddingsModel string

	// Ingestion pacing and limits
	SummaryDelayMS  int // fixed delay between summarization calls
	SummaryMaxChars int // raw content is truncated to this before prompting
	DefaultTopK     int

	// Vector store backend: "memory" (default) or "mongo"
	VectorBackend    string
	MongoURI         string
	DBName           string
	VectorCollection string

	// Redis summary cache
	CacheEnabled  bool
	CacheTTLMins  int
	RedisURL      string
	RedisPassword string
	RedisDB       int

	LogLevel string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		TogetherAPIKey:      getEnv("TOGETHER_API_KEY", ""),
		TogetherAPIURL:      getEnv("TOGETHER_API_URL", "https://api.together.xyz/v1/chat/completions"),
		TogetherTextModel:   getEnv("TOGETHER_TEXT_MODEL", "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free"),
		TogetherVisionModel: getEnv("TOGETHER_VISION_MODEL", "meta-llama/Llama-3.2-90B-Vision-Instruct-Turbo"),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),

		SummaryDelayMS:  getEnvInt("SUMMARY_DELAY_MS", 500),
		SummaryMaxChars: getEnvInt("SUMMARY_MAX_CHARS", 8000),
		DefaultTopK:     getEnvInt("DEFAULT_TOP_K", 4),

		VectorBackend:    getEnv("VECTOR_BACKEND", "memory"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017/multivector_rag"),
		DBName:           getEnv("DB_NAME", "multivector_rag"),
		VectorCollection: getEnv("VECTOR_COLLECTION", "element_index"),

		CacheEnabled:  getEnvBool("SUMMARY_CACHE_ENABLED", false),
		CacheTTLMins:  getEnvInt("SUMMARY_CACHE_TTL_MINS", 1440),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.TogetherAPIKey == "" {
		return nil, fmt.Errorf("TOGETHER_API_KEY is required - set it in .env file")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
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
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
