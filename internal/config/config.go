package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// LLM
	LLMProvider       string
	LLMConcurrentReqs int
	LLMTimeout        time.Duration
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Env:               getEnvOrDefault("ENV", "development"),
		DatabaseURL:       mustGetEnv("DATABASE_URL"),
		DBMaxConns:        getEnvAsIntOrDefault("DB_MAX_CONNS", 25),
		DBMinConns:        getEnvAsIntOrDefault("DB_MIN_CONNS", 2),
		RedisURL:          mustGetEnv("REDIS_URL"),
		JWTSecret:         mustGetEnv("JWT_SECRET"),
		LLMProvider:       getEnvOrDefault("LLM_PROVIDER", "gemini"),
		LLMConcurrentReqs: getEnvAsIntOrDefault("LLM_CONCURRENT_REQUESTS", 5),
		LLMTimeout:        getEnvAsSecondsOrDefault("LLM_TIMEOUT_SECONDS", 60*time.Second),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		OpenAIBaseURL:     getEnvOrDefault("OPENAI_BASE_URL", ""),
		OpenAIModel:       getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		FrontendURL:       getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	// Only the selected provider's key is required
	switch cfg.LLMProvider {
	case "openai":
		cfg.OpenAIAPIKey = mustGetEnv("OPENAI_API_KEY")
	default:
		cfg.LLMProvider = "gemini"
		cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsSecondsOrDefault(key string, defaultVal time.Duration) time.Duration {
	n := getEnvAsIntOrDefault(key, 0)
	if n <= 0 {
		return defaultVal
	}
	return time.Duration(n) * time.Second
}
