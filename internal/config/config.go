// Package config provides environment configuration for the assistant server.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Local data layout
	DataDir          string
	CalendarSnapshot string
	TasksSnapshot    string

	// NATS settings (journal; optional)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret string

	// Local inference (OpenAI-compatible endpoint, e.g. Ollama)
	LocalLLMBaseURL string
	LocalLLMModel   string

	// Remote inference (opt-in escalation)
	RemoteEnabled   bool
	OpenAIAPIKey    string
	AnthropicAPIKey string
	RemoteTimeout   time.Duration

	// Speech
	DeepgramAPIKey string

	// Background media workers
	WorkerCount int
	WorkerQueue int

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from the environment, consulting .env if present.
func Load() *Config {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "local_data")

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Data
		DataDir:          dataDir,
		CalendarSnapshot: getEnv("CALENDAR_SNAPSHOT", filepath.Join(dataDir, "calendar.json")),
		TasksSnapshot:    getEnv("TASKS_SNAPSHOT", filepath.Join(dataDir, "tasks.json")),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Local inference
		LocalLLMBaseURL: getEnv("LOCAL_LLM_BASE_URL", "http://localhost:11434/v1"),
		LocalLLMModel:   getEnv("LOCAL_LLM_MODEL", "llama3.2:3b"),

		// Remote inference
		RemoteEnabled:   getBoolEnv("ENABLE_REMOTE", false),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		RemoteTimeout:   getDurationEnv("REMOTE_TIMEOUT", 15*time.Second),

		// Speech
		DeepgramAPIKey: getEnv("DEEPGRAM_API_KEY", ""),

		// Workers
		WorkerCount: getIntEnv("WORKER_COUNT", 2),
		WorkerQueue: getIntEnv("WORKER_QUEUE", 32),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
