package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Analytics dataset settings
	DataDir          string
	AppointmentsFile string
	PatientsFile     string
	SlotsFile        string

	// CORS
	CORSAllowedOrigins []string

	// Assistant service
	AssistantPort     string
	GeminiAPIKey      string
	GeminiModelID     string
	GroqAPIKey        string
	GroqBaseURL       string
	GroqModelID       string
	LLMMaxRetries     int
	LLMTimeout        time.Duration
	MaxHistoryLength  int
	SessionTTL        time.Duration
	RateLimitPerSec   float64
	RateLimitBurst    int
	RedisAddr         string
	RedisPassword     string
	RedisTLS          bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataDir:          getEnv("DATA_DIR", "data"),
		AppointmentsFile: getEnv("APPOINTMENTS_FILE", "clean_appointments.csv"),
		PatientsFile:     getEnv("PATIENTS_FILE", "patients_cleaned.csv"),
		SlotsFile:        getEnv("SLOTS_FILE", "slots_cleaned_with_doctor_info.csv"),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),

		AssistantPort:    getEnv("ASSISTANT_PORT", "8001"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:    getEnv("GEMINI_MODEL_ID", "gemini-2.0-flash"),
		GroqAPIKey:       getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:      getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModelID:      getEnv("GROQ_MODEL_ID", "llama-3.3-70b-versatile"),
		LLMMaxRetries:    getEnvAsInt("LLM_MAX_RETRIES", 3),
		LLMTimeout:       getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		MaxHistoryLength: getEnvAsInt("MAX_HISTORY_LENGTH", 10),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		RateLimitPerSec:  getEnvAsFloat("RATE_LIMIT_PER_SEC", 5),
		RateLimitBurst:   getEnvAsInt("RATE_LIMIT_BURST", 10),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice retrieves a comma-separated environment variable as a string slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
