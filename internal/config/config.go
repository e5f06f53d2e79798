package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every service setting.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Vector    VectorConfig
	Session   SessionConfig
	Guard     GuardConfig
	Analytics AnalyticsConfig
}

// Load reads configuration from environment variables. Missing
// credentials do not fail the load; the affected capability reports
// itself disabled and the endpoint answers with a configuration error.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	vector, err := loadVectorConfig()
	if err != nil {
		return nil, err
	}

	sess, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	g, err := loadGuardConfig()
	if err != nil {
		return nil, err
	}

	analytics, err := loadAnalyticsConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Vector:    vector,
		Session:   sess,
		Guard:     g,
		Analytics: analytics,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	addr := port
	if !strings.Contains(port, ":") {
		if strings.Contains(port, " ") {
			return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
		}
		addr = ":" + port
	}

	var origins []string
	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return ServerConfig{Addr: addr, AllowedOrigins: origins}, nil
}

// AIConfig describes the completion and embedding provider.
type AIConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Temperature    *float32
	MaxTokens      *int
	Timeout        time.Duration
}

// Enabled reports whether the required provider credentials are present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloat32Env("OPENAI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("OPENAI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("OPENAI_TIMEOUT", 20*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:        strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		ChatModel:      getEnvOrDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnvOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		Timeout:        timeout,
	}, nil
}

// VectorConfig describes the document similarity backend.
type VectorConfig struct {
	Backend          string // "supabase" or "qdrant"
	SupabaseURL      string
	SupabaseKey      string
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	MatchThreshold   float32
	MatchCount       int
	MinQueryLength   int
	Timeout          time.Duration
}

// Enabled reports whether the selected backend has its credentials.
func (c VectorConfig) Enabled() bool {
	switch c.Backend {
	case "qdrant":
		return c.QdrantURL != ""
	default:
		return c.SupabaseURL != "" && c.SupabaseKey != ""
	}
}

func loadVectorConfig() (VectorConfig, error) {
	threshold, err := parseOptionalFloat32Env("VECTOR_MATCH_THRESHOLD")
	if err != nil {
		return VectorConfig{}, err
	}
	matchThreshold := float32(0.75)
	if threshold != nil {
		matchThreshold = *threshold
	}

	matchCount, err := parseOptionalIntEnv("VECTOR_MATCH_COUNT")
	if err != nil {
		return VectorConfig{}, err
	}
	count := 5
	if matchCount != nil {
		count = *matchCount
	}

	minLength, err := parseOptionalIntEnv("VECTOR_MIN_QUERY_LENGTH")
	if err != nil {
		return VectorConfig{}, err
	}
	minQueryLength := 15
	if minLength != nil {
		minQueryLength = *minLength
	}

	timeout, err := parseDurationEnv("VECTOR_TIMEOUT", 10*time.Second)
	if err != nil {
		return VectorConfig{}, err
	}

	return VectorConfig{
		Backend:          getEnvOrDefault("VECTOR_BACKEND", "supabase"),
		SupabaseURL:      strings.TrimSpace(os.Getenv("SUPABASE_URL")),
		SupabaseKey:      strings.TrimSpace(os.Getenv("SUPABASE_SERVICE_KEY")),
		QdrantURL:        strings.TrimSpace(os.Getenv("QDRANT_URL")),
		QdrantAPIKey:     strings.TrimSpace(os.Getenv("QDRANT_API_KEY")),
		QdrantCollection: getEnvOrDefault("QDRANT_COLLECTION", "sensihi_documents"),
		MatchThreshold:   matchThreshold,
		MatchCount:       count,
		MinQueryLength:   minQueryLength,
		Timeout:          timeout,
	}, nil
}

// SessionConfig describes session memory storage.
type SessionConfig struct {
	Driver        string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	TTL           time.Duration
	SweepInterval time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	ttl, err := parseDurationEnv("SESSION_TTL", 30*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	sweep, err := parseDurationEnv("SESSION_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	return SessionConfig{
		Driver:        getEnvOrDefault("SESSION_STORE", "memory"),
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		TTL:           ttl,
		SweepInterval: sweep,
	}, nil
}

// GuardConfig describes request throttling.
type GuardConfig struct {
	Window                time.Duration
	MaxRequestsPerWindow  int
	MaxMessagesPerSession int
}

func loadGuardConfig() (GuardConfig, error) {
	window, err := parseDurationEnv("RATE_WINDOW", time.Minute)
	if err != nil {
		return GuardConfig{}, err
	}

	maxRequests, err := parseOptionalIntEnv("RATE_MAX_REQUESTS")
	if err != nil {
		return GuardConfig{}, err
	}
	requests := 10
	if maxRequests != nil {
		requests = *maxRequests
	}

	maxMessages, err := parseOptionalIntEnv("SESSION_MAX_MESSAGES")
	if err != nil {
		return GuardConfig{}, err
	}
	messages := 30
	if maxMessages != nil {
		messages = *maxMessages
	}

	return GuardConfig{
		Window:                window,
		MaxRequestsPerWindow:  requests,
		MaxMessagesPerSession: messages,
	}, nil
}

// AnalyticsConfig describes the event queue.
type AnalyticsConfig struct {
	QueueCapacity int
	FlushInterval time.Duration
}

func loadAnalyticsConfig() (AnalyticsConfig, error) {
	capacity, err := parseOptionalIntEnv("ANALYTICS_QUEUE_CAPACITY")
	if err != nil {
		return AnalyticsConfig{}, err
	}
	queueCapacity := 50
	if capacity != nil {
		queueCapacity = *capacity
	}

	flush, err := parseDurationEnv("ANALYTICS_FLUSH_INTERVAL", time.Minute)
	if err != nil {
		return AnalyticsConfig{}, err
	}

	return AnalyticsConfig{QueueCapacity: queueCapacity, FlushInterval: flush}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
