package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel  slog.Level
	LogFormat string

	// Extraction
	MaxFileSizeBytes int64
	MaxPages         int
	ExtractBackend   string // "native" or "poppler"
	OCREnabled       bool
	OCRDPI           int
	OCRLanguage      string

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Generative gateway
	LLMBackend           string // "gemini" or "openai"
	GeminiAPIKey         string
	GeminiModel          string
	GeminiEmbeddingModel string
	LLMBaseURL           string
	LLMModelName         string
	LLMAPIKey            string
	EmbeddingBaseURL     string
	EmbeddingModelName   string

	RateLimitMaxRequests  int
	RateLimitWindow       time.Duration
	RateLimitMaxWait      time.Duration
	RateLimitPollInterval time.Duration
	RetryAttempts         int
	RetryDelay            time.Duration

	// Scoring
	ConfidenceSimilarityWeight float64
	ConfidenceLengthSaturation int

	// Vector index
	VectorBackend    string // "qdrant", "pgvector" or "memory"
	QdrantURL        string
	QdrantCollection string
	VectorSize       int
	PostgresDSN      string
	IndexMaxDistance float64

	// Storage
	DBPath           string
	StorageType      string // "local" or "s3"
	StorageLocalPath string
	S3Bucket         string
	S3Region         string
	AWSAccessKey     string
	AWSSecretKey     string
	InboxDir         string

	// API
	APIPort           string
	APIRateLimitRPS   float64
	APIRateLimitBurst int
	GuardEnabled      bool
	TopicsEnabled     bool
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values, and both take
// precedence over values from the optional config file named by DOCQUERY_CONFIG.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile is Load with an explicit config file path. An empty path falls back to
// the DOCQUERY_CONFIG environment variable.
func LoadWithFile(path string) (*Config, error) {
	loadDotEnv()

	if path == "" {
		path = os.Getenv("DOCQUERY_CONFIG")
	}
	if path != "" {
		values, err := readFile(path)
		if err != nil {
			return nil, err
		}
		fileValues = values
	} else {
		fileValues = nil
	}

	cfg := &Config{
		LogFormat:            strings.ToLower(getEnv("LOG_FORMAT", "text")),
		ExtractBackend:       strings.ToLower(getEnv("EXTRACT_BACKEND", "native")),
		OCRLanguage:          getEnv("OCR_LANGUAGE", "eng"),
		LLMBackend:           strings.ToLower(getEnv("LLM_BACKEND", "gemini")),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiEmbeddingModel: getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		LLMBaseURL:           getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:         getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:            getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:     getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName:   getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		VectorBackend:        strings.ToLower(getEnv("VECTOR_BACKEND", "qdrant")),
		QdrantURL:            getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:     getEnv("QDRANT_COLLECTION", "document_chunks"),
		PostgresDSN:          getEnv("POSTGRES_DSN", ""),
		DBPath:               getEnv("DB_PATH", "./data/docquery.db"),
		StorageType:          strings.ToLower(getEnv("STORAGE_TYPE", "local")),
		StorageLocalPath:     getEnv("STORAGE_LOCAL_PATH", "./data/files"),
		S3Bucket:             getEnv("AWS_S3_BUCKET", ""),
		S3Region:             getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKey:         getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:         getEnv("AWS_SECRET_ACCESS_KEY", ""),
		InboxDir:             getEnv("INBOX_DIR", ""),
		APIPort:              getEnv("API_PORT", "9000"),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	maxSizeMB, err := getInt("MAX_FILE_SIZE_MB", 50, 1)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSizeBytes = int64(maxSizeMB) * 1024 * 1024

	if cfg.MaxPages, err = getInt("MAX_PAGES", 500, 1); err != nil {
		return nil, err
	}
	if cfg.OCREnabled, err = getBool("OCR_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.OCRDPI, err = getInt("OCR_DPI", 200, 1); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = getInt("CHUNK_SIZE", 1000, 1); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getInt("CHUNK_OVERLAP", 200, 0); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	if cfg.RateLimitMaxRequests, err = getInt("RATE_LIMIT_MAX_REQUESTS", 60, 1); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitMaxWait, err = getDuration("RATE_LIMIT_MAX_WAIT", 65*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitPollInterval, err = getDuration("RATE_LIMIT_POLL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryAttempts, err = getInt("RETRY_ATTEMPTS", 3, 1); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = getDuration("RETRY_DELAY", time.Second); err != nil {
		return nil, err
	}

	if cfg.ConfidenceSimilarityWeight, err = getFloat("CONFIDENCE_SIMILARITY_WEIGHT", 0.7); err != nil {
		return nil, err
	}
	if cfg.ConfidenceSimilarityWeight < 0 || cfg.ConfidenceSimilarityWeight > 1 {
		return nil, fmt.Errorf("CONFIDENCE_SIMILARITY_WEIGHT must be between 0 and 1")
	}
	if cfg.ConfidenceLengthSaturation, err = getInt("CONFIDENCE_LENGTH_SATURATION", 100, 1); err != nil {
		return nil, err
	}

	// Note: VECTOR_SIZE must match the output size of the embedding model. Changing it
	// requires recreating the qdrant collection or the pgvector table.
	if cfg.VectorSize, err = getInt("VECTOR_SIZE", 768, 1); err != nil {
		return nil, err
	}
	if cfg.IndexMaxDistance, err = getFloat("INDEX_MAX_DISTANCE", 0); err != nil {
		return nil, err
	}

	if cfg.APIRateLimitRPS, err = getFloat("API_RATE_LIMIT_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.APIRateLimitBurst, err = getInt("API_RATE_LIMIT_BURST", 10, 1); err != nil {
		return nil, err
	}
	if cfg.GuardEnabled, err = getBool("GUARD_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.TopicsEnabled, err = getBool("TOPICS_ENABLED", true); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create the data directory for the SQLite file
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ExtractBackend {
	case "native", "poppler":
	default:
		return fmt.Errorf("EXTRACT_BACKEND must be native or poppler, got %q", c.ExtractBackend)
	}

	switch c.LLMBackend {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_BACKEND is gemini")
		}
	case "openai":
	default:
		return fmt.Errorf("LLM_BACKEND must be gemini or openai, got %q", c.LLMBackend)
	}

	switch c.VectorBackend {
	case "qdrant", "memory":
	case "pgvector":
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when VECTOR_BACKEND is pgvector")
		}
	default:
		return fmt.Errorf("VECTOR_BACKEND must be qdrant, pgvector or memory, got %q", c.VectorBackend)
	}

	switch c.StorageType {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required when STORAGE_TYPE is s3")
		}
	default:
		return fmt.Errorf("STORAGE_TYPE must be local or s3, got %q", c.StorageType)
	}

	return nil
}

// loadDotEnv loads .env from the current directory or the nearest parent that has one.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// getEnv gets an environment variable, then the config file value, or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := fileValues[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue, min int) (int, error) {
	raw := getEnv(key, strconv.Itoa(defaultValue))
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if v < min {
		return 0, fmt.Errorf("%s must be at least %d", key, min)
	}
	return v, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, strconv.FormatFloat(defaultValue, 'f', -1, 64))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, strconv.FormatBool(defaultValue))
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a valid boolean: %w", key, err)
	}
	return v, nil
}

// getDuration accepts Go duration strings ("90s", "1m") or a bare number of seconds.
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, defaultValue.String())
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("%s must not be negative", key)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	return level, nil
}
