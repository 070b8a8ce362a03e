package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var envVars = []string{
	"LOG_LEVEL", "LOG_FORMAT", "DOCQUERY_CONFIG",
	"MAX_FILE_SIZE_MB", "MAX_PAGES", "EXTRACT_BACKEND", "OCR_ENABLED", "OCR_DPI", "OCR_LANGUAGE",
	"CHUNK_SIZE", "CHUNK_OVERLAP",
	"LLM_BACKEND", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_EMBEDDING_MODEL",
	"LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL", "EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME",
	"RATE_LIMIT_MAX_REQUESTS", "RATE_LIMIT_WINDOW", "RATE_LIMIT_MAX_WAIT", "RATE_LIMIT_POLL_INTERVAL",
	"RETRY_ATTEMPTS", "RETRY_DELAY",
	"CONFIDENCE_SIMILARITY_WEIGHT", "CONFIDENCE_LENGTH_SATURATION",
	"VECTOR_BACKEND", "QDRANT_URL", "QDRANT_COLLECTION", "VECTOR_SIZE", "POSTGRES_DSN", "INDEX_MAX_DISTANCE",
	"DB_PATH", "STORAGE_TYPE", "STORAGE_LOCAL_PATH", "AWS_S3_BUCKET", "AWS_REGION", "INBOX_DIR",
	"API_PORT", "API_RATE_LIMIT_RPS", "API_RATE_LIMIT_BURST", "GUARD_ENABLED", "TOPICS_ENABLED",
}

// isolateEnv clears every variable Load reads and restores them when the test ends.
func isolateEnv(t *testing.T) {
	t.Helper()
	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	t.Cleanup(func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	isolateEnv(t)

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name: "defaults with gemini key",
			setupEnv: func(t *testing.T) {
				setEnv("GEMINI_API_KEY", "key")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.MaxFileSizeBytes == 50*1024*1024 &&
					cfg.MaxPages == 500 &&
					cfg.ChunkSize == 1000 &&
					cfg.ChunkOverlap == 200 &&
					cfg.RateLimitMaxRequests == 60 &&
					cfg.RateLimitWindow == 60*time.Second &&
					cfg.RateLimitMaxWait == 65*time.Second &&
					cfg.RateLimitPollInterval == time.Second &&
					cfg.RetryAttempts == 3 &&
					cfg.RetryDelay == time.Second &&
					cfg.ConfidenceSimilarityWeight == 0.7 &&
					cfg.ConfidenceLengthSaturation == 100 &&
					cfg.OCREnabled &&
					cfg.OCRDPI == 200 &&
					cfg.LLMBackend == "gemini" &&
					cfg.VectorBackend == "qdrant" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text" &&
					cfg.GuardEnabled &&
					cfg.TopicsEnabled
			},
		},
		{
			name: "gemini backend without key",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			},
			wantErr: true,
		},
		{
			name: "openai backend needs no gemini key",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_BACKEND", "openai")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMBackend == "openai" && cfg.LLMBaseURL == "http://localhost:8080"
			},
		},
		{
			name: "overlap not smaller than chunk size",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_BACKEND", "openai")
				setEnv("CHUNK_SIZE", "100")
				setEnv("CHUNK_OVERLAP", "100")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			},
			wantErr: true,
		},
		{
			name: "invalid CHUNK_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_BACKEND", "openai")
				setEnv("CHUNK_SIZE", "invalid")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			},
			wantErr: true,
		},
		{
			name: "zero RATE_LIMIT_MAX_REQUESTS",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_BACKEND", "openai")
				setEnv("RATE_LIMIT_MAX_REQUESTS", "0")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			},
			wantErr: true,
		},
		{
			name: "durations accept seconds and go syntax",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_BACKEND", "openai")
				setEnv("RATE_LIMIT_WINDOW", "30")
				setEnv("RETRY_DELAY", "250ms")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.RateLimitWindow == 30*time.Second && cfg.RetryDelay == 250*time.Millisecond
			},
		},
		{
			name: "pgvector without dsn",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_BACKEND", "openai")
				setEnv("VECTOR_BACKEND", "pgvector")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			},
			wantErr: true,
		},
		{
			name: "s3 without bucket",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_BACKEND", "openai")
				setEnv("STORAGE_TYPE", "s3")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			},
			wantErr: true,
		},
		{
			name: "unknown log format",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_BACKEND", "openai")
				setEnv("LOG_FORMAT", "xml")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			},
			wantErr: true,
		},
		{
			name: "debug log level",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_BACKEND", "openai")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOG_FORMAT", "JSON")
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			},
			checkConfig: func(cfg *Config) bool {
				return cfg.LogLevel == slog.LevelDebug && cfg.LogFormat == "json"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envVars {
				unsetEnv(key)
			}
			tt.setupEnv(t)

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config check failed: %+v", cfg)
			}
		})
	}
}

func TestLoadWithFile(t *testing.T) {
	isolateEnv(t)

	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "docquery.toml")
	tomlBody := `
llm_backend = "openai"
chunk_size = 500
chunk_overlap = 50
db_path = "` + filepath.ToSlash(filepath.Join(dir, "toml.db")) + `"

[rate_limit]
max_requests = 30
window = "30s"
`
	if err := os.WriteFile(tomlPath, []byte(tomlBody), 0o644); err != nil {
		t.Fatalf("failed to write toml: %v", err)
	}

	yamlPath := filepath.Join(dir, "docquery.yaml")
	yamlBody := "llm_backend: openai\nmax_pages: 20\nguard_enabled: false\ndb_path: " +
		filepath.ToSlash(filepath.Join(dir, "yaml.db")) + "\n"
	if err := os.WriteFile(yamlPath, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("failed to write yaml: %v", err)
	}

	t.Run("toml values become defaults", func(t *testing.T) {
		cfg, err := LoadWithFile(tomlPath)
		if err != nil {
			t.Fatalf("LoadWithFile() error = %v", err)
		}
		if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
			t.Errorf("chunking = %d/%d, want 500/50", cfg.ChunkSize, cfg.ChunkOverlap)
		}
		if cfg.RateLimitMaxRequests != 30 || cfg.RateLimitWindow != 30*time.Second {
			t.Errorf("rate limit = %d/%v, want 30/30s", cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		setEnv("CHUNK_SIZE", "800")
		defer unsetEnv("CHUNK_SIZE")

		cfg, err := LoadWithFile(tomlPath)
		if err != nil {
			t.Fatalf("LoadWithFile() error = %v", err)
		}
		if cfg.ChunkSize != 800 {
			t.Errorf("ChunkSize = %d, want 800", cfg.ChunkSize)
		}
	})

	t.Run("yaml file", func(t *testing.T) {
		cfg, err := LoadWithFile(yamlPath)
		if err != nil {
			t.Fatalf("LoadWithFile() error = %v", err)
		}
		if cfg.MaxPages != 20 || cfg.GuardEnabled {
			t.Errorf("MaxPages = %d GuardEnabled = %v, want 20 false", cfg.MaxPages, cfg.GuardEnabled)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "docquery.ini")
		if err := os.WriteFile(path, []byte("x=1"), 0o644); err != nil {
			t.Fatalf("failed to write ini: %v", err)
		}
		if _, err := LoadWithFile(path); err == nil {
			t.Error("LoadWithFile() expected error for .ini")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadWithFile(filepath.Join(dir, "missing.toml")); err == nil {
			t.Error("LoadWithFile() expected error for missing file")
		}
	})
}

func TestGetEnv(t *testing.T) {
	key := "DOCQUERY_TEST_GET_ENV"
	unsetEnv(key)
	defer unsetEnv(key)

	fileValues = map[string]string{key: "from-file"}
	defer func() { fileValues = nil }()

	if got := getEnv(key, "default"); got != "from-file" {
		t.Errorf("getEnv() = %q, want from-file", got)
	}
	setEnv(key, "from-env")
	if got := getEnv(key, "default"); got != "from-env" {
		t.Errorf("getEnv() = %q, want from-env", got)
	}
	fileValues = nil
	unsetEnv(key)
	if got := getEnv(key, "default"); got != "default" {
		t.Errorf("getEnv() = %q, want default", got)
	}
}
