package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig       `toml:"app"`
	Auth      AuthConfig      `toml:"auth"`
	LLM       LLMConfig       `toml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Knowledge KnowledgeConfig `toml:"knowledge"`
	Wellbeing WellbeingConfig `toml:"wellbeing"`
	Redis     RedisConfig     `toml:"redis"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq"`
	Logging   LoggingConfig   `toml:"logging"`
}

type AppConfig struct {
	Name      string `toml:"name"`
	Env       string `toml:"env"`
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	GinMode   string `toml:"gin_mode"`
	WebDir    string `toml:"web_dir"`
	MaxUpload int64  `toml:"max_upload_bytes"`
}

// AuthConfig guards the instructor routes (uploads, dashboard). Disabled by default.
type AuthConfig struct {
	Enabled                bool   `toml:"enabled"`
	JWTSecret              string `toml:"jwt_secret"`
	JWTExpireMinute        int    `toml:"jwt_expire_minute"`
	InstructorUsername     string `toml:"instructor_username"`
	InstructorPasswordHash string `toml:"instructor_password_hash"`
}

type LLMConfig struct {
	Provider    string `toml:"provider"`
	BaseURL     string `toml:"base_url"`
	APIKey      string `toml:"api_key"`
	Model       string `toml:"model"`
	PullOnStart bool   `toml:"pull_on_start"`
}

type EmbeddingConfig struct {
	Provider      string `toml:"provider"`
	BaseURL       string `toml:"base_url"`
	APIKey        string `toml:"api_key"`
	Model         string `toml:"model"`
	ONNXModel     string `toml:"onnx_model_path"`
	ONNXTokenizer string `toml:"onnx_tokenizer_path"`
	ONNXLibPath   string `toml:"onnx_shared_lib_path"`
	ONNXDim       int    `toml:"onnx_dimension"`
	MaxTokens     int    `toml:"onnx_max_tokens"`
	CacheTTLSec   int    `toml:"cache_ttl_seconds"`
}

type KnowledgeConfig struct {
	ChunkSize      int `toml:"chunk_size"`
	TopK           int `toml:"top_k"`
	ContextChunks  int `toml:"context_chunks"`
	EmbedBatchSize int `toml:"embed_batch_size"`
	EmbedWorkers   int `toml:"embed_workers"`
}

type WellbeingConfig struct {
	RecentDays int `toml:"recent_days"`
}

// RedisConfig enables the embedding cache when Addr is non-empty.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// RabbitMQConfig enables queued wellbeing alerts when URL is non-empty.
type RabbitMQConfig struct {
	URL        string `toml:"url"`
	AlertQueue string `toml:"alert_queue"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file failed: %w", err)
		}
	}

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	switch strings.ToLower(c.Embedding.Provider) {
	case "ollama", "openai", "onnx":
	default:
		return fmt.Errorf("unsupported embedding provider %q", c.Embedding.Provider)
	}
	if c.Knowledge.ChunkSize <= 0 {
		return fmt.Errorf("knowledge.chunk_size must be positive")
	}
	if c.Auth.Enabled && (c.Auth.JWTSecret == "" || c.Auth.InstructorPasswordHash == "") {
		return fmt.Errorf("auth enabled but jwt_secret or instructor_password_hash is empty")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:      "courseassist",
			Env:       "dev",
			Host:      "0.0.0.0",
			Port:      8000,
			GinMode:   "debug",
			WebDir:    "web",
			MaxUpload: 20 << 20,
		},
		Auth: AuthConfig{
			Enabled:            false,
			JWTExpireMinute:    120,
			InstructorUsername: "instructor",
		},
		LLM: LLMConfig{
			Provider: "ollama",
			BaseURL:  "http://127.0.0.1:11434",
			Model:    "llama3.1:8b",
		},
		Embedding: EmbeddingConfig{
			Provider:      "ollama",
			BaseURL:       "http://127.0.0.1:11434",
			Model:         "all-minilm",
			ONNXModel:     "assets/all-MiniLM-L6-v2.onnx",
			ONNXTokenizer: "assets/tokenizer.json",
			ONNXDim:       384,
			MaxTokens:     256,
			CacheTTLSec:   24 * 3600,
		},
		Knowledge: KnowledgeConfig{
			ChunkSize:      500,
			TopK:           3,
			ContextChunks:  2,
			EmbedBatchSize: 16,
			EmbedWorkers:   4,
		},
		Wellbeing: WellbeingConfig{
			RecentDays: 7,
		},
		Redis: RedisConfig{
			Addr: "",
			DB:   0,
		},
		RabbitMQ: RabbitMQConfig{
			URL:        "",
			AlertQueue: "wellbeing.alerts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	cfg.App.WebDir = getEnv("APP_WEB_DIR", cfg.App.WebDir)

	cfg.Auth.Enabled = getEnvAsBool("AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTExpireMinute = getEnvAsInt("JWT_EXPIRE_MINUTE", cfg.Auth.JWTExpireMinute)
	cfg.Auth.InstructorUsername = getEnv("INSTRUCTOR_USERNAME", cfg.Auth.InstructorUsername)
	cfg.Auth.InstructorPasswordHash = getEnv("INSTRUCTOR_PASSWORD_HASH", cfg.Auth.InstructorPasswordHash)

	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.PullOnStart = getEnvAsBool("LLM_PULL_ON_START", cfg.LLM.PullOnStart)

	cfg.Embedding.Provider = getEnv("EMBEDDING_PROVIDER", cfg.Embedding.Provider)
	cfg.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", cfg.Embedding.BaseURL)
	cfg.Embedding.APIKey = getEnv("EMBEDDING_API_KEY", cfg.Embedding.APIKey)
	cfg.Embedding.Model = getEnv("EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.Embedding.ONNXModel = getEnv("EMBEDDING_ONNX_MODEL", cfg.Embedding.ONNXModel)
	cfg.Embedding.ONNXTokenizer = getEnv("EMBEDDING_ONNX_TOKENIZER", cfg.Embedding.ONNXTokenizer)
	cfg.Embedding.ONNXLibPath = getEnv("EMBEDDING_ONNX_LIB", cfg.Embedding.ONNXLibPath)
	cfg.Embedding.CacheTTLSec = getEnvAsInt("EMBEDDING_CACHE_TTL_SECONDS", cfg.Embedding.CacheTTLSec)

	cfg.Knowledge.ChunkSize = getEnvAsInt("KNOWLEDGE_CHUNK_SIZE", cfg.Knowledge.ChunkSize)
	cfg.Knowledge.TopK = getEnvAsInt("KNOWLEDGE_TOP_K", cfg.Knowledge.TopK)

	cfg.Wellbeing.RecentDays = getEnvAsInt("WELLBEING_RECENT_DAYS", cfg.Wellbeing.RecentDays)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.AlertQueue = getEnv("RABBITMQ_ALERT_QUEUE", cfg.RabbitMQ.AlertQueue)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
