package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port            string        `mapstructure:"port"`
	Env             string        `mapstructure:"env"`
	CORSAllowOrigin []string      `mapstructure:"-"`
	DatabaseURL     string        `mapstructure:"database_url"`
	DB              DBPoolConfig  `mapstructure:"db"`
	ObjectStoreType string        `mapstructure:"object_store"`
	LocalStoreDir   string        `mapstructure:"local_store_dir"`
	AWSRegion       string        `mapstructure:"aws_region"`
	S3Bucket        string        `mapstructure:"s3_bucket"`
	S3Prefix        string        `mapstructure:"s3_prefix"`
	SSEKMSKeyID     string        `mapstructure:"sse_kms_key_id"`
	MinIO           MinIOConfig   `mapstructure:"minio"`
	Upload          UploadConfig  `mapstructure:"upload"`
	Quota           QuotaConfig   `mapstructure:"quota"`
	RedisURL        string        `mapstructure:"redis_url"`
	LLM             LLMConfig     `mapstructure:"llm"`
	AI              AIParseConfig `mapstructure:"ai"`
}

// DBPoolConfig overrides connection pool defaults; zero values keep them.
type DBPoolConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
}

// UploadConfig bounds incoming CV files.
type UploadConfig struct {
	TmpDir   string `mapstructure:"tmp_dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

// QuotaConfig controls how many uploads a caller may make per window.
type QuotaConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// LLMConfig selects the structured-parsing provider.
type LLMConfig struct {
	Provider       string `mapstructure:"provider"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// AIParseConfig tunes retries around the provider call.
type AIParseConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	BaseDelay     time.Duration `mapstructure:"base_delay"`
	MaxInputChars int           `mapstructure:"max_input_chars"`
}

var envBindings = map[string]string{
	"port":                    "PORT",
	"env":                     "ENV",
	"cors_allow_origins":      "CORS_ALLOW_ORIGINS",
	"database_url":            "DATABASE_URL",
	"db.max_open_conns":       "DB_MAX_OPEN_CONNS",
	"db.max_idle_conns":       "DB_MAX_IDLE_CONNS",
	"db.conn_max_lifetime":    "DB_CONN_MAX_LIFETIME",
	"db.conn_max_idle_time":   "DB_CONN_MAX_IDLE_TIME",
	"db.ping_timeout":         "DB_PING_TIMEOUT",
	"object_store":            "OBJECT_STORE",
	"local_store_dir":         "LOCAL_STORE_DIR",
	"aws_region":              "AWS_REGION",
	"s3_bucket":               "S3_BUCKET",
	"s3_prefix":               "S3_PREFIX",
	"sse_kms_key_id":          "SSE_KMS_KEY_ID",
	"minio.endpoint":          "MINIO_ENDPOINT",
	"minio.access_key_id":     "MINIO_ACCESS_KEY_ID",
	"minio.secret_access_key": "MINIO_SECRET_ACCESS_KEY",
	"minio.use_ssl":           "MINIO_USE_SSL",
	"minio.bucket":            "MINIO_BUCKET",
	"minio.region":            "MINIO_REGION",
	"upload.tmp_dir":          "UPLOAD_TMP_DIR",
	"upload.max_bytes":        "MAX_UPLOAD_BYTES",
	"quota.limit":             "UPLOAD_QUOTA_LIMIT",
	"quota.window":            "UPLOAD_QUOTA_WINDOW",
	"redis_url":               "REDIS_URL",
	"llm.provider":            "LLM_PROVIDER",
	"llm.model":               "LLM_MODEL",
	"llm.base_url":            "LLM_BASE_URL",
	"llm.api_key":             "OPENAI_API_KEY",
	"llm.timeout_seconds":     "OPENAI_TIMEOUT_SECONDS",
	"ai.max_attempts":         "AI_MAX_ATTEMPTS",
	"ai.base_delay":           "AI_BASE_DELAY",
	"ai.max_input_chars":      "AI_MAX_INPUT_CHARS",
}

// Load reads configuration from .env files and environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	cfg.CORSAllowOrigin = splitAndTrim(v.GetString("cors_allow_origins"))

	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoad wraps Load and exits the process on failure.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "dev")
	v.SetDefault("cors_allow_origins", "http://localhost:5173")
	v.SetDefault("object_store", "local")
	v.SetDefault("local_store_dir", "./data")
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "cv-uploads")
	v.SetDefault("upload.tmp_dir", "")
	v.SetDefault("upload.max_bytes", 10<<20)
	v.SetDefault("quota.limit", 10)
	v.SetDefault("quota.window", 7*24*time.Hour)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout_seconds", 120)
	v.SetDefault("ai.max_attempts", 3)
	v.SetDefault("ai.base_delay", time.Second)
	v.SetDefault("ai.max_input_chars", 15000)
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("port is required")
	}
	if cfg.Upload.MaxBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}
	if cfg.Quota.Limit <= 0 {
		return errors.New("upload quota limit must be positive")
	}
	if cfg.Quota.Window <= 0 {
		return errors.New("upload quota window must be positive")
	}
	if cfg.AI.MaxAttempts <= 0 {
		return errors.New("ai max attempts must be positive")
	}
	switch cfg.ObjectStoreType {
	case "s3":
		if cfg.S3Bucket == "" {
			return errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
	case "minio":
		if cfg.MinIO.AccessKeyID == "" || cfg.MinIO.SecretAccessKey == "" {
			return errors.New("OBJECT_STORE=minio requires MINIO_ACCESS_KEY_ID and MINIO_SECRET_ACCESS_KEY")
		}
	}
	return nil
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

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}
