package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string

	// Auth
	DoctailorAPIKey string

	// Object storage
	MinIO MinIOConfig

	// Rewrite provider
	LLMProvider        string
	OpenAIAPIKey       string
	OpenAIModel        string
	AnthropicAPIKey    string
	AnthropicModel     string
	GeminiAPIKey       string
	GeminiModel        string
	RewriteMaxTokens   int
	RewriteTemperature float64
	RewriteTimeout     time.Duration

	// Chunked rewriting
	MaxChunkSize       int
	RewriteRetries     int
	RewriteConcurrency int
	LinePolicy         string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Downloads handed to clients and to the pipeline
	PresignExpiry time.Duration

	// Job state
	JobTTL time.Duration

	ScratchDir     string
	LLMStatsWindow time.Duration

	// Tracing; empty endpoint disables export
	OTLPEndpoint string
}

// MinIOConfig locates the S3-compatible bucket holding resumes.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

var defaults = map[string]any{
	"port":                "8090",
	"minio_endpoint":      "localhost:9000",
	"minio_bucket":        "resumes",
	"minio_use_ssl":       false,
	"llm_provider":        "openai",
	"openai_model":        "gpt-4o-mini",
	"anthropic_model":     "claude-3-5-haiku-latest",
	"gemini_model":        "gemini-1.5-flash",
	"rewrite_max_tokens":  1500,
	"rewrite_temperature": 0.3,
	"rewrite_timeout":     2 * time.Minute,
	"max_chunk_size":      1500,
	"rewrite_retries":     3,
	"rewrite_concurrency": 1,
	"line_policy":         "tolerant",
	"worker_count":        4,
	"max_queue_size":      100,
	"max_upload_bytes":    10 << 20,
	"presign_expiry":      time.Hour,
	"job_ttl":             time.Hour,
	"scratch_dir":         "",
	"llm_stats_window":    time.Hour,
	"otlp_endpoint":       "",
}

// Load reads defaults, an optional doctailor.yaml (or cfgFile when given)
// and environment variables, in increasing precedence. Keys in the file use
// the environment variable names in lower case.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()
	_ = v.BindEnv("otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("doctailor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.doctailor")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Port: v.GetString("port"),

		DoctailorAPIKey: v.GetString("doctailor_api_key"),

		MinIO: MinIOConfig{
			Endpoint:  v.GetString("minio_endpoint"),
			AccessKey: v.GetString("minio_access_key"),
			SecretKey: v.GetString("minio_secret_key"),
			Bucket:    v.GetString("minio_bucket"),
			UseSSL:    v.GetBool("minio_use_ssl"),
		},

		LLMProvider:        strings.ToLower(v.GetString("llm_provider")),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIModel:        v.GetString("openai_model"),
		AnthropicAPIKey:    v.GetString("anthropic_api_key"),
		AnthropicModel:     v.GetString("anthropic_model"),
		GeminiAPIKey:       v.GetString("gemini_api_key"),
		GeminiModel:        v.GetString("gemini_model"),
		RewriteMaxTokens:   v.GetInt("rewrite_max_tokens"),
		RewriteTemperature: v.GetFloat64("rewrite_temperature"),
		RewriteTimeout:     v.GetDuration("rewrite_timeout"),

		MaxChunkSize:       v.GetInt("max_chunk_size"),
		RewriteRetries:     v.GetInt("rewrite_retries"),
		RewriteConcurrency: v.GetInt("rewrite_concurrency"),
		LinePolicy:         v.GetString("line_policy"),

		WorkerCount:  v.GetInt("worker_count"),
		MaxQueueSize: v.GetInt("max_queue_size"),

		MaxUploadBytes: v.GetInt64("max_upload_bytes"),
		PresignExpiry:  v.GetDuration("presign_expiry"),
		JobTTL:         v.GetDuration("job_ttl"),

		ScratchDir:     v.GetString("scratch_dir"),
		LLMStatsWindow: v.GetDuration("llm_stats_window"),

		OTLPEndpoint: v.GetString("otlp_endpoint"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = 1500
	}
	if cfg.RewriteRetries <= 0 {
		cfg.RewriteRetries = 1
	}
	if cfg.RewriteConcurrency <= 0 {
		cfg.RewriteConcurrency = 1
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = time.Hour
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}

	return cfg, nil
}

// RewriteAPIKey returns the key of the selected provider.
func (c Config) RewriteAPIKey() string {
	switch c.LLMProvider {
	case "anthropic", "claude":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// RewriteModel returns the model of the selected provider.
func (c Config) RewriteModel() string {
	switch c.LLMProvider {
	case "anthropic", "claude":
		return c.AnthropicModel
	case "gemini":
		return c.GeminiModel
	}
	return c.OpenAIModel
}

// Validate checks what the HTTP service needs. The CLI checks only the
// rewrite key.
func (c Config) Validate() error {
	if c.DoctailorAPIKey == "" {
		return fmt.Errorf("DOCTAILOR_API_KEY is required")
	}
	if c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "" {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required")
	}
	return c.ValidateRewrite()
}

// ValidateRewrite checks the rewrite provider settings.
func (c Config) ValidateRewrite() error {
	switch c.LLMProvider {
	case "openai", "anthropic", "claude", "gemini":
	default:
		return fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLMProvider)
	}
	if c.RewriteAPIKey() == "" {
		return fmt.Errorf("%s API key is required for LLM_PROVIDER=%s", strings.ToUpper(c.LLMProvider), c.LLMProvider)
	}
	switch strings.ToLower(c.LinePolicy) {
	case "tolerant", "strict", "":
	default:
		return fmt.Errorf("LINE_POLICY must be tolerant or strict, got %q", c.LinePolicy)
	}
	return nil
}
