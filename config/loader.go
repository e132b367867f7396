package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables the deployment sets.
var envBindings = map[string]string{
	"app.environment":       "APP_ENVIRONMENT",
	"context":               "MCP_CONTEXT",
	"server.addr":           "SERVER_ADDR",
	"server.fallback_addr":  "FALLBACK_ADDR",
	"server.run_timeout":    "RUN_TIMEOUT_MS",
	"server.cors_origins":   "CORS_ORIGINS",
	"wordpress.base_url":    "WP_BASE_URL",
	"wordpress.user":        "WP_API_USER",
	"wordpress.password":    "WP_API_PASS",
	"wordpress.timeout":     "WP_TIMEOUT_MS",
	"llm.provider":          "LLM_PROVIDER",
	"llm.model":             "OPENAI_MODEL",
	"llm.api_key":           "OPENAI_API_KEY",
	"llm.base_url":          "OPENAI_BASE_URL",
	"llm.timeout":           "LLM_TIMEOUT_MS",
	"fallback.url":          "FALLBACK_AGENT_URL",
	"fallback.timeout":      "FALLBACK_TIMEOUT_MS",
	"logging.level":         "LOG_LEVEL",
	"logging.format":        "LOG_FORMAT",
	"logging.output":        "LOG_OUTPUT",
	"redis.address":         "REDIS_ADDRESS",
	"redis.password":        "REDIS_PASSWORD",
	"redis.db":              "REDIS_DB",
	"redis.history_limit":   "RUN_HISTORY_LIMIT",
	"tracing.enabled":       "OTEL_ENABLED",
	"tracing.otlp_endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
	"tracing.insecure":      "OTEL_EXPORTER_OTLP_INSECURE",
	"tracing.sample_ratio":  "OTEL_SAMPLER_RATIO",
}

// Load reads .env (if present), then the YAML file at path (or ./config.yaml,
// ./configs/config.yaml when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	normalize(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "aioseo-meta-workflow")
	v.SetDefault("app.version", "2026.1")
	v.SetDefault("app.environment", "development")
	v.SetDefault("context", "SEO hotéis RJ, 5 estrelas, reservas")

	v.SetDefault("server.addr", ":9000")
	v.SetDefault("server.fallback_addr", ":8000")
	v.SetDefault("server.run_timeout", 60000)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("wordpress.base_url", "http://wordpress")
	v.SetDefault("wordpress.user", "mcp")
	v.SetDefault("wordpress.password", "agent")
	v.SetDefault("wordpress.timeout", 15000)

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 450)
	v.SetDefault("llm.timeout", 30000)

	v.SetDefault("fallback.timeout", 10000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("redis.history_limit", 20)

	v.SetDefault("tracing.sample_ratio", 1.0)
}

func normalize(cfg *Config) {
	cfg.WordPress.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.WordPress.BaseURL), "/")
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.LLM.APIKey = strings.TrimSpace(cfg.LLM.APIKey)
	cfg.Fallback.URL = strings.TrimSpace(cfg.Fallback.URL)
	cfg.Context = strings.TrimSpace(cfg.Context)
	// CORS_ORIGINS arrives as one comma-separated string.
	if len(cfg.Server.CORSOrigins) == 1 && strings.Contains(cfg.Server.CORSOrigins[0], ",") {
		cfg.Server.CORSOrigins = strings.Split(cfg.Server.CORSOrigins[0], ",")
	}
}

func validateConfig(cfg *Config) error {
	if cfg.WordPress.BaseURL == "" {
		return errors.New("wordpress.base_url is required")
	}
	if u, err := url.Parse(cfg.WordPress.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("wordpress.base_url %q is not an absolute url", cfg.WordPress.BaseURL)
	}

	switch cfg.LLM.Provider {
	case ProviderOpenAI, ProviderMock:
	case ProviderDeepSeek:
		// DeepSeek exposes an OpenAI-compatible API and needs base_url.
		if cfg.LLM.APIKey != "" && cfg.LLM.BaseURL == "" {
			return errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
	default:
		return fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}

	if cfg.Fallback.URL != "" {
		if u, err := url.Parse(cfg.Fallback.URL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("fallback.url %q is not an absolute url", cfg.Fallback.URL)
		}
	}

	if cfg.WordPress.Timeout <= 0 || cfg.Fallback.Timeout <= 0 || cfg.LLM.Timeout <= 0 || cfg.Server.RunTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}
