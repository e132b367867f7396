package config

import "time"

// Config is the process configuration, read once at startup.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Context   string          `mapstructure:"context"`
	Server    ServerConfig    `mapstructure:"server"`
	WordPress WordPressConfig `mapstructure:"wordpress"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Fallback  FallbackConfig  `mapstructure:"fallback"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Addr         string   `mapstructure:"addr"`
	FallbackAddr string   `mapstructure:"fallback_addr"`
	RunTimeout   int      `mapstructure:"run_timeout"` // milliseconds
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

type WordPressConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

// LLMConfig configures the primary generator. An empty APIKey disables it
// unless Provider is "mock".
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
}

// Enabled reports whether the primary generator should be built.
func (c LLMConfig) Enabled() bool {
	return c.Provider == ProviderMock || c.APIKey != ""
}

// FallbackConfig points at the remote fallback service. An empty URL runs the
// fallback generator in-process.
type FallbackConfig struct {
	URL     string `mapstructure:"url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RedisConfig enables run history when Address is set.
type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Insecure     bool    `mapstructure:"insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderMock     = "mock"
)

// Duration converts milliseconds from config to time.Duration.
func Duration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
