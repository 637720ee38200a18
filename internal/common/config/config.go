// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	APIs     APIsConfig     `mapstructure:"apis"`
	Search   SearchConfig   `mapstructure:"search"`
	Dialogue DialogueConfig `mapstructure:"dialogue"`
	Session  SessionConfig  `mapstructure:"session"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	Index      string   `mapstructure:"index"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
}

// --- External API Config ---
type APIsConfig struct {
	DeepSeek DeepSeekConfig `mapstructure:"deepseek"`
	JGrants  JGrantsConfig  `mapstructure:"jgrants"`
}

type DeepSeekConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type JGrantsConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// --- Domain Config ---

// SearchConfig bounds the multi-strategy fan-out.
type SearchConfig struct {
	DetailLimit       int `mapstructure:"detail_limit"`       // detail fetches per strategy
	DetailConcurrency int `mapstructure:"detail_concurrency"` // parallel detail fetches
	MaxResults        int `mapstructure:"max_results"`        // final ranked set size
}

type DialogueConfig struct {
	MaxQuestions  int `mapstructure:"max_questions"`  // turn budget before forced search
	ContextWindow int `mapstructure:"context_window"` // turns fed back to the oracle
}

type SessionConfig struct {
	TTLHours      int `mapstructure:"ttl_hours"`
	MaxMessages   int `mapstructure:"max_messages"`
	MaxContext    int `mapstructure:"max_context"`
	MaxSessions   int `mapstructure:"max_sessions"`    // old-session eviction threshold
	MaxEntryBytes int `mapstructure:"max_entry_bytes"` // aggressive-trim threshold
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
