// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DEEPSEEK_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overrides, ignored if not found
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env in the working directory, its parents, and the
// project root so tests running from package directories pick it up too.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string config values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig applies direct env overrides for secrets that are
// usually absent from the YAML files.
func overrideEmptyConfig(cfg *Config) {
	if cfg.APIs.DeepSeek.APIKey == "" {
		if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
			cfg.APIs.DeepSeek.APIKey = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if cfg.Database.Elasticsearch.Password == "" {
		if val := os.Getenv("ELASTICSEARCH_PASSWORD"); val != "" {
			cfg.Database.Elasticsearch.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		// Write timeout spans one full turn: oracle call + strategy fan-out.
		cfg.Server.WriteTimeout = 120000
	}

	if cfg.APIs.DeepSeek.BaseURL == "" {
		cfg.APIs.DeepSeek.BaseURL = "https://api.deepseek.com/v1"
	}
	if cfg.APIs.DeepSeek.Model == "" {
		cfg.APIs.DeepSeek.Model = "deepseek-chat"
	}
	if cfg.APIs.DeepSeek.Timeout == 0 {
		cfg.APIs.DeepSeek.Timeout = 30000
	}
	if cfg.APIs.DeepSeek.MaxTokens == 0 {
		cfg.APIs.DeepSeek.MaxTokens = 2000
	}
	if cfg.APIs.DeepSeek.Temperature == 0 {
		cfg.APIs.DeepSeek.Temperature = 0.7
	}

	if cfg.APIs.JGrants.BaseURL == "" {
		cfg.APIs.JGrants.BaseURL = "https://api.jgrants-portal.go.jp/exp/v1/public"
	}
	if cfg.APIs.JGrants.Timeout == 0 {
		cfg.APIs.JGrants.Timeout = 15000
	}

	if cfg.Search.DetailLimit == 0 {
		cfg.Search.DetailLimit = 20
	}
	if cfg.Search.DetailConcurrency == 0 {
		cfg.Search.DetailConcurrency = 4
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 15
	}

	if cfg.Dialogue.MaxQuestions == 0 {
		cfg.Dialogue.MaxQuestions = 3
	}
	if cfg.Dialogue.ContextWindow == 0 {
		cfg.Dialogue.ContextWindow = 4
	}

	if cfg.Session.TTLHours == 0 {
		cfg.Session.TTLHours = 72
	}
	if cfg.Session.MaxMessages == 0 {
		cfg.Session.MaxMessages = 15
	}
	if cfg.Session.MaxContext == 0 {
		cfg.Session.MaxContext = 10
	}
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = 5
	}
	if cfg.Session.MaxEntryBytes == 0 {
		cfg.Session.MaxEntryBytes = 1024 * 1024
	}

	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "subsidy-searches"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}
	if cfg.APIs.DeepSeek.APIKey == "" {
		return fmt.Errorf("apis.deepseek.api_key is required")
	}
	if cfg.Database.Elasticsearch.Enabled && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required when elasticsearch is enabled")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
