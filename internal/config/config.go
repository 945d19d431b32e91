// Package config loads the service configuration with viper and analysis
// definitions from YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/phenorank/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// NewManager creates a new configuration manager. An empty configFile searches
// the default locations for config.yaml.
func NewManager(configFile string) (*Manager, error) {
	m := &Manager{configFile: configFile}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/phenorank/")
	}

	v.SetEnvPrefix("PHENORANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || m.configFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.Priority = normalisePolicy(config.Priority)

	m.v = v
	m.config = config
	return nil
}

// normalisePolicy upper-cases organism keys, which viper lowercases.
func normalisePolicy(p domain.PriorityPolicy) domain.PriorityPolicy {
	p.Combination = domain.CombinationPolicy(strings.ToUpper(string(p.Combination)))
	if p.Weights != nil {
		weights := make(map[domain.Organism]float64, len(p.Weights))
		for organism, w := range p.Weights {
			weights[domain.Organism(strings.ToUpper(string(organism)))] = w
		}
		p.Weights = weights
	}
	if p.ScoringMethods != nil {
		methods := make(map[domain.Organism]domain.ScoringMethod, len(p.ScoringMethods))
		for organism, method := range p.ScoringMethods {
			methods[domain.Organism(strings.ToUpper(string(organism)))] = domain.ScoringMethod(strings.ToUpper(string(method)))
		}
		p.ScoringMethods = methods
	}
	return p
}

// DefaultDataDir is the per-user directory of the local SQLite store.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".phenorank"
	}
	return filepath.Join(homeDir, ".phenorank")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")

	// Store defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", filepath.Join(DefaultDataDir(), "phenorank.db"))
	v.SetDefault("store.data_dir", "./data")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "phenorank")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.migrations_path", "./migrations")

	// HGNC defaults
	v.SetDefault("hgnc.enabled", false)
	v.SetDefault("hgnc.base_url", "https://rest.genenames.org")
	v.SetDefault("hgnc.timeout", "10s")
	v.SetDefault("hgnc.rate_limit", 3)
	v.SetDefault("hgnc.retry_count", 2)
	v.SetDefault("hgnc.cache_size", 10000)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_url", "redis://localhost:6379")
	v.SetDefault("cache.default_ttl", "24h")
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	// Priority defaults
	v.SetDefault("priority.combination", string(domain.MAX_ORGANISM))

	// Runner defaults
	v.SetDefault("runner.workers", runtime.GOMAXPROCS(0))
	v.SetDefault("runner.filter_policy", string(domain.NON_DESTRUCTIVE))

	// MCP defaults
	v.SetDefault("mcp.server_name", "phenorank")
	v.SetDefault("mcp.server_version", "1.0.0")
	v.SetDefault("mcp.transport_type", "stdio")
	v.SetDefault("mcp.http_addr", ":8081")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Store.Driver {
	case "sqlite":
		if config.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite store path is required")
		}
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	case "flatfile":
		if config.Store.DataDir == "" {
			return fmt.Errorf("flat-file data directory is required")
		}
	default:
		return fmt.Errorf("invalid store driver: %s", config.Store.Driver)
	}

	if config.HGNC.Enabled && config.HGNC.BaseURL == "" {
		return fmt.Errorf("HGNC base URL is required")
	}
	if config.Cache.Enabled && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required")
	}

	if err := config.Priority.Validate(); err != nil {
		return fmt.Errorf("invalid priority policy: %w", err)
	}
	if config.Runner.FilterPolicy != "" && !config.Runner.FilterPolicy.IsValid() {
		return fmt.Errorf("invalid filter policy: %s", config.Runner.FilterPolicy)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	switch config.MCP.TransportType {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid MCP transport: %s", config.MCP.TransportType)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.v.GetString("environment")) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.v.GetString("environment"))
	return env == "development" || env == "dev" || env == ""
}
