package domain

import (
	"fmt"
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store"`
	HGNC     HGNCConfig     `mapstructure:"hgnc"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Priority PriorityPolicy `mapstructure:"priority"`
	Runner   RunnerConfig   `mapstructure:"runner"`
	MCP      MCPConfig      `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// ConnectionString returns the libpq style connection string
func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

// URL returns the postgres:// form used by the migration runner
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// StoreConfig selects the ontology and model store back-end
type StoreConfig struct {
	Driver     string `mapstructure:"driver"` // "sqlite", "postgres", "flatfile"
	SQLitePath string `mapstructure:"sqlite_path"`
	DataDir    string `mapstructure:"data_dir"` // flat-file mappings and models
}

// HGNCConfig represents HGNC REST API configuration
type HGNCConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  int           `mapstructure:"rate_limit"`
	RetryCount int           `mapstructure:"retry_count"`
	CacheSize  int           `mapstructure:"cache_size"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RunnerConfig controls the parallel filter and scoring runners
type RunnerConfig struct {
	Workers      int          `mapstructure:"workers"`
	FilterPolicy FilterPolicy `mapstructure:"filter_policy"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
	TransportType string `mapstructure:"transport_type"` // "stdio", "http"
	HTTPAddr      string `mapstructure:"http_addr"`
}

// PriorityPolicy is the configuration point for phenotype scoring: how per-organism
// scores combine and which scoring method each organism's index applies.
type PriorityPolicy struct {
	Combination    CombinationPolicy          `mapstructure:"combination" json:"combination" yaml:"combination"`
	Weights        map[Organism]float64       `mapstructure:"weights" json:"weights,omitempty" yaml:"weights"`
	ScoringMethods map[Organism]ScoringMethod `mapstructure:"scoring_methods" json:"scoring_methods,omitempty" yaml:"scoring_methods"`
}

// DefaultPriorityPolicy takes the best organism and scores every organism with MAX_MEAN.
func DefaultPriorityPolicy() PriorityPolicy {
	return PriorityPolicy{
		Combination: MAX_ORGANISM,
		Weights:     map[Organism]float64{HUMAN: 1, MOUSE: 1, FISH: 1},
		ScoringMethods: map[Organism]ScoringMethod{
			HUMAN: MAX_MEAN,
			MOUSE: MAX_MEAN,
			FISH:  MAX_MEAN,
		},
	}
}

// ScoringMethod returns the method configured for the organism, MAX_MEAN if unset.
func (p PriorityPolicy) ScoringMethod(organism Organism) ScoringMethod {
	if method, ok := p.ScoringMethods[organism]; ok && method.IsValid() {
		return method
	}
	return MAX_MEAN
}

// Weight returns the organism weight, 1 if unset.
func (p PriorityPolicy) Weight(organism Organism) float64 {
	if w, ok := p.Weights[organism]; ok {
		return w
	}
	return 1
}

// WithDefaults fills the unset parts of p from defaults.
func (p PriorityPolicy) WithDefaults(defaults PriorityPolicy) PriorityPolicy {
	if p.Combination == "" {
		p.Combination = defaults.Combination
	}
	if len(p.Weights) == 0 {
		p.Weights = defaults.Weights
	}
	if len(p.ScoringMethods) == 0 {
		p.ScoringMethods = defaults.ScoringMethods
	}
	return p
}

// Validate checks the policy values.
func (p PriorityPolicy) Validate() error {
	if p.Combination != "" && !p.Combination.IsValid() {
		return NewValidationError("priority.combination", fmt.Sprintf("unknown combination policy '%s'", p.Combination), p.Combination, ErrInvalidPolicy)
	}
	for organism, w := range p.Weights {
		if !organism.IsValid() {
			return NewValidationError("priority.weights", fmt.Sprintf("unknown organism '%s'", organism), organism, ErrInvalidPolicy)
		}
		if w < 0 {
			return NewValidationError("priority.weights", fmt.Sprintf("negative weight for %s", organism), w, ErrInvalidPolicy)
		}
	}
	for organism, method := range p.ScoringMethods {
		if !organism.IsValid() {
			return NewValidationError("priority.scoring_methods", fmt.Sprintf("unknown organism '%s'", organism), organism, ErrInvalidPolicy)
		}
		if !method.IsValid() {
			return NewValidationError("priority.scoring_methods", fmt.Sprintf("unknown scoring method for %s", organism), method, ErrInvalidPolicy)
		}
	}
	return nil
}

// FilterSpec configures one filter of a chain. Only the fields of its type are read.
type FilterSpec struct {
	Type              FilterType          `json:"type" yaml:"type"`
	Interval          string              `json:"interval,omitempty" yaml:"interval,omitempty"`
	MinQuality        float64             `json:"min_quality,omitempty" yaml:"min_quality,omitempty"`
	MaxFrequency      float64             `json:"max_frequency,omitempty" yaml:"max_frequency,omitempty"`
	MinPathogenicity  float64             `json:"min_pathogenicity,omitempty" yaml:"min_pathogenicity,omitempty"`
	KeepNonPathogenic bool                `json:"keep_non_pathogenic,omitempty" yaml:"keep_non_pathogenic,omitempty"`
	OffTargetEffects  []string            `json:"off_target_effects,omitempty" yaml:"off_target_effects,omitempty"`
	InheritanceModes  []ModeOfInheritance `json:"inheritance_modes,omitempty" yaml:"inheritance_modes,omitempty"`
	MinPriorityScore  float64             `json:"min_priority_score,omitempty" yaml:"min_priority_score,omitempty"`
	EntrezGeneIDs     []int               `json:"entrez_gene_ids,omitempty" yaml:"entrez_gene_ids,omitempty"`
}

// Analysis is one prioritisation request: the patient's phenotype, the filter chain
// and the scoring configuration.
type Analysis struct {
	HPOIDs       []string       `json:"hpo_ids" yaml:"hpo_ids"`
	Filters      []FilterSpec   `json:"filters" yaml:"filters"`
	FilterPolicy FilterPolicy   `json:"filter_policy,omitempty" yaml:"filter_policy,omitempty"`
	Priority     PriorityPolicy `json:"priority" yaml:"priority"`
}

// Validate checks the query terms, filter types and policies.
func (a *Analysis) Validate() error {
	for _, id := range a.HPOIDs {
		if err := ValidatePhenotypeID(id); err != nil {
			return err
		}
	}
	for i, spec := range a.Filters {
		if !spec.Type.IsValid() {
			return NewValidationError(fmt.Sprintf("filters[%d].type", i), fmt.Sprintf("unknown filter type '%s'", spec.Type), spec.Type, ErrInvalidFilter)
		}
	}
	if a.FilterPolicy != "" && !a.FilterPolicy.IsValid() {
		return NewValidationError("filter_policy", fmt.Sprintf("unknown filter policy '%s'", a.FilterPolicy), a.FilterPolicy, ErrInvalidFilter)
	}
	return a.Priority.Validate()
}
