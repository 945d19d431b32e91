package domain

import (
	"context"
)

// GeneResolver completes a gene identifier from its symbol, e.g. from HGNC
type GeneResolver interface {
	ResolveGene(ctx context.Context, symbol string) (GeneIdentifier, error)
}

// IdentifierCache stores resolved gene identifiers between runs
type IdentifierCache interface {
	Get(ctx context.Context, symbol string) (GeneIdentifier, bool, error)
	Set(ctx context.Context, symbol string, id GeneIdentifier) error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
