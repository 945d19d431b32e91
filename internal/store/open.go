package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/phenorank/internal/database"
	"github.com/phenorank/internal/domain"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverFlatFile = "flatfile"
)

// pooledStore closes the pool it opened.
type pooledStore struct {
	*PostgresStore
	db *database.DB
}

func (s *pooledStore) Close() error {
	s.db.Close()
	return nil
}

// Open returns the Store selected by cfg.Driver.
func Open(ctx context.Context, cfg domain.StoreConfig, dbCfg domain.DatabaseConfig, logger *logrus.Logger) (Store, error) {
	logger.WithField("driver", cfg.Driver).Info("Opening phenotype store")

	switch cfg.Driver {
	case DriverSQLite, "":
		s, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
		}
		return s, nil
	case DriverPostgres:
		db, err := database.NewConnection(ctx, dbCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
		}
		return &pooledStore{PostgresStore: NewPostgresStore(db.Pool, logger), db: db}, nil
	case DriverFlatFile:
		return NewFlatFileStore(cfg.DataDir)
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", domain.ErrStore, cfg.Driver)
	}
}

// ImportDir reads the flat files of dir into an importable store.
func ImportDir(ctx context.Context, s Store, dir string, logger *logrus.Logger) error {
	importer, ok := s.(Importer)
	if !ok {
		return fmt.Errorf("%w: store does not support import", domain.ErrStore)
	}
	data, err := ReadDataset(dir)
	if err != nil {
		return err
	}
	if err := importer.Import(ctx, data); err != nil {
		if errors.Is(err, domain.ErrStore) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	matches := 0
	for _, organismMatches := range data.Matches {
		matches += len(organismMatches)
	}
	logger.WithFields(logrus.Fields{
		"dir":     dir,
		"terms":   len(data.Terms),
		"matches": matches,
		"models":  len(data.Models),
	}).Info("Imported flat files")
	return nil
}
