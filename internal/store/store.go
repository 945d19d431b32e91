// Package store loads phenotype terms, precomputed phenotype matches and gene models
// from an external store, and builds the read-only ontology index and model catalog
// used by one analysis.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/phenorank/internal/catalog"
	"github.com/phenorank/internal/domain"
	"github.com/phenorank/internal/ontology"
)

// Store is the ontology and model data source.
type Store interface {
	// PhenotypeTerms returns the terms with the given ids. Unknown ids are omitted.
	PhenotypeTerms(ctx context.Context, ids []string) ([]domain.PhenotypeTerm, error)

	// PhenotypeMatches returns the best-match edges of the query terms into the
	// organism's ontology.
	PhenotypeMatches(ctx context.Context, organism domain.Organism, queryIDs []string) ([]domain.PhenotypeMatch, error)

	// Models returns every model of the organism in load order.
	Models(ctx context.Context, organism domain.Organism) ([]domain.Model, error)

	Close() error
}

// Importer is a Store that can be filled from a Dataset.
type Importer interface {
	Import(ctx context.Context, data *Dataset) error
}

// Dataset is the full content of a store, as read from flat files.
type Dataset struct {
	Terms   []domain.PhenotypeTerm
	Matches map[domain.Organism][]domain.PhenotypeMatch
	Models  []domain.Model
}

// Empty reports whether the dataset holds no terms, matches or models.
func (d *Dataset) Empty() bool {
	if d == nil {
		return true
	}
	for _, matches := range d.Matches {
		if len(matches) > 0 {
			return false
		}
	}
	return len(d.Terms) == 0 && len(d.Models) == 0
}

// ErrEmptyDataset is returned by Import instead of clearing a store.
var ErrEmptyDataset = fmt.Errorf("%w: refusing to import an empty dataset", domain.ErrStore)

// Resources are the per-analysis read-only structures built from a Store.
type Resources struct {
	QueryTerms []domain.PhenotypeTerm
	Index      *ontology.Index
	Catalog    *catalog.Catalog
}

// LoadResources reads the query terms, their matches in every organism and all
// models, and builds the ontology index and model catalog. Store errors are returned
// wrapped and never recovered.
func LoadResources(ctx context.Context, s Store, queryIDs []string, methods map[domain.Organism]domain.ScoringMethod, logger *logrus.Logger) (*Resources, error) {
	start := time.Now()

	found, err := s.PhenotypeTerms(ctx, queryIDs)
	if err != nil {
		return nil, fmt.Errorf("loading phenotype terms: %w", err)
	}
	byID := make(map[string]domain.PhenotypeTerm, len(found))
	for _, term := range found {
		byID[term.ID] = term
	}
	queryTerms := make([]domain.PhenotypeTerm, 0, len(queryIDs))
	for _, id := range queryIDs {
		term, ok := byID[id]
		if !ok {
			logger.WithField("phenotype_id", id).Warn("Query phenotype not found in store")
			term = domain.PhenotypeTerm{ID: id}
		}
		queryTerms = append(queryTerms, term)
	}

	mappings := make(map[domain.Organism][]domain.PhenotypeMatch, len(domain.Organisms))
	var models []domain.Model
	for _, organism := range domain.Organisms {
		matches, err := s.PhenotypeMatches(ctx, organism, queryIDs)
		if err != nil {
			return nil, fmt.Errorf("loading %s phenotype matches: %w", organism, err)
		}
		mappings[organism] = matches

		organismModels, err := s.Models(ctx, organism)
		if err != nil {
			return nil, fmt.Errorf("loading %s models: %w", organism, err)
		}
		models = append(models, organismModels...)
	}

	resources := &Resources{
		QueryTerms: queryTerms,
		Index:      ontology.NewIndex(queryTerms, mappings, methods),
		Catalog:    catalog.New(models),
	}

	logger.WithFields(logrus.Fields{
		"query_terms":   len(queryTerms),
		"human_matches": len(mappings[domain.HUMAN]),
		"mouse_matches": len(mappings[domain.MOUSE]),
		"fish_matches":  len(mappings[domain.FISH]),
		"models":        resources.Catalog.Len(),
		"duration":      time.Since(start),
	}).Info("Loaded ontology index and model catalog")

	return resources, nil
}
