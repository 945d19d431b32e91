package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/phenorank/internal/domain"
)

// PostgresStore serves the phenotype store from a PostgreSQL database migrated with
// the schema in migrations/.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// NewPostgresStore uses an existing pool. Close does not close the pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *logrus.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

func (s *PostgresStore) PhenotypeTerms(ctx context.Context, ids []string) ([]domain.PhenotypeTerm, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, "SELECT id, label, ic FROM hpo WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query terms: %v", domain.ErrStore, err)
	}
	defer rows.Close()

	var terms []domain.PhenotypeTerm
	for rows.Next() {
		term, err := scanTerm(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan term: %v", domain.ErrStore, err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return terms, nil
}

func (s *PostgresStore) PhenotypeMatches(ctx context.Context, organism domain.Organism, queryIDs []string) ([]domain.PhenotypeMatch, error) {
	if len(queryIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT query_id, query_label, match_id, match_label, simj, ic, score, lcs_id, lcs_label
		FROM phenotype_match
		WHERE organism = $1 AND query_id = ANY($2)
	`, string(organism), queryIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query matches: %v", domain.ErrStore, err)
	}
	defer rows.Close()

	var matches []domain.PhenotypeMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan match: %v", domain.ErrStore, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return matches, nil
}

func (s *PostgresStore) Models(ctx context.Context, organism domain.Organism) ([]domain.Model, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, entrez_id, human_gene_symbol, label, phenotypes
		FROM model
		WHERE organism = $1
		ORDER BY seq
	`, string(organism))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query models: %v", domain.ErrStore, err)
	}
	defer rows.Close()

	var models []domain.Model
	for rows.Next() {
		m, err := scanModel(rows, organism)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan model: %v", domain.ErrStore, err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return models, nil
}

// Import replaces the store's content with data using COPY in one transaction.
// An empty dataset is refused with ErrEmptyDataset.
// Repeated term ids and repeated model ids within an organism keep their first row.
func (s *PostgresStore) Import(ctx context.Context, data *Dataset) error {
	if data.Empty() {
		return ErrEmptyDataset
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE hpo, phenotype_match, model RESTART IDENTITY"); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	var termRows [][]interface{}
	seenTerms := make(map[string]struct{}, len(data.Terms))
	for _, term := range data.Terms {
		if _, ok := seenTerms[term.ID]; ok {
			continue
		}
		seenTerms[term.ID] = struct{}{}
		termRows = append(termRows, []interface{}{term.ID, term.Label, term.InformationContent})
	}
	terms, err := tx.CopyFrom(ctx, pgx.Identifier{"hpo"}, []string{"id", "label", "ic"}, pgx.CopyFromRows(termRows))
	if err != nil {
		return fmt.Errorf("failed to copy terms: %w", err)
	}

	var matchRows [][]interface{}
	for _, organism := range domain.Organisms {
		for _, m := range data.Matches[organism] {
			matchRows = append(matchRows, matchValues(organism, m))
		}
	}
	matches, err := tx.CopyFrom(ctx, pgx.Identifier{"phenotype_match"},
		[]string{"organism", "query_id", "query_label", "match_id", "match_label", "simj", "ic", "score", "lcs_id", "lcs_label"},
		pgx.CopyFromRows(matchRows))
	if err != nil {
		return fmt.Errorf("failed to copy matches: %w", err)
	}

	var modelRows [][]interface{}
	seenModels := make(map[string]struct{}, len(data.Models))
	for _, m := range data.Models {
		key := string(m.Organism) + "|" + m.ID
		if _, ok := seenModels[key]; ok {
			continue
		}
		seenModels[key] = struct{}{}
		modelRows = append(modelRows, modelValues(m))
	}
	models, err := tx.CopyFrom(ctx, pgx.Identifier{"model"},
		[]string{"id", "organism", "entrez_id", "human_gene_symbol", "label", "phenotypes"},
		pgx.CopyFromRows(modelRows))
	if err != nil {
		return fmt.Errorf("failed to copy models: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"terms":   terms,
		"matches": matches,
		"models":  models,
	}).Info("Imported phenotype store")
	return nil
}

// Close is a no-op; the pool belongs to the caller.
func (s *PostgresStore) Close() error {
	return nil
}
