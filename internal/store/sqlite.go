package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/phenorank/internal/domain"
)

// SQLiteStore is a single-file Store for local and offline analyses.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens the database file, creating it and its schema if needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// newSQLiteStoreFromDB wraps an open database without touching its schema.
func newSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS hpo (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL DEFAULT '',
		ic REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS phenotype_match (
		organism TEXT NOT NULL,
		query_id TEXT NOT NULL,
		query_label TEXT NOT NULL DEFAULT '',
		match_id TEXT NOT NULL,
		match_label TEXT NOT NULL DEFAULT '',
		simj REAL NOT NULL DEFAULT 0,
		ic REAL NOT NULL DEFAULT 0,
		score REAL NOT NULL,
		lcs_id TEXT NOT NULL DEFAULT '',
		lcs_label TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_phenotype_match_query ON phenotype_match(organism, query_id);

	CREATE TABLE IF NOT EXISTS model (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		organism TEXT NOT NULL,
		entrez_id INTEGER NOT NULL,
		human_gene_symbol TEXT NOT NULL DEFAULT '',
		label TEXT NOT NULL DEFAULT '',
		phenotypes TEXT NOT NULL DEFAULT '',
		UNIQUE(organism, id)
	);

	CREATE INDEX IF NOT EXISTS idx_model_organism ON model(organism, seq);
	`

	_, err := db.Exec(schema)
	return err
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func scanTerm(s scanner) (domain.PhenotypeTerm, error) {
	var term domain.PhenotypeTerm
	err := s.Scan(&term.ID, &term.Label, &term.InformationContent)
	return term, err
}

func scanMatch(s scanner) (domain.PhenotypeMatch, error) {
	var row matchRow
	err := s.Scan(
		&row.QueryID, &row.QueryLabel, &row.MatchID, &row.MatchLabel,
		&row.SimJ, &row.IC, &row.Score, &row.LCSID, &row.LCSLabel,
	)
	if err != nil {
		return domain.PhenotypeMatch{}, err
	}
	return row.toMatch(), nil
}

func scanModel(s scanner, organism domain.Organism) (domain.Model, error) {
	var row modelRow
	err := s.Scan(&row.ModelID, &row.EntrezID, &row.HumanGeneSymbol, &row.Label, &row.Phenotypes)
	if err != nil {
		return domain.Model{}, err
	}
	return row.toModel(organism), nil
}

func (s *SQLiteStore) PhenotypeTerms(ctx context.Context, ids []string) ([]domain.PhenotypeTerm, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, label, ic FROM hpo WHERE id IN ("+placeholders(len(ids))+")",
		stringArgs(ids)...,
	)
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

func (s *SQLiteStore) PhenotypeMatches(ctx context.Context, organism domain.Organism, queryIDs []string) ([]domain.PhenotypeMatch, error) {
	if len(queryIDs) == 0 {
		return nil, nil
	}
	args := append([]interface{}{string(organism)}, stringArgs(queryIDs)...)
	rows, err := s.db.QueryContext(ctx, `
		SELECT query_id, query_label, match_id, match_label, simj, ic, score, lcs_id, lcs_label
		FROM phenotype_match
		WHERE organism = ? AND query_id IN (`+placeholders(len(queryIDs))+`)
	`, args...)
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

func (s *SQLiteStore) Models(ctx context.Context, organism domain.Organism) ([]domain.Model, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entrez_id, human_gene_symbol, label, phenotypes
		FROM model
		WHERE organism = ?
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

// Import replaces the store's content with data in one transaction. An empty
// dataset is refused with ErrEmptyDataset.
func (s *SQLiteStore) Import(ctx context.Context, data *Dataset) error {
	if data.Empty() {
		return ErrEmptyDataset
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"hpo", "phenotype_match", "model"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	termStmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO hpo (id, label, ic) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare term insert: %w", err)
	}
	defer termStmt.Close()
	for _, term := range data.Terms {
		if _, err := termStmt.ExecContext(ctx, term.ID, term.Label, term.InformationContent); err != nil {
			return fmt.Errorf("failed to insert term %s: %w", term.ID, err)
		}
	}

	matchStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO phenotype_match (
			organism, query_id, query_label, match_id, match_label, simj, ic, score, lcs_id, lcs_label
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare match insert: %w", err)
	}
	defer matchStmt.Close()
	for _, organism := range domain.Organisms {
		for _, m := range data.Matches[organism] {
			if _, err := matchStmt.ExecContext(ctx, matchValues(organism, m)...); err != nil {
				return fmt.Errorf("failed to insert match %s-%s: %w", m.QueryID(), m.MatchID(), err)
			}
		}
	}

	modelStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO model (id, organism, entrez_id, human_gene_symbol, label, phenotypes)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare model insert: %w", err)
	}
	defer modelStmt.Close()
	for _, m := range data.Models {
		if _, err := modelStmt.ExecContext(ctx, modelValues(m)...); err != nil {
			return fmt.Errorf("failed to insert model %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

func matchValues(organism domain.Organism, m domain.PhenotypeMatch) []interface{} {
	var lcsID, lcsLabel string
	var ic float64
	if m.LCS != nil {
		lcsID, lcsLabel, ic = m.LCS.ID, m.LCS.Label, m.LCS.InformationContent
	}
	return []interface{}{
		string(organism), m.Query.ID, m.Query.Label, m.Match.ID, m.Match.Label,
		m.SimJ, ic, m.Score, lcsID, lcsLabel,
	}
}

func modelValues(m domain.Model) []interface{} {
	return []interface{}{
		m.ID, string(m.Organism), m.EntrezGeneID, m.HumanGeneSymbol, m.Label, joinPhenotypes(m.PhenotypeIDs),
	}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
