package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/phenorank/internal/domain"
)

// Flat-file names inside a data directory. Every file is tab separated with a header.
// The ic column of a mapping file is the information content of the lcs term; query and
// match terms carry ids and labels only.
const (
	TermsFile = "hp-terms.tsv"
)

// MatchFiles maps each organism to its HP-to-ontology mapping file.
var MatchFiles = map[domain.Organism]string{
	domain.HUMAN: "hp-hp-mappings.tsv",
	domain.MOUSE: "hp-mp-mappings.tsv",
	domain.FISH:  "hp-zp-mappings.tsv",
}

// ModelFiles maps each organism to its model file.
var ModelFiles = map[domain.Organism]string{
	domain.HUMAN: "disease-models.tsv",
	domain.MOUSE: "mouse-models.tsv",
	domain.FISH:  "fish-models.tsv",
}

type termRow struct {
	ID    string  `csv:"id"`
	Label string  `csv:"label"`
	IC    float64 `csv:"ic"`
}

type matchRow struct {
	QueryID    string  `csv:"query_id"`
	QueryLabel string  `csv:"query_label"`
	MatchID    string  `csv:"match_id"`
	MatchLabel string  `csv:"match_label"`
	SimJ       float64 `csv:"simj"`
	IC         float64 `csv:"ic"` // of the LCS
	Score      float64 `csv:"score"`
	LCSID      string  `csv:"lcs_id"`
	LCSLabel   string  `csv:"lcs_label"`
}

func (r matchRow) toMatch() domain.PhenotypeMatch {
	m := domain.PhenotypeMatch{
		Query: domain.PhenotypeTerm{ID: r.QueryID, Label: r.QueryLabel},
		Match: domain.PhenotypeTerm{ID: r.MatchID, Label: r.MatchLabel},
		SimJ:  r.SimJ,
		Score: r.Score,
	}
	if r.LCSID != "" {
		m.LCS = &domain.PhenotypeTerm{ID: r.LCSID, Label: r.LCSLabel, InformationContent: r.IC}
	}
	return m
}

type modelRow struct {
	ModelID         string `csv:"model_id"`
	EntrezID        int    `csv:"entrez_id"`
	HumanGeneSymbol string `csv:"human_gene_symbol"`
	Label           string `csv:"label"`
	Phenotypes      string `csv:"phenotypes"`
}

func (r modelRow) toModel(organism domain.Organism) domain.Model {
	return domain.Model{
		ID:              r.ModelID,
		Organism:        organism,
		EntrezGeneID:    r.EntrezID,
		HumanGeneSymbol: r.HumanGeneSymbol,
		Label:           r.Label,
		PhenotypeIDs:    splitPhenotypes(r.Phenotypes),
	}
}

func splitPhenotypes(joined string) []string {
	var ids []string
	for _, id := range strings.Split(joined, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func joinPhenotypes(ids []string) string {
	return strings.Join(ids, ",")
}

func tsvReader(r io.Reader) gocsv.CSVReader {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

func readTSV[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []T
	if err := gocsv.UnmarshalCSV(tsvReader(f), &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// ReadTerms parses a phenotype term file.
func ReadTerms(path string) ([]domain.PhenotypeTerm, error) {
	rows, err := readTSV[termRow](path)
	if err != nil {
		return nil, err
	}
	terms := make([]domain.PhenotypeTerm, 0, len(rows))
	for _, row := range rows {
		terms = append(terms, domain.PhenotypeTerm{ID: row.ID, Label: row.Label, InformationContent: row.IC})
	}
	return terms, nil
}

// ReadMatches parses a phenotype mapping file.
func ReadMatches(path string) ([]domain.PhenotypeMatch, error) {
	rows, err := readTSV[matchRow](path)
	if err != nil {
		return nil, err
	}
	matches := make([]domain.PhenotypeMatch, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, row.toMatch())
	}
	return matches, nil
}

// ReadModels parses a model file for the organism.
func ReadModels(path string, organism domain.Organism) ([]domain.Model, error) {
	rows, err := readTSV[modelRow](path)
	if err != nil {
		return nil, err
	}
	models := make([]domain.Model, 0, len(rows))
	for _, row := range rows {
		models = append(models, row.toModel(organism))
	}
	return models, nil
}

// ReadDataset reads every flat file of a data directory. Missing files are skipped,
// so a directory can provide only some organisms, but a directory that is absent or
// holds none of the files is a store error.
func ReadDataset(dir string) (*Dataset, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: data directory: %v", domain.ErrStore, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: data directory %s is not a directory", domain.ErrStore, dir)
	}

	data := &Dataset{Matches: make(map[domain.Organism][]domain.PhenotypeMatch)}
	found := 0

	path := filepath.Join(dir, TermsFile)
	if exists(path) {
		found++
		terms, err := ReadTerms(path)
		if err != nil {
			return nil, err
		}
		data.Terms = terms
	}

	for _, organism := range domain.Organisms {
		if path := filepath.Join(dir, MatchFiles[organism]); exists(path) {
			found++
			matches, err := ReadMatches(path)
			if err != nil {
				return nil, err
			}
			data.Matches[organism] = matches
		}
		if path := filepath.Join(dir, ModelFiles[organism]); exists(path) {
			found++
			models, err := ReadModels(path, organism)
			if err != nil {
				return nil, err
			}
			data.Models = append(data.Models, models...)
		}
	}
	if found == 0 {
		return nil, fmt.Errorf("%w: no phenotype files in %s", domain.ErrStore, dir)
	}
	return data, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FlatFileStore serves a Dataset held in memory.
type FlatFileStore struct {
	terms   map[string]domain.PhenotypeTerm
	matches map[domain.Organism][]domain.PhenotypeMatch
	models  map[domain.Organism][]domain.Model
}

// NewFlatFileStore reads the data directory into memory.
func NewFlatFileStore(dir string) (*FlatFileStore, error) {
	data, err := ReadDataset(dir)
	if err != nil {
		if errors.Is(err, domain.ErrStore) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrStore, dir, err)
	}
	return NewMemoryStore(data), nil
}

// NewMemoryStore serves an already loaded Dataset.
func NewMemoryStore(data *Dataset) *FlatFileStore {
	s := &FlatFileStore{
		terms:   make(map[string]domain.PhenotypeTerm, len(data.Terms)),
		matches: data.Matches,
		models:  make(map[domain.Organism][]domain.Model),
	}
	if s.matches == nil {
		s.matches = make(map[domain.Organism][]domain.PhenotypeMatch)
	}
	for _, term := range data.Terms {
		s.terms[term.ID] = term
	}
	for _, model := range data.Models {
		s.models[model.Organism] = append(s.models[model.Organism], model)
	}
	return s
}

func (s *FlatFileStore) PhenotypeTerms(ctx context.Context, ids []string) ([]domain.PhenotypeTerm, error) {
	terms := make([]domain.PhenotypeTerm, 0, len(ids))
	for _, id := range ids {
		if term, ok := s.terms[id]; ok {
			terms = append(terms, term)
		}
	}
	return terms, nil
}

func (s *FlatFileStore) PhenotypeMatches(ctx context.Context, organism domain.Organism, queryIDs []string) ([]domain.PhenotypeMatch, error) {
	wanted := make(map[string]struct{}, len(queryIDs))
	for _, id := range queryIDs {
		wanted[id] = struct{}{}
	}
	var matches []domain.PhenotypeMatch
	for _, m := range s.matches[organism] {
		if _, ok := wanted[m.QueryID()]; ok {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (s *FlatFileStore) Models(ctx context.Context, organism domain.Organism) ([]domain.Model, error) {
	return s.models[organism], nil
}

func (s *FlatFileStore) Close() error {
	return nil
}
