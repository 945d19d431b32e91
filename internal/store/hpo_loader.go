package store

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/phenorank/internal/domain"
)

// HPOLoader bulk loads the HPO term dump into the hpo table. Each dump line is
// "id|label" with an optional third "|ic" column.
type HPOLoader struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewHPOLoader(pool *pgxpool.Pool, logger *logrus.Logger) *HPOLoader {
	return &HPOLoader{pool: pool, logger: logger}
}

// LoadFile loads the dump at path.
func (l *HPOLoader) LoadFile(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening HPO dump: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load replaces the hpo table with the terms read from r.
func (l *HPOLoader) Load(ctx context.Context, r io.Reader) (int64, error) {
	terms, err := ParseHPODump(r)
	if err != nil {
		return 0, err
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE hpo"); err != nil {
		return 0, fmt.Errorf("failed to truncate hpo: %w", err)
	}

	i := 0
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"hpo"}, []string{"id", "label", "ic"},
		pgx.CopyFromFunc(func() ([]any, error) {
			if i == len(terms) {
				return nil, nil
			}
			term := terms[i]
			i++
			return []any{term.ID, term.Label, term.InformationContent}, nil
		}))
	if err != nil {
		return 0, fmt.Errorf("failed to copy HPO terms: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit HPO load: %w", err)
	}

	l.logger.WithField("terms", copied).Info("Loaded HPO terms")
	return copied, nil
}

// ParseHPODump reads "id|label[|ic]" lines. Blank lines are skipped, a repeated id
// keeps its first line and a malformed line is an error naming its line number.
func ParseHPODump(r io.Reader) ([]domain.PhenotypeTerm, error) {
	var terms []domain.PhenotypeTerm
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "|")
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("HPO dump line %d: expected id|label[|ic], got %q", line, text)
		}
		id := strings.TrimSpace(fields[0])
		if err := domain.ValidatePhenotypeID(id); err != nil {
			return nil, fmt.Errorf("HPO dump line %d: %w", line, err)
		}
		term := domain.PhenotypeTerm{ID: id, Label: strings.TrimSpace(fields[1])}
		if len(fields) == 3 && strings.TrimSpace(fields[2]) != "" {
			ic, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
			if err != nil {
				return nil, fmt.Errorf("HPO dump line %d: invalid information content: %w", line, err)
			}
			term.InformationContent = ic
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		terms = append(terms, term)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading HPO dump: %w", err)
	}
	return terms, nil
}
