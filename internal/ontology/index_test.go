package ontology

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenorank/internal/domain"
)

func term(id string) domain.PhenotypeTerm {
	return domain.PhenotypeTerm{ID: id}
}

func edge(query, match string, score float64) domain.PhenotypeMatch {
	return domain.PhenotypeMatch{Query: term(query), Match: term(match), Score: score}
}

func newTestIndex(method domain.ScoringMethod) *Index {
	queryTerms := []domain.PhenotypeTerm{
		{ID: "HP:0000001", Label: "Craniosynostosis", InformationContent: 4.1},
		{ID: "HP:0000002", Label: "Syndactyly", InformationContent: 3.7},
	}
	mappings := map[domain.Organism][]domain.PhenotypeMatch{
		domain.HUMAN: {
			edge("HP:0000001", "HP:0000011", 1.5),
			edge("HP:0000001", "HP:0000012", 2.0),
			edge("HP:0000001", "HP:0000010", 2.0),
			edge("HP:0000002", "HP:0000021", 1.0),
			edge("HP:0000002", "HP:0000020", 3.0),
			edge("HP:0000009", "HP:0000090", 5.0),
		},
		domain.MOUSE: {
			edge("HP:0000001", "MP:0000100", 1.2),
		},
	}
	methods := map[domain.Organism]domain.ScoringMethod{domain.HUMAN: method, domain.MOUSE: method}
	return NewIndex(queryTerms, mappings, methods)
}

var queryIDs = []string{"HP:0000001", "HP:0000002"}

func TestIndex_BestMatch(t *testing.T) {
	idx := newTestIndex(domain.MAX_MEAN)

	best, ok := idx.BestMatch("HP:0000001", domain.HUMAN)
	require.True(t, ok)
	assert.Equal(t, "HP:0000010", best.MatchID(), "ties pick the smallest match id")
	assert.Equal(t, 2.0, idx.MaxScore("HP:0000001", domain.HUMAN))
	assert.Equal(t, 3.0, idx.MaxScore("HP:0000002", domain.HUMAN))

	_, ok = idx.BestMatch("HP:0000009", domain.HUMAN)
	assert.False(t, ok, "edges of terms outside the query set are dropped")

	_, ok = idx.BestMatch("HP:0000002", domain.FISH)
	assert.False(t, ok)
	assert.Equal(t, 0.0, idx.MaxScore("HP:0000002", domain.FISH))
	assert.False(t, idx.HasOrganism(domain.FISH))
	assert.True(t, idx.HasOrganism(domain.MOUSE))
}

func TestIndex_BestMatchAmong(t *testing.T) {
	idx := newTestIndex(domain.MAX_MEAN)

	match, ok := idx.BestMatchAmong("HP:0000001", domain.HUMAN, map[string]struct{}{"HP:0000011": {}, "HP:0000012": {}})
	require.True(t, ok)
	assert.Equal(t, "HP:0000012", match.MatchID())

	_, ok = idx.BestMatchAmong("HP:0000001", domain.HUMAN, map[string]struct{}{"HP:0000099": {}})
	assert.False(t, ok)
}

func TestIndex_ScoreModel(t *testing.T) {
	partial := domain.Model{ID: "OMIM:101200", Organism: domain.HUMAN, EntrezGeneID: 2263, PhenotypeIDs: []string{"HP:0000011", "HP:0000021"}}
	perfect := domain.Model{ID: "OMIM:123500", Organism: domain.HUMAN, EntrezGeneID: 2263, PhenotypeIDs: []string{"HP:0000010", "HP:0000020"}}
	unrelated := domain.Model{ID: "OMIM:100000", Organism: domain.HUMAN, EntrezGeneID: 2263, PhenotypeIDs: []string{"HP:0000099"}}

	tests := []struct {
		name     string
		method   domain.ScoringMethod
		model    domain.Model
		expected float64
	}{
		{"max mean partial", domain.MAX_MEAN, partial, 0.5},
		{"mean partial", domain.MEAN, partial, (1.5/2.0 + 1.0/3.0) / 2},
		{"max mean perfect", domain.MAX_MEAN, perfect, 1.0},
		{"mean perfect", domain.MEAN, perfect, 1.0},
		{"max mean unrelated", domain.MAX_MEAN, unrelated, 0.0},
		{"mean unrelated", domain.MEAN, unrelated, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := newTestIndex(tt.method)
			score := idx.ScoreModel(tt.model, queryIDs)
			assert.InDelta(t, tt.expected, score.Score, 1e-9)
			assert.Equal(t, tt.model.ID, score.Model.ID)
		})
	}
}

func TestIndex_ScoreModelBestMatches(t *testing.T) {
	idx := newTestIndex(domain.MAX_MEAN)
	model := domain.Model{ID: "OMIM:101200", Organism: domain.HUMAN, PhenotypeIDs: []string{"HP:0000011", "HP:0000021"}}

	score := idx.ScoreModel(model, []string{"HP:0000001", "HP:0000002", "HP:0000001"})
	require.Len(t, score.BestMatches, 2)
	assert.Equal(t, "HP:0000011", score.BestMatches[0].MatchID())
	assert.Equal(t, "HP:0000021", score.BestMatches[1].MatchID())
}

func TestIndex_ScoreModelWithoutQueryTerms(t *testing.T) {
	idx := newTestIndex(domain.MAX_MEAN)
	model := domain.Model{ID: "OMIM:101200", Organism: domain.HUMAN, PhenotypeIDs: []string{"HP:0000010"}}

	score := idx.ScoreModel(model, nil)
	assert.Equal(t, 0.0, score.Score)
	assert.Empty(t, score.BestMatches)
}

func TestIndex_ConcurrentReaders(t *testing.T) {
	idx := newTestIndex(domain.MAX_MEAN)
	model := domain.Model{ID: "OMIM:101200", Organism: domain.HUMAN, PhenotypeIDs: []string{"HP:0000011", "HP:0000021"}}
	expected := idx.ScoreModel(model, queryIDs)

	var wg sync.WaitGroup
	results := make([]domain.ModelScore, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = idx.ScoreModel(model, queryIDs)
		}(i)
	}
	wg.Wait()

	for _, result := range results {
		assert.Equal(t, expected, result)
	}
}

func TestIndex_ScoringMethodDefault(t *testing.T) {
	idx := NewIndex(nil, nil, nil)
	assert.Equal(t, domain.MAX_MEAN, idx.ScoringMethod(domain.FISH))
	assert.Empty(t, idx.QueryTermIDs())
}
