package priority

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenorank/internal/catalog"
	"github.com/phenorank/internal/domain"
	"github.com/phenorank/internal/ontology"
)

var queryIDs = []string{"HP:0000001", "HP:0000002"}

func edge(query, match string, score float64) domain.PhenotypeMatch {
	return domain.PhenotypeMatch{Query: domain.PhenotypeTerm{ID: query}, Match: domain.PhenotypeTerm{ID: match}, Score: score}
}

func gene(symbol, entrezID string) domain.GeneIdentifier {
	return domain.MustGeneIdentifier(domain.GeneIdentifierFields{GeneID: entrezID, GeneSymbol: symbol, EntrezID: entrezID})
}

func newTestService(t *testing.T, policy domain.PriorityPolicy) *Service {
	t.Helper()

	index := ontology.NewIndex(
		[]domain.PhenotypeTerm{{ID: "HP:0000001"}, {ID: "HP:0000002"}},
		map[domain.Organism][]domain.PhenotypeMatch{
			domain.HUMAN: {
				edge("HP:0000001", "HP:0000010", 2.0),
				edge("HP:0000001", "HP:0000011", 1.0),
				edge("HP:0000002", "HP:0000020", 4.0),
				edge("HP:0000002", "HP:0000021", 2.0),
			},
			domain.MOUSE: {
				edge("HP:0000001", "MP:0000010", 1.0),
				edge("HP:0000002", "MP:0000020", 2.0),
			},
		},
		nil,
	)

	models := catalog.New([]domain.Model{
		{ID: "OMIM:A", Organism: domain.HUMAN, EntrezGeneID: 2263, PhenotypeIDs: []string{"HP:0000011", "HP:0000021"}},
		{ID: "OMIM:B", Organism: domain.HUMAN, EntrezGeneID: 2263, PhenotypeIDs: []string{"HP:0000021", "HP:0000011"}},
		{ID: "MGI:1", Organism: domain.MOUSE, EntrezGeneID: 2263, PhenotypeIDs: []string{"MP:0000010", "MP:0000020"}},
		{ID: "OMIM:C", Organism: domain.HUMAN, EntrezGeneID: 6469, PhenotypeIDs: []string{"HP:0000010"}},
		{ID: "OMIM:D", Organism: domain.HUMAN, EntrezGeneID: 675, PhenotypeIDs: []string{"HP:0000099"}},
		{ID: "OMIM:E", Organism: domain.HUMAN, EntrezGeneID: 1000, PhenotypeIDs: []string{"HP:0000010", "HP:0000020"}},
		{ID: "MGI:2", Organism: domain.MOUSE, EntrezGeneID: 1000, PhenotypeIDs: []string{"MP:0000010", "MP:0000020"}},
		{ID: "OMIM:F", Organism: domain.HUMAN, EntrezGeneID: 2000, PhenotypeIDs: []string{"HP:0000011", "HP:0000021"}},
		{ID: "OMIM:G", Organism: domain.HUMAN, EntrezGeneID: 2000, PhenotypeIDs: []string{"HP:0000021", "HP:0000011"}},
	})

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing
	return NewService(index, models, policy, logger, WithWorkers(4))
}

func TestService_ScoreMaxPolicy(t *testing.T) {
	s := newTestService(t, domain.DefaultPriorityPolicy())

	result := s.Score(gene("FGFR2", "2263"), queryIDs)
	assert.True(t, result.HasEvidence)
	assert.InDelta(t, 1.0, result.Score, 1e-9)
	require.NotNil(t, result.BestModel)
	assert.Equal(t, "MGI:1", result.BestModel.Model.ID)
	assert.InDelta(t, 0.5, result.PerOrganism[domain.HUMAN], 1e-9)
	assert.InDelta(t, 1.0, result.PerOrganism[domain.MOUSE], 1e-9)
	_, hasFish := result.PerOrganism[domain.FISH]
	assert.False(t, hasFish)
}

func TestService_ScoreWeightedPolicy(t *testing.T) {
	policy := domain.DefaultPriorityPolicy()
	policy.Combination = domain.WEIGHTED_ORGANISM
	s := newTestService(t, policy)

	result := s.Score(gene("FGFR2", "2263"), queryIDs)
	assert.True(t, result.HasEvidence)
	assert.InDelta(t, (0.5+1.0+0.0)/3, result.Score, 1e-9)

	policy.Weights = map[domain.Organism]float64{domain.HUMAN: 3, domain.MOUSE: 1, domain.FISH: 0}
	s = newTestService(t, policy)
	result = s.Score(gene("FGFR2", "2263"), queryIDs)
	assert.InDelta(t, (3*0.5+1*1.0)/4, result.Score, 1e-9)
}

func TestService_ModelTieKeepsFirst(t *testing.T) {
	s := newTestService(t, domain.DefaultPriorityPolicy())

	result := s.Score(gene("TWIN", "2000"), queryIDs)
	require.NotNil(t, result.BestModel)
	assert.Equal(t, "OMIM:F", result.BestModel.Model.ID)
	assert.InDelta(t, 0.5, result.Score, 1e-9)
}

func TestService_OrganismTieKeepsHuman(t *testing.T) {
	s := newTestService(t, domain.DefaultPriorityPolicy())

	result := s.Score(gene("TIE", "1000"), queryIDs)
	require.NotNil(t, result.BestModel)
	assert.Equal(t, "OMIM:E", result.BestModel.Model.ID)
	assert.Equal(t, domain.HUMAN, result.BestModel.Model.Organism)
}

func TestService_NoEvidenceIsDistinctFromLowScore(t *testing.T) {
	s := newTestService(t, domain.DefaultPriorityPolicy())

	noTerms := s.Score(gene("FGFR2", "2263"), nil)
	assert.False(t, noTerms.HasEvidence)
	assert.Equal(t, 0.0, noTerms.Score)
	assert.Nil(t, noTerms.BestModel)

	noModels := s.Score(gene("NOVEL", ""), queryIDs)
	assert.False(t, noModels.HasEvidence)

	zero := s.Score(gene("BRCA2", "675"), queryIDs)
	assert.True(t, zero.HasEvidence)
	assert.Equal(t, 0.0, zero.Score)
	assert.NotEqual(t, noModels.HasEvidence, zero.HasEvidence)

	low := s.Score(gene("SHH", "6469"), queryIDs)
	assert.True(t, low.HasEvidence)
	assert.InDelta(t, 0.25+0.5/3, low.Score, 1e-9)
}

func TestService_Deterministic(t *testing.T) {
	s := newTestService(t, domain.DefaultPriorityPolicy())
	genes := []domain.GeneIdentifier{gene("FGFR2", "2263"), gene("SHH", "6469"), gene("NOVEL", ""), gene("TIE", "1000")}

	first, err := s.ScoreGenes(context.Background(), genes, queryIDs)
	require.NoError(t, err)
	second, err := s.ScoreGenes(context.Background(), genes, queryIDs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for i, result := range first {
		assert.Equal(t, genes[i], result.Gene, "results are aligned with input")
	}
}

func TestService_ScoreGenesCancelled(t *testing.T) {
	s := newTestService(t, domain.DefaultPriorityPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ScoreGenes(ctx, []domain.GeneIdentifier{gene("FGFR2", "2263")}, queryIDs)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Prioritise(t *testing.T) {
	s := newTestService(t, domain.DefaultPriorityPolicy())
	genes := []*domain.Gene{domain.NewGene(gene("SHH", "6469")), domain.NewGene(gene("FGFR2", "2263"))}

	require.NoError(t, s.Prioritise(context.Background(), genes, queryIDs))
	assert.InDelta(t, 0.25+0.5/3, genes[0].PriorityScore(), 1e-9)
	assert.InDelta(t, 1.0, genes[1].PriorityScore(), 1e-9)
}

func TestRank(t *testing.T) {
	withScore := func(symbol, entrezID string, score float64, passed bool) *domain.Gene {
		g := domain.NewGene(gene(symbol, entrezID))
		g.SetPriorityResult(domain.PriorityResult{Gene: g.Identifier(), Score: score, HasEvidence: true})
		if !passed {
			g.AddFilterResult(domain.Fail(domain.ENTREZ_GENE_ID_FILTER))
		}
		return g
	}

	genes := []*domain.Gene{
		withScore("ZIC2", "7546", 0.9, false),
		withScore("SHH", "6469", 0.4, true),
		withScore("FGFR2", "2263", 0.8, true),
		withScore("BRCA2", "675", 0.4, true),
	}
	Rank(genes)

	symbols := make([]string, len(genes))
	for i, g := range genes {
		symbols[i] = g.Symbol()
	}
	assert.Equal(t, []string{"FGFR2", "BRCA2", "SHH", "ZIC2"}, symbols)
}
