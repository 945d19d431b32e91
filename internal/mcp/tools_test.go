package mcp

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenorank/internal/analysis"
	"github.com/phenorank/internal/domain"
	"github.com/phenorank/internal/store"
)

type stubResolver struct {
	id  domain.GeneIdentifier
	err error

	lastSymbol string
}

func (r *stubResolver) ResolveGene(ctx context.Context, symbol string) (domain.GeneIdentifier, error) {
	r.lastSymbol = symbol
	return r.id, r.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress logs during testing
	return logger
}

func newRunner() *analysis.Runner {
	s := store.NewMemoryStore(&store.Dataset{
		Terms: []domain.PhenotypeTerm{{ID: "HP:0001156", Label: "Brachydactyly", InformationContent: 5.2}},
		Matches: map[domain.Organism][]domain.PhenotypeMatch{
			domain.HUMAN: {{
				Query: domain.PhenotypeTerm{ID: "HP:0001156"},
				Match: domain.PhenotypeTerm{ID: "HP:0001156"},
				SimJ:  1,
				Score: 2.28,
			}},
			domain.MOUSE: {
				{
					Query: domain.PhenotypeTerm{ID: "HP:0001156"},
					Match: domain.PhenotypeTerm{ID: "MP:0002544"},
					SimJ:  0.9,
					Score: 2.01,
				},
				{
					Query: domain.PhenotypeTerm{ID: "HP:0001156"},
					Match: domain.PhenotypeTerm{ID: "MP:0000001"},
					SimJ:  1,
					Score: 2.5,
				},
			},
		},
		Models: []domain.Model{
			{ID: "OMIM:112500", Organism: domain.HUMAN, EntrezGeneID: 6469, HumanGeneSymbol: "SHH", PhenotypeIDs: []string{"HP:0001156"}},
			{ID: "MGI:95523", Organism: domain.MOUSE, EntrezGeneID: 2263, HumanGeneSymbol: "FGFR2", PhenotypeIDs: []string{"MP:0002544"}},
		},
	})
	return analysis.NewRunner(s, testLogger())
}

func testInput() PrioritiseGenesInput {
	return PrioritiseGenesInput{
		HPOIDs:  []string{"HP:0001156"},
		Filters: []domain.FilterSpec{{Type: domain.QUALITY_FILTER, MinQuality: 20}},
		Variants: []VariantInput{
			{Chromosome: 10, Position: 123256215, Ref: "T", Alt: "G", Genotype: "0/1", GeneSymbol: "FGFR2", EntrezGeneID: "2263", Quality: 70},
			{Chromosome: 7, Position: 155595594, Ref: "C", Alt: "T", Genotype: "1/1", GeneSymbol: "SHH", EntrezGeneID: "6469", Quality: 60},
			{Chromosome: 1, Position: 1000, Ref: "A", Alt: "T", Genotype: "0/1", GeneSymbol: "GNB1", EntrezGeneID: "2782", Quality: 5},
			{Chromosome: 2, Position: 2000, Ref: "A", Alt: "C", Genotype: "0/1", Quality: 90},
		},
	}
}

func TestPrioritiseGenes(t *testing.T) {
	server := NewServer(domain.MCPConfig{}, newRunner(), testLogger())

	result, output, err := server.handlePrioritiseGenes(context.Background(), nil, testInput())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 3, output.TotalGenes)
	assert.Equal(t, 2, output.PassedGenes)
	assert.Equal(t, 1, output.Unassigned)
	assert.Equal(t, []string{"QUALITY_FILTER"}, output.Filters)
	require.Len(t, output.QueryTerms, 1)
	assert.Equal(t, "Brachydactyly", output.QueryTerms[0].Label)

	require.Len(t, output.Genes, 3)
	shh := output.Genes[0]
	assert.Equal(t, 1, shh.Rank)
	assert.Equal(t, "SHH", shh.GeneSymbol)
	assert.Equal(t, 6469, shh.EntrezGeneID)
	assert.Equal(t, "OMIM:112500", shh.BestModel)
	assert.Equal(t, "HUMAN", shh.BestModelOrganism)
	assert.Contains(t, shh.InheritanceModes, "AUTOSOMAL_RECESSIVE")

	fgfr2 := output.Genes[1]
	assert.Equal(t, "FGFR2", fgfr2.GeneSymbol)
	assert.Equal(t, "MOUSE", fgfr2.BestModelOrganism)
	assert.Greater(t, shh.Score, fgfr2.Score)

	gnb1 := output.Genes[2]
	assert.False(t, gnb1.PassedFilters)
	assert.False(t, gnb1.HasEvidence)
	assert.Equal(t, 0, gnb1.PassedVariants)

	text := result.Content[0].(*sdk.TextContent).Text
	assert.Contains(t, text, "2 of 3 genes passed all filters")
	assert.Contains(t, text, "1. SHH")
	assert.NotContains(t, text, "GNB1")
}

func TestPrioritiseGenes_MaxResults(t *testing.T) {
	server := NewServer(domain.MCPConfig{}, newRunner(), testLogger())

	input := testInput()
	input.MaxResults = 1
	_, output, err := server.handlePrioritiseGenes(context.Background(), nil, input)
	require.NoError(t, err)
	assert.Equal(t, 3, output.TotalGenes)
	require.Len(t, output.Genes, 1)
	assert.Equal(t, "SHH", output.Genes[0].GeneSymbol)

	input.MaxResults = -1
	_, _, err = server.handlePrioritiseGenes(context.Background(), nil, input)
	assert.Error(t, err)
}

func TestPrioritiseGenes_Errors(t *testing.T) {
	server := NewServer(domain.MCPConfig{}, newRunner(), testLogger())

	tests := []struct {
		name     string
		mutate   func(*PrioritiseGenesInput)
		wantCode string
	}{
		{
			name:     "invalid phenotype",
			mutate:   func(in *PrioritiseGenesInput) { in.HPOIDs = []string{"brachydactyly"} },
			wantCode: domain.ErrInvalidInput,
		},
		{
			name:     "invalid filter policy",
			mutate:   func(in *PrioritiseGenesInput) { in.FilterPolicy = "SOMETIMES" },
			wantCode: domain.ErrInvalidInput,
		},
		{
			name: "invalid scoring method",
			mutate: func(in *PrioritiseGenesInput) {
				in.Priority = &domain.PriorityPolicy{ScoringMethods: map[domain.Organism]domain.ScoringMethod{domain.HUMAN: "MEDIAN"}}
			},
			wantCode: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := testInput()
			tt.mutate(&input)

			_, _, err := server.handlePrioritiseGenes(context.Background(), nil, input)
			require.Error(t, err)
			var apiErr *domain.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestListFilters(t *testing.T) {
	server := NewServer(domain.MCPConfig{}, newRunner(), testLogger())

	_, output, err := server.handleListFilters(context.Background(), nil, ListFiltersInput{})
	require.NoError(t, err)
	assert.Len(t, output.VariantFilters, 5)
	assert.Len(t, output.GeneFilters, 3)
	assert.Equal(t, []string{"NON_DESTRUCTIVE", "DESTRUCTIVE"}, output.Policies)
	assert.Equal(t, []string{"HUMAN", "MOUSE", "FISH"}, output.Organisms)
}

func TestResolveGene(t *testing.T) {
	fgfr2 := domain.MustGeneIdentifier(domain.GeneIdentifierFields{GeneID: "2263", GeneSymbol: "FGFR2", EntrezID: "2263", HGNCID: "HGNC:3689"})
	resolver := &stubResolver{id: fgfr2}
	server := NewServer(domain.MCPConfig{}, newRunner(), testLogger(), WithResolver(resolver))

	_, output, err := server.handleResolveGene(context.Background(), nil, ResolveGeneInput{Symbol: "BEK"})
	require.NoError(t, err)
	assert.Equal(t, "BEK", resolver.lastSymbol)
	assert.Equal(t, "HGNC:3689", output.Identifier.HGNCID)
	assert.Equal(t, "2263", output.Identifier.EntrezID)

	_, _, err = server.handleResolveGene(context.Background(), nil, ResolveGeneInput{Symbol: " "})
	assert.Error(t, err)

	resolver.err = domain.ErrNotFound
	_, _, err = server.handleResolveGene(context.Background(), nil, ResolveGeneInput{Symbol: "NOTAGENE"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func connect(t *testing.T, server *Server) *sdk.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := sdk.NewInMemoryTransports()
	serverSession, err := server.mcp.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestSession_Tools(t *testing.T) {
	t.Run("without resolver", func(t *testing.T) {
		session := connect(t, NewServer(domain.MCPConfig{}, newRunner(), testLogger()))

		tools, err := session.ListTools(context.Background(), nil)
		require.NoError(t, err)
		names := make([]string, 0, len(tools.Tools))
		for _, tool := range tools.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"prioritise_genes", "list_filters"}, names)
	})

	t.Run("with resolver", func(t *testing.T) {
		server := NewServer(domain.MCPConfig{}, newRunner(), testLogger(), WithResolver(&stubResolver{}))
		session := connect(t, server)

		tools, err := session.ListTools(context.Background(), nil)
		require.NoError(t, err)
		assert.Len(t, tools.Tools, 3)
	})
}

func TestSession_CallPrioritiseGenes(t *testing.T) {
	session := connect(t, NewServer(domain.MCPConfig{}, newRunner(), testLogger()))
	ctx := context.Background()

	result, err := session.CallTool(ctx, &sdk.CallToolParams{
		Name: "prioritise_genes",
		Arguments: map[string]any{
			"hpo_ids": []string{"HP:0001156"},
			"variants": []map[string]any{
				{"chromosome": 7, "position": 155595594, "ref": "C", "alt": "T", "genotype": "1/1", "gene_symbol": "SHH", "entrez_gene_id": "6469", "quality": 60},
			},
		},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.NotEmpty(t, result.Content)
	assert.Contains(t, result.Content[0].(*sdk.TextContent).Text, "1. SHH")

	result, err = session.CallTool(ctx, &sdk.CallToolParams{
		Name: "prioritise_genes",
		Arguments: map[string]any{
			"hpo_ids":  []string{"not-a-term"},
			"variants": []map[string]any{},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestStart_UnsupportedTransport(t *testing.T) {
	server := NewServer(domain.MCPConfig{TransportType: "carrier-pigeon"}, newRunner(), testLogger())
	err := server.Start(context.Background())
	assert.Error(t, err)
}
