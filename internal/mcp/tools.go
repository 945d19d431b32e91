package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/phenorank/internal/analysis"
	"github.com/phenorank/internal/domain"
)

// VariantInput is one annotated variant passed to prioritise_genes.
type VariantInput struct {
	Chromosome    int                          `json:"chromosome" jsonschema:"chromosome number; X is 23, Y is 24 and MT is 25"`
	Position      int                          `json:"position" jsonschema:"1-based position"`
	Ref           string                       `json:"ref" jsonschema:"reference allele"`
	Alt           string                       `json:"alt" jsonschema:"alternate allele"`
	Genotype      string                       `json:"genotype,omitempty" jsonschema:"VCF GT value such as 0/1"`
	GeneSymbol    string                       `json:"gene_symbol,omitempty" jsonschema:"annotated gene symbol"`
	EntrezGeneID  string                       `json:"entrez_gene_id,omitempty" jsonschema:"annotated Entrez gene id"`
	Quality       float64                      `json:"quality,omitempty" jsonschema:"call quality"`
	Effect        string                       `json:"effect,omitempty" jsonschema:"most severe consequence, e.g. MISSENSE_VARIANT"`
	Frequencies   []domain.PopulationFrequency `json:"frequencies,omitempty" jsonschema:"population frequencies in percent"`
	Pathogenicity []domain.PathogenicityScore  `json:"pathogenicity,omitempty" jsonschema:"predictor scores in [0,1]"`
}

func (v VariantInput) evaluation() *domain.VariantEvaluation {
	return &domain.VariantEvaluation{
		Chromosome:    v.Chromosome,
		Position:      v.Position,
		Ref:           v.Ref,
		Alt:           v.Alt,
		Genotype:      v.Genotype,
		GeneSymbol:    v.GeneSymbol,
		EntrezGeneID:  v.EntrezGeneID,
		Quality:       v.Quality,
		Effect:        v.Effect,
		Frequencies:   v.Frequencies,
		Pathogenicity: v.Pathogenicity,
	}
}

// PrioritiseGenesInput is the prioritise_genes request.
type PrioritiseGenesInput struct {
	HPOIDs       []string               `json:"hpo_ids,omitempty" jsonschema:"patient phenotype terms, e.g. HP:0001156"`
	Filters      []domain.FilterSpec    `json:"filters,omitempty" jsonschema:"filter chain in order"`
	FilterPolicy domain.FilterPolicy    `json:"filter_policy,omitempty" jsonschema:"NON_DESTRUCTIVE or DESTRUCTIVE"`
	Priority     *domain.PriorityPolicy `json:"priority,omitempty" jsonschema:"organism combination and scoring methods"`
	Variants     []VariantInput         `json:"variants" jsonschema:"annotated variants of the sample"`
	MaxResults   int                    `json:"max_results,omitempty" jsonschema:"number of ranked genes to return, all when 0"`
}

// GeneOutput summarises one ranked gene.
type GeneOutput struct {
	Rank              int                `json:"rank"`
	GeneSymbol        string             `json:"gene_symbol"`
	EntrezGeneID      int                `json:"entrez_gene_id,omitempty"`
	PassedFilters     bool               `json:"passed_filters"`
	FailedFilters     []string           `json:"failed_filters,omitempty"`
	Score             float64            `json:"score"`
	HasEvidence       bool               `json:"has_evidence"`
	BestModel         string             `json:"best_model,omitempty"`
	BestModelOrganism string             `json:"best_model_organism,omitempty"`
	PerOrganism       map[string]float64 `json:"per_organism,omitempty"`
	InheritanceModes  []string           `json:"inheritance_modes,omitempty"`
	Variants          int                `json:"variants"`
	PassedVariants    int                `json:"passed_variants"`
}

// PrioritiseGenesOutput is the prioritise_genes result.
type PrioritiseGenesOutput struct {
	QueryTerms  []domain.PhenotypeTerm `json:"query_terms"`
	Filters     []string               `json:"filters"`
	TotalGenes  int                    `json:"total_genes"`
	PassedGenes int                    `json:"passed_genes"`
	Unassigned  int                    `json:"unassigned_variants"`
	Genes       []GeneOutput           `json:"genes"`
}

// ListFiltersInput takes no arguments.
type ListFiltersInput struct{}

// ListFiltersOutput describes the available filters.
type ListFiltersOutput struct {
	VariantFilters []string `json:"variant_filters"`
	GeneFilters    []string `json:"gene_filters"`
	Policies       []string `json:"policies"`
	Organisms      []string `json:"organisms"`
}

// ResolveGeneInput is the resolve_gene request.
type ResolveGeneInput struct {
	Symbol string `json:"symbol" jsonschema:"approved, previous or alias HGNC symbol"`
}

// ResolveGeneOutput is the resolved identifier.
type ResolveGeneOutput struct {
	Identifier domain.GeneIdentifierFields `json:"identifier"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "prioritise_genes",
		Description: "Filter annotated variants, group them into genes and rank the genes by phenotype similarity to the patient's HPO terms",
	}, s.handlePrioritiseGenes)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_filters",
		Description: "List the available variant and gene filters, filter policies and organisms",
	}, s.handleListFilters)

	if s.resolver != nil {
		sdk.AddTool(s.mcp, &sdk.Tool{
			Name:        "resolve_gene",
			Description: "Resolve a gene symbol to its HGNC, Entrez, Ensembl and UCSC identifiers",
		}, s.handleResolveGene)
	}
}

func (s *Server) handlePrioritiseGenes(ctx context.Context, req *sdk.CallToolRequest, input PrioritiseGenesInput) (*sdk.CallToolResult, PrioritiseGenesOutput, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":     "prioritise_genes",
		"hpo_ids":  len(input.HPOIDs),
		"variants": len(input.Variants),
	}).Info("Tool invoked")

	if input.MaxResults < 0 {
		return nil, PrioritiseGenesOutput{}, fmt.Errorf("max_results must not be negative")
	}

	a := &domain.Analysis{
		HPOIDs:       input.HPOIDs,
		Filters:      input.Filters,
		FilterPolicy: input.FilterPolicy,
	}
	if input.Priority != nil {
		a.Priority = *input.Priority
	}
	variants := make([]*domain.VariantEvaluation, len(input.Variants))
	for i, v := range input.Variants {
		variants[i] = v.evaluation()
	}

	results, err := s.analyzer.Run(ctx, a, variants)
	if err != nil {
		return nil, PrioritiseGenesOutput{}, domain.APIErrorFrom(err, "")
	}

	output := summarise(results, input.MaxResults)
	return &sdk.CallToolResult{
		Content: []sdk.Content{
			&sdk.TextContent{Text: describe(output)},
		},
	}, output, nil
}

func (s *Server) handleListFilters(ctx context.Context, req *sdk.CallToolRequest, input ListFiltersInput) (*sdk.CallToolResult, ListFiltersOutput, error) {
	output := ListFiltersOutput{
		Policies: []string{string(domain.NON_DESTRUCTIVE), string(domain.DESTRUCTIVE)},
	}
	for _, ft := range domain.FilterTypes {
		if ft.IsGeneFilter() {
			output.GeneFilters = append(output.GeneFilters, ft.String())
		} else {
			output.VariantFilters = append(output.VariantFilters, ft.String())
		}
	}
	for _, organism := range domain.Organisms {
		output.Organisms = append(output.Organisms, organism.String())
	}
	return nil, output, nil
}

func (s *Server) handleResolveGene(ctx context.Context, req *sdk.CallToolRequest, input ResolveGeneInput) (*sdk.CallToolResult, ResolveGeneOutput, error) {
	if strings.TrimSpace(input.Symbol) == "" {
		return nil, ResolveGeneOutput{}, fmt.Errorf("symbol is required")
	}
	id, err := s.resolver.ResolveGene(ctx, input.Symbol)
	if err != nil {
		return nil, ResolveGeneOutput{}, err
	}
	return nil, ResolveGeneOutput{Identifier: id.Fields()}, nil
}

// summarise flattens ranked results, keeping the first maxResults genes when
// maxResults is positive.
func summarise(results *analysis.Results, maxResults int) PrioritiseGenesOutput {
	genes := results.Genes
	if maxResults > 0 && len(genes) > maxResults {
		genes = genes[:maxResults]
	}

	output := PrioritiseGenesOutput{
		QueryTerms:  results.QueryTerms,
		TotalGenes:  len(results.Genes),
		PassedGenes: len(results.PassedGenes()),
		Unassigned:  len(results.Unassigned),
		Filters:     make([]string, 0, len(results.Filters)),
		Genes:       make([]GeneOutput, 0, len(genes)),
	}
	if output.QueryTerms == nil {
		output.QueryTerms = []domain.PhenotypeTerm{}
	}
	for _, ft := range results.Filters {
		output.Filters = append(output.Filters, ft.String())
	}

	for i, g := range genes {
		priority := g.PriorityResult()
		gene := GeneOutput{
			Rank:           i + 1,
			GeneSymbol:     g.Symbol(),
			EntrezGeneID:   g.EntrezGeneID(),
			PassedFilters:  g.PassedFilters(),
			Score:          priority.Score,
			HasEvidence:    priority.HasEvidence,
			Variants:       len(g.Variants()),
			PassedVariants: len(g.PassedVariants()),
		}
		for _, ft := range g.FailedFilterTypes() {
			gene.FailedFilters = append(gene.FailedFilters, ft.String())
		}
		if priority.BestModel != nil {
			gene.BestModel = priority.BestModel.Model.ID
			gene.BestModelOrganism = priority.BestModel.Model.Organism.String()
		}
		if len(priority.PerOrganism) > 0 {
			gene.PerOrganism = make(map[string]float64, len(priority.PerOrganism))
			for organism, score := range priority.PerOrganism {
				gene.PerOrganism[organism.String()] = score
			}
		}
		for _, mode := range g.InheritanceModes() {
			gene.InheritanceModes = append(gene.InheritanceModes, string(mode))
		}
		output.Genes = append(output.Genes, gene)
	}
	return output
}

func describe(output PrioritiseGenesOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d genes passed all filters", output.PassedGenes, output.TotalGenes)
	if output.Unassigned > 0 {
		fmt.Fprintf(&b, "; %d variants had no gene", output.Unassigned)
	}
	b.WriteString(".")
	for _, g := range output.Genes {
		if !g.PassedFilters {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s score=%.4f", g.Rank, g.GeneSymbol, g.Score)
		if g.BestModel != "" {
			fmt.Fprintf(&b, " best=%s (%s)", g.BestModel, g.BestModelOrganism)
		}
	}
	return b.String()
}
