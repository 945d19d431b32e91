package domain

// Model is a gene's phenotype annotation set from a disease database or a model
// organism. Mouse and fish models are keyed by the human orthologue's Entrez id.
type Model struct {
	ID              string   `json:"id"`
	Organism        Organism `json:"organism"`
	EntrezGeneID    int      `json:"entrez_gene_id"`
	HumanGeneSymbol string   `json:"human_gene_symbol"`
	Label           string   `json:"label,omitempty"`
	PhenotypeIDs    []string `json:"phenotype_ids"`
}

// ModelScore is the phenotype similarity of one model to the query terms, with the
// best edge found for each query term.
type ModelScore struct {
	Model       Model            `json:"model"`
	Score       float64          `json:"score"`
	BestMatches []PhenotypeMatch `json:"best_matches,omitempty"`
}

// PriorityResult is the phenotype score of one gene. A gene without query terms or
// without models has HasEvidence false and score 0, which is distinct from a computed
// score of 0.
type PriorityResult struct {
	Gene        GeneIdentifier       `json:"gene"`
	Score       float64              `json:"score"`
	HasEvidence bool                 `json:"has_evidence"`
	BestModel   *ModelScore          `json:"best_model,omitempty"`
	PerOrganism map[Organism]float64 `json:"per_organism,omitempty"`
}

// NoEvidence returns the result for a gene that could not be scored.
func NoEvidence(gene GeneIdentifier) PriorityResult {
	return PriorityResult{Gene: gene}
}
