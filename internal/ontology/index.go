// Package ontology holds the phenotype ontology index built for one query phenotype
// set: for every query term and target organism, the precomputed best-match edges and
// the highest score the term can reach in that organism's ontology.
//
// The index is immutable after NewIndex returns and is safe for concurrent readers.
package ontology

import (
	"sort"

	"github.com/phenorank/internal/domain"
)

// Index maps query phenotype terms to their best matches per organism.
type Index struct {
	queryTerms map[string]domain.PhenotypeTerm
	matches    map[domain.Organism]map[string][]domain.PhenotypeMatch
	methods    map[domain.Organism]domain.ScoringMethod
}

// NewIndex keeps the edges of mappings whose query term is one of queryTerms. Edges
// for the same query term are ordered best first: score descending, then match id
// ascending. Organisms missing from methods score with MAX_MEAN.
func NewIndex(queryTerms []domain.PhenotypeTerm, mappings map[domain.Organism][]domain.PhenotypeMatch, methods map[domain.Organism]domain.ScoringMethod) *Index {
	idx := &Index{
		queryTerms: make(map[string]domain.PhenotypeTerm, len(queryTerms)),
		matches:    make(map[domain.Organism]map[string][]domain.PhenotypeMatch, len(mappings)),
		methods:    make(map[domain.Organism]domain.ScoringMethod, len(methods)),
	}
	for _, term := range queryTerms {
		idx.queryTerms[term.ID] = term
	}
	for organism, method := range methods {
		idx.methods[organism] = method
	}

	for organism, edges := range mappings {
		byQuery := make(map[string][]domain.PhenotypeMatch)
		for _, edge := range edges {
			if _, ok := idx.queryTerms[edge.QueryID()]; !ok {
				continue
			}
			byQuery[edge.QueryID()] = append(byQuery[edge.QueryID()], edge)
		}
		for queryID, queryEdges := range byQuery {
			sort.SliceStable(queryEdges, func(i, j int) bool { return queryEdges[i].Beats(queryEdges[j]) })
			byQuery[queryID] = queryEdges
		}
		idx.matches[organism] = byQuery
	}
	return idx
}

// QueryTerm returns the query term with the given id.
func (idx *Index) QueryTerm(id string) (domain.PhenotypeTerm, bool) {
	term, ok := idx.queryTerms[id]
	return term, ok
}

// QueryTermIDs returns the query term ids, sorted.
func (idx *Index) QueryTermIDs() []string {
	ids := make([]string, 0, len(idx.queryTerms))
	for id := range idx.queryTerms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Matches returns every retained edge of a query term into the organism, best first.
func (idx *Index) Matches(queryID string, organism domain.Organism) []domain.PhenotypeMatch {
	return idx.matches[organism][queryID]
}

// BestMatch returns the overall best edge of a query term into the organism.
func (idx *Index) BestMatch(queryID string, organism domain.Organism) (domain.PhenotypeMatch, bool) {
	edges := idx.matches[organism][queryID]
	if len(edges) == 0 {
		return domain.PhenotypeMatch{}, false
	}
	return edges[0], true
}

// MaxScore is the score of the best edge, the upper bound used for normalisation.
// It is 0 when the query term has no edge into the organism.
func (idx *Index) MaxScore(queryID string, organism domain.Organism) float64 {
	best, ok := idx.BestMatch(queryID, organism)
	if !ok {
		return 0
	}
	return best.Score
}

// BestMatchAmong returns the best edge of a query term whose match is in phenotypeIDs.
func (idx *Index) BestMatchAmong(queryID string, organism domain.Organism, phenotypeIDs map[string]struct{}) (domain.PhenotypeMatch, bool) {
	for _, edge := range idx.matches[organism][queryID] {
		if _, ok := phenotypeIDs[edge.MatchID()]; ok {
			return edge, true
		}
	}
	return domain.PhenotypeMatch{}, false
}

// ScoringMethod returns the method the organism's models are scored with.
func (idx *Index) ScoringMethod(organism domain.Organism) domain.ScoringMethod {
	if method, ok := idx.methods[organism]; ok && method.IsValid() {
		return method
	}
	return domain.MAX_MEAN
}

// HasOrganism reports whether any query term has an edge into the organism.
func (idx *Index) HasOrganism(organism domain.Organism) bool {
	return len(idx.matches[organism]) > 0
}
