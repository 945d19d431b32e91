package domain

import (
	"fmt"
	"regexp"
)

var phenotypeIDPattern = regexp.MustCompile(`^[A-Z]+:\d+$`)

// ValidatePhenotypeID checks that id looks like an ontology term id, e.g. HP:0001156.
func ValidatePhenotypeID(id string) error {
	if !phenotypeIDPattern.MatchString(id) {
		return NewValidationError("phenotype_id", fmt.Sprintf("'%s' is not an ontology term id", id), id, ErrInvalidPhenotype)
	}
	return nil
}

// PhenotypeTerm is a node of a phenotype ontology (HPO, MPO or ZPO) weighted by its
// information content.
type PhenotypeTerm struct {
	ID                 string  `json:"id"`
	Label              string  `json:"label"`
	InformationContent float64 `json:"ic,omitempty"`
}

// Equal compares terms by id only.
func (t PhenotypeTerm) Equal(other PhenotypeTerm) bool {
	return t.ID == other.ID
}

func (t PhenotypeTerm) String() string {
	if t.Label == "" {
		return t.ID
	}
	return fmt.Sprintf("%s (%s)", t.ID, t.Label)
}

// PhenotypeMatch is a precomputed best-match edge from a query term into a target
// ontology. LCS is the lowest common subsumer of the two terms, when known.
type PhenotypeMatch struct {
	Query PhenotypeTerm  `json:"query"`
	Match PhenotypeTerm  `json:"match"`
	LCS   *PhenotypeTerm `json:"lcs,omitempty"`
	SimJ  float64        `json:"simj"`
	Score float64        `json:"score"`
}

func (m PhenotypeMatch) QueryID() string { return m.Query.ID }
func (m PhenotypeMatch) MatchID() string { return m.Match.ID }

// Beats reports whether m is a better edge than other: a higher score, or an equal
// score with a smaller match id.
func (m PhenotypeMatch) Beats(other PhenotypeMatch) bool {
	if m.Score != other.Score {
		return m.Score > other.Score
	}
	return m.Match.ID < other.Match.ID
}
