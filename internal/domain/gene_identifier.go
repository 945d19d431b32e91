package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// NoEntrezID is the integer form of an unknown Entrez gene id.
const NoEntrezID = -1

// GeneIdentifierFields are the raw cross-references used to build a GeneIdentifier.
// Unset fields mean unknown.
type GeneIdentifierFields struct {
	GeneID     string `json:"gene_id" yaml:"gene_id"`
	GeneSymbol string `json:"gene_symbol" yaml:"gene_symbol"`
	HGNCID     string `json:"hgnc_id,omitempty" yaml:"hgnc_id"`
	HGNCSymbol string `json:"hgnc_symbol,omitempty" yaml:"hgnc_symbol"`
	EntrezID   string `json:"entrez_id,omitempty" yaml:"entrez_id"`
	EnsemblID  string `json:"ensembl_id,omitempty" yaml:"ensembl_id"`
	UCSCID     string `json:"ucsc_id,omitempty" yaml:"ucsc_id"`
}

// GeneIdentifier links a gene id and symbol to the human gene databases (HGNC, Entrez,
// Ensembl, UCSC). It can describe a human gene or, for instance, a mouse gene paired
// with its human orthologue. The Entrez id is the join key for phenotype models.
//
// GeneIdentifier is a comparable value: two identifiers are equal iff all seven fields
// are equal, so it can be used directly as a map key.
type GeneIdentifier struct {
	geneID     string
	geneSymbol string
	hgncID     string
	hgncSymbol string
	entrezID   string
	entrezInt  int
	ensemblID  string
	ucscID     string
}

// NewGeneIdentifier validates the fields and builds a GeneIdentifier. An empty Entrez
// id is allowed; any other value must be a positive integer.
func NewGeneIdentifier(fields GeneIdentifierFields) (GeneIdentifier, error) {
	entrezInt, err := parseEntrezID(fields.EntrezID)
	if err != nil {
		return GeneIdentifier{}, err
	}

	return GeneIdentifier{
		geneID:     fields.GeneID,
		geneSymbol: fields.GeneSymbol,
		hgncID:     fields.HGNCID,
		hgncSymbol: fields.HGNCSymbol,
		entrezID:   fields.EntrezID,
		entrezInt:  entrezInt,
		ensemblID:  fields.EnsemblID,
		ucscID:     fields.UCSCID,
	}, nil
}

// MustGeneIdentifier is NewGeneIdentifier for literals known to be valid.
func MustGeneIdentifier(fields GeneIdentifierFields) GeneIdentifier {
	id, err := NewGeneIdentifier(fields)
	if err != nil {
		panic(err)
	}
	return id
}

func parseEntrezID(entrezID string) (int, error) {
	if entrezID == "" {
		return NoEntrezID, nil
	}
	value, err := strconv.Atoi(entrezID)
	if err != nil || value <= 0 {
		return 0, NewValidationError("entrez_id",
			fmt.Sprintf("entrezId '%s' is invalid, must be a positive integer", entrezID),
			entrezID, ErrInvalidIdentifier)
	}
	return value, nil
}

func (g GeneIdentifier) GeneID() string     { return g.geneID }
func (g GeneIdentifier) GeneSymbol() string { return g.geneSymbol }
func (g GeneIdentifier) HGNCID() string     { return g.hgncID }
func (g GeneIdentifier) HGNCSymbol() string { return g.hgncSymbol }
func (g GeneIdentifier) EntrezID() string   { return g.entrezID }
func (g GeneIdentifier) EnsemblID() string  { return g.ensemblID }
func (g GeneIdentifier) UCSCID() string     { return g.ucscID }

// EntrezIDAsInt returns the Entrez id, or NoEntrezID when it is unknown.
func (g GeneIdentifier) EntrezIDAsInt() int {
	return g.entrezInt
}

// HasEntrezID reports whether the Entrez id is known.
func (g GeneIdentifier) HasEntrezID() bool {
	return g.entrezID != ""
}

// Fields returns the raw fields, for serialisation and for building a modified copy.
func (g GeneIdentifier) Fields() GeneIdentifierFields {
	return GeneIdentifierFields{
		GeneID:     g.geneID,
		GeneSymbol: g.geneSymbol,
		HGNCID:     g.hgncID,
		HGNCSymbol: g.hgncSymbol,
		EntrezID:   g.entrezID,
		EnsemblID:  g.ensemblID,
		UCSCID:     g.ucscID,
	}
}

func (g GeneIdentifier) String() string {
	return fmt.Sprintf("GeneIdentifier{geneId='%s', geneSymbol='%s', hgncId='%s', hgncSymbol='%s', entrezId='%s', ensemblId='%s', ucscId='%s'}",
		g.geneID, g.geneSymbol, g.hgncID, g.hgncSymbol, g.entrezID, g.ensemblID, g.ucscID)
}

// MarshalJSON renders the identifier fields.
func (g GeneIdentifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Fields())
}

// UnmarshalJSON validates the identifier fields.
func (g *GeneIdentifier) UnmarshalJSON(data []byte) error {
	var fields GeneIdentifierFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	id, err := NewGeneIdentifier(fields)
	if err != nil {
		return err
	}
	*g = id
	return nil
}
