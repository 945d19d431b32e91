// Package catalog indexes the disease and model-organism models of each gene.
package catalog

import (
	"github.com/phenorank/internal/domain"
)

// Catalog returns the models known for a gene and organism. It is read-only after
// New returns.
type Catalog struct {
	models map[domain.Organism]map[int][]domain.Model
	count  int
}

// New indexes models by organism and Entrez gene id, keeping their input order.
// Models without a valid organism or Entrez id are skipped.
func New(models []domain.Model) *Catalog {
	c := &Catalog{models: make(map[domain.Organism]map[int][]domain.Model)}
	for _, model := range models {
		if !model.Organism.IsValid() || model.EntrezGeneID <= 0 {
			continue
		}
		byGene, ok := c.models[model.Organism]
		if !ok {
			byGene = make(map[int][]domain.Model)
			c.models[model.Organism] = byGene
		}
		byGene[model.EntrezGeneID] = append(byGene[model.EntrezGeneID], model)
		c.count++
	}
	return c
}

// ModelsFor returns the gene's models for the organism. A gene without an Entrez id
// has none.
func (c *Catalog) ModelsFor(gene domain.GeneIdentifier, organism domain.Organism) []domain.Model {
	if !gene.HasEntrezID() {
		return nil
	}
	return c.models[organism][gene.EntrezIDAsInt()]
}

// HasModels reports whether the gene has a model in any organism.
func (c *Catalog) HasModels(gene domain.GeneIdentifier) bool {
	for _, organism := range domain.Organisms {
		if len(c.ModelsFor(gene, organism)) > 0 {
			return true
		}
	}
	return false
}

// Len returns the number of indexed models.
func (c *Catalog) Len() int {
	return c.count
}

// Organisms returns the organisms with at least one model, in tie-break order.
func (c *Catalog) Organisms() []domain.Organism {
	organisms := make([]domain.Organism, 0, len(domain.Organisms))
	for _, organism := range domain.Organisms {
		if len(c.models[organism]) > 0 {
			organisms = append(organisms, organism)
		}
	}
	return organisms
}
