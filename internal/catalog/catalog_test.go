package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phenorank/internal/domain"
)

func TestCatalog_ModelsFor(t *testing.T) {
	models := []domain.Model{
		{ID: "OMIM:101200", Organism: domain.HUMAN, EntrezGeneID: 2263, HumanGeneSymbol: "FGFR2"},
		{ID: "MGI:95523", Organism: domain.MOUSE, EntrezGeneID: 2263, HumanGeneSymbol: "FGFR2"},
		{ID: "OMIM:123500", Organism: domain.HUMAN, EntrezGeneID: 2263, HumanGeneSymbol: "FGFR2"},
		{ID: "ZFIN:ZDB-GENE-980526-255", Organism: domain.FISH, EntrezGeneID: 6469, HumanGeneSymbol: "SHH"},
		{ID: "BROKEN", Organism: domain.HUMAN, EntrezGeneID: 0},
	}
	c := New(models)

	fgfr2 := domain.MustGeneIdentifier(domain.GeneIdentifierFields{GeneSymbol: "FGFR2", EntrezID: "2263"})
	shh := domain.MustGeneIdentifier(domain.GeneIdentifierFields{GeneSymbol: "SHH", EntrezID: "6469"})
	unknown := domain.MustGeneIdentifier(domain.GeneIdentifierFields{GeneSymbol: "NOVEL"})

	human := c.ModelsFor(fgfr2, domain.HUMAN)
	if assert.Len(t, human, 2) {
		assert.Equal(t, "OMIM:101200", human[0].ID, "input order is kept")
		assert.Equal(t, "OMIM:123500", human[1].ID)
	}
	assert.Len(t, c.ModelsFor(fgfr2, domain.MOUSE), 1)
	assert.Empty(t, c.ModelsFor(fgfr2, domain.FISH))
	assert.Len(t, c.ModelsFor(shh, domain.FISH), 1)
	assert.Empty(t, c.ModelsFor(unknown, domain.HUMAN))

	assert.True(t, c.HasModels(shh))
	assert.False(t, c.HasModels(unknown))
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, []domain.Organism{domain.HUMAN, domain.MOUSE, domain.FISH}, c.Organisms())
}

func TestCatalog_Empty(t *testing.T) {
	c := New(nil)
	gene := domain.MustGeneIdentifier(domain.GeneIdentifierFields{GeneSymbol: "FGFR2", EntrezID: "2263"})

	assert.Empty(t, c.ModelsFor(gene, domain.HUMAN))
	assert.Empty(t, c.Organisms())
	assert.Equal(t, 0, c.Len())
}
