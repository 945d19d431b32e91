package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Chromosome numbers for the non-autosomes.
const (
	CHR_X  = 23
	CHR_Y  = 24
	CHR_MT = 25
)

// ParseChromosome converts a chromosome name such as "7", "chr7", "X" or "chrMT" to
// its number. Autosomes are 1-22, X is 23, Y is 24 and the mitochondrion is 25.
func ParseChromosome(name string) (int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(name), "chr")
	switch strings.ToUpper(trimmed) {
	case "X":
		return CHR_X, nil
	case "Y":
		return CHR_Y, nil
	case "M", "MT":
		return CHR_MT, nil
	}
	chr, err := strconv.Atoi(trimmed)
	if err != nil || chr < 1 || chr > 22 {
		return 0, NewValidationError("chromosome", fmt.Sprintf("unrecognised chromosome '%s'", name), name, ErrInvalidInterval)
	}
	return chr, nil
}

// ChromosomeName is the inverse of ParseChromosome.
func ChromosomeName(chr int) string {
	switch chr {
	case CHR_X:
		return "X"
	case CHR_Y:
		return "Y"
	case CHR_MT:
		return "MT"
	default:
		return strconv.Itoa(chr)
	}
}

// GeneticInterval is a closed region [Start, End] on one chromosome, 1-based.
type GeneticInterval struct {
	Chromosome int `json:"chromosome"`
	Start      int `json:"start"`
	End        int `json:"end"`
}

// NewGeneticInterval validates and builds an interval.
func NewGeneticInterval(chromosome, start, end int) (GeneticInterval, error) {
	if chromosome < 1 || chromosome > CHR_MT {
		return GeneticInterval{}, NewValidationError("chromosome", "chromosome out of range", chromosome, ErrInvalidInterval)
	}
	if start > end {
		return GeneticInterval{}, NewValidationError("start",
			fmt.Sprintf("start %d is after end %d", start, end), start, ErrInvalidInterval)
	}
	return GeneticInterval{Chromosome: chromosome, Start: start, End: end}, nil
}

// ParseGeneticInterval parses "chr7:155595590-155604810". The chr prefix is optional
// and thousands separators are ignored.
func ParseGeneticInterval(region string) (GeneticInterval, error) {
	chrPart, rangePart, ok := strings.Cut(strings.TrimSpace(region), ":")
	if !ok {
		return GeneticInterval{}, NewValidationError("interval", fmt.Sprintf("'%s' is not of the form chr:start-end", region), region, ErrInvalidInterval)
	}
	startPart, endPart, ok := strings.Cut(strings.ReplaceAll(rangePart, ",", ""), "-")
	if !ok {
		return GeneticInterval{}, NewValidationError("interval", fmt.Sprintf("'%s' is not of the form chr:start-end", region), region, ErrInvalidInterval)
	}

	chr, err := ParseChromosome(chrPart)
	if err != nil {
		return GeneticInterval{}, err
	}
	start, err := strconv.Atoi(startPart)
	if err != nil {
		return GeneticInterval{}, NewValidationError("start", fmt.Sprintf("'%s' is not a position", startPart), startPart, ErrInvalidInterval)
	}
	end, err := strconv.Atoi(endPart)
	if err != nil {
		return GeneticInterval{}, NewValidationError("end", fmt.Sprintf("'%s' is not a position", endPart), endPart, ErrInvalidInterval)
	}
	return NewGeneticInterval(chr, start, end)
}

// Contains reports whether the position on the chromosome lies inside the interval.
func (i GeneticInterval) Contains(chromosome, position int) bool {
	return chromosome == i.Chromosome && position >= i.Start && position <= i.End
}

func (i GeneticInterval) String() string {
	return fmt.Sprintf("chr%s:%d-%d", ChromosomeName(i.Chromosome), i.Start, i.End)
}
