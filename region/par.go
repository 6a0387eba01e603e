// Package region classifies genomic positions against the pseudo-autosomal
// regions (PAR) of the sex chromosomes. Positions on X or Y outside the PARs
// are hemizygous in males and need special dosage handling.
package region

import "strings"

// Lookup decides whether a chromosome:position falls in a hemizygous region.
type Lookup interface {
	IsHemiRegion(chrom string, pos int) bool
}

// Build selects the reference genome coordinates for the PARs.
type Build int

const (
	B37 Build = iota
	B38
)

type span struct {
	beg int // 1-based, inclusive
	end int // inclusive
}

func (s span) contains(pos int) bool {
	return pos >= s.beg && pos <= s.end
}

// PAR coordinates per reference build.
var parX = map[Build][2]span{
	B37: {{60001, 2699520}, {154931044, 155260560}},
	B38: {{10001, 2781479}, {155701383, 156030895}},
}

var parY = map[Build][2]span{
	B37: {{10001, 2649520}, {59034050, 59363566}},
	B38: {{10001, 2781479}, {56887903, 57217415}},
}

// ParRegion is a Lookup backed by the published PAR coordinates of a single
// reference build.
type ParRegion struct {
	build Build
}

func NewParRegion(build Build) *ParRegion {
	return &ParRegion{build: build}
}

// IsHemiRegion reports whether chrom:pos is on a sex chromosome and outside
// both pseudo-autosomal regions. Autosomes are never hemizygous.
func (p *ParRegion) IsHemiRegion(chrom string, pos int) bool {
	var pars [2]span
	switch normalizeChrom(chrom) {
	case "X":
		pars = parX[p.build]
	case "Y":
		pars = parY[p.build]
	default:
		return false
	}
	return !pars[0].contains(pos) && !pars[1].contains(pos)
}

// normalizeChrom strips a leading "chr" prefix and upper-cases the name, so
// "chrX", "chrx" and "X" compare equal.
func normalizeChrom(chrom string) string {
	c := strings.ToUpper(strings.TrimSpace(chrom))
	c = strings.TrimPrefix(c, "CHR")
	return c
}
