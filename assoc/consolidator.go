package assoc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aead/chacha20/chacha"
	"github.com/hhcho/frand"
	"go.dedis.ch/onet/v3/log"

	"github.com/statgo/assocprep/kinship"
	"github.com/statgo/assocprep/region"
)

// Strategy selects how missing genotype calls are resolved during
// consolidation.
type Strategy int

const (
	Uninitialized Strategy = iota
	ImputeMean
	ImputeHWE
	Drop
)

func (s Strategy) String() string {
	switch s {
	case ImputeMean:
		return "impute-mean"
	case ImputeHWE:
		return "impute-hwe"
	case Drop:
		return "drop"
	}
	return "uninitialized"
}

// PLINK sex and phenotype codes used to stratify raw genotype counting.
type PlinkSex int

const (
	AnySex PlinkSex = -1
	Male   PlinkSex = 1
	Female PlinkSex = 2
)

type PlinkPhenotype int

const (
	AnyPheno PlinkPhenotype = -1
	Control  PlinkPhenotype = 1
	Case     PlinkPhenotype = 2
)

// Result codes for the stratified counting entry points.
const (
	CountOK              = 0
	CountBadColumn       = -1
	CountBadStratum      = -2
	CountSexSizeMismatch = -3
)

// Logger is the error sink for failures that do not abort the process.
type Logger interface {
	Error(args ...interface{})
}

type onetLogger struct{}

func (onetLogger) Error(args ...interface{}) { log.Error(args...) }

var (
	ErrStrategyUnset      = errors.New("assoc: missing-data strategy not set")
	ErrRowCountMismatch   = errors.New("assoc: phenotype, covariate, and genotype row counts differ")
	ErrLabelCountMismatch = errors.New("assoc: sample label count does not match genotype rows")
)

const rngBufferSize = 1024

// Consolidator cleans one (phenotype, covariate, genotype) triple before
// model fitting: it resolves missing genotypes according to the configured
// Strategy while keeping all three matrices and the sample label list
// row-aligned, retains the pre-imputation genotype for raw counting and model
// recoding, and manages the kinship matrices consumed by mixed-model
// regression.
//
// A Consolidator owns its working matrices; inputs passed to Consolidate are
// copied, never mutated. Instances are independent and not safe for
// concurrent use.
type Consolidator struct {
	strategy Strategy
	rng      *frand.RNG
	logger   Logger

	genotype         *Matrix
	originalGenotype *Matrix
	flippedToMinor   *Matrix
	phenotype        *Matrix
	covariate        *Matrix
	weights          []float64

	phenotypeUpdated bool
	covariateUpdated bool

	originalRowLabel []string
	rowLabel         []string

	sex []int
	par region.Lookup

	kin [2]*kinship.Holder

	codingWarned bool
}

func NewConsolidator() *Consolidator {
	// Zero seed: HWE imputation is deterministic unless Reseed is called.
	seed := make([]byte, chacha.KeySize)
	return &Consolidator{
		rng:    frand.NewCustom(seed, rngBufferSize, 20),
		logger: onetLogger{},
		kin: [2]*kinship.Holder{
			kinship.NewHolder(kinship.Auto),
			kinship.NewHolder(kinship.X),
		},
	}
}

// Reseed replaces the imputation RNG with one seeded from the given bytes.
// The same seed and input always produce the same HWE-imputed genotypes.
func (c *Consolidator) Reseed(seed []byte) {
	buf := make([]byte, chacha.KeySize)
	copy(buf, seed)
	c.rng = frand.NewCustom(buf, rngBufferSize, 20)
}

func (c *Consolidator) SetLogger(l Logger) {
	if l != nil {
		c.logger = l
	}
}

func (c *Consolidator) SetStrategy(s Strategy) { c.strategy = s }
func (c *Consolidator) GetStrategy() Strategy  { return c.strategy }

// SetSampleNames fixes the ordered sample identifier list. It must match the
// genotype row count passed to Consolidate; the Drop strategy filters it in
// lockstep with row removal.
func (c *Consolidator) SetSampleNames(names []string) {
	c.originalRowLabel = make([]string, len(names))
	copy(c.originalRowLabel, names)
	c.rowLabel = make([]string, len(names))
	copy(c.rowLabel, names)
}

// RowLabels returns the sample identifiers aligned with the consolidated
// matrix rows.
func (c *Consolidator) RowLabels() []string { return c.rowLabel }

// SetSex registers per-sample PLINK sex codes (1=male, 2=female) used by the
// stratified counting entry points.
func (c *Consolidator) SetSex(sex []int) { c.sex = sex }

// SetParRegion injects the pseudo-autosomal-region lookup used by
// IsHemiRegion.
func (c *Consolidator) SetParRegion(l region.Lookup) { c.par = l }

// Consolidate produces row-aligned working copies of pheno, cov, and geno
// with missing genotypes resolved by the configured strategy. The inputs are
// not modified. On a precondition or configuration failure the error is also
// reported through the logger and previously consolidated state is left
// untouched.
func (c *Consolidator) Consolidate(pheno, cov, geno *Matrix) error {
	if pheno.Rows() != geno.Rows() || cov.Rows() != geno.Rows() {
		c.logger.Error(fmt.Sprintf(
			"row counts differ: pheno=%d cov=%d geno=%d",
			pheno.Rows(), cov.Rows(), geno.Rows()))
		return ErrRowCountMismatch
	}
	if len(c.originalRowLabel) > 0 && len(c.originalRowLabel) != geno.Rows() {
		c.logger.Error(fmt.Sprintf(
			"sample label count %d does not match genotype rows %d",
			len(c.originalRowLabel), geno.Rows()))
		return ErrLabelCountMismatch
	}

	switch c.strategy {
	case ImputeMean:
		c.originalGenotype = geno.Clone()
		working := geno.Clone()
		imputeGenotypeToMean(working)
		c.genotype = working

		// Replacement flags signal downstream callers whether a refit is
		// needed; content-identical inputs leave the cached copies in place.
		if c.phenotype != nil && c.phenotype.Equal(pheno) {
			c.phenotypeUpdated = false
		} else {
			c.phenotype = pheno.Clone()
			c.phenotypeUpdated = true
		}
		if c.covariate != nil && c.covariate.Equal(cov) {
			c.covariateUpdated = false
		} else {
			c.covariate = cov.Clone()
			c.covariateUpdated = true
		}
		c.rowLabel = append([]string(nil), c.originalRowLabel...)

	case ImputeHWE:
		c.originalGenotype = geno.Clone()
		working := geno.Clone()
		imputeGenotypeByFrequency(working, c.rng)
		c.genotype = working

		c.phenotype = pheno.Clone()
		c.covariate = cov.Clone()
		c.phenotypeUpdated = true
		c.covariateUpdated = true
		c.rowLabel = append([]string(nil), c.originalRowLabel...)

	case Drop:
		c.originalGenotype = geno.Clone()

		newGeno := NewMatrix(geno.Rows(), geno.Cols())
		newGeno.CopyColNamesFrom(geno)
		newPheno := NewMatrix(pheno.Rows(), pheno.Cols())
		newPheno.CopyColNamesFrom(pheno)
		newCov := NewMatrix(cov.Rows(), cov.Cols())
		newCov.CopyColNamesFrom(cov)
		labels := make([]string, 0, len(c.originalRowLabel))

		idx := 0
		for i := 0; i < geno.Rows(); i++ {
			if !hasNoMissingGenotype(geno, i) {
				continue
			}
			copyRow(geno, i, newGeno, idx)
			copyRow(pheno, i, newPheno, idx)
			copyRow(cov, i, newCov, idx)
			if len(c.originalRowLabel) > 0 {
				labels = append(labels, c.originalRowLabel[i])
			}
			idx++
		}
		newGeno.Resize(idx, newGeno.Cols())
		newPheno.Resize(idx, newPheno.Cols())
		newCov.Resize(idx, newCov.Cols())

		c.genotype = newGeno
		c.phenotype = newPheno
		c.covariate = newCov
		c.rowLabel = labels
		c.phenotypeUpdated = true
		c.covariateUpdated = true

	default:
		c.logger.Error("uninitialized consolidation method to handle missing data")
		return ErrStrategyUnset
	}

	return nil
}

// imputeGenotypeToMean rewrites each missing call as 2p, where p is the
// allele frequency of the marker computed from its non-missing calls. An
// all-missing marker imputes to 0.
func imputeGenotypeToMean(m *Matrix) {
	for j := 0; j < m.Cols(); j++ {
		ac := 0.0
		an := 0
		for i := 0; i < m.Rows(); i++ {
			if m.At(i, j) >= 0 {
				ac += m.At(i, j)
				an += 2
			}
		}
		p := 0.0
		if an != 0 {
			p = ac / float64(an)
		}
		g := 2.0 * p
		for i := 0; i < m.Rows(); i++ {
			if m.At(i, j) < 0 {
				m.Set(i, j, g)
			}
		}
	}
}

// imputeGenotypeByFrequency rewrites each missing call with a hard call drawn
// from the Hardy-Weinberg proportions (p^2, 2pq, q^2) at the marker's allele
// frequency. Markers are traversed in column order and samples in row order,
// consuming one uniform draw per missing cell, so a fixed seed reproduces the
// imputation exactly.
func imputeGenotypeByFrequency(m *Matrix, rng *frand.RNG) {
	for j := 0; j < m.Cols(); j++ {
		ac := 0.0
		an := 0
		for i := 0; i < m.Rows(); i++ {
			if m.At(i, j) >= 0 {
				ac += m.At(i, j)
				an += 2
			}
		}
		p := 0.0
		if an != 0 {
			p = ac / float64(an)
		}
		pRef := p * p
		pHet := pRef + 2.0*p*(1.0-p)
		for i := 0; i < m.Rows(); i++ {
			if m.At(i, j) < 0 {
				m.Set(i, j, hweDraw(pRef, pHet, rng.Float64()))
			}
		}
	}
}

// hweDraw maps a uniform draw r in [0,1) to a hard call under cumulative
// genotype-class probabilities pRef and pHet.
func hweDraw(pRef, pHet, r float64) float64 {
	switch {
	case r < pRef:
		return 0
	case r < pHet:
		return 1
	}
	return 2
}

func hasNoMissingGenotype(g *Matrix, row int) bool {
	for j := 0; j < g.Cols(); j++ {
		if g.At(row, j) < 0 {
			return false
		}
	}
	return true
}

func (c *Consolidator) Genotype() *Matrix  { return c.genotype }
func (c *Consolidator) Phenotype() *Matrix { return c.phenotype }
func (c *Consolidator) Covariate() *Matrix { return c.covariate }

// OriginalGenotype returns the retained pre-imputation genotype snapshot.
func (c *Consolidator) OriginalGenotype() *Matrix { return c.originalGenotype }

func (c *Consolidator) PhenotypeUpdated() bool { return c.phenotypeUpdated }
func (c *Consolidator) CovariateUpdated() bool { return c.covariateUpdated }

// Weights returns the per-marker weight vector, sized to the consolidated
// genotype column count on first use.
func (c *Consolidator) Weights() []float64 {
	if c.genotype != nil && len(c.weights) != c.genotype.Cols() {
		c.weights = make([]float64, c.genotype.Cols())
	}
	return c.weights
}

// CountRawGenotype feeds the pre-imputation genotype calls of one marker
// column into counter, optionally restricted to a sex and phenotype stratum.
// Returns CountOK on success or a negative precondition code.
func (c *Consolidator) CountRawGenotype(columnIndex int, sex PlinkSex, phenotype PlinkPhenotype, counter *GenotypeCounter) int {
	if c.originalGenotype == nil || columnIndex < 0 || columnIndex >= c.originalGenotype.Cols() {
		return CountBadColumn
	}
	if sex > 0 && sex != Male && sex != Female {
		return CountBadStratum
	}
	if sex > 0 && len(c.sex) != c.originalGenotype.Rows() {
		return CountSexSizeMismatch
	}
	if phenotype > 0 && phenotype != Control && phenotype != Case {
		return CountBadStratum
	}
	// Phenotype strata come from the consolidated phenotype, which under the
	// Drop strategy no longer aligns with the pre-drop genotype snapshot.
	if phenotype > 0 && (c.phenotype == nil || c.phenotype.Rows() != c.originalGenotype.Rows()) {
		return CountBadStratum
	}

	for i := 0; i < c.originalGenotype.Rows(); i++ {
		if sex > 0 && PlinkSex(c.sex[i]) != sex {
			continue
		}
		// Internal phenotype is 0/1; PLINK uses 1 (control) and 2 (case).
		if phenotype > 0 && int(c.phenotype.At(i, 0)+1) != int(phenotype) {
			continue
		}
		counter.Add(c.originalGenotype.At(i, columnIndex))
	}

	return CountOK
}

func (c *Consolidator) CountRawGenotypeAll(columnIndex int, counter *GenotypeCounter) int {
	return c.CountRawGenotype(columnIndex, AnySex, AnyPheno, counter)
}

func (c *Consolidator) CountRawGenotypeFromCase(columnIndex int, counter *GenotypeCounter) int {
	return c.CountRawGenotype(columnIndex, AnySex, Case, counter)
}

func (c *Consolidator) CountRawGenotypeFromControl(columnIndex int, counter *GenotypeCounter) int {
	return c.CountRawGenotype(columnIndex, AnySex, Control, counter)
}

func (c *Consolidator) CountRawGenotypeFromFemale(columnIndex int, counter *GenotypeCounter) int {
	return c.CountRawGenotype(columnIndex, Female, AnyPheno, counter)
}

func (c *Consolidator) CountRawGenotypeFromFemaleCase(columnIndex int, counter *GenotypeCounter) int {
	return c.CountRawGenotype(columnIndex, Female, Case, counter)
}

func (c *Consolidator) CountRawGenotypeFromFemaleControl(columnIndex int, counter *GenotypeCounter) int {
	return c.CountRawGenotype(columnIndex, Female, Control, counter)
}

// IsHemiRegion reports whether the marker at columnIndex lies in a hemizygous
// region of a sex chromosome. The marker's column label must have the form
// "chrom:position"; malformed labels classify as non-hemizygous.
func (c *Consolidator) IsHemiRegion(columnIndex int) bool {
	if c.par == nil {
		c.logger.Error("no PAR region lookup configured")
		return false
	}
	if c.genotype == nil || columnIndex < 0 || columnIndex >= c.genotype.Cols() {
		c.logger.Error("invalid marker column for hemizygous-region check:", columnIndex)
		return false
	}
	chromPos := c.genotype.ColName(columnIndex)
	colon := strings.Index(chromPos, ":")
	if colon < 0 {
		return false
	}
	pos, err := strconv.Atoi(chromPos[colon+1:])
	if err != nil {
		return false
	}
	return c.par.IsHemiRegion(chromPos[:colon], pos)
}
