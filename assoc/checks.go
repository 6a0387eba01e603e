package assoc

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// Result codes for the pre-regression checks.
const (
	CheckOK              = 0
	CheckPhenoNoVariance = -1
	CheckCovNoVariance   = -2
	CheckTooFewSamples   = -3
)

// PreRegressionCheck runs the predictor and colinearity checks in order and
// returns the first failure code, or CheckOK.
func (c *Consolidator) PreRegressionCheck(pheno, cov *Matrix) int {
	if ret := c.CheckPredictor(pheno, cov); ret != CheckOK {
		return ret
	}
	if n := c.CheckColinearity(cov); n > 0 {
		return CheckCovNoVariance
	}
	return CheckOK
}

// CheckColinearity returns the number of linearly dependent covariate
// columns, reporting each dependent column's label through the logger. Zero
// means the covariate matrix has full column rank.
func (c *Consolidator) CheckColinearity(cov *Matrix) int {
	if cov == nil || cov.Cols() == 0 || cov.Rows() == 0 {
		return 0
	}

	// Greedy forward selection: a column that does not grow the rank of the
	// columns accepted before it is dependent on them.
	dependent := 0
	kept := make([]int, 0, cov.Cols())
	for j := 0; j < cov.Cols(); j++ {
		cols := append(append([]int(nil), kept...), j)
		if matrixRank(cov, cols) == len(cols) {
			kept = append(kept, j)
			continue
		}
		dependent++
		c.logger.Error(fmt.Sprintf("covariate column %d (%s) is linearly dependent",
			j, cov.ColName(j)))
	}
	return dependent
}

// matrixRank computes the numerical rank of the selected columns of m.
func matrixRank(m *Matrix, cols []int) int {
	sub := mat.NewDense(m.Rows(), len(cols), nil)
	for dst, src := range cols {
		for i := 0; i < m.Rows(); i++ {
			sub.Set(i, dst, m.At(i, src))
		}
	}

	var svd mat.SVD
	if !svd.Factorize(sub, mat.SVDNone) {
		return 0
	}
	sv := svd.Values(nil)
	if len(sv) == 0 {
		return 0
	}

	tol := float64(maxInt(m.Rows(), len(cols))) * sv[0] * 1e-14
	rank := 0
	for _, v := range sv {
		if v > tol {
			rank++
		}
	}
	return rank
}

// CheckPredictor validates that the phenotype and covariates can support a
// regression fit: the phenotype varies, every covariate column varies, and
// there are more samples than model parameters.
func (c *Consolidator) CheckPredictor(pheno, cov *Matrix) int {
	if pheno == nil || pheno.Rows() == 0 {
		c.logger.Error("phenotype is empty")
		return CheckTooFewSamples
	}

	if v, err := stats.Variance(column(pheno, 0)); err != nil || v < 1e-12 {
		c.logger.Error("phenotype has no variance")
		return CheckPhenoNoVariance
	}

	nCov := 0
	if cov != nil {
		nCov = cov.Cols()
		for j := 0; j < cov.Cols(); j++ {
			if v, err := stats.Variance(column(cov, j)); err != nil || v < 1e-12 {
				c.logger.Error(fmt.Sprintf("covariate column %d (%s) has no variance",
					j, cov.ColName(j)))
				return CheckCovNoVariance
			}
		}
	}

	// Intercept, genotype term, and one parameter per covariate.
	if pheno.Rows() <= nCov+2 {
		c.logger.Error(fmt.Sprintf("%d samples cannot support %d model parameters",
			pheno.Rows(), nCov+2))
		return CheckTooFewSamples
	}

	return CheckOK
}

func column(m *Matrix, j int) []float64 {
	out := make([]float64, m.Rows())
	for i := 0; i < m.Rows(); i++ {
		out[i] = m.At(i, j)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
