package assoc

// FlippedToMinorPolymorphic returns the consolidated genotype recoded to
// minor allele counts (2 - g) with monomorphic markers removed. The result is
// recomputed from the current genotype on every call; surviving columns keep
// their labels and relative order.
func (c *Consolidator) FlippedToMinorPolymorphic() *Matrix {
	if c.genotype == nil {
		c.logger.Error("no consolidated genotype to flip")
		return nil
	}

	flipped := NewMatrix(c.genotype.Rows(), c.genotype.Cols())
	flipped.CopyColNamesFrom(c.genotype)
	for i := 0; i < c.genotype.Rows(); i++ {
		for j := 0; j < c.genotype.Cols(); j++ {
			flipped.Set(i, j, 2.0-c.genotype.At(i, j))
		}
	}

	c.flippedToMinor = removeMonomorphicMarkers(flipped)
	return c.flippedToMinor
}

func isMonomorphicMarker(m *Matrix, col int) bool {
	if m.Rows() == 0 {
		return true
	}
	first := m.At(0, col)
	for i := 1; i < m.Rows(); i++ {
		if m.At(i, col) != first {
			return false
		}
	}
	return true
}

// removeMonomorphicMarkers returns a copy of m without its constant columns.
func removeMonomorphicMarkers(m *Matrix) *Matrix {
	keep := make([]int, 0, m.Cols())
	for j := 0; j < m.Cols(); j++ {
		if !isMonomorphicMarker(m, j) {
			keep = append(keep, j)
		}
	}
	if len(keep) == m.Cols() {
		return m
	}

	out := NewMatrix(m.Rows(), len(keep))
	for dst, src := range keep {
		out.SetColName(dst, m.ColName(src))
		for i := 0; i < m.Rows(); i++ {
			out.Set(i, dst, m.At(i, src))
		}
	}
	return out
}

// CodeDominantModel recodes the first marker under a dominant model: any
// alternate allele codes as 1. Under the impute strategies the pre-imputation
// snapshot is recoded and originally missing entries are filled with the mean
// of the recoded non-missing entries; under Drop no missing entries remain
// and the consolidated genotype is recoded directly.
func (c *Consolidator) CodeDominantModel() *Matrix {
	return c.codeModel(0.5)
}

// CodeRecessiveModel recodes the first marker under a recessive model: only a
// homozygous-alternate call codes as 1. Missing handling matches
// CodeDominantModel.
func (c *Consolidator) CodeRecessiveModel() *Matrix {
	return c.codeModel(1.5)
}

func (c *Consolidator) codeModel(threshold float64) *Matrix {
	if c.genotype == nil || c.genotype.Cols() == 0 {
		c.logger.Error("no consolidated genotype to recode")
		return nil
	}
	if c.genotype.Cols() != 1 && !c.codingWarned {
		c.codingWarned = true
		c.logger.Error("model coding uses only the first marker")
	}

	m := c.genotype.Rows()
	out := NewMatrix(m, 1)
	out.SetColName(0, c.genotype.ColName(0))

	switch c.strategy {
	case ImputeMean, ImputeHWE:
		sum := 0.0
		numGeno := 0
		for i := 0; i < m; i++ {
			g := c.originalGenotype.At(i, 0)
			if g < 0 {
				continue
			}
			if g > threshold {
				out.Set(i, 0, 1.0)
				sum += 1.0
			} else {
				out.Set(i, 0, 0.0)
			}
			numGeno++
		}
		avg := 0.0
		if numGeno > 0 {
			avg = sum / float64(numGeno)
		}
		for i := 0; i < m; i++ {
			if c.originalGenotype.At(i, 0) < 0 {
				out.Set(i, 0, avg)
			}
		}

	case Drop:
		for i := 0; i < m; i++ {
			if c.genotype.At(i, 0) > threshold {
				out.Set(i, 0, 1.0)
			} else {
				out.Set(i, 0, 0.0)
			}
		}

	default:
		c.logger.Error("cannot recode genotype model before consolidation")
		return nil
	}

	return out
}
