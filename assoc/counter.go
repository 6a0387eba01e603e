package assoc

import (
	"github.com/statgo/assocprep/hwe"
)

// GenotypeCounter accumulates either hard genotype calls or dosages into
// genotype-class buckets and derives per-marker summary statistics.
//
// Dosage values are bucketed with half-open thresholds:
//
//	g < 2/3         homRef
//	2/3 <= g < 4/3  het
//	4/3 <= g <= 2   homAlt
//	g > 2           missing
//
// A negative (missing) call increments the missing counter and still falls
// through the thresholds, so it also lands in the homRef bucket and the
// allele-sum accumulator. Downstream statistics depend on these exact totals;
// see TestGenotypeCounterMissingDoubleCount.
type GenotypeCounter struct {
	nHomRef  int
	nHet     int
	nHomAlt  int
	nMissing int
	nSample  int
	sumAC    float64
}

func NewGenotypeCounter() *GenotypeCounter {
	c := &GenotypeCounter{}
	c.Reset()
	return c
}

func (c *GenotypeCounter) Reset() {
	c.nHomRef, c.nHet, c.nHomAlt, c.nMissing, c.nSample = 0, 0, 0, 0, 0
	c.sumAC = 0.
}

func (c *GenotypeCounter) Add(g float64) {
	if g < 0 {
		c.nMissing++
	}
	if g < 2.0/3 {
		c.nHomRef++
		c.sumAC += g
	} else if g < 4.0/3 {
		c.nHet++
		c.sumAC += g
	} else if g <= 2.0 {
		c.nHomAlt++
		c.sumAC += g
	} else {
		c.nMissing++
	}
	c.nSample++
}

func (c *GenotypeCounter) NumHomRef() int  { return c.nHomRef }
func (c *GenotypeCounter) NumHet() int     { return c.nHet }
func (c *GenotypeCounter) NumHomAlt() int  { return c.nHomAlt }
func (c *GenotypeCounter) NumMissing() int { return c.nMissing }
func (c *GenotypeCounter) NumSample() int  { return c.nSample }

func (c *GenotypeCounter) CallRate() float64 {
	if c.nSample == 0 {
		return 0.0
	}
	return 1.0 - float64(c.nMissing)/float64(c.nSample)
}

func (c *GenotypeCounter) AF() float64 {
	if c.nSample == 0 {
		return -1.0
	}
	return 0.5 * c.sumAC / float64(c.nSample)
}

// AC returns the total alternate allele count.
func (c *GenotypeCounter) AC() float64 { return c.sumAC }

// HWE returns the exact Hardy-Weinberg equilibrium test P-value for the
// accumulated genotype-class counts.
func (c *GenotypeCounter) HWE() float64 {
	return hwe.Exact(int64(c.nHomRef), int64(c.nHet), int64(c.nHomAlt))
}
