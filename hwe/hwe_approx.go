package hwe

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Approximate returns the asymptotic chi-square P-value (1 degree of freedom)
// for deviation from Hardy-Weinberg proportions. Cheaper than Exact but
// unreliable for small genotype-class counts.
func Approximate(AA, Aa, aa float64) float64 {
	chi2 := distuv.ChiSquared{K: 1}
	return chi2.Survival(chiSquare(AA, Aa, aa))
}

// chiSquare returns the 1-df chi square statistic comparing observed genotype
// counts against the counts expected under Hardy-Weinberg proportions at the
// observed allele frequencies.
func chiSquare(AA, Aa, aa float64) float64 {
	A := AA*2 + Aa
	a := aa*2 + Aa

	// A monomorphic site carries no information; chi square of 0 (P=1)
	// rather than NaN.
	if A == 0 || a == 0 {
		return 0.0
	}

	N := AA + Aa + aa
	alleleCount := A + a

	majorFreq := A / alleleCount
	minorFreq := a / alleleCount

	eAA := majorFreq * majorFreq * N
	eAa := 2.0 * majorFreq * minorFreq * N
	eaa := minorFreq * minorFreq * N

	return math.Pow(eAA-AA, 2)/eAA +
		math.Pow(eAa-Aa, 2)/eAa +
		math.Pow(eaa-aa, 2)/eaa
}
