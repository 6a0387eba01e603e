package hwe

import (
	"math"
	"math/big"

	"github.com/BenLubar/memoize"
)

var memoizedExactFor = memoize.Memoize(exactFor)
var memoizedFactorial = memoize.Memoize(factorial)

// Exact computes an exact Hardy-Weinberg equilibrium P-value following RA
// Fisher's method: the probability of the observed heterozygote count plus the
// probabilities of every configuration at least as extreme, conditional on the
// observed allele counts. Safe to call from concurrent goroutines.
func Exact(AA, Aa, aa int64) (p float64) {
	// Enforce AA common, aa rare
	if aa > AA {
		AA, aa = aa, AA
	}

	baseP := memoizedExactFor.(func(int64, int64, int64) float64)(AA, Aa, aa)
	sumP := baseP

	origAA, origAa, origaa := AA, Aa, aa

	// Left tail: increase the heterozygote count until an extreme is reached.
	for i := 0; ; i, Aa, AA, aa = i+1, Aa+2, AA-1, aa-1 {
		if aa < 0 {
			break
		}
		if i == 0 {
			continue
		}

		newest := memoizedExactFor.(func(int64, int64, int64) float64)(AA, Aa, aa)
		if newest > baseP {
			continue
		}
		if newest <= math.SmallestNonzeroFloat64 {
			break
		}
		sumP += newest
	}

	// Right tail: decrease the heterozygote count.
	AA, Aa, aa = origAA, origAa, origaa
	for i := 0; ; i, Aa, AA, aa = i+1, Aa-2, AA+1, aa+1 {
		if Aa < 0 {
			break
		}
		if i == 0 {
			continue
		}

		newest := memoizedExactFor.(func(int64, int64, int64) float64)(AA, Aa, aa)
		if newest > baseP {
			continue
		}
		if newest <= math.SmallestNonzeroFloat64 {
			break
		}
		sumP += newest
	}

	return sumP
}

// exactFor yields the probability of observing exactly Aa heterozygotes in a
// sample of AA+Aa+aa individuals with Aa+2*aa minor alleles.
func exactFor(AA, Aa, aa int64) (p float64) {
	A := AA*2 + Aa
	a := aa*2 + Aa
	N := AA + Aa + aa

	nAa := big.NewInt(Aa)

	var denom, nexp big.Int

	// Numerator: 2^Aa * A! * a!
	nexp.Exp(big.NewInt(2), nAa, nil)
	nexp.Mul(&nexp, memoizedFactorial.(func(int64, int64) *big.Int)(1, A))
	nexp.Mul(&nexp, memoizedFactorial.(func(int64, int64) *big.Int)(1, a))

	// Denominator: (2N)!/N! * AA! * Aa! * aa!
	denom.Add(&denom, memoizedFactorial.(func(int64, int64) *big.Int)(N+1, 2*N))
	denom.Mul(&denom, memoizedFactorial.(func(int64, int64) *big.Int)(1, AA))
	denom.Mul(&denom, memoizedFactorial.(func(int64, int64) *big.Int)(1, Aa))
	denom.Mul(&denom, memoizedFactorial.(func(int64, int64) *big.Int)(1, aa))

	var ratNum, ratDenom big.Rat
	ratNum.SetInt(&nexp)
	ratDenom.SetInt(&denom)
	final, _ := new(big.Rat).Quo(&ratNum, &ratDenom).Float64()

	return final
}

func factorial(a, b int64) *big.Int {
	return big.NewInt(1).MulRange(a, b)
}
