package hwe

import (
	"math"
	"testing"
)

type expectations struct {
	AA int64
	Aa int64
	aa int64

	P float64
}

// Truth values calculated by https://www.cog-genomics.org/software/stats
func TestExact(t *testing.T) {
	for _, v := range []expectations{
		{5000, 0, 5000, 0},
		{500, 0, 500, 1.319669097657e-301},
		{83, 13, 4, 0.010293},
		{50, 57, 14, 0.8422797565708},
		{2, 1, 3, 0.15151515151515},
		{500, 2, 0, 1},
		{500, 0, 4, 1.033376916931e-10},
		{500, 0, 2, 0.000002988038880362},
		{500, 1, 2, 0.0000148807309415},
		{500, 4, 2, 0.0002050449518921},
		{500, 2, 2, 0.00004443531076574},
	} {
		if p, expected := Exact(v.AA, v.Aa, v.aa), v.P; math.Abs(p-expected) > 1e-6 {
			t.Fatalf("\nError with input: %+v\nP: %.12f\nExpected: %.12f\nDiff: %.12f\n", v, p, expected, p-expected)
		}
	}
}

func TestExactSymmetric(t *testing.T) {
	// Swapping the major and minor homozygote counts must not change the result.
	if p1, p2 := Exact(83, 13, 4), Exact(4, 13, 83); p1 != p2 {
		t.Fatalf("Exact not symmetric: %v != %v", p1, p2)
	}
}

func TestApproximate(t *testing.T) {
	// Monomorphic sites are defined to be in perfect equilibrium.
	if p := Approximate(500, 0, 0); p != 1.0 {
		t.Fatalf("monomorphic site: got %v, expected 1", p)
	}

	// A site in perfect HW proportions: p=q=0.5, N=100.
	if p := Approximate(25, 50, 25); math.Abs(p-1.0) > 1e-9 {
		t.Fatalf("equilibrium site: got %v, expected 1", p)
	}

	// Strong deviation should be near zero and agree with Exact in magnitude.
	p := Approximate(50, 0, 50)
	if p > 1e-6 {
		t.Fatalf("extreme deviation: got %v, expected ~0", p)
	}
}
