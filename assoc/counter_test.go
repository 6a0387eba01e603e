package assoc

import (
	"math"
	"testing"
)

func TestGenotypeCounterHardCalls(t *testing.T) {
	c := NewGenotypeCounter()
	for _, g := range []float64{0, 1, 2, 0, 1} {
		c.Add(g)
	}

	if c.NumHomRef() != 2 || c.NumHet() != 2 || c.NumHomAlt() != 1 {
		t.Errorf("buckets = %d/%d/%d, expected 2/2/1", c.NumHomRef(), c.NumHet(), c.NumHomAlt())
	}
	if c.NumMissing() != 0 || c.NumSample() != 5 {
		t.Errorf("missing=%d sample=%d, expected 0/5", c.NumMissing(), c.NumSample())
	}
	if c.CallRate() != 1.0 {
		t.Errorf("call rate = %v, expected 1", c.CallRate())
	}
	if af := c.AF(); math.Abs(af-0.4) > 1e-12 {
		t.Errorf("AF = %v, expected 0.4", af)
	}
}

func TestGenotypeCounterDosageThresholds(t *testing.T) {
	tests := []struct {
		g      float64
		bucket string
	}{
		{0.0, "homRef"},
		{0.5, "homRef"},
		{2.0 / 3, "het"},
		{1.0, "het"},
		{1.3, "het"},
		{4.0 / 3, "homAlt"},
		{2.0, "homAlt"},
		{2.5, "missing"},
	}
	for _, tt := range tests {
		c := NewGenotypeCounter()
		c.Add(tt.g)
		got := ""
		switch {
		case c.NumHomRef() == 1:
			got = "homRef"
		case c.NumHet() == 1:
			got = "het"
		case c.NumHomAlt() == 1:
			got = "homAlt"
		case c.NumMissing() == 1:
			got = "missing"
		}
		if got != tt.bucket {
			t.Errorf("Add(%v) landed in %s, expected %s", tt.g, got, tt.bucket)
		}
	}
}

// A negative (missing) call is counted as missing and still falls through the
// dosage thresholds into the homRef bucket and allele sum. This is the
// contract downstream statistics are built on; do not "fix" it.
func TestGenotypeCounterMissingDoubleCount(t *testing.T) {
	c := NewGenotypeCounter()
	for _, g := range []float64{0, 1, 2, -1} {
		c.Add(g)
	}

	if c.NumHomRef() != 2 {
		t.Errorf("homRef = %d, expected 2 (0 plus the double-counted -1)", c.NumHomRef())
	}
	if c.NumHet() != 1 || c.NumHomAlt() != 1 || c.NumMissing() != 1 {
		t.Errorf("het/homAlt/missing = %d/%d/%d, expected 1/1/1",
			c.NumHet(), c.NumHomAlt(), c.NumMissing())
	}
	if c.NumSample() != 4 {
		t.Errorf("sample count = %d, expected 4", c.NumSample())
	}
	if cr := c.CallRate(); math.Abs(cr-0.75) > 1e-12 {
		t.Errorf("call rate = %v, expected 0.75", cr)
	}
	// The -1 contributes to the allele sum as well: 0+1+2-1 = 2.
	if c.AC() != 2.0 {
		t.Errorf("AC = %v, expected 2", c.AC())
	}
	if af := c.AF(); math.Abs(af-0.25) > 1e-12 {
		t.Errorf("AF = %v, expected 0.25", af)
	}
}

func TestGenotypeCounterEmpty(t *testing.T) {
	c := NewGenotypeCounter()
	if c.CallRate() != 0.0 {
		t.Errorf("empty call rate = %v, expected 0", c.CallRate())
	}
	if c.AF() != -1.0 {
		t.Errorf("empty AF = %v, expected -1", c.AF())
	}
}

func TestGenotypeCounterHWE(t *testing.T) {
	c := NewGenotypeCounter()
	for i := 0; i < 83; i++ {
		c.Add(0)
	}
	for i := 0; i < 13; i++ {
		c.Add(1)
	}
	for i := 0; i < 4; i++ {
		c.Add(2)
	}

	// Truth value from https://www.cog-genomics.org/software/stats
	if p := c.HWE(); math.Abs(p-0.010293) > 1e-6 {
		t.Errorf("HWE P = %v, expected 0.010293", p)
	}

	c.Reset()
	if c.NumSample() != 0 || c.AC() != 0 {
		t.Error("Reset did not clear the counter")
	}
}
