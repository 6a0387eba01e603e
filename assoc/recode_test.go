package assoc

import (
	"math"
	"testing"
)

func TestFlippedToMinorPolymorphic(t *testing.T) {
	geno := buildMatrix([]string{"c1", "c2", "c3"},
		[]float64{2, 0, 0},
		[]float64{2, 1, 0},
		[]float64{2, 2, 0},
	)
	pheno := buildMatrix([]string{"y"}, []float64{0}, []float64{1}, []float64{0})
	cov := onesCov(3)

	c := NewConsolidator()
	c.SetStrategy(Drop)
	if err := c.Consolidate(pheno, cov, geno); err != nil {
		t.Fatal(err)
	}

	flipped := c.FlippedToMinorPolymorphic()
	if flipped.Cols() != 1 {
		t.Fatalf("filtered columns = %d, expected 1 (c1 and c3 flip to constants)", flipped.Cols())
	}
	if flipped.ColName(0) != "c2" {
		t.Errorf("surviving column = %q, expected c2", flipped.ColName(0))
	}
	want := []float64{2, 1, 0}
	for i, w := range want {
		if g := flipped.At(i, 0); g != w {
			t.Errorf("flipped[%d] = %v, expected %v", i, g, w)
		}
	}

	// Pure function of the current genotype: a second call gives the same
	// result.
	again := c.FlippedToMinorPolymorphic()
	if !flipped.Equal(again) {
		t.Error("flip transform is not idempotent")
	}
}

func TestCodeDominantModelImpute(t *testing.T) {
	geno := buildMatrix([]string{"m"}, []float64{0}, []float64{1}, []float64{-1}, []float64{2})
	pheno := buildMatrix([]string{"y"}, []float64{0}, []float64{1}, []float64{0}, []float64{1})
	cov := onesCov(4)

	c := NewConsolidator()
	c.SetStrategy(ImputeMean)
	if err := c.Consolidate(pheno, cov, geno); err != nil {
		t.Fatal(err)
	}

	dom := c.CodeDominantModel()
	// Non-missing recode to 0,1,1; their mean 2/3 fills the missing slot.
	want := []float64{0, 1, 2.0 / 3, 1}
	for i, w := range want {
		if g := dom.At(i, 0); math.Abs(g-w) > 1e-12 {
			t.Errorf("dominant[%d] = %v, expected %v", i, g, w)
		}
	}
}

func TestCodeRecessiveModelImpute(t *testing.T) {
	geno := buildMatrix([]string{"m"}, []float64{0}, []float64{1}, []float64{-1}, []float64{2})
	pheno := buildMatrix([]string{"y"}, []float64{0}, []float64{1}, []float64{0}, []float64{1})
	cov := onesCov(4)

	c := NewConsolidator()
	c.SetStrategy(ImputeHWE)
	if err := c.Consolidate(pheno, cov, geno); err != nil {
		t.Fatal(err)
	}

	rec := c.CodeRecessiveModel()
	// Only the hom-alt call recodes to 1: 0,0,1 with mean 1/3 for the missing
	// slot.
	want := []float64{0, 0, 1.0 / 3, 1}
	for i, w := range want {
		if g := rec.At(i, 0); math.Abs(g-w) > 1e-12 {
			t.Errorf("recessive[%d] = %v, expected %v", i, g, w)
		}
	}
}

func TestCodeDominantModelDrop(t *testing.T) {
	geno := buildMatrix([]string{"m"}, []float64{0}, []float64{-1}, []float64{2})
	pheno := buildMatrix([]string{"y"}, []float64{0}, []float64{1}, []float64{0})
	cov := onesCov(3)

	c := NewConsolidator()
	c.SetStrategy(Drop)
	if err := c.Consolidate(pheno, cov, geno); err != nil {
		t.Fatal(err)
	}

	dom := c.CodeDominantModel()
	if dom.Rows() != 2 {
		t.Fatalf("dominant rows = %d, expected 2 after drop", dom.Rows())
	}
	if dom.At(0, 0) != 0 || dom.At(1, 0) != 1 {
		t.Errorf("dominant = [%v %v], expected [0 1]", dom.At(0, 0), dom.At(1, 0))
	}
}

func TestCodeModelWarnsOncePerInstance(t *testing.T) {
	geno := buildMatrix([]string{"a", "b"},
		[]float64{0, 1},
		[]float64{1, 2},
	)
	pheno := buildMatrix([]string{"y"}, []float64{0}, []float64{1})
	cov := onesCov(2)

	logger := &recordingLogger{}
	c := NewConsolidator()
	c.SetLogger(logger)
	c.SetStrategy(ImputeMean)
	if err := c.Consolidate(pheno, cov, geno); err != nil {
		t.Fatal(err)
	}

	c.CodeDominantModel()
	c.CodeRecessiveModel()
	if len(logger.msgs) != 1 {
		t.Errorf("multi-marker warning fired %d times, expected once", len(logger.msgs))
	}

	// A fresh instance warns again.
	logger2 := &recordingLogger{}
	c2 := NewConsolidator()
	c2.SetLogger(logger2)
	c2.SetStrategy(ImputeMean)
	if err := c2.Consolidate(pheno, cov, geno); err != nil {
		t.Fatal(err)
	}
	c2.CodeDominantModel()
	if len(logger2.msgs) != 1 {
		t.Errorf("new instance warning fired %d times, expected once", len(logger2.msgs))
	}
}
