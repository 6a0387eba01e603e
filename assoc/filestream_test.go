package assoc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLabeledMatrixRoundTrip(t *testing.T) {
	m := buildMatrix([]string{"1:100", "1:200"},
		[]float64{0, 1},
		[]float64{2, -1},
	)
	path := filepath.Join(t.TempDir(), "geno.txt")

	if err := SaveLabeledMatrix(path, m, []string{"s1", "s2"}, '\t'); err != nil {
		t.Fatal(err)
	}

	got, ids, err := LoadLabeledMatrix(path, '\t')
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(m) {
		t.Error("loaded matrix differs from the saved one")
	}
	if got.ColName(0) != "1:100" || got.ColName(1) != "1:200" {
		t.Errorf("column labels = %v", got.ColNames())
	}
	if len(ids) != 2 || ids[0] != "s1" || ids[1] != "s2" {
		t.Errorf("sample ids = %v, expected [s1 s2]", ids)
	}
}

func TestLoadLabeledMatrixMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(path, []byte("IID\tm1\ns1\tnot-a-number\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadLabeledMatrix(path, '\t'); err == nil {
		t.Error("expected a parse error for non-numeric data")
	}

	if _, _, err := LoadLabeledMatrix(filepath.Join(t.TempDir(), "absent.txt"), '\t'); err == nil {
		t.Error("expected an error for a missing file")
	}
}
