// Package assoc consolidates genotype, phenotype, and covariate matrices
// ahead of association testing: it resolves missing genotype calls, keeps the
// three matrices row-aligned with the sample list, derives recoded genotype
// matrices, and manages kinship matrices for mixed-model correction.
package assoc

import (
	"gonum.org/v1/gonum/mat"
)

// Matrix is a sample-by-marker numeric matrix with per-column labels.
// Negative cell values mark missing genotype calls; non-negative values are
// dosages or hard calls in [0, 2].
type Matrix struct {
	data     *mat.Dense // nil when rows or cols is zero
	rows     int
	cols     int
	colNames []string
}

func NewMatrix(rows, cols int) *Matrix {
	m := &Matrix{rows: rows, cols: cols, colNames: make([]string, cols)}
	if rows > 0 && cols > 0 {
		m.data = mat.NewDense(rows, cols, nil)
	}
	return m
}

// MatrixFromDense wraps d with empty column labels. The data is copied.
func MatrixFromDense(d *mat.Dense) *Matrix {
	r, c := d.Dims()
	m := NewMatrix(r, c)
	if m.data != nil {
		m.data.Copy(d)
	}
	return m
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

func (m *Matrix) Set(i, j int, v float64) {
	m.data.Set(i, j, v)
}

func (m *Matrix) ColName(j int) string {
	return m.colNames[j]
}

func (m *Matrix) SetColName(j int, name string) {
	m.colNames[j] = name
}

func (m *Matrix) ColNames() []string {
	out := make([]string, len(m.colNames))
	copy(out, m.colNames)
	return out
}

// Dense exposes the backing store for downstream numeric code. Nil for an
// empty matrix.
func (m *Matrix) Dense() *mat.Dense { return m.data }

// Resize grows or shrinks the matrix to rows x cols. Overlapping cells keep
// their values, new cells are zero, and column labels are truncated or
// extended with empty names.
func (m *Matrix) Resize(rows, cols int) {
	if rows == m.rows && cols == m.cols {
		return
	}

	var d *mat.Dense
	if rows > 0 && cols > 0 {
		d = mat.NewDense(rows, cols, nil)
		for i := 0; i < rows && i < m.rows; i++ {
			for j := 0; j < cols && j < m.cols; j++ {
				d.Set(i, j, m.data.At(i, j))
			}
		}
	}

	names := make([]string, cols)
	copy(names, m.colNames)

	m.data = d
	m.rows = rows
	m.cols = cols
	m.colNames = names
}

// Equal reports whether the two matrices have the same shape and cell
// contents. Column labels do not participate.
func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil {
		return false
	}
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	if m.data == nil || other.data == nil {
		return m.data == nil && other.data == nil
	}
	return mat.Equal(m.data, other.data)
}

func (m *Matrix) Clone() *Matrix {
	out := NewMatrix(m.rows, m.cols)
	if m.data != nil {
		out.data.Copy(m.data)
	}
	copy(out.colNames, m.colNames)
	return out
}

// CopyColNamesFrom resizes m to src's column count and copies src's column
// labels onto it. Row contents within the overlap are preserved.
func (m *Matrix) CopyColNamesFrom(src *Matrix) {
	m.Resize(m.rows, src.cols)
	copy(m.colNames, src.colNames)
}

// copyRow copies row srcRow of src into row destRow of dest, growing dest as
// needed.
func copyRow(src *Matrix, srcRow int, dest *Matrix, destRow int) {
	if dest.cols < src.cols {
		dest.Resize(dest.rows, src.cols)
	}
	if dest.rows <= destRow {
		dest.Resize(destRow+1, dest.cols)
	}
	for j := 0; j < dest.cols; j++ {
		dest.Set(destRow, j, src.At(srcRow, j))
	}
}
