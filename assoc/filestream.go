package assoc

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// LoadLabeledMatrix reads a delimited text matrix whose first row is a header
// (sample-id column name followed by per-column labels) and whose first
// column holds sample identifiers. Returns the matrix and the sample ids in
// row order.
func LoadLabeledMatrix(filename string, delim rune) (*Matrix, []string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, pfx.Err(err)
	}
	defer f.Close()

	c := csv.NewReader(f)
	c.Comma = delim
	text, err := c.ReadAll()
	if err != nil {
		return nil, nil, pfx.Err(err)
	}
	if len(text) < 1 || len(text[0]) < 2 {
		return nil, nil, pfx.Err(fmt.Errorf("%s: expected a header row with at least one data column", filename))
	}

	cols := len(text[0]) - 1
	rows := len(text) - 1

	m := NewMatrix(rows, cols)
	for j := 0; j < cols; j++ {
		m.SetColName(j, text[0][j+1])
	}

	ids := make([]string, rows)
	for i := 0; i < rows; i++ {
		record := text[i+1]
		if len(record) != cols+1 {
			return nil, nil, pfx.Err(fmt.Errorf("%s: row %d has %d fields, expected %d",
				filename, i+2, len(record), cols+1))
		}
		ids[i] = record[0]
		for j := 0; j < cols; j++ {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, nil, pfx.Err(fmt.Errorf("%s: row %d col %d: %v", filename, i+2, j+2, err))
			}
			m.Set(i, j, v)
		}
	}

	return m, ids, nil
}

// SaveLabeledMatrix writes m in the format LoadLabeledMatrix reads. rowLabels
// may be nil, in which case row indices are written.
func SaveLabeledMatrix(filename string, m *Matrix, rowLabels []string, delim rune) error {
	f, err := os.Create(filename)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	sep := string(delim)

	header := make([]string, m.Cols()+1)
	header[0] = "IID"
	for j := 0; j < m.Cols(); j++ {
		header[j+1] = m.ColName(j)
	}
	if _, err := f.WriteString(strings.Join(header, sep) + "\n"); err != nil {
		return pfx.Err(err)
	}

	line := make([]string, m.Cols()+1)
	for i := 0; i < m.Rows(); i++ {
		if rowLabels != nil {
			line[0] = rowLabels[i]
		} else {
			line[0] = strconv.Itoa(i)
		}
		for j := 0; j < m.Cols(); j++ {
			line[j+1] = fmt.Sprintf("%.6g", m.At(i, j))
		}
		if _, err := f.WriteString(strings.Join(line, sep) + "\n"); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}
