// Package kinship manages pairwise genetic-relatedness matrices and their
// eigendecompositions for mixed-model association testing. A Holder defers
// loading until requested and, once loaded, is immutable.
package kinship

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
)

// Kind distinguishes the autosomal kinship matrix from the X-chromosome one.
type Kind int

const (
	Auto Kind = iota
	X
)

func (k Kind) String() string {
	if k == X {
		return "X"
	}
	return "auto"
}

// Registration result codes.
const (
	SetOK       = 0
	SetBadName  = -1
	SetNoSample = -2
	SetBadKind  = -3
)

var ErrNoSource = errors.New("kinship: no kinship file registered")

// Holder owns one kinship matrix K with its eigenvectors U and eigenvalues S.
// Register a source with SetFile or SetEigenFile, fix the sample ordering with
// SetSample, then call Load. A load failure leaves the holder unloaded;
// callers may proceed without kinship correction.
type Holder struct {
	kind          Kind
	samples       []string
	fileName      string
	eigenFileName string

	loaded bool
	k      *mat.Dense
	u      *mat.Dense
	s      []float64
}

func NewHolder(kind Kind) *Holder {
	return &Holder{kind: kind}
}

// SetSample fixes the row/column sample ordering that a subsequently loaded
// matrix must match.
func (h *Holder) SetSample(ids []string) int {
	if len(ids) == 0 {
		return SetNoSample
	}
	h.samples = make([]string, len(ids))
	copy(h.samples, ids)
	return SetOK
}

// SetFile registers a raw kinship matrix file as the pending load source.
func (h *Holder) SetFile(name string) int {
	if name == "" {
		return SetBadName
	}
	h.fileName = name
	return SetOK
}

// SetEigenFile registers a precomputed eigendecomposition file as the pending
// load source. It takes precedence over a raw matrix file.
func (h *Holder) SetEigenFile(name string) int {
	if name == "" {
		return SetBadName
	}
	h.eigenFileName = name
	return SetOK
}

func (h *Holder) Loaded() bool { return h.loaded }

// K returns the kinship matrix, or nil when unloaded or when only a
// precomputed eigendecomposition was supplied.
func (h *Holder) K() *mat.Dense {
	if !h.loaded {
		return nil
	}
	return h.k
}

// U returns the eigenvector matrix, or nil when unloaded.
func (h *Holder) U() *mat.Dense {
	if !h.loaded {
		return nil
	}
	return h.u
}

// S returns the eigenvalues, or nil when unloaded.
func (h *Holder) S() []float64 {
	if !h.loaded {
		return nil
	}
	return h.s
}

// Load performs the deferred load. It is a no-op once the holder is loaded.
func (h *Holder) Load() error {
	if h.loaded {
		return nil
	}
	if len(h.samples) == 0 {
		return fmt.Errorf("kinship %s: sample ordering not set", h.kind)
	}

	switch {
	case h.eigenFileName != "":
		if err := h.loadEigen(); err != nil {
			return pfx.Err(err)
		}
	case h.fileName != "":
		if err := h.loadRaw(); err != nil {
			return pfx.Err(err)
		}
	default:
		return ErrNoSource
	}

	h.loaded = true
	return nil
}

// loadRaw reads a whitespace-delimited kinship file with a "FID IID id..."
// header, reorders it to the fixed sample list, and eigendecomposes it.
func (h *Holder) loadRaw() error {
	f, err := os.Open(h.fileName)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)

	if !scanner.Scan() {
		return fmt.Errorf("kinship %s: %s is empty", h.kind, h.fileName)
	}
	header := strings.Fields(scanner.Text())
	if len(header) < 3 || header[0] != "FID" || header[1] != "IID" {
		return fmt.Errorf("kinship %s: %s has no FID IID header", h.kind, h.fileName)
	}
	fileIDs := header[2:]

	// Column position of every sample we need, by IID.
	colOf := make(map[string]int, len(fileIDs))
	for i, id := range fileIDs {
		colOf[id] = i
	}
	for _, id := range h.samples {
		if _, ok := colOf[id]; !ok {
			return fmt.Errorf("kinship %s: sample %s missing from %s", h.kind, id, h.fileName)
		}
	}

	rows := make(map[string][]float64, len(fileIDs))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != len(fileIDs)+2 {
			return fmt.Errorf("kinship %s: row for %q has %d fields, expected %d",
				h.kind, fields[1], len(fields), len(fileIDs)+2)
		}
		vals := make([]float64, len(fileIDs))
		for i, s := range fields[2:] {
			if vals[i], err = strconv.ParseFloat(s, 64); err != nil {
				return fmt.Errorf("kinship %s: bad value %q: %v", h.kind, s, err)
			}
		}
		rows[fields[1]] = vals
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	n := len(h.samples)
	k := mat.NewDense(n, n, nil)
	for i, idRow := range h.samples {
		vals, ok := rows[idRow]
		if !ok {
			return fmt.Errorf("kinship %s: no row for sample %s in %s", h.kind, idRow, h.fileName)
		}
		for j, idCol := range h.samples {
			k.Set(i, j, vals[colOf[idCol]])
		}
	}

	u, s, err := decompose(k)
	if err != nil {
		return fmt.Errorf("kinship %s: %v", h.kind, err)
	}

	h.k, h.u, h.s = k, u, s
	return nil
}

// decompose eigendecomposes k after symmetrizing it, returning eigenvectors
// and eigenvalues in ascending eigenvalue order.
func decompose(k *mat.Dense) (*mat.Dense, []float64, error) {
	n, _ := k.Dims()
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data[i*n+j] = 0.5 * (k.At(i, j) + k.At(j, i))
		}
	}

	var es mat.EigenSym
	if !es.Factorize(mat.NewSymDense(n, data), true) {
		return nil, nil, errors.New("eigendecomposition failed")
	}

	u := mat.NewDense(n, n, nil)
	es.VectorsTo(u)
	return u, es.Values(nil), nil
}

// loadEigen reads a precomputed decomposition: the gonum binary marshaling of
// U (n x n) followed by S as an n x 1 column.
func (h *Holder) loadEigen() error {
	f, err := os.Open(h.eigenFileName)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var u mat.Dense
	if _, err := u.UnmarshalBinaryFrom(r); err != nil {
		return fmt.Errorf("kinship %s: reading U: %v", h.kind, err)
	}
	var sv mat.Dense
	if _, err := sv.UnmarshalBinaryFrom(r); err != nil {
		return fmt.Errorf("kinship %s: reading S: %v", h.kind, err)
	}

	n := len(h.samples)
	if r, c := u.Dims(); r != n || c != n {
		return fmt.Errorf("kinship %s: U is %dx%d, expected %dx%d", h.kind, r, c, n, n)
	}
	if r, c := sv.Dims(); r != n || c != 1 {
		return fmt.Errorf("kinship %s: S is %dx%d, expected %dx1", h.kind, r, c, n)
	}

	s := make([]float64, n)
	for i := range s {
		s[i] = sv.At(i, 0)
	}

	h.u, h.s = &u, s
	return nil
}

// WriteEigenFile persists a decomposition in the format loadEigen reads.
func WriteEigenFile(filename string, u *mat.Dense, s []float64) error {
	f, err := os.Create(filename)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := u.MarshalBinaryTo(w); err != nil {
		return pfx.Err(err)
	}
	sv := mat.NewDense(len(s), 1, append([]float64(nil), s...))
	if _, err := sv.MarshalBinaryTo(w); err != nil {
		return pfx.Err(err)
	}
	if err := w.Flush(); err != nil {
		return pfx.Err(err)
	}
	return nil
}
