package assoc

import (
	"gonum.org/v1/gonum/mat"

	"github.com/statgo/assocprep/kinship"
)

// SetKinshipSample fixes the sample ordering that both kinship matrices must
// match when loaded. The ordering should be the row labels in effect for the
// consolidated matrices.
func (c *Consolidator) SetKinshipSample(samples []string) int {
	for _, h := range c.kin {
		if ret := h.SetSample(samples); ret != kinship.SetOK {
			return ret
		}
	}
	return kinship.SetOK
}

// SetKinshipFile registers a raw kinship matrix file for the given kind.
func (c *Consolidator) SetKinshipFile(kind kinship.Kind, fileName string) int {
	if kind != kinship.Auto && kind != kinship.X {
		return kinship.SetBadKind
	}
	return c.kin[kind].SetFile(fileName)
}

// SetKinshipEigenFile registers a precomputed eigendecomposition file for the
// given kind.
func (c *Consolidator) SetKinshipEigenFile(kind kinship.Kind, fileName string) int {
	if kind != kinship.Auto && kind != kinship.X {
		return kinship.SetBadKind
	}
	return c.kin[kind].SetEigenFile(fileName)
}

// LoadKinship performs the deferred load for the given kind. Failure is
// non-fatal: the error is logged and returned, the holder stays unloaded, and
// the caller may proceed without kinship correction.
func (c *Consolidator) LoadKinship(kind kinship.Kind) error {
	if kind != kinship.Auto && kind != kinship.X {
		c.logger.Error("invalid kinship kind:", int(kind))
		return kinship.ErrNoSource
	}
	if err := c.kin[kind].Load(); err != nil {
		c.logger.Error("loading", kind.String(), "kinship:", err)
		return err
	}
	return nil
}

func (c *Consolidator) GetKinshipForAuto() *mat.Dense  { return c.kin[kinship.Auto].K() }
func (c *Consolidator) GetKinshipUForAuto() *mat.Dense { return c.kin[kinship.Auto].U() }
func (c *Consolidator) GetKinshipSForAuto() []float64  { return c.kin[kinship.Auto].S() }
func (c *Consolidator) HasKinshipForAuto() bool        { return c.kin[kinship.Auto].Loaded() }

func (c *Consolidator) GetKinshipForX() *mat.Dense  { return c.kin[kinship.X].K() }
func (c *Consolidator) GetKinshipUForX() *mat.Dense { return c.kin[kinship.X].U() }
func (c *Consolidator) GetKinshipSForX() []float64  { return c.kin[kinship.X].S() }
func (c *Consolidator) HasKinshipForX() bool        { return c.kin[kinship.X].Loaded() }

func (c *Consolidator) HasKinship() bool {
	return c.HasKinshipForAuto() || c.HasKinshipForX()
}
