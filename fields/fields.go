package fields

import (
	"fmt"

	"github.com/notargets/dynmesh/mesh"
	"github.com/notargets/dynmesh/types"
	"gonum.org/v1/gonum/spatial/r3"
)

// MotionField holds the degrees of freedom of the active motion solver. FEM
// kinds use BoundaryValue, one slice per patch holding a velocity for each
// patch point (face decomposition appends one value per patch face). The
// spring and smoother kinds use RefPoints, indexed by global mesh point.
type MotionField struct {
	Kind          types.MotionSolverKind
	BoundaryValue [][]r3.Vec
	RefPoints     []r3.Vec
}

// NewMotionField sizes the storage for the kind from the mesh, boundary values
// start at zero and reference points at the current point positions.
func NewMotionField(m *mesh.Mesh, kind types.MotionSolverKind) (mf *MotionField, err error) {
	mf = &MotionField{Kind: kind}
	switch kind {
	case types.CellDecompositionFEM:
		mf.BoundaryValue = make([][]r3.Vec, len(m.Patches))
		for i, p := range m.Patches {
			mf.BoundaryValue[i] = make([]r3.Vec, p.NumPoints())
		}
	case types.FaceDecompositionFEM:
		mf.BoundaryValue = make([][]r3.Vec, len(m.Patches))
		for i, p := range m.Patches {
			if !p.HasFacePoints() {
				err = fmt.Errorf("%w: patch %q has no face points for %s",
					types.ErrUnsupportedCapability, p.Name, kind)
				return nil, err
			}
			mf.BoundaryValue[i] = make([]r3.Vec, p.NumExtendedPoints())
		}
	case types.SpringOrSmootherMesh:
		mf.RefPoints = append([]r3.Vec(nil), m.Points...)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownMotionSolver, kind)
	}
	return
}

// Copy is a deep copy, used to compare states
func (mf *MotionField) Copy() (R *MotionField) {
	R = &MotionField{Kind: mf.Kind}
	if mf.BoundaryValue != nil {
		R.BoundaryValue = make([][]r3.Vec, len(mf.BoundaryValue))
		for i, bv := range mf.BoundaryValue {
			R.BoundaryValue[i] = append([]r3.Vec(nil), bv...)
		}
	}
	if mf.RefPoints != nil {
		R.RefPoints = append([]r3.Vec(nil), mf.RefPoints...)
	}
	return
}
