package motion

import (
	"fmt"

	"github.com/notargets/dynmesh/fields"
	"github.com/notargets/dynmesh/mesh"
	"github.com/notargets/dynmesh/types"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mapper applies prescribed boundary displacement to the motion field of
// whichever motion solver kind the field was created for.
type Mapper struct {
	mesh          *mesh.Mesh
	field         *fields.MotionField
	interpolators []*PointInterpolator // Face decomposition only, one per patch
	logger        *zap.Logger
}

type MapperOption func(*Mapper)

func WithLogger(logger *zap.Logger) MapperOption {
	return func(mp *Mapper) {
		mp.logger = logger
	}
}

func NewMapper(m *mesh.Mesh, field *fields.MotionField, opts ...MapperOption) (mp *Mapper, err error) {
	mp = &Mapper{
		mesh:   m,
		field:  field,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(mp)
	}
	switch {
	case field.Kind.IsFEM():
		if len(field.BoundaryValue) != len(m.Patches) {
			err = fmt.Errorf("%w: motion field has %d patches, mesh has %d",
				types.ErrInvalidArgument, len(field.BoundaryValue), len(m.Patches))
			return nil, err
		}
		if field.Kind == types.CellDecompositionFEM {
			break
		}
		mp.interpolators = make([]*PointInterpolator, len(m.Patches))
		for i, p := range m.Patches {
			if mp.interpolators[i], err = NewPointInterpolator(m, p); err != nil {
				return nil, err
			}
		}
	case field.Kind == types.SpringOrSmootherMesh:
		if len(field.RefPoints) != m.NumPoints() {
			err = fmt.Errorf("%w: reference points has %d entries, mesh has %d points",
				types.ErrInvalidArgument, len(field.RefPoints), m.NumPoints())
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: motion field kind %s", types.ErrUnknownMotionSolver, field.Kind)
	}
	return
}

func (mp *Mapper) Kind() types.MotionSolverKind { return mp.field.Kind }

// ApplyPatch prescribes the displacement of one patch's points during the
// current time step. FEM kinds overwrite the patch boundary velocity, the
// spring and smoother kinds accumulate into the reference points.
func (mp *Mapper) ApplyPatch(patch int, disp []r3.Vec) (err error) {
	if patch < 0 || patch >= len(mp.mesh.Patches) {
		return fmt.Errorf("%w: patch %d out of range [0,%d)",
			types.ErrInvalidArgument, patch, len(mp.mesh.Patches))
	}
	p := mp.mesh.Patches[patch]
	if len(disp) != p.NumPoints() {
		return fmt.Errorf("%w: %d displacements for patch %q with %d points",
			types.ErrInvalidArgument, len(disp), p.Name, p.NumPoints())
	}
	if !mp.Kind().IsFEM() {
		for i, pt := range p.MeshPoints {
			mp.field.RefPoints[pt] = r3.Add(mp.field.RefPoints[pt], disp[i])
		}
		mp.logger.Debug("accumulated patch displacement into reference points",
			zap.String("patch", p.Name), zap.Int("points", len(disp)))
		return
	}
	var bv []r3.Vec
	if bv, err = mp.boundaryVelocity(patch, disp); err != nil {
		return
	}
	mp.assign(patch, bv)
	return
}

// ApplyMesh takes absolute new positions for every mesh point. FEM kinds
// derive each patch's displacement from the current points, the spring and
// smoother kinds replace the reference points with the new positions.
func (mp *Mapper) ApplyMesh(newPoints []r3.Vec) (err error) {
	if len(newPoints) != mp.mesh.NumPoints() {
		return fmt.Errorf("%w: %d positions for a mesh with %d points",
			types.ErrInvalidArgument, len(newPoints), mp.mesh.NumPoints())
	}
	if !mp.Kind().IsFEM() {
		copy(mp.field.RefPoints, newPoints)
		mp.logger.Debug("replaced reference points", zap.Int("points", len(newPoints)))
		return
	}
	var (
		oldPoints = mp.mesh.Points
		values    = make([][]r3.Vec, len(mp.mesh.Patches))
	)
	for patch, p := range mp.mesh.Patches {
		disp := make([]r3.Vec, p.NumPoints())
		for i, pt := range p.MeshPoints {
			disp[i] = r3.Sub(newPoints[pt], oldPoints[pt])
		}
		if values[patch], err = mp.boundaryVelocity(patch, disp); err != nil {
			return
		}
	}
	for patch, bv := range values {
		mp.assign(patch, bv)
	}
	return
}

// boundaryVelocity converts a patch displacement to the velocity the FEM
// solvers take as a fixed value condition
func (mp *Mapper) boundaryVelocity(patch int, disp []r3.Vec) (bv []r3.Vec, err error) {
	deltaT := mp.mesh.Time.DeltaT
	if deltaT <= 0 {
		err = fmt.Errorf("%w: time step %g must be positive", types.ErrInvalidArgument, deltaT)
		return
	}
	bv = make([]r3.Vec, len(disp))
	for i, d := range disp {
		bv[i] = r3.Scale(1/deltaT, d)
	}
	if mp.field.Kind == types.FaceDecompositionFEM {
		bv, err = mp.interpolators[patch].Interpolate(bv)
	}
	return
}

func (mp *Mapper) assign(patch int, bv []r3.Vec) {
	mp.field.BoundaryValue[patch] = bv
	mp.logger.Debug("assigned patch boundary velocity",
		zap.String("patch", mp.mesh.Patches[patch].Name),
		zap.Stringer("kind", mp.field.Kind),
		zap.Int("values", len(bv)))
}
