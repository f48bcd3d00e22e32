package fields

import (
	"fmt"
	"math"

	"github.com/notargets/dynmesh/mesh"
	"github.com/notargets/dynmesh/types"
	"gonum.org/v1/gonum/spatial/r3"
)

// FluxField is the face flux with the cell velocity it is transported by.
// Phi is positive when leaving the owner cell. Source is the expected net
// outflow of each cell, nil means zero.
type FluxField struct {
	Phi    []float64
	U      []r3.Vec
	Source []float64
}

func NewFluxField(m *mesh.Mesh) *FluxField {
	return &FluxField{
		Phi: make([]float64, m.NumFaces()),
		U:   make([]r3.Vec, m.NumCells),
	}
}

// NewFluxFieldFromVelocity sets each cell velocity and the face flux from the
// linear interpolate of the cell velocities dotted with the face area vector.
func NewFluxFieldFromVelocity(m *mesh.Mesh, U func(centre r3.Vec) r3.Vec) (ff *FluxField) {
	ff = NewFluxField(m)
	for c := range ff.U {
		ff.U[c] = U(m.CellCentres[c])
	}
	for f := range ff.Phi {
		ff.Phi[f] = ff.InterpolatedFlux(m, f)
	}
	return
}

// InterpolatedFlux is the distance weighted face velocity dotted with the face area
func (ff *FluxField) InterpolatedFlux(m *mesh.Mesh, face int) float64 {
	own := m.Owner[face]
	if !m.IsInternalFace(face) {
		return r3.Dot(ff.U[own], m.FaceAreas[face])
	}
	var (
		nei = m.Neighbour[face]
		dO  = r3.Norm(r3.Sub(m.FaceCentres[face], m.CellCentres[own]))
		dN  = r3.Norm(r3.Sub(m.CellCentres[nei], m.FaceCentres[face]))
		w   = 0.5
	)
	if dO+dN > 0 {
		w = dN / (dO + dN)
	}
	Uf := r3.Add(r3.Scale(w, ff.U[own]), r3.Scale(1-w, ff.U[nei]))
	return r3.Dot(Uf, m.FaceAreas[face])
}

// Imbalance returns the net outflow minus the source for every cell
func (ff *FluxField) Imbalance(m *mesh.Mesh) (div []float64) {
	div = make([]float64, m.NumCells)
	for f, own := range m.Owner {
		div[own] += ff.Phi[f]
	}
	for f, nei := range m.Neighbour {
		div[nei] -= ff.Phi[f]
	}
	if ff.Source != nil {
		for c := range div {
			div[c] -= ff.Source[c]
		}
	}
	return
}

// MaxImbalance is the largest absolute cell imbalance
func (ff *FluxField) MaxImbalance(m *mesh.Mesh) (maxDiv float64) {
	for _, d := range ff.Imbalance(m) {
		maxDiv = math.Max(maxDiv, math.Abs(d))
	}
	return
}

// Map carries face values across a topology change, faces created by the
// change are zeroed and returned so they can be interpolated.
func (ff *FluxField) Map(fm mesh.FaceMap) (added []int, err error) {
	phi := make([]float64, len(fm))
	for newFace, oldFace := range fm {
		if oldFace >= len(ff.Phi) {
			err = fmt.Errorf("%w: face map references face %d of %d",
				types.ErrInvalidArgument, oldFace, len(ff.Phi))
			return nil, err
		}
		if oldFace < 0 {
			added = append(added, newFace)
			continue
		}
		phi[newFace] = ff.Phi[oldFace]
	}
	ff.Phi = phi
	return
}

func (ff *FluxField) Copy() (R *FluxField) {
	R = &FluxField{
		Phi: append([]float64(nil), ff.Phi...),
		U:   append([]r3.Vec(nil), ff.U...),
	}
	if ff.Source != nil {
		R.Source = append([]float64(nil), ff.Source...)
	}
	return
}
