package motion

import (
	"fmt"

	"github.com/notargets/dynmesh/mesh"
	"github.com/notargets/dynmesh/types"
	"github.com/notargets/dynmesh/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

// PointInterpolator maps values at the vertices of a face decomposition patch
// onto its vertices plus face centres. Vertices map onto themselves, each face
// centre takes the inverse distance weighted average of its face's vertices.
type PointInterpolator struct {
	patch   *mesh.Patch
	nPoints int
	W       utils.CSR // (nPoints + nFaces) x nPoints
}

func NewPointInterpolator(m *mesh.Mesh, p *mesh.Patch) (pi *PointInterpolator, err error) {
	if !p.HasFacePoints() {
		err = fmt.Errorf("%w: patch %q has %s layout, point interpolation needs face points",
			types.ErrUnsupportedCapability, p.Name, p.Layout)
		return
	}
	var (
		nPoints = p.NumPoints()
		W       = utils.NewDOK(p.NumExtendedPoints(), nPoints)
	)
	for i := 0; i < nPoints; i++ {
		W.Set(i, i, 1)
	}
	for lf, verts := range p.LocalFaces {
		var (
			row     = nPoints + lf
			centre  = p.FacePoints.Centres[lf]
			weights = make([]float64, len(verts))
			sum     float64
		)
		for i, lp := range verts {
			d := r3.Norm(r3.Sub(m.Points[p.MeshPoints[lp]], centre))
			if d == 0 {
				sum = 0
				break
			}
			weights[i] = 1 / d
			sum += weights[i]
		}
		if sum == 0 { // Degenerate face, fall back to the vertex average
			for i := range weights {
				weights[i] = 1
			}
			sum = float64(len(verts))
		}
		for i, lp := range verts {
			W.AddAt(row, lp, weights[i]/sum)
		}
	}
	W.SetReadOnly("W_" + p.Name)
	pi = &PointInterpolator{
		patch:   p,
		nPoints: nPoints,
		W:       W.ToCSR(),
	}
	return
}

func (pi *PointInterpolator) Patch() *mesh.Patch { return pi.patch }

// Interpolate is linear in v and returns v unchanged in its first nPoints entries
func (pi *PointInterpolator) Interpolate(v []r3.Vec) (R []r3.Vec, err error) {
	if len(v) != pi.nPoints {
		err = fmt.Errorf("%w: %d values for patch %q with %d points",
			types.ErrInvalidArgument, len(v), pi.patch.Name, pi.nPoints)
		return
	}
	var (
		nr, _ = pi.W.Dims()
		comp  = make([]float64, pi.nPoints)
		out   [3][]float64
	)
	for dim := 0; dim < 3; dim++ {
		for i, val := range v {
			comp[i] = component(val, dim)
		}
		out[dim] = make([]float64, nr)
		pi.W.MulVecTo(out[dim], comp)
	}
	R = make([]r3.Vec, nr)
	for i := range R {
		R[i] = r3.Vec{X: out[0][i], Y: out[1][i], Z: out[2][i]}
	}
	return
}

func component(v r3.Vec, dim int) float64 {
	switch dim {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}
