package mesh

import (
	"fmt"
	"math"

	"github.com/notargets/dynmesh/types"
	"gonum.org/v1/gonum/spatial/r3"
)

// Box patch indices, in patch order
const (
	XMin = iota
	XMax
	YMin
	YMax
	ZMin
	ZMax
)

var BoxPatchNames = [6]string{"xMin", "xMax", "yMin", "yMax", "zMin", "zMax"}

// NewBoxMesh builds a block of nx*ny*nz hexahedra spanning [0,L]. All six
// patches are walls unless overridden in bcs, which is keyed by patch name.
func NewBoxMesh(nx, ny, nz int, L r3.Vec, bcs map[string]types.BCFLAG) (m *Mesh, err error) {
	if nx < 1 || ny < 1 || nz < 1 {
		err = fmt.Errorf("%w: box needs at least one cell per direction, have %dx%dx%d",
			types.ErrInvalidArgument, nx, ny, nz)
		return
	}
	var (
		points   = make([]r3.Vec, 0, (nx+1)*(ny+1)*(nz+1))
		cells    = make([]Cell, 0, nx*ny*nz)
		pointID  = func(i, j, k int) int { return i + (nx+1)*(j+(ny+1)*k) }
		patches  = make([]PatchSpec, len(BoxPatchNames))
		dx       = L.X / float64(nx)
		dy       = L.Y / float64(ny)
		dz       = L.Z / float64(nz)
		tol      = 1.e-9 * math.Max(L.X, math.Max(L.Y, L.Z))
		isOnFace = func(v, bound float64) bool { return math.Abs(v-bound) < tol }
	)
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				points = append(points, r3.Vec{X: float64(i) * dx, Y: float64(j) * dy, Z: float64(k) * dz})
			}
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				cells = append(cells, Cell{
					Type: Hex,
					Vertices: []int{
						pointID(i, j, k), pointID(i+1, j, k), pointID(i+1, j+1, k), pointID(i, j+1, k),
						pointID(i, j, k+1), pointID(i+1, j, k+1), pointID(i+1, j+1, k+1), pointID(i, j+1, k+1),
					},
				})
			}
		}
	}
	for i, name := range BoxPatchNames {
		patches[i] = PatchSpec{Name: name, Type: types.BC_Wall}
		if bf, ok := bcs[name]; ok {
			patches[i].Type = bf
		}
	}
	classify := func(c r3.Vec) int {
		switch {
		case isOnFace(c.X, 0):
			return XMin
		case isOnFace(c.X, L.X):
			return XMax
		case isOnFace(c.Y, 0):
			return YMin
		case isOnFace(c.Y, L.Y):
			return YMax
		case isOnFace(c.Z, 0):
			return ZMin
		case isOnFace(c.Z, L.Z):
			return ZMax
		}
		return -1
	}
	return NewPolyMesh(points, cells, patches, classify)
}
