package mesh

import (
	"fmt"

	"github.com/notargets/dynmesh/types"
	"gonum.org/v1/gonum/spatial/r3"
)

// PatchLayout tags the degrees of freedom a boundary patch carries.
type PatchLayout uint8

const (
	VertexLayout PatchLayout = iota
	FaceDecompositionLayout
)

func (pl PatchLayout) String() string {
	if pl == FaceDecompositionLayout {
		return "FaceDecomposition"
	}
	return "Vertex"
}

// FacePointData holds the auxiliary points of a face decomposition patch, one per patch face
type FacePointData struct {
	Centres []r3.Vec
}

// Patch is a named range of boundary faces
type Patch struct {
	Index int
	Name  string
	Type  types.BCFLAG

	Start, Size int // Face range in the mesh face list

	MeshPoints []int   // Patch local point -> global point, in order of first appearance
	LocalFaces [][]int // Patch faces addressed with patch local point ids

	Layout     PatchLayout
	FacePoints *FacePointData // Non nil only for FaceDecompositionLayout
}

func (p *Patch) NumPoints() int { return len(p.MeshPoints) }

// NumExtendedPoints counts the vertex plus face centre points of a face decomposition patch
func (p *Patch) NumExtendedPoints() int {
	if p.Layout == FaceDecompositionLayout {
		return len(p.MeshPoints) + p.Size
	}
	return len(p.MeshPoints)
}

func (p *Patch) HasFacePoints() bool {
	return p.Layout == FaceDecompositionLayout && p.FacePoints != nil
}

// Clock is the simulation time seen by the mesh
type Clock struct {
	Value  float64
	DeltaT float64
	Index  int
}

func (c *Clock) Advance() {
	c.Value += c.DeltaT
	c.Index++
}

// Mesh is a face addressed polyhedral mesh. Internal faces come first in upper
// triangular order (sorted by owner, then neighbour), followed by the boundary
// faces grouped by patch. Face points are ordered so the area vector points out
// of the owner cell.
type Mesh struct {
	Points    []r3.Vec
	Faces     [][]int
	Owner     []int
	Neighbour []int // Internal faces only
	Patches   []*Patch
	NumCells  int

	Time Clock

	// Geometry, rebuilt by UpdateGeometry
	FaceCentres []r3.Vec
	FaceAreas   []r3.Vec // Area weighted face normals
	CellCentres []r3.Vec
}

func (m *Mesh) NumPoints() int        { return len(m.Points) }
func (m *Mesh) NumFaces() int         { return len(m.Faces) }
func (m *Mesh) NumInternalFaces() int { return len(m.Neighbour) }

func (m *Mesh) IsInternalFace(face int) bool {
	return face < len(m.Neighbour)
}

// WhichPatch returns the patch index of a boundary face, -1 for internal faces
func (m *Mesh) WhichPatch(face int) int {
	for i, p := range m.Patches {
		if face >= p.Start && face < p.Start+p.Size {
			return i
		}
	}
	return -1
}

func (m *Mesh) FindPatch(name string) (*Patch, error) {
	for _, p := range m.Patches {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no patch named %q", types.ErrInvalidArgument, name)
}

// CellFaces returns the faces bounding each cell
func (m *Mesh) CellFaces() (cf [][]int) {
	cf = make([][]int, m.NumCells)
	for f, own := range m.Owner {
		cf[own] = append(cf[own], f)
	}
	for f, nei := range m.Neighbour {
		cf[nei] = append(cf[nei], f)
	}
	return
}

// FaceSign is +1 when cell owns face, -1 when cell is the neighbour
func (m *Mesh) FaceSign(cell, face int) float64 {
	if m.Owner[face] == cell {
		return 1
	}
	return -1
}

// EnableFaceDecomposition switches every patch to the face decomposition
// layout, attaching the current face centres as auxiliary points.
func (m *Mesh) EnableFaceDecomposition() {
	for _, p := range m.Patches {
		p.Layout = FaceDecompositionLayout
		p.FacePoints = &FacePointData{
			Centres: append([]r3.Vec(nil), m.FaceCentres[p.Start:p.Start+p.Size]...),
		}
	}
}

// UpdateGeometry recomputes face centres, area vectors and cell centres from Points
func (m *Mesh) UpdateGeometry() {
	var (
		nf = len(m.Faces)
	)
	m.FaceCentres = make([]r3.Vec, nf)
	m.FaceAreas = make([]r3.Vec, nf)
	for f, verts := range m.Faces {
		m.FaceCentres[f], m.FaceAreas[f] = faceGeometry(m.Points, verts)
	}
	var (
		cellPoints = make([]map[int]struct{}, m.NumCells)
		addFace    = func(cell, face int) {
			if cellPoints[cell] == nil {
				cellPoints[cell] = make(map[int]struct{})
			}
			for _, pt := range m.Faces[face] {
				cellPoints[cell][pt] = struct{}{}
			}
		}
	)
	for f, own := range m.Owner {
		addFace(own, f)
	}
	for f, nei := range m.Neighbour {
		addFace(nei, f)
	}
	m.CellCentres = make([]r3.Vec, m.NumCells)
	for c, pts := range cellPoints {
		var sum r3.Vec
		for pt := range pts {
			sum = r3.Add(sum, m.Points[pt])
		}
		if len(pts) != 0 {
			m.CellCentres[c] = r3.Scale(1/float64(len(pts)), sum)
		}
	}
	for _, p := range m.Patches {
		if p.Layout == FaceDecompositionLayout {
			p.FacePoints = &FacePointData{
				Centres: append([]r3.Vec(nil), m.FaceCentres[p.Start:p.Start+p.Size]...),
			}
		}
	}
}

// MovePoints replaces the point positions and refreshes the geometry
func (m *Mesh) MovePoints(newPoints []r3.Vec) error {
	if len(newPoints) != len(m.Points) {
		return fmt.Errorf("%w: %d points supplied for a mesh with %d points",
			types.ErrInvalidArgument, len(newPoints), len(m.Points))
	}
	m.Points = append(m.Points[:0:0], newPoints...)
	m.UpdateGeometry()
	return nil
}

// faceGeometry decomposes the polygon into triangles about its vertex average
func faceGeometry(points []r3.Vec, verts []int) (centre, area r3.Vec) {
	var (
		n  = len(verts)
		c0 r3.Vec
	)
	for _, v := range verts {
		c0 = r3.Add(c0, points[v])
	}
	c0 = r3.Scale(1/float64(n), c0)
	if n == 3 {
		a := r3.Scale(0.5, r3.Cross(r3.Sub(points[verts[1]], points[verts[0]]),
			r3.Sub(points[verts[2]], points[verts[0]])))
		return c0, a
	}
	var (
		sumA float64
		sumC r3.Vec
	)
	for i := 0; i < n; i++ {
		p1, p2 := points[verts[i]], points[verts[(i+1)%n]]
		triA := r3.Scale(0.5, r3.Cross(r3.Sub(p1, c0), r3.Sub(p2, c0)))
		mag := r3.Norm(triA)
		triC := r3.Scale(1./3., r3.Add(r3.Add(p1, p2), c0))
		area = r3.Add(area, triA)
		sumC = r3.Add(sumC, r3.Scale(mag, triC))
		sumA += mag
	}
	if sumA > 0 {
		centre = r3.Scale(1/sumA, sumC)
	} else {
		centre = c0
	}
	return
}
