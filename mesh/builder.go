package mesh

import (
	"fmt"
	"sort"

	"github.com/notargets/dynmesh/types"
	"gonum.org/v1/gonum/spatial/r3"
)

// ElementType represents different element types
type ElementType int

const (
	Tet ElementType = iota
	Hex
	Prism
	Pyramid
)

func (e ElementType) String() string {
	return [...]string{"Tet", "Hex", "Prism", "Pyramid"}[e]
}

// Cell is an element given by its type and vertex list
type Cell struct {
	Type     ElementType
	Vertices []int
}

// PatchSpec names a boundary patch and its flux corrector treatment
type PatchSpec struct {
	Name string
	Type types.BCFLAG
}

// GetElementFaces returns the face vertices for each element type, oriented outward
func GetElementFaces(elemType ElementType, vertices []int) [][]int {
	switch elemType {
	case Tet:
		return [][]int{
			{vertices[0], vertices[2], vertices[1]}, // Face 0
			{vertices[0], vertices[1], vertices[3]}, // Face 1
			{vertices[1], vertices[2], vertices[3]}, // Face 2
			{vertices[0], vertices[3], vertices[2]}, // Face 3
		}
	case Hex:
		return [][]int{
			{vertices[0], vertices[3], vertices[2], vertices[1]}, // Face 0 (bottom)
			{vertices[4], vertices[5], vertices[6], vertices[7]}, // Face 1 (top)
			{vertices[0], vertices[1], vertices[5], vertices[4]}, // Face 2
			{vertices[1], vertices[2], vertices[6], vertices[5]}, // Face 3
			{vertices[2], vertices[3], vertices[7], vertices[6]}, // Face 4
			{vertices[3], vertices[0], vertices[4], vertices[7]}, // Face 5
		}
	case Prism:
		return [][]int{
			{vertices[0], vertices[2], vertices[1]},              // Face 0 (bottom tri)
			{vertices[3], vertices[4], vertices[5]},              // Face 1 (top tri)
			{vertices[0], vertices[1], vertices[4], vertices[3]}, // Face 2 (quad)
			{vertices[1], vertices[2], vertices[5], vertices[4]}, // Face 3 (quad)
			{vertices[2], vertices[0], vertices[3], vertices[5]}, // Face 4 (quad)
		}
	case Pyramid:
		return [][]int{
			{vertices[0], vertices[3], vertices[2], vertices[1]}, // Face 0 (base quad)
			{vertices[0], vertices[1], vertices[4]},              // Face 1 (tri)
			{vertices[1], vertices[2], vertices[4]},              // Face 2 (tri)
			{vertices[2], vertices[3], vertices[4]},              // Face 3 (tri)
			{vertices[3], vertices[0], vertices[4]},              // Face 4 (tri)
		}
	default:
		return [][]int{}
	}
}

type faceRecord struct {
	vertices  []int
	owner     int
	neighbour int
	patch     int
	order     int
}

// NewPolyMesh builds the face addressing for a set of cells. Every boundary
// face is assigned to a patch by classify, which receives the face centre and
// returns an index into patches.
func NewPolyMesh(points []r3.Vec, cells []Cell, patches []PatchSpec,
	classify func(centre r3.Vec) int) (m *Mesh, err error) {
	var (
		faceMap = make(map[string]int)
		records []*faceRecord
	)
	for elemID, cell := range cells {
		for _, pt := range cell.Vertices {
			if pt < 0 || pt >= len(points) {
				err = fmt.Errorf("%w: cell %d references point %d, mesh has %d points",
					types.ErrInvalidArgument, elemID, pt, len(points))
				return
			}
		}
		for _, faceVerts := range GetElementFaces(cell.Type, cell.Vertices) {
			// Create sorted vertex key for face
			sorted := make([]int, len(faceVerts))
			copy(sorted, faceVerts)
			sort.Ints(sorted)
			key := fmt.Sprintf("%v", sorted)

			if faceID, exists := faceMap[key]; exists {
				rec := records[faceID]
				if rec.neighbour >= 0 {
					err = fmt.Errorf("%w: face %v is shared by more than two cells",
						types.ErrInvalidArgument, faceVerts)
					return
				}
				rec.neighbour = elemID
			} else {
				faceMap[key] = len(records)
				records = append(records, &faceRecord{
					vertices:  faceVerts,
					owner:     elemID,
					neighbour: -1,
					order:     len(records),
				})
			}
		}
	}

	var internal, boundary []*faceRecord
	for _, rec := range records {
		if rec.neighbour >= 0 {
			internal = append(internal, rec)
			continue
		}
		centre, _ := faceGeometry(points, rec.vertices)
		rec.patch = classify(centre)
		if rec.patch < 0 || rec.patch >= len(patches) {
			err = fmt.Errorf("%w: boundary face %v at %v has no patch",
				types.ErrInvalidArgument, rec.vertices, centre)
			return
		}
		boundary = append(boundary, rec)
	}
	sort.SliceStable(internal, func(i, j int) bool {
		if internal[i].owner != internal[j].owner {
			return internal[i].owner < internal[j].owner
		}
		return internal[i].neighbour < internal[j].neighbour
	})
	sort.SliceStable(boundary, func(i, j int) bool {
		if boundary[i].patch != boundary[j].patch {
			return boundary[i].patch < boundary[j].patch
		}
		return boundary[i].order < boundary[j].order
	})

	m = &Mesh{
		Points:    append([]r3.Vec(nil), points...),
		NumCells:  len(cells),
		Neighbour: make([]int, len(internal)),
	}
	for i, rec := range internal {
		m.Faces = append(m.Faces, rec.vertices)
		m.Owner = append(m.Owner, rec.owner)
		m.Neighbour[i] = rec.neighbour
	}
	for i, spec := range patches {
		m.Patches = append(m.Patches, &Patch{
			Index: i,
			Name:  spec.Name,
			Type:  spec.Type,
		})
	}
	for _, rec := range boundary {
		p := m.Patches[rec.patch]
		if p.Size == 0 {
			p.Start = len(m.Faces)
		}
		p.Size++
		m.Faces = append(m.Faces, rec.vertices)
		m.Owner = append(m.Owner, rec.owner)
	}
	// Empty patches sit at the end of the preceding patch
	next := len(m.Faces)
	for i := len(m.Patches) - 1; i >= 0; i-- {
		if m.Patches[i].Size == 0 {
			m.Patches[i].Start = next
		} else {
			next = m.Patches[i].Start
		}
	}
	for _, p := range m.Patches {
		p.buildAddressing(m.Faces[p.Start : p.Start+p.Size])
	}
	m.UpdateGeometry()
	return
}

func (p *Patch) buildAddressing(faces [][]int) {
	var (
		local = make(map[int]int)
	)
	p.MeshPoints = p.MeshPoints[:0]
	p.LocalFaces = make([][]int, len(faces))
	for f, verts := range faces {
		p.LocalFaces[f] = make([]int, len(verts))
		for i, pt := range verts {
			lp, ok := local[pt]
			if !ok {
				lp = len(p.MeshPoints)
				local[pt] = lp
				p.MeshPoints = append(p.MeshPoints, pt)
			}
			p.LocalFaces[f][i] = lp
		}
	}
}
