package mesh

import (
	"fmt"

	"github.com/notargets/dynmesh/types"
)

// A FaceMap is the result of a topology change: FaceMap[newFace] is the face
// the new face was mapped from, or -1 for faces created by the change.
type FaceMap []int

// AddedFaces lists the new faces that have no source face
func (fm FaceMap) AddedFaces() (added []int) {
	for newFace, oldFace := range fm {
		if oldFace < 0 {
			added = append(added, newFace)
		}
	}
	return
}

// RenumberInternalFaces reorders the internal faces, new face i is old face
// order[i]. Boundary faces keep their numbering. The upper triangular ordering
// is not restored, callers relying on it should pass a sorted order.
func (m *Mesh) RenumberInternalFaces(order []int) (fm FaceMap, err error) {
	var (
		nInt = m.NumInternalFaces()
		seen = make([]bool, nInt)
	)
	if len(order) != nInt {
		err = fmt.Errorf("%w: renumbering has %d entries for %d internal faces",
			types.ErrInvalidArgument, len(order), nInt)
		return
	}
	for _, f := range order {
		if f < 0 || f >= nInt || seen[f] {
			err = fmt.Errorf("%w: renumbering is not a permutation, face %d",
				types.ErrInvalidArgument, f)
			return
		}
		seen[f] = true
	}
	var (
		faces     = make([][]int, nInt)
		owner     = make([]int, nInt)
		neighbour = make([]int, nInt)
	)
	fm = make(FaceMap, m.NumFaces())
	for newFace, oldFace := range order {
		faces[newFace] = m.Faces[oldFace]
		owner[newFace] = m.Owner[oldFace]
		neighbour[newFace] = m.Neighbour[oldFace]
		fm[newFace] = oldFace
	}
	for f := nInt; f < m.NumFaces(); f++ {
		fm[f] = f
	}
	copy(m.Faces, faces)
	copy(m.Owner, owner)
	copy(m.Neighbour, neighbour)
	m.UpdateGeometry()
	return
}

// SplitInternalFace replaces an internal polygon face with two faces sharing
// its owner and neighbour, cutting along the diagonal from its first vertex.
// Both halves are reported as added faces.
func (m *Mesh) SplitInternalFace(face int) (fm FaceMap, err error) {
	if face < 0 || face >= m.NumInternalFaces() {
		err = fmt.Errorf("%w: face %d is not an internal face", types.ErrInvalidArgument, face)
		return
	}
	var (
		verts = m.Faces[face]
		n     = len(verts)
		k     = n / 2
	)
	if n < 4 {
		err = fmt.Errorf("%w: face %d has %d points, need at least 4 to split",
			types.ErrInvalidArgument, face, n)
		return
	}
	var (
		half1 = append([]int(nil), verts[:k+1]...)
		half2 = append([]int{verts[0]}, verts[k:]...)
		nf    = m.NumFaces()
	)
	faces := make([][]int, 0, nf+1)
	faces = append(faces, m.Faces[:face]...)
	faces = append(faces, half1, half2)
	faces = append(faces, m.Faces[face+1:]...)

	owner := make([]int, 0, nf+1)
	owner = append(owner, m.Owner[:face+1]...)
	owner = append(owner, m.Owner[face])
	owner = append(owner, m.Owner[face+1:]...)

	neighbour := make([]int, 0, m.NumInternalFaces()+1)
	neighbour = append(neighbour, m.Neighbour[:face+1]...)
	neighbour = append(neighbour, m.Neighbour[face])
	neighbour = append(neighbour, m.Neighbour[face+1:]...)

	fm = make(FaceMap, nf+1)
	for newFace := range fm {
		switch {
		case newFace < face:
			fm[newFace] = newFace
		case newFace <= face+1:
			fm[newFace] = -1
		default:
			fm[newFace] = newFace - 1
		}
	}
	m.Faces, m.Owner, m.Neighbour = faces, owner, neighbour
	for _, p := range m.Patches {
		p.Start++
	}
	m.UpdateGeometry()
	return
}
