package mesh

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notargets/dynmesh/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitBox(t *testing.T, n int) *Mesh {
	m, err := NewBoxMesh(n, n, n, r3.Vec{X: 1, Y: 1, Z: 1}, nil)
	require.NoError(t, err)
	return m
}

// Every cell must be closed: the outward area vectors sum to zero
func assertClosedCells(t *testing.T, m *Mesh) {
	for c, faces := range m.CellFaces() {
		var sum r3.Vec
		for _, f := range faces {
			sum = r3.Add(sum, r3.Scale(m.FaceSign(c, f), m.FaceAreas[f]))
		}
		assert.InDeltaf(t, 0, r3.Norm(sum), 1.e-12, "cell %d is not closed", c)
	}
}

func TestBoxMesh(t *testing.T) {
	m := unitBox(t, 2)
	assert.Equal(t, 27, m.NumPoints())
	assert.Equal(t, 8, m.NumCells)
	assert.Equal(t, 12, m.NumInternalFaces())
	assert.Equal(t, 36, m.NumFaces())
	require.Len(t, m.Patches, 6)

	{ // Upper triangular ordering of internal faces
		for f := 0; f < m.NumInternalFaces(); f++ {
			assert.Less(t, m.Owner[f], m.Neighbour[f])
			if f > 0 {
				prev := [2]int{m.Owner[f-1], m.Neighbour[f-1]}
				assert.True(t, prev[0] < m.Owner[f] || (prev[0] == m.Owner[f] && prev[1] < m.Neighbour[f]))
			}
		}
	}
	{ // Internal face normals point from owner to neighbour
		for f := 0; f < m.NumInternalFaces(); f++ {
			d := r3.Sub(m.CellCentres[m.Neighbour[f]], m.CellCentres[m.Owner[f]])
			assert.Greater(t, r3.Dot(d, m.FaceAreas[f]), 0.)
		}
	}
	{ // Patch ranges, points and outward normals
		expectedNormals := [6]r3.Vec{{X: -1}, {X: 1}, {Y: -1}, {Y: 1}, {Z: -1}, {Z: 1}}
		start := m.NumInternalFaces()
		for i, p := range m.Patches {
			assert.Equal(t, BoxPatchNames[i], p.Name)
			assert.Equal(t, types.BC_Wall, p.Type)
			assert.Equal(t, start, p.Start)
			assert.Equal(t, 4, p.Size)
			assert.Equal(t, 9, p.NumPoints())
			assert.Equal(t, VertexLayout, p.Layout)
			assert.False(t, p.HasFacePoints())
			start += p.Size
			for f := p.Start; f < p.Start+p.Size; f++ {
				assert.Equal(t, i, m.WhichPatch(f))
				n := r3.Unit(m.FaceAreas[f])
				assert.InDelta(t, 0, r3.Norm(r3.Sub(n, expectedNormals[i])), 1.e-12)
				assert.InDelta(t, 0.25, r3.Norm(m.FaceAreas[f]), 1.e-12)
			}
			for lf, verts := range p.LocalFaces {
				for j, lp := range verts {
					assert.Equal(t, m.Faces[p.Start+lf][j], p.MeshPoints[lp])
				}
			}
		}
		assert.Equal(t, -1, m.WhichPatch(0))
	}
	assertClosedCells(t, m)

	p, err := m.FindPatch("yMax")
	require.NoError(t, err)
	assert.Equal(t, YMax, p.Index)
	for _, pt := range p.MeshPoints {
		assert.Equal(t, 1., m.Points[pt].Y)
	}
	_, err = m.FindPatch("inlet")
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))

	_, err = NewBoxMesh(0, 1, 1, r3.Vec{X: 1, Y: 1, Z: 1}, nil)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestBoxMeshBoundaryTypes(t *testing.T) {
	m, err := NewBoxMesh(3, 1, 1, r3.Vec{X: 3, Y: 1, Z: 1},
		map[string]types.BCFLAG{"xMax": types.BC_Out, "xMin": types.BC_In})
	require.NoError(t, err)
	assert.Equal(t, types.BC_In, m.Patches[XMin].Type)
	assert.Equal(t, types.BC_Out, m.Patches[XMax].Type)
	assert.Equal(t, types.BC_Wall, m.Patches[YMin].Type)
	assert.Equal(t, 2, m.NumInternalFaces())
	assert.InDelta(t, 0.5, m.CellCentres[0].X, 1.e-14)
	assert.InDelta(t, 2.5, m.CellCentres[2].X, 1.e-14)
}

func TestFaceDecompositionLayout(t *testing.T) {
	m := unitBox(t, 2)
	m.EnableFaceDecomposition()
	for _, p := range m.Patches {
		require.True(t, p.HasFacePoints())
		assert.Equal(t, 13, p.NumExtendedPoints())
		for lf := 0; lf < p.Size; lf++ {
			assert.Equal(t, m.FaceCentres[p.Start+lf], p.FacePoints.Centres[lf])
		}
	}
	// Face points follow the geometry
	moved := append([]r3.Vec(nil), m.Points...)
	for i := range moved {
		moved[i] = r3.Add(moved[i], r3.Vec{Z: 1})
	}
	require.NoError(t, m.MovePoints(moved))
	assert.InDelta(t, 1., m.Patches[ZMin].FacePoints.Centres[0].Z, 1.e-14)
	assert.True(t, errors.Is(m.MovePoints(moved[:3]), types.ErrInvalidArgument))
}

func TestPolyMeshErrors(t *testing.T) {
	points := []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}}
	cells := []Cell{{Type: Tet, Vertices: []int{0, 1, 2, 3}}}
	{ // Unclassified boundary face
		_, err := NewPolyMesh(points, cells, []PatchSpec{{Name: "walls"}}, func(r3.Vec) int { return -1 })
		assert.True(t, errors.Is(err, types.ErrInvalidArgument))
	}
	{ // Bad point reference
		_, err := NewPolyMesh(points, []Cell{{Type: Tet, Vertices: []int{0, 1, 2, 7}}},
			[]PatchSpec{{Name: "walls"}}, func(r3.Vec) int { return 0 })
		assert.True(t, errors.Is(err, types.ErrInvalidArgument))
	}
	{ // Single tet, everything on one patch
		m, err := NewPolyMesh(points, cells, []PatchSpec{{Name: "walls"}}, func(r3.Vec) int { return 0 })
		require.NoError(t, err)
		assert.Equal(t, 4, m.NumFaces())
		assert.Equal(t, 0, m.NumInternalFaces())
		assert.Equal(t, 4, m.Patches[0].NumPoints())
		assertClosedCells(t, m)
	}
}

func TestMixedElements(t *testing.T) {
	var (
		cube = []r3.Vec{
			{}, {X: 1}, {X: 1, Y: 1}, {Y: 1},
			{Z: 1}, {X: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {Y: 1, Z: 1},
		}
		walls = []PatchSpec{{Name: "walls", Type: types.BC_Wall}}
		all   = func(r3.Vec) int { return 0 }
	)
	assertOutward := func(t *testing.T, m *Mesh) {
		for f := 0; f < m.NumFaces(); f++ {
			var d r3.Vec
			if m.IsInternalFace(f) {
				d = r3.Sub(m.CellCentres[m.Neighbour[f]], m.CellCentres[m.Owner[f]])
			} else {
				d = r3.Sub(m.FaceCentres[f], m.CellCentres[m.Owner[f]])
			}
			assert.Greaterf(t, r3.Dot(d, m.FaceAreas[f]), 0., "face %d points into its owner", f)
		}
	}
	{ // Hexahedron split along a diagonal plane into two prisms
		m, err := NewPolyMesh(cube, []Cell{
			{Type: Prism, Vertices: []int{0, 1, 2, 4, 5, 6}},
			{Type: Prism, Vertices: []int{0, 2, 3, 4, 6, 7}},
		}, walls, all)
		require.NoError(t, err)
		assert.Equal(t, 2, m.NumCells)
		assert.Equal(t, 9, m.NumFaces())
		require.Equal(t, 1, m.NumInternalFaces())
		assert.Len(t, m.Faces[0], 4)
		assert.Equal(t, 8, m.Patches[0].NumPoints())
		assertClosedCells(t, m)
		assertOutward(t, m)
	}
	{ // Pyramid on top of a hexahedron
		points := append(append([]r3.Vec(nil), cube...), r3.Vec{X: 0.5, Y: 0.5, Z: 1.5})
		m, err := NewPolyMesh(points, []Cell{
			{Type: Hex, Vertices: []int{0, 1, 2, 3, 4, 5, 6, 7}},
			{Type: Pyramid, Vertices: []int{4, 5, 6, 7, 8}},
		}, walls, all)
		require.NoError(t, err)
		assert.Equal(t, 10, m.NumFaces())
		require.Equal(t, 1, m.NumInternalFaces())
		assert.Equal(t, [2]int{0, 1}, [2]int{m.Owner[0], m.Neighbour[0]})
		assertClosedCells(t, m)
		assertOutward(t, m)
	}
	{ // Single tetrahedron
		m, err := NewPolyMesh([]r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}},
			[]Cell{{Type: Tet, Vertices: []int{0, 1, 2, 3}}}, walls, all)
		require.NoError(t, err)
		assertOutward(t, m)
	}
	assert.Empty(t, GetElementFaces(ElementType(9), nil))
}

func TestSplitInternalFace(t *testing.T) {
	m := unitBox(t, 2)
	var (
		nFaces   = m.NumFaces()
		nInt     = m.NumInternalFaces()
		split    = 3
		own, nei = m.Owner[split], m.Neighbour[split]
		area     = m.FaceAreas[split]
		starts   []int
	)
	for _, p := range m.Patches {
		starts = append(starts, p.Start)
	}
	fm, err := m.SplitInternalFace(split)
	require.NoError(t, err)
	assert.Equal(t, nFaces+1, m.NumFaces())
	assert.Equal(t, nInt+1, m.NumInternalFaces())
	assert.Equal(t, []int{split, split + 1}, fm.AddedFaces())
	assert.Equal(t, split+1, fm[split+2])
	assert.Equal(t, nFaces-1, fm[nFaces])
	for _, f := range []int{split, split + 1} {
		assert.Equal(t, own, m.Owner[f])
		assert.Equal(t, nei, m.Neighbour[f])
		assert.Len(t, m.Faces[f], 3)
	}
	sum := r3.Add(m.FaceAreas[split], m.FaceAreas[split+1])
	assert.InDelta(t, 0, r3.Norm(r3.Sub(sum, area)), 1.e-14)
	for i, p := range m.Patches {
		assert.Equal(t, starts[i]+1, p.Start)
		assert.Equal(t, i, m.WhichPatch(p.Start))
	}
	assertClosedCells(t, m)

	_, err = m.SplitInternalFace(split) // Now a triangle
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
	_, err = m.SplitInternalFace(m.NumFaces() - 1)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestRenumberInternalFaces(t *testing.T) {
	m := unitBox(t, 2)
	var (
		nInt  = m.NumInternalFaces()
		order = make([]int, nInt)
		old   = append([][]int(nil), m.Faces...)
	)
	for i := range order {
		order[i] = nInt - 1 - i
	}
	fm, err := m.RenumberInternalFaces(order)
	require.NoError(t, err)
	assert.Empty(t, fm.AddedFaces())
	if diff := cmp.Diff([]int(fm[:nInt]), order); diff != "" {
		t.Errorf("face map mismatch (-got +want):\n%s", diff)
	}
	for newFace, oldFace := range fm {
		if diff := cmp.Diff(old[oldFace], m.Faces[newFace]); diff != "" {
			t.Errorf("face %d mismatch (-old +new):\n%s", newFace, diff)
		}
	}
	assertClosedCells(t, m)

	_, err = m.RenumberInternalFaces(order[1:])
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
	order[0] = order[1]
	_, err = m.RenumberInternalFaces(order)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}
