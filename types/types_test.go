package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMotionSolverKind(t *testing.T) {
	{ // Every literal resolves to its family
		expected := map[string]MotionSolverKind{
			"laplaceCellDecomposition":     CellDecompositionFEM,
			"pseudoSolidCellDecomposition": CellDecompositionFEM,
			"laplaceFaceDecomposition":     FaceDecompositionFEM,
			"pseudoSolidFaceDecomposition": FaceDecompositionFEM,
			"mesquiteSmoother":             SpringOrSmootherMesh,
			"mesquiteMotionSolver":         SpringOrSmootherMesh,
			"springMotionSolver":           SpringOrSmootherMesh,
		}
		for label, kind := range expected {
			assert.Equal(t, kind, NewMotionSolverKind(label), label)
			k, err := ParseMotionSolverKind(label)
			require.NoError(t, err)
			assert.Equal(t, kind, k)
		}
		assert.Equal(t, len(expected), len(MotionSolverNameMap))
	}
	{ // Matching is exact, no case folding
		for _, label := range []string{"", "LaplaceCellDecomposition", "velocityLaplacian", "spring"} {
			assert.Equal(t, MotionSolverNone, NewMotionSolverKind(label))
			_, err := ParseMotionSolverKind(label)
			assert.True(t, errors.Is(err, ErrUnknownMotionSolver))
		}
	}
	assert.True(t, CellDecompositionFEM.IsFEM())
	assert.True(t, FaceDecompositionFEM.IsFEM())
	assert.False(t, SpringOrSmootherMesh.IsFEM())
	assert.False(t, MotionSolverNone.IsFEM())
	assert.Equal(t, "FaceDecompositionFEM", FaceDecompositionFEM.String())
	assert.Equal(t, "None", MotionSolverNone.String())
}

func TestBCFLAG(t *testing.T) {
	assert.Equal(t, BC_Out, NewBCFLAG("Outlet"))
	assert.Equal(t, BC_Wall, NewBCFLAG("wall"))
	assert.Equal(t, BC_None, NewBCFLAG("symmetryPlane"))
	assert.True(t, BC_Out.FixedPotential())
	assert.True(t, BC_Far.FixedPotential())
	assert.False(t, BC_Wall.FixedPotential())
	assert.False(t, BC_None.FixedPotential())
	assert.Equal(t, "outflow", BC_Out.String())
}
