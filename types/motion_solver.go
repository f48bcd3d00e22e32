package types

import "fmt"

// MotionSolverKind groups motion solver names by the layout of their degrees
// of freedom.
type MotionSolverKind uint8

const (
	MotionSolverNone MotionSolverKind = iota
	CellDecompositionFEM
	FaceDecompositionFEM
	SpringOrSmootherMesh
)

var MotionSolverNameMap = map[string]MotionSolverKind{
	"laplaceCellDecomposition":     CellDecompositionFEM,
	"pseudoSolidCellDecomposition": CellDecompositionFEM,
	"laplaceFaceDecomposition":     FaceDecompositionFEM,
	"pseudoSolidFaceDecomposition": FaceDecompositionFEM,
	"mesquiteSmoother":             SpringOrSmootherMesh,
	"mesquiteMotionSolver":         SpringOrSmootherMesh,
	"springMotionSolver":           SpringOrSmootherMesh,
}

// NewMotionSolverKind matches the literal exactly, unknown names map to MotionSolverNone
func NewMotionSolverKind(label string) MotionSolverKind {
	return MotionSolverNameMap[label]
}

func ParseMotionSolverKind(label string) (kind MotionSolverKind, err error) {
	if kind = NewMotionSolverKind(label); kind == MotionSolverNone {
		err = fmt.Errorf("%w: %q", ErrUnknownMotionSolver, label)
	}
	return
}

func (k MotionSolverKind) String() string {
	switch k {
	case CellDecompositionFEM:
		return "CellDecompositionFEM"
	case FaceDecompositionFEM:
		return "FaceDecompositionFEM"
	case SpringOrSmootherMesh:
		return "SpringOrSmootherMesh"
	}
	return "None"
}

// IsFEM is true for the tet-decomposition layouts that take a velocity boundary condition
func (k MotionSolverKind) IsFEM() bool {
	return k == CellDecompositionFEM || k == FaceDecompositionFEM
}
