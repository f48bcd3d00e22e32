package fluxcorrector

import (
	"fmt"
	"sort"

	"github.com/notargets/dynmesh/InputParameters"
	"github.com/notargets/dynmesh/fields"
	"github.com/notargets/dynmesh/mesh"
	"github.com/notargets/dynmesh/types"
	"github.com/notargets/dynmesh/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func init() {
	Register("Poisson", NewPoisson)
}

// Poisson corrects the flux by the gradient of a potential p solving
//
//	sum_f a_f (p_c - p_nb) = imbalance_c,   a_f = |S_f| / |d_f|
//
// after which every cell balances. Closed domains pin the reference cell.
type Poisson struct {
	mesh     *mesh.Mesh
	phi      *fields.FluxField
	required bool
	dict     InputParameters.FluxCorrectorDict
	logger   *zap.Logger
}

func NewPoisson(m *mesh.Mesh, phi *fields.FluxField, dict InputParameters.FluxCorrectorDict,
	logger *zap.Logger) (Corrector, error) {
	if dict.ReferenceCell >= m.NumCells {
		return nil, fmt.Errorf("%w: reference cell %d, mesh has %d cells",
			types.ErrInvalidArgument, dict.ReferenceCell, m.NumCells)
	}
	return &Poisson{
		mesh:     m,
		phi:      phi,
		required: dict.Required,
		dict:     dict,
		logger:   logger,
	}, nil
}

func (pc *Poisson) Required() bool { return pc.required }

func (pc *Poisson) checkField() error {
	var (
		m  = pc.mesh
		ff = pc.phi
	)
	if len(ff.Phi) != m.NumFaces() || len(ff.U) != m.NumCells ||
		(ff.Source != nil && len(ff.Source) != m.NumCells) {
		return fmt.Errorf("%w: flux field sized %d faces, %d cells, mesh has %d faces, %d cells",
			types.ErrInvalidArgument, len(ff.Phi), len(ff.U), m.NumFaces(), m.NumCells)
	}
	return nil
}

// InterpolateFluxes fills the listed faces. A cell left with a single unknown
// face gets that face's flux from its own balance, other faces take the
// interpolated cell velocity and seed further balancing.
func (pc *Poisson) InterpolateFluxes(faces []int) (err error) {
	if len(faces) == 0 {
		return
	}
	var (
		m = pc.mesh
	)
	for _, f := range faces {
		if f < 0 || f >= m.NumFaces() {
			return fmt.Errorf("%w: face %d out of range [0,%d)", types.ErrInvalidArgument, f, m.NumFaces())
		}
	}
	if err = pc.checkField(); err != nil {
		return
	}
	var (
		cellFaces = m.CellFaces()
		pending   = make(map[int]bool, len(faces))
		nPending  = make(map[int]int)
		values    = make(map[int]float64, len(faces))
		queue     []int
		cellsOf   = func(f int) []int {
			if m.IsInternalFace(f) {
				return []int{m.Owner[f], m.Neighbour[f]}
			}
			return []int{m.Owner[f]}
		}
		flux = func(f int) float64 {
			if v, ok := values[f]; ok {
				return v
			}
			return pc.phi.Phi[f]
		}
		resolve = func(f int, val float64) {
			values[f] = val
			delete(pending, f)
			for _, c := range cellsOf(f) {
				nPending[c]--
				if nPending[c] == 1 {
					queue = append(queue, c)
				}
			}
		}
		nBalanced, nInterpolated int
	)
	for _, f := range faces {
		if pending[f] {
			continue
		}
		pending[f] = true
		for _, c := range cellsOf(f) {
			nPending[c]++
		}
	}
	for c, n := range nPending {
		if n == 1 {
			queue = append(queue, c)
		}
	}
	sort.Ints(queue)
	order := make([]int, 0, len(pending))
	for f := range pending {
		order = append(order, f)
	}
	sort.Ints(order)

	for len(pending) != 0 {
		for len(queue) != 0 {
			c := queue[0]
			queue = queue[1:]
			if nPending[c] != 1 {
				continue
			}
			var (
				unknown = -1
				sum     float64
			)
			for _, f := range cellFaces[c] {
				if pending[f] {
					unknown = f
					continue
				}
				sum += m.FaceSign(c, f) * flux(f)
			}
			var source float64
			if pc.phi.Source != nil {
				source = pc.phi.Source[c]
			}
			resolve(unknown, m.FaceSign(c, unknown)*(source-sum))
			nBalanced++
		}
		for _, f := range order {
			if pending[f] {
				resolve(f, pc.phi.InterpolatedFlux(m, f))
				nInterpolated++
				break
			}
		}
	}
	for f, val := range values {
		pc.phi.Phi[f] = val
	}
	pc.logger.Debug("interpolated fluxes",
		zap.Int("faces", len(values)),
		zap.Int("balanced", nBalanced),
		zap.Int("interpolated", nInterpolated))
	return
}

// UpdateFluxes solves for the correction potential and applies its gradient
// to every face flux. Nothing is written unless the solve succeeds.
func (pc *Poisson) UpdateFluxes() (err error) {
	if !pc.required {
		return
	}
	if err = pc.checkField(); err != nil {
		return
	}
	var (
		m         = pc.mesh
		nCells    = m.NumCells
		div       = pc.phi.Imbalance(m)
		coeffs    = pc.faceCoefficients()
		fixed     = make([]bool, len(m.Patches))
		anyFixed  bool
		ref       = -1
		A         = utils.NewDOK(nCells, nCells)
		rhs       = make([]float64, nCells)
		p         = make([]float64, nCells)
		maxBefore = pc.phi.MaxImbalance(m)
	)
	for i, patch := range m.Patches {
		fixed[i] = patch.Type.FixedPotential() && patch.Size != 0
		anyFixed = anyFixed || fixed[i]
	}
	if !anyFixed {
		ref = pc.dict.ReferenceCell
	}
	copy(rhs, div)
	for f := 0; f < m.NumInternalFaces(); f++ {
		var (
			a        = coeffs[f]
			own, nei = m.Owner[f], m.Neighbour[f]
		)
		A.AddAt(own, own, a)
		A.AddAt(nei, nei, a)
		if own != ref && nei != ref {
			A.AddAt(own, nei, -a)
			A.AddAt(nei, own, -a)
		}
	}
	for i, patch := range m.Patches {
		if !fixed[i] {
			continue
		}
		for f := patch.Start; f < patch.Start+patch.Size; f++ {
			A.AddAt(m.Owner[f], m.Owner[f], coeffs[f])
		}
	}
	if ref >= 0 {
		A.Set(ref, ref, 1)
		rhs[ref] = 0
	}
	A.SetReadOnly("PoissonLaplacian")
	Acsr := A.ToCSR()
	pc.logger.Debug("assembled potential matrix",
		zap.Int("cells", nCells),
		zap.Int("nonZeros", Acsr.NNZ()))

	switch pc.dict.Solver {
	case "direct":
		err = solveDirect(Acsr, rhs, p)
	default:
		var res utils.PCGResult
		res, err = utils.SolvePCG(Acsr, rhs, p, pc.dict.Tolerance, pc.dict.MaxIterations)
		pc.logger.Debug("potential solve",
			zap.Int("iterations", res.Iterations),
			zap.Float64("residual", res.Residual))
	}
	if err == nil && !utils.IsFinite(p) {
		err = fmt.Errorf("%w: potential is not finite", types.ErrNumericalFailure)
	}
	if err != nil {
		pc.logger.Warn("flux correction failed", zap.Error(err))
		return
	}

	for f := 0; f < m.NumInternalFaces(); f++ {
		pc.phi.Phi[f] += coeffs[f] * (p[m.Neighbour[f]] - p[m.Owner[f]])
	}
	for i, patch := range m.Patches {
		if !fixed[i] {
			continue
		}
		for f := patch.Start; f < patch.Start+patch.Size; f++ {
			pc.phi.Phi[f] -= coeffs[f] * p[m.Owner[f]]
		}
	}
	pc.logger.Info("corrected fluxes",
		zap.Int("cells", nCells),
		zap.Int("referenceCell", ref),
		zap.Float64("maxImbalanceBefore", maxBefore),
		zap.Float64("maxImbalanceAfter", pc.phi.MaxImbalance(m)))
	return
}

// faceCoefficients returns |S_f| / |d_f|, d_f joins the owner centre to the
// neighbour centre, or to the face centre on the boundary
func (pc *Poisson) faceCoefficients() (coeffs []float64) {
	m := pc.mesh
	coeffs = make([]float64, m.NumFaces())
	for f := range coeffs {
		var d r3.Vec
		if m.IsInternalFace(f) {
			d = r3.Sub(m.CellCentres[m.Neighbour[f]], m.CellCentres[m.Owner[f]])
		} else {
			d = r3.Sub(m.FaceCentres[f], m.CellCentres[m.Owner[f]])
		}
		coeffs[f] = r3.Norm(m.FaceAreas[f]) / r3.Norm(d)
	}
	return
}

func solveDirect(A utils.CSR, rhs, x []float64) (err error) {
	var (
		n    = len(rhs)
		S    = mat.NewSymDense(n, nil)
		chol mat.Cholesky
		xv   = mat.NewVecDense(n, x)
	)
	A.DoNonZero(func(i, j int, v float64) {
		if i <= j {
			S.SetSym(i, j, v)
		}
	})
	if ok := chol.Factorize(S); !ok {
		return fmt.Errorf("%w: potential matrix is not positive definite", types.ErrNumericalFailure)
	}
	if err = chol.SolveVecTo(xv, mat.NewVecDense(n, rhs)); err != nil {
		return fmt.Errorf("%w: %v", types.ErrNumericalFailure, err)
	}
	return
}
