package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
	"github.com/notargets/dynmesh/types"
	"go.uber.org/multierr"
)

// FluxCorrectorDict selects and configures the flux correction strategy
type FluxCorrectorDict struct {
	Type          string  `json:"type"`
	Required      bool    `json:"required"`
	Solver        string  `json:"solver"` // "PCG" (default) or "direct"
	Tolerance     float64 `json:"tolerance"`
	MaxIterations int     `json:"maxIterations"`
	ReferenceCell int     `json:"referenceCell"`
}

// Parameters obtained from the YAML dynamic mesh dictionary
type DynamicMeshDict struct {
	Title         string            `json:"Title"`
	Solver        string            `json:"solver"`
	DeltaT        float64           `json:"deltaT"`
	FluxCorrector FluxCorrectorDict `json:"fluxCorrector"`
	BCs           map[string]string `json:"BCs"` // Patch name to boundary type
}

const (
	DefaultTolerance     = 1.e-12
	DefaultMaxIterations = 1000
)

func (fc *FluxCorrectorDict) SetDefaults() {
	if len(fc.Solver) == 0 {
		fc.Solver = "PCG"
	}
	if fc.Tolerance == 0 {
		fc.Tolerance = DefaultTolerance
	}
	if fc.MaxIterations == 0 {
		fc.MaxIterations = DefaultMaxIterations
	}
}

func (fc *FluxCorrectorDict) Validate() (err error) {
	if len(fc.Type) == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: fluxCorrector.type is empty", types.ErrInvalidArgument))
	}
	if fc.Solver != "PCG" && fc.Solver != "direct" {
		err = multierr.Append(err, fmt.Errorf("%w: fluxCorrector.solver %q is not one of PCG, direct",
			types.ErrInvalidArgument, fc.Solver))
	}
	if fc.Tolerance <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: fluxCorrector.tolerance %g must be positive",
			types.ErrInvalidArgument, fc.Tolerance))
	}
	if fc.MaxIterations < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: fluxCorrector.maxIterations %d must be positive",
			types.ErrInvalidArgument, fc.MaxIterations))
	}
	if fc.ReferenceCell < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: fluxCorrector.referenceCell %d is negative",
			types.ErrInvalidArgument, fc.ReferenceCell))
	}
	return
}

// Parse reads the dictionary, fills defaults and validates it
func (ip *DynamicMeshDict) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	ip.FluxCorrector.SetDefaults()
	return ip.Validate()
}

func (ip *DynamicMeshDict) Validate() (err error) {
	if _, kerr := types.ParseMotionSolverKind(ip.Solver); kerr != nil {
		err = multierr.Append(err, kerr)
	}
	if ip.DeltaT <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: deltaT %g must be positive",
			types.ErrInvalidArgument, ip.DeltaT))
	}
	for name, bc := range ip.BCs {
		if types.NewBCFLAG(bc) == types.BC_None {
			err = multierr.Append(err, fmt.Errorf("%w: patch %q has unknown boundary type %q",
				types.ErrInvalidArgument, name, bc))
		}
	}
	return multierr.Append(err, ip.FluxCorrector.Validate())
}

func (ip *DynamicMeshDict) MotionSolverKind() types.MotionSolverKind {
	return types.NewMotionSolverKind(ip.Solver)
}

// BoundaryTypes converts the BCs section for the mesh builder
func (ip *DynamicMeshDict) BoundaryTypes() (bcs map[string]types.BCFLAG) {
	bcs = make(map[string]types.BCFLAG, len(ip.BCs))
	for name, bc := range ip.BCs {
		bcs[name] = types.NewBCFLAG(bc)
	}
	return
}

func (ip *DynamicMeshDict) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t= Motion Solver (%s)\n", ip.Solver, ip.MotionSolverKind())
	fmt.Printf("%8.5f\t\t= DeltaT\n", ip.DeltaT)
	fc := ip.FluxCorrector
	fmt.Printf("[%s]\t\t\t= Flux Corrector, Required = %v\n", fc.Type, fc.Required)
	fmt.Printf("[%s]\t\t\t= Poisson Solver, Tolerance = %g, MaxIterations = %d\n",
		fc.Solver, fc.Tolerance, fc.MaxIterations)
	keys := make([]string, len(ip.BCs))
	i := 0
	for k := range ip.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v\n", key, ip.BCs[key])
	}
}
