package fluxcorrector

import (
	"fmt"
	"sort"

	"github.com/notargets/dynmesh/InputParameters"
	"github.com/notargets/dynmesh/fields"
	"github.com/notargets/dynmesh/mesh"
	"github.com/notargets/dynmesh/types"
	"go.uber.org/zap"
)

// Corrector restores face flux conservation after a topology change
type Corrector interface {
	// Required reports the configured flag, it is never recomputed
	Required() bool
	// InterpolateFluxes recomputes the flux on the listed faces only
	InterpolateFluxes(faces []int) error
	// UpdateFluxes reconciles the whole flux field when Required is set
	UpdateFluxes() error
}

type Constructor func(m *mesh.Mesh, phi *fields.FluxField, dict InputParameters.FluxCorrectorDict,
	logger *zap.Logger) (Corrector, error)

var constructors = make(map[string]Constructor)

// Register adds a named strategy, registering a name twice panics
func Register(name string, c Constructor) {
	if _, exists := constructors[name]; exists {
		panic(fmt.Errorf("flux corrector %q registered twice", name))
	}
	constructors[name] = c
}

func Names() (names []string) {
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// New looks up dict.Type and constructs the strategy bound to the mesh and flux field
func New(m *mesh.Mesh, phi *fields.FluxField, dict InputParameters.FluxCorrectorDict,
	logger *zap.Logger) (Corrector, error) {
	c, ok := constructors[dict.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q, valid types are %v", types.ErrUnknownCorrector, dict.Type, Names())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dict.SetDefaults()
	if err := dict.Validate(); err != nil {
		return nil, err
	}
	return c(m, phi, dict, logger.With(zap.String("fluxCorrector", dict.Type)))
}
