package types

import "strings"

// BCFLAG classifies a boundary patch for the flux corrector. Patches carrying a
// fixed potential (BC_Out, BC_Far) close the Poisson system without pinning.
type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_In
	BC_Slip
	BC_Far
	BC_Wall
	BC_Out
	BC_Empty
)

var BCNameMap = map[string]BCFLAG{
	"inflow":  BC_In,
	"in":      BC_In,
	"out":     BC_Out,
	"outflow": BC_Out,
	"outlet":  BC_Out,
	"wall":    BC_Wall,
	"far":     BC_Far,
	"slip":    BC_Slip,
	"empty":   BC_Empty,
}

func NewBCFLAG(label string) BCFLAG {
	if bf, ok := BCNameMap[strings.ToLower(label)]; ok {
		return bf
	}
	return BC_None
}

// FixedPotential is true for patches where the correction potential is held at zero
func (bf BCFLAG) FixedPotential() bool {
	return bf == BC_Out || bf == BC_Far
}

func (bf BCFLAG) String() string {
	switch bf {
	case BC_In:
		return "inflow"
	case BC_Slip:
		return "slip"
	case BC_Far:
		return "far"
	case BC_Wall:
		return "wall"
	case BC_Out:
		return "outflow"
	case BC_Empty:
		return "empty"
	}
	return "none"
}
