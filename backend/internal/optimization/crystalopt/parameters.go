// Package crystalopt implements the force-based structural optimizer:
// a pressure-augmented steepest-descent-like integrator that moves
// atoms and deforms the unit cell simultaneously, driven off the ten
// constraint pair lists of an objective.Structure.
package crystalopt

// StructuralOptimizationParameters bundles every constant the integrator
// and its feasibility predicates need for one pass.
type StructuralOptimizationParameters struct {
	KRep         float64 // repulsive force constant
	KAttr        float64 // attractive force constant
	EtaAtom      float64 // atom position step size
	EtaCell      float64 // cell deformation step size
	Pressure     float64 // scalar hydrostatic pressure
	Epsilon      float64 // feasible error rate, in [0,1)
	Rho          float64 // exclusion ratio, in (0,1]
	MaxStepCount int     // steps per execute() call

	// RecordInterval, if > 0, reports a recorder snapshot every this many
	// steps in addition to the forced triggers the driver applies.
	RecordInterval int
}

// DefaultGlobalParameters returns the loosest, largest-step parameter
// set: used for the first, coarse relaxation pass of a fresh structure.
func DefaultGlobalParameters() StructuralOptimizationParameters {
	return StructuralOptimizationParameters{
		KRep: 1.0, KAttr: 0.5,
		EtaAtom: 0.05, EtaCell: 0.01,
		Pressure:     0.0,
		Epsilon:      0.15,
		Rho:          0.85,
		MaxStepCount: 400,
	}
}

// DefaultLocalParameters returns the moderate-step parameter set applied
// after a structure has reached coordination feasibility.
func DefaultLocalParameters() StructuralOptimizationParameters {
	return StructuralOptimizationParameters{
		KRep: 1.0, KAttr: 0.75,
		EtaAtom: 0.01, EtaCell: 0.002,
		Pressure:     0.0,
		Epsilon:      0.05,
		Rho:          0.9,
		MaxStepCount: 200,
	}
}

// DefaultPreciseParameters returns the tightest, smallest-step parameter
// set used for the final convergence check.
func DefaultPreciseParameters() StructuralOptimizationParameters {
	return StructuralOptimizationParameters{
		KRep: 1.0, KAttr: 1.0,
		EtaAtom: 0.002, EtaCell: 0.0005,
		Pressure:     0.0,
		Epsilon:      0.0,
		Rho:          0.95,
		MaxStepCount: 100,
	}
}
