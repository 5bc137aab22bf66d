// Package driver implements the designer driver: a watchdog-driven
// loop that alternates global relaxation, local refinement, precise
// refinement, constraint re-derivation, and perturbation over a single
// constraining structure until it becomes feasible or the step budget
// is exhausted.
package driver

import (
	"github.com/pkg/errors"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/design"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/objective"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/polyhedra"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/optimization/crystalopt"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/symmetry"
)

// ErrDesignTimeout is returned when MaxTotalStructuralOptimizing is
// reached without the structure becoming feasible. Non-fatal: the
// caller's structure is left with all currently-infeasible bonds
// erased, ready either to be discarded or retried from a fresh seed.
var ErrDesignTimeout = errors.New("driver: design timeout, max_total_structural_optimizing exhausted")

// Counters tracks the four watchdog counters: total force steps
// taken, global steps since the last coordination-composition success,
// and the two constraint-staleness counters (measured in force steps).
// Each Execute call starts from all four at zero. A cell reduction in
// updateConstraints resets CellUsage and TracerUsage, a tracer rebuild
// resets TracerUsage, and CeaselessGlobalOptimizing resets on a
// coordination-composition success or after a large distortion;
// TotalOptimizing only grows.
type Counters struct {
	TotalOptimizing           int
	CeaselessGlobalOptimizing int
	TracerUsage               int
	CellUsage                 int
}

// ForceRecorder is implemented by recorders that can also write an
// unconditional frame; crystalopt.Recorder alone only covers periodic
// reporting.
type ForceRecorder interface {
	crystalopt.Recorder
	ForceRecord(s *objective.Structure)
}

// Parameters bundles everything one design attempt needs: the three
// optimizer presets, the neighbor-rebuild cutoffs and polyhedra table,
// the watchdog budgets and timeouts, and the symmetry oracle used for
// cell reduction.
type Parameters struct {
	Global, Local, Precise crystalopt.StructuralOptimizationParameters

	TracerCutoffRatio      float64
	ConstrainerCutoffRatio float64
	PolyhedraTable         polyhedra.FeasibleBridging

	MaxTotalStructuralOptimizing           int
	MaxCeaselessGlobalStructuralOptimizing int
	CellReductionTimeout                   int
	TracerTimeout                          int

	Oracle   symmetry.Oracle
	Recorder crystalopt.Recorder

	// Progress, if non-nil, is called with a snapshot of the watchdog
	// counters after every global-optimizer pass — the hook internal/monitor
	// uses to expose live progress without the driver depending on it.
	Progress func(Counters)
}

func (p Parameters) neighborParameters() design.NeighborParameters {
	return design.NeighborParameters{
		TracerCutoffRatio:      p.TracerCutoffRatio,
		ConstrainerCutoffRatio: p.ConstrainerCutoffRatio,
		PolyhedraTable:         p.PolyhedraTable,
	}
}

func (p Parameters) forceRecord(s *objective.Structure) {
	if fr, ok := p.Recorder.(ForceRecorder); ok {
		fr.ForceRecord(s)
	}
}

// Execute runs a single design attempt from a prepared initial
// structure. It returns nil on success (h is left in its feasible
// precise-refined state), ErrDesignTimeout if the step budget is
// exhausted (h is left with all currently-infeasible bonds erased), or
// any other error that escapes a cell operation or the symmetry oracle
// (all of which are fatal for the attempt).
func Execute(h *design.Structure, p Parameters) error {
	counters := &Counters{}

	h.UpdateTracingIndexPairs(p.TracerCutoffRatio)
	h.CreateInteratomicDistanceConstraints(p.ConstrainerCutoffRatio)
	h.CreateChemicalBonds()
	h.OptimizeCoordinationCompositions()
	h.ErasePolyhedra(p.PolyhedraTable)

	if g, err := h.BuildObjective(); err == nil {
		p.forceRecord(g)
	}

	for counters.TotalOptimizing < p.MaxTotalStructuralOptimizing {
		g, err := h.BuildObjective()
		if err != nil {
			return err
		}
		if err := crystalopt.Execute(g, p.Global, p.Recorder); err != nil {
			return err
		}
		steps := p.Global.MaxStepCount
		counters.TotalOptimizing += steps
		counters.CeaselessGlobalOptimizing += steps
		counters.TracerUsage += steps
		counters.CellUsage += steps

		if err := h.ImportStructure(g); err != nil {
			return err
		}
		if err := updateConstraints(h, p, counters); err != nil {
			return err
		}
		if p.Progress != nil {
			p.Progress(*counters)
		}

		coordinationFeasible, err := h.HasFeasibleCoordinationComposition()
		if err != nil {
			return err
		}

		if coordinationFeasible {
			counters.CeaselessGlobalOptimizing = 0

			succeeded, err := runRefinement(h, p, counters)
			if err != nil {
				return err
			}
			if succeeded {
				return nil
			}

			h.EraseInfeasibleBonds(p.Precise.Epsilon, p.Precise.Rho)
			if err := h.DistortStructure(); err != nil {
				return err
			}
			counters.CellUsage = p.CellReductionTimeout + 1
			continue
		}

		if counters.CeaselessGlobalOptimizing > p.MaxCeaselessGlobalStructuralOptimizing {
			if err := h.DistortStructureLargely(); err != nil {
				return err
			}
			if err := h.ReduceStructure(p.Oracle, p.neighborParameters()); err != nil {
				return err
			}
			counters.CeaselessGlobalOptimizing = 0
		}
	}

	h.EraseInfeasibleBonds(p.Global.Epsilon, p.Global.Rho)
	return ErrDesignTimeout
}

// runRefinement runs up to two local-optimizer passes (with a
// feasibility check between them) followed, on success, by one precise
// pass. Both local passes work the same snapshot, so the second
// continues from where the first stopped instead of repeating it. It
// reports whether the precise pass reached full feasibility.
func runRefinement(h *design.Structure, p Parameters, counters *Counters) (bool, error) {
	g, err := h.BuildObjective()
	if err != nil {
		return false, err
	}

	localFeasible := false
	for pass := 0; pass < 2 && !localFeasible; pass++ {
		if err := crystalopt.Execute(g, p.Local, p.Recorder); err != nil {
			return false, err
		}
		counters.TotalOptimizing += p.Local.MaxStepCount
		localFeasible = g.IsFeasible(p.Local.Epsilon, p.Local.Rho)
	}
	if !localFeasible {
		return false, nil
	}
	if err := h.ImportStructure(g); err != nil {
		return false, err
	}

	if err := crystalopt.Execute(g, p.Precise, p.Recorder); err != nil {
		return false, err
	}
	counters.TotalOptimizing += p.Precise.MaxStepCount

	if !g.IsFeasible(p.Precise.Epsilon, p.Precise.Rho) {
		return false, nil
	}
	if err := h.ImportStructure(g); err != nil {
		return false, err
	}
	p.forceRecord(g)
	return true, nil
}

// updateConstraints re-derives h's neighbor/constraint/polyhedra data
// according to which staleness timeout (if any) has elapsed: a full
// cell reduction takes priority over a plain tracer rebuild, which
// in turn takes priority over the cheap constraining-pair refresh run
// every iteration regardless.
func updateConstraints(h *design.Structure, p Parameters, counters *Counters) error {
	switch {
	case counters.CellUsage > p.CellReductionTimeout:
		if err := h.ReduceStructure(p.Oracle, p.neighborParameters()); err != nil {
			return err
		}
		counters.CellUsage = 0
		counters.TracerUsage = 0
	case counters.TracerUsage > p.TracerTimeout:
		h.NormalizeFractionalCoordinates()
		h.UpdateTracingIndexPairs(p.TracerCutoffRatio)
		h.CreateInteratomicDistanceConstraints(p.ConstrainerCutoffRatio)
		h.CreateChemicalBonds()
		h.OptimizeCoordinationCompositions()
		h.ErasePolyhedra(p.PolyhedraTable)
		counters.TracerUsage = 0
	default:
		h.CreateInteratomicDistanceConstraints(p.ConstrainerCutoffRatio)
		h.CreateChemicalBonds()
		h.OptimizeCoordinationCompositions()
		h.ErasePolyhedra(p.PolyhedraTable)
	}
	return nil
}
