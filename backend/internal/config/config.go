// Package config unmarshals the JSON run configuration a design batch
// is launched from: target composition, per-species radii, and the
// three optimizer parameter presets.
package config

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/design/driver"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/initgen"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/optimization/crystalopt"
)

// SpeciesConfig is one composition entry's JSON shape.
type SpeciesConfig struct {
	AtomicNumber   int     `json:"atomic_number"`
	Charge         int     `json:"charge"`
	Count          int     `json:"count"`
	CovalentMin    float64 `json:"covalent_min"`
	CovalentMax    float64 `json:"covalent_max"`
	IonicMin       float64 `json:"ionic_min"`
	IonicMax       float64 `json:"ionic_max"`
	RepulsionMin   float64 `json:"ionic_repulsion_min"`
	RepulsionMax   float64 `json:"ionic_repulsion_max"`
	CovalentNumMin int     `json:"covalent_number_min"`
	CovalentNumMax int     `json:"covalent_number_max"`
	IonicNumMin    int     `json:"ionic_number_min"`
	IonicNumMax    int     `json:"ionic_number_max"`
}

// ParametersConfig mirrors crystalopt.StructuralOptimizationParameters
// for one of the three presets (global/local/precise).
type ParametersConfig struct {
	KRep           float64 `json:"k_rep"`
	KAttr          float64 `json:"k_attr"`
	EtaAtom        float64 `json:"eta_atom"`
	EtaCell        float64 `json:"eta_cell"`
	Pressure       float64 `json:"pressure"`
	Epsilon        float64 `json:"epsilon"`
	Rho            float64 `json:"rho"`
	MaxStepCount   int     `json:"max_step_count"`
	RecordInterval int     `json:"record_interval"`
}

// RunConfig is the full JSON document a `design` invocation reads.
type RunConfig struct {
	Composition []SpeciesConfig `json:"composition"`

	Global  ParametersConfig `json:"global"`
	Local   ParametersConfig `json:"local"`
	Precise ParametersConfig `json:"precise"`

	TracerCutoffRatio      float64 `json:"tracer_cutoff_ratio"`
	ConstrainerCutoffRatio float64 `json:"constrainer_cutoff_ratio"`

	MaxTotalStructuralOptimizing           int `json:"max_total_structural_optimizing"`
	MaxCeaselessGlobalStructuralOptimizing int `json:"max_ceaseless_global_structural_optimizing"`
	CellReductionTimeout                   int `json:"cell_reduction_timeout"`
	InteratomicDistanceTracerTimeout       int `json:"interatomic_distance_tracer_timeout"`

	OutputDirectory string `json:"output_directory"`
}

// Load reads and unmarshals a RunConfig from path.
func Load(path string) (*RunConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: opening run configuration")
	}
	defer f.Close()
	return Decode(f)
}

// Decode unmarshals a RunConfig from r.
func Decode(r io.Reader) (*RunConfig, error) {
	var cfg RunConfig
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: decoding run configuration")
	}
	return &cfg, nil
}

func toParameters(p ParametersConfig) crystalopt.StructuralOptimizationParameters {
	return crystalopt.StructuralOptimizationParameters{
		KRep: p.KRep, KAttr: p.KAttr,
		EtaAtom: p.EtaAtom, EtaCell: p.EtaCell,
		Pressure: p.Pressure, Epsilon: p.Epsilon, Rho: p.Rho,
		MaxStepCount: p.MaxStepCount, RecordInterval: p.RecordInterval,
	}
}

// DriverParameters converts the config's presets and budgets into a
// driver.Parameters, leaving Oracle/Recorder/PolyhedraTable for the
// caller to attach (those aren't representable as plain JSON values).
func (c *RunConfig) DriverParameters() driver.Parameters {
	return driver.Parameters{
		Global:  toParameters(c.Global),
		Local:   toParameters(c.Local),
		Precise: toParameters(c.Precise),

		TracerCutoffRatio:      c.TracerCutoffRatio,
		ConstrainerCutoffRatio: c.ConstrainerCutoffRatio,

		MaxTotalStructuralOptimizing:           c.MaxTotalStructuralOptimizing,
		MaxCeaselessGlobalStructuralOptimizing: c.MaxCeaselessGlobalStructuralOptimizing,
		CellReductionTimeout:                   c.CellReductionTimeout,
		TracerTimeout:                          c.InteratomicDistanceTracerTimeout,
	}
}

// InitgenComposition converts the config's species list into initgen's
// input shape.
func (c *RunConfig) InitgenComposition() []initgen.SpeciesCount {
	out := make([]initgen.SpeciesCount, len(c.Composition))
	for i, s := range c.Composition {
		out[i] = initgen.SpeciesCount{
			Species: species.IonicSpecies{Z: s.AtomicNumber, Charge: s.Charge},
			Count:   s.Count,
			Radii: species.AtomRadii{
				Covalent:       species.RadiusRange{Min: s.CovalentMin, Max: s.CovalentMax},
				Ionic:          species.RadiusRange{Min: s.IonicMin, Max: s.IonicMax},
				IonicRepulsion: species.RadiusRange{Min: s.RepulsionMin, Max: s.RepulsionMax},
			},
			Coordination: species.CoordinationConstraints{
				CovalentNumber: species.IntBound{Min: s.CovalentNumMin, Max: s.CovalentNumMax},
				IonicNumber:    species.IntBound{Min: s.IonicNumMin, Max: s.IonicNumMax},
			},
		}
	}
	return out
}
