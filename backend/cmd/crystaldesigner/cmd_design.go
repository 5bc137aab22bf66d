package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/config"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/design"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/design/driver"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/initgen"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/monitor"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/report"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/symmetry"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/symmetry/latreduce"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/worker"
)

var (
	attemptsPerRank int
	servePort       int
)

var designCmd = &cobra.Command{
	Use:   "design",
	Short: "Run a batch of design attempts and write a report tree",
	RunE:  runDesign,
}

func init() {
	designCmd.Flags().IntVar(&attemptsPerRank, "attempts", 1, "Design attempts to run per rank before exiting")
	designCmd.Flags().IntVar(&servePort, "serve-port", 0, "If non-zero, serve live progress on this port while the batch runs")
}

func runDesign(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		return fmt.Errorf("design: --config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	root := outputRoot
	if root == "" {
		root = cfg.OutputDirectory
	}
	manager, err := report.NewManager(root)
	if err != nil {
		return err
	}

	var registry *monitor.Registry
	if servePort != 0 {
		registry = monitor.NewRegistry(defaultPrometheusRegisterer())
		go func() {
			if err := serveProgress(registry, servePort); err != nil {
				log.Printf("design: progress server on port %d stopped: %v", servePort, err)
			}
		}()
	}

	var oracle symmetry.Oracle = latreduce.Adapter{}
	ctx := context.Background()

	summaries := make(chan report.Summary, attemptsPerRank*16)
	done := make(chan struct{})
	var collected []report.Summary
	go func() {
		for s := range summaries {
			collected = append(collected, s)
		}
		close(done)
	}()

	err = worker.Run(ctx, func(ctx context.Context, rank, worldSize int) error {
		rng := rand.New(rand.NewSource(int64(rank)))
		for i := 0; i < attemptsPerRank; i++ {
			if err := runOneAttempt(rank, rng, cfg, manager, oracle, registry, summaries); err != nil {
				return err
			}
		}
		return nil
	})

	close(summaries)
	<-done
	if err != nil {
		return err
	}

	report.Render(cmd.OutOrStdout(), collected)
	return nil
}

func runOneAttempt(rank int, rng *rand.Rand, cfg *config.RunConfig, manager *report.Manager, oracle symmetry.Oracle, registry *monitor.Registry, summaries chan<- report.Summary) error {
	started := time.Now()

	attempt, err := manager.NewAttempt(rank, cfg.Global.RecordInterval)
	if err != nil {
		return err
	}
	defer attempt.Close()

	h, err := initgen.Generate(cfg.InitgenComposition(), rng)
	if err != nil {
		return err
	}

	params := cfg.DriverParameters()
	params.Oracle = oracle
	params.Recorder = attempt.Trajectory

	var lastCounters driver.Counters
	params.Progress = func(c driver.Counters) {
		lastCounters = c
		if registry != nil {
			registry.Update(rank, c, false)
		}
	}

	designErr := driver.Execute(h, params)
	succeeded := designErr == nil
	if designErr != nil && designErr != driver.ErrDesignTimeout {
		return designErr
	}

	spaceGroupNumber := 0
	if succeeded {
		if sg, err := writeStructure(attempt, h, oracle); err != nil {
			return err
		} else {
			spaceGroupNumber = sg
		}
	}

	summary := report.Summary{
		UUID:                      attempt.ID.String(),
		Rank:                      rank,
		Succeeded:                 succeeded,
		TotalOptimizing:           lastCounters.TotalOptimizing,
		CeaselessGlobalOptimizing: lastCounters.CeaselessGlobalOptimizing,
		SpaceGroupNumber:          spaceGroupNumber,
		Elapsed:                   time.Since(started).Seconds(),
		CompletedAt:               time.Now(),
	}
	if err := attempt.WriteSummary(summary); err != nil {
		return err
	}
	summaries <- summary
	return nil
}

// writeStructure converts h's Cartesian atom positions to fractional
// coordinates, asks the oracle to conventionalize the cell and derive
// Wyckoff sites and symmetry operations, and writes the result as a CIF
// file into attempt's directory. It returns the detected space-group
// number.
func writeStructure(attempt *report.Attempt, h *design.Structure, oracle symmetry.Oracle) (int, error) {
	basis := h.Basis()
	inverse, err := basis.Inverse()
	if err != nil {
		return 0, err
	}

	atoms := h.Atoms()
	fractional := make([]linalg.Vec3, len(atoms))
	speciesOf := make([]species.IonicSpecies, len(atoms))
	sites := make([]symmetry.SiteInfo, len(atoms))
	for i, a := range atoms {
		fractional[i] = inverse.MulVec(a.Position)
		speciesOf[i] = a.Species
	}

	conventionalBasis, conventionalFractional, conventionalSites, spaceGroupNumber, err := oracle.Conventionalize(basis, fractional, sites)
	if err != nil {
		return 0, err
	}
	conventionalSites, spaceGroupNumber, err = oracle.UpdateSymmetryInformation(conventionalBasis, conventionalFractional, conventionalSites)
	if err != nil {
		return 0, err
	}
	ops, err := oracle.SymmetryOperations(conventionalBasis, spaceGroupNumber, latreduce.DefaultFractionalTolerance)
	if err != nil {
		return 0, err
	}

	if err := attempt.WriteCIF(conventionalFractional, speciesOf, conventionalSites, spaceGroupNumber, ops); err != nil {
		return 0, err
	}
	return spaceGroupNumber, nil
}
