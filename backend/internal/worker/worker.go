// Package worker implements the MPI-style process bootstrap. Each
// worker is an independent unit of work whose rank and total process
// count are consumed only to select an output subdirectory and RNG
// seed. When the binary is actually launched under mpirun (or an
// equivalent launcher) this package reads the rank/world-size it was
// given through the environment and runs exactly one attempt.
// Otherwise it stands in for that launcher locally, fanning out one
// goroutine per simulated rank with golang.org/x/sync/errgroup — the
// ranks share nothing but the report tree.
package worker

import (
	"context"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// RankEnvVar and WorldSizeEnvVar are the environment variables an
// MPI-style launcher is expected to set per process.
const (
	RankEnvVar      = "MCC_RANK"
	WorldSizeEnvVar = "MCC_WORLD_SIZE"
)

// Attempt is one (rank, worldSize) unit of work: exactly what the
// driver needs to pick an output subdirectory and seed its RNG.
type Attempt func(ctx context.Context, rank, worldSize int) error

// Run executes fn once per rank. If both environment variables are
// present and valid, it runs fn exactly once for the rank/world-size
// the launcher assigned this process. Otherwise it fans fn out locally
// across runtime.GOMAXPROCS(0) simulated ranks. Run returns the first
// error any attempt returns (via errgroup), cancelling ctx for the
// remaining attempts; callers that want every attempt to run to
// completion regardless of sibling failures should have fn recover its
// own errors into its result value instead of returning them.
func Run(ctx context.Context, fn Attempt) error {
	if rank, worldSize, ok := fromEnvironment(); ok {
		return fn(ctx, rank, worldSize)
	}

	worldSize := runtime.GOMAXPROCS(0)
	g, gctx := errgroup.WithContext(ctx)
	for rank := 0; rank < worldSize; rank++ {
		rank := rank
		g.Go(func() error {
			return fn(gctx, rank, worldSize)
		})
	}
	return g.Wait()
}

// fromEnvironment reads RankEnvVar/WorldSizeEnvVar, reporting ok=false
// if either is absent or fails to parse as a non-negative rank below a
// positive world size.
func fromEnvironment() (rank, worldSize int, ok bool) {
	rankStr, rankSet := os.LookupEnv(RankEnvVar)
	sizeStr, sizeSet := os.LookupEnv(WorldSizeEnvVar)
	if !rankSet || !sizeSet {
		return 0, 0, false
	}

	r, err := strconv.Atoi(rankStr)
	if err != nil || r < 0 {
		return 0, 0, false
	}
	w, err := strconv.Atoi(sizeStr)
	if err != nil || w <= 0 || r >= w {
		return 0, 0, false
	}
	return r, w, true
}
