// Package report implements the directory/report manager: one
// directory per design attempt, laid out as <rank>/<uuid>/ and holding
// the CIF, the trajectory, and a JSON summary, plus the batch summary
// table the CLI prints on completion. Directory creation and the CIF
// and summary writes go through the Manager's lock; trajectory frames
// are serialized by each attempt's own trajectory.Writer, not by that
// lock.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/recorder/cif"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/recorder/trajectory"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/symmetry"
)

// Summary is the one JSON document written per attempt, and the unit
// the batch table in Render aggregates over.
type Summary struct {
	UUID                      string    `json:"uuid"`
	Rank                      int       `json:"rank"`
	Succeeded                 bool      `json:"succeeded"`
	TotalOptimizing           int       `json:"total_optimizing"`
	CeaselessGlobalOptimizing int       `json:"ceaseless_global_optimizing"`
	SpaceGroupNumber          int       `json:"space_group_number"`
	Elapsed                   float64   `json:"elapsed_seconds"`
	CompletedAt               time.Time `json:"completed_at"`
}

// Manager lays out and serializes writes into a root report tree: one
// subdirectory per rank, one UUID-named subdirectory per attempt
// within it. mu serializes the Manager's own filesystem operations
// (attempt directories, CIF and summary files) and is held only around
// them; trajectory frames do not take it.
type Manager struct {
	mu   sync.Mutex
	Root string
}

// NewManager roots a report tree at root, creating it if absent.
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "report: creating root directory")
	}
	return &Manager{Root: root}, nil
}

// Attempt is one design attempt's open report directory: its
// trajectory file (wrapped in a trajectory.Writer ready to satisfy
// crystalopt.Recorder/driver.ForceRecorder) and its identity.
type Attempt struct {
	ID         uuid.UUID
	Rank       int
	Dir        string
	Trajectory *trajectory.Writer

	manager  *Manager
	trajFile *os.File
}

// NewAttempt creates <root>/<rank>/<uuid>/ and opens its trajectory
// file, ready for the driver to record into.
func (m *Manager) NewAttempt(rank int, recordInterval int) (*Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	dir := filepath.Join(m.Root, fmt.Sprintf("%d", rank), id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "report: creating attempt directory")
	}

	f, err := os.Create(filepath.Join(dir, "trajectory.dat"))
	if err != nil {
		return nil, errors.Wrap(err, "report: creating trajectory file")
	}

	return &Attempt{
		ID:         id,
		Rank:       rank,
		Dir:        dir,
		Trajectory: trajectory.New(f, recordInterval),
		manager:    m,
		trajFile:   f,
	}, nil
}

// WriteCIF renders the final structure's CIF file into the attempt
// directory.
func (a *Attempt) WriteCIF(fractional []linalg.Vec3, speciesOf []species.IonicSpecies, sites []symmetry.SiteInfo, spaceGroupNumber int, ops []symmetry.SymmetryOp) error {
	a.manager.mu.Lock()
	defer a.manager.mu.Unlock()

	f, err := os.Create(filepath.Join(a.Dir, "structure.cif"))
	if err != nil {
		return errors.Wrap(err, "report: creating CIF file")
	}
	defer f.Close()
	return cif.Write(f, fractional, speciesOf, sites, spaceGroupNumber, ops)
}

// WriteSummary writes summary.json into the attempt directory.
func (a *Attempt) WriteSummary(s Summary) error {
	a.manager.mu.Lock()
	defer a.manager.mu.Unlock()

	f, err := os.Create(filepath.Join(a.Dir, "summary.json"))
	if err != nil {
		return errors.Wrap(err, "report: creating summary file")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Close releases the attempt's trajectory file handle. The handle is
// scoped to the attempt; nothing else in the report tree stays open
// between writes.
func (a *Attempt) Close() error {
	return a.trajFile.Close()
}

// Render writes a tablewriter summary of a completed batch to w: one
// row per attempt (including its space-group number), then a line
// after the table with the batch's success count and the mean and
// standard deviation of total_optimizing across every successful
// attempt (gonum/stat).
func Render(w io.Writer, summaries []Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "UUID", "Succeeded", "Total Steps", "Space Group", "Elapsed (s)"})

	var successfulSteps []float64
	successes := 0
	for _, s := range summaries {
		table.Append([]string{
			fmt.Sprintf("%d", s.Rank),
			s.UUID,
			fmt.Sprintf("%t", s.Succeeded),
			fmt.Sprintf("%d", s.TotalOptimizing),
			fmt.Sprintf("%d", s.SpaceGroupNumber),
			fmt.Sprintf("%.2f", s.Elapsed),
		})
		if s.Succeeded {
			successes++
			successfulSteps = append(successfulSteps, float64(s.TotalOptimizing))
		}
	}
	table.Render()

	if len(successfulSteps) == 0 {
		fmt.Fprintf(w, "\n%d/%d attempts succeeded; no convergence statistics available.\n", successes, len(summaries))
		return
	}
	mean := stat.Mean(successfulSteps, nil)
	stddev := stat.StdDev(successfulSteps, nil)
	fmt.Fprintf(w, "\n%d/%d attempts succeeded; total_optimizing mean=%.1f stddev=%.1f\n", successes, len(summaries), mean, stddev)
}
