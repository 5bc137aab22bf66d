package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/symmetry"
)

func TestNewAttemptLaysOutRankAndUUIDDirectories(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	a, err := m.NewAttempt(3, 50)
	if err != nil {
		t.Fatalf("NewAttempt: %v", err)
	}
	defer a.Close()

	want := filepath.Join(m.Root, "3", a.ID.String())
	if a.Dir != want {
		t.Errorf("expected attempt dir %q, got %q", want, a.Dir)
	}
	if _, err := os.Stat(filepath.Join(a.Dir, "trajectory.dat")); err != nil {
		t.Errorf("expected trajectory.dat to exist: %v", err)
	}
}

func TestWriteCIFAndSummaryProduceFiles(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	a, err := m.NewAttempt(0, 50)
	if err != nil {
		t.Fatalf("NewAttempt: %v", err)
	}
	defer a.Close()

	err = a.WriteCIF(
		[]linalg.Vec3{linalg.NewVec3(0, 0, 0)},
		[]species.IonicSpecies{{Z: 6}},
		[]symmetry.SiteInfo{{Wyckoff: "a"}},
		1, nil)
	if err != nil {
		t.Fatalf("WriteCIF: %v", err)
	}
	if _, err := os.Stat(filepath.Join(a.Dir, "structure.cif")); err != nil {
		t.Errorf("expected structure.cif to exist: %v", err)
	}

	if err := a.WriteSummary(Summary{UUID: a.ID.String(), Rank: 0, Succeeded: true, TotalOptimizing: 120}); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(a.Dir, "summary.json"))
	if err != nil {
		t.Fatalf("reading summary.json: %v", err)
	}
	if !strings.Contains(string(data), `"total_optimizing": 120`) {
		t.Errorf("expected summary.json to contain total_optimizing, got:\n%s", data)
	}
}

func TestRenderReportsSuccessStatistics(t *testing.T) {
	var b strings.Builder
	Render(&b, []Summary{
		{Rank: 0, UUID: "a", Succeeded: true, TotalOptimizing: 100},
		{Rank: 1, UUID: "b", Succeeded: true, TotalOptimizing: 200},
		{Rank: 2, UUID: "c", Succeeded: false, TotalOptimizing: 400},
	})
	out := b.String()
	if !strings.Contains(out, "2/3 attempts succeeded") {
		t.Errorf("expected success count in output, got:\n%s", out)
	}
	if !strings.Contains(out, "mean=150.0") {
		t.Errorf("expected mean=150.0 in output, got:\n%s", out)
	}
}
