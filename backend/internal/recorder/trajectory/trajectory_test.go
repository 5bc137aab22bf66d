package trajectory

import (
	"strings"
	"testing"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/constraints"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/objective"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
)

func sampleStructure() *objective.Structure {
	s, err := objective.New(
		linalg.Identity3(),
		[]linalg.Vec3{linalg.NewVec3(0, 0, 0)},
		[]species.IonicSpecies{{Z: 6}},
		[]species.AtomRadii{{}},
		[]species.CoordinationConstraints{{}},
		constraints.NewManager(),
	)
	if err != nil {
		panic(err)
	}
	return s
}

func TestRecordHonorsIntervalAndMonotonicity(t *testing.T) {
	var b strings.Builder
	rec := New(&b, 10)
	s := sampleStructure()

	rec.Record(5, s)
	if b.Len() != 0 {
		t.Fatalf("expected no frame written at step 5 (not a multiple of 10), got:\n%s", b.String())
	}
	rec.Record(10, s)
	if !strings.Contains(b.String(), "elapsed_count=10") {
		t.Fatalf("expected a frame at step 10, got:\n%s", b.String())
	}
	before := b.String()
	rec.Record(10, s)
	if b.String() != before {
		t.Fatalf("expected no duplicate frame for a repeated step count")
	}
}

func TestForceRecordAlwaysWrites(t *testing.T) {
	var b strings.Builder
	rec := New(&b, 1000)
	s := sampleStructure()
	rec.ForceRecord(s)
	if !strings.Contains(b.String(), "1\n") {
		t.Fatalf("expected atom-count header line, got:\n%s", b.String())
	}
	if !strings.Contains(b.String(), "C  ") {
		t.Fatalf("expected element symbol C, got:\n%s", b.String())
	}
}
