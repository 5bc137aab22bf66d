// Package trajectory implements the OpenMX-style MD trajectory frame
// writer: one frame per successful record call, each holding an atom
// count header, an elapsed-count line, the 3x3 basis, and one
// Cartesian-plus-padding line per atom. Frames are streamed directly
// rather than buffering a whole run in memory.
package trajectory

import (
	"fmt"
	"io"
	"sync"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/objective"
)

// Writer implements crystalopt.Recorder and driver.ForceRecorder,
// appending one frame per call to w. Interval is the record cadence in
// force steps; a value <= 0 disables the periodic Record path
// entirely (ForceRecord always writes).
//
// Writer owns no file handle itself — the caller opens/closes w — but
// serializes every write with mu. A Writer is shared within one
// attempt only, never across attempts: each design attempt gets its
// own file.
type Writer struct {
	mu       sync.Mutex
	w        io.Writer
	Interval int

	lastStep int
}

// New wraps w, ready to accept Record/ForceRecord calls.
func New(w io.Writer, interval int) *Writer {
	return &Writer{w: w, Interval: interval}
}

// Record writes a frame iff step > the last recorded step and step is
// a multiple of Interval. Write errors
// are swallowed (recorders have no return path in the Recorder
// interface); a real failure surfaces the next time the caller closes
// and inspects the underlying file.
func (rec *Writer) Record(step int, s *objective.Structure) {
	if rec.Interval <= 0 || step <= rec.lastStep || step%rec.Interval != 0 {
		return
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if step <= rec.lastStep {
		return
	}
	_ = writeFrame(rec.w, step, s)
	rec.lastStep = step
}

// ForceRecord writes a frame unconditionally, regardless of Interval
// or the last recorded step. The frame is labelled with the last step
// Record wrote (0 before any), and lastStep is left unchanged.
func (rec *Writer) ForceRecord(s *objective.Structure) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	_ = writeFrame(rec.w, rec.lastStep, s)
}

func writeFrame(w io.Writer, step int, s *objective.Structure) error {
	if _, err := fmt.Fprintf(w, "%d\n", len(s.Atoms)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, " elapsed_count=%d ()\n", step); err != nil {
		return err
	}

	basisRow := func(row int) (float64, float64, float64) {
		return s.Basis.At(row, 0), s.Basis.At(row, 1), s.Basis.At(row, 2)
	}
	for row := 0; row < 3; row++ {
		x, y, z := basisRow(row)
		if _, err := fmt.Fprintf(w, " %.10f  %.10f  %.10f\n", x, y, z); err != nil {
			return err
		}
	}

	// Three zero triplets (unused velocity/force/placeholder vectors the
	// original MD format reserves) plus a trailing zero quadruple.
	const zeroTriplet = "  0.0  0.0  0.0"
	for _, a := range s.Atoms {
		_, err := fmt.Fprintf(w, "%-3s  %.10f  %.10f  %.10f%s%s%s  0.0  0.0  0.0  0.0\n",
			a.Species.ElementSymbol(), a.Position.X, a.Position.Y, a.Position.Z,
			zeroTriplet, zeroTriplet, zeroTriplet)
		if err != nil {
			return err
		}
	}
	return nil
}
