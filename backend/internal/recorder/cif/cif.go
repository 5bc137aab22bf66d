// Package cif implements the CIF writer: a single text file recording
// the chemical formula, the symmetry operation table, and the
// atom-site loop, in that fixed order. Downstream tooling parses the
// file positionally, so the record order and column layout are part of
// the contract. The three blocks are streamed directly to the writer
// rather than building an intermediate document model.
package cif

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/crystal/species"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/linalg"
	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/symmetry"
)

// ErrMismatchedAtomCount is returned when fractional, speciesOf, and
// sites disagree in length: the writer has no well-defined atom-site
// loop to emit.
var ErrMismatchedAtomCount = errors.New("cif: fractional, species, and site-info slices must have equal length")

// Write renders one structure to w: formula lines, the
// symmetry-operations loop, then the atom-site loop. Occupancy is
// always written as 1.0; partial occupancy is not modeled anywhere in
// this engine.
func Write(w io.Writer, fractional []linalg.Vec3, speciesOf []species.IonicSpecies, sites []symmetry.SiteInfo, spaceGroupNumber int, ops []symmetry.SymmetryOp) error {
	if len(fractional) != len(speciesOf) || len(fractional) != len(sites) {
		return errors.WithStack(ErrMismatchedAtomCount)
	}

	structural, sum := formulas(speciesOf)
	if _, err := fmt.Fprintf(w, "_chemical_formula_structural  '%s'\n", structural); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "_chemical_formula_sum         '%s'\n", sum); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "_symmetry_Int_Tables_number   %d\n", spaceGroupNumber); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "loop_ _symmetry_equiv_pos_site_id _symmetry_equiv_pos_as_xyz"); err != nil {
		return err
	}
	for i, op := range ops {
		if _, err := fmt.Fprintf(w, " %d    %s\n", i+1, xyzString(op)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "loop_"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, " _atom_site_label _atom_site_type_symbol _atom_site_symmetry_multiplicity"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, " _atom_site_Wyckoff_symbol _atom_site_fract_x _atom_site_fract_y _atom_site_fract_z"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, " _atom_site_occupancy"); err != nil {
		return err
	}

	multiplicity := wyckoffMultiplicity(sites)
	labelCount := make(map[string]int)
	for i, f := range fractional {
		sym := speciesOf[i].ElementSymbol()
		labelCount[sym]++
		label := fmt.Sprintf("%s%d", sym, labelCount[sym])
		_, err := fmt.Fprintf(w, " %s %s %d %s %.6f %.6f %.6f 1.0\n",
			label, sym, multiplicity[sites[i].Wyckoff], sites[i].Wyckoff, f.X, f.Y, f.Z)
		if err != nil {
			return err
		}
	}
	return nil
}

func wyckoffMultiplicity(sites []symmetry.SiteInfo) map[string]int {
	counts := make(map[string]int)
	for _, s := range sites {
		counts[s.Wyckoff]++
	}
	return counts
}

// xyzString renders a symmetry operation as the conventional
// "x,y,z"-style triplet: each output coordinate is a signed linear
// combination of x,y,z (from the integer rotation) plus a fractional
// translation offset, rendered only when non-zero.
func xyzString(op symmetry.SymmetryOp) string {
	row := func(r int) string {
		var coeffs [3]int
		var names = [3]string{"x", "y", "z"}
		switch r {
		case 0:
			coeffs = [3]int{int(round(op.Rotation.Col0.X)), int(round(op.Rotation.Col1.X)), int(round(op.Rotation.Col2.X))}
		case 1:
			coeffs = [3]int{int(round(op.Rotation.Col0.Y)), int(round(op.Rotation.Col1.Y)), int(round(op.Rotation.Col2.Y))}
		default:
			coeffs = [3]int{int(round(op.Rotation.Col0.Z)), int(round(op.Rotation.Col1.Z)), int(round(op.Rotation.Col2.Z))}
		}
		var b strings.Builder
		for i, c := range coeffs {
			switch c {
			case 0:
				continue
			case 1:
				if b.Len() > 0 {
					b.WriteByte('+')
				}
				b.WriteString(names[i])
			case -1:
				b.WriteByte('-')
				b.WriteString(names[i])
			default:
				if c > 0 && b.Len() > 0 {
					b.WriteByte('+')
				}
				fmt.Fprintf(&b, "%d%s", c, names[i])
			}
		}
		t := translationComponent(op.Translation, r)
		if t != 0 {
			if t > 0 && b.Len() > 0 {
				b.WriteByte('+')
			}
			fmt.Fprintf(&b, "%g", t)
		}
		if b.Len() == 0 {
			return "0"
		}
		return b.String()
	}
	return row(0) + "," + row(1) + "," + row(2)
}

func translationComponent(t linalg.Vec3, r int) float64 {
	switch r {
	case 0:
		return wrapToUnit(t.X)
	case 1:
		return wrapToUnit(t.Y)
	default:
		return wrapToUnit(t.Z)
	}
}

func wrapToUnit(x float64) float64 {
	f := x - float64(int(x))
	if f < 0 {
		f += 1
	}
	if f > 0.999999 || f < 1e-6 {
		return 0
	}
	return f
}

func round(x float64) float64 {
	if x >= 0 {
		return float64(int(x + 0.5))
	}
	return -float64(int(-x + 0.5))
}

// formulas returns the reduced and raw chemical formula strings, each
// element ordered alphabetically by symbol with its count appended
// when greater than one. The reduced formula divides every count by
// their GCD; the raw (sum) formula uses the true per-cell counts.
func formulas(speciesOf []species.IonicSpecies) (structural, sum string) {
	counts := make(map[string]int)
	for _, sp := range speciesOf {
		counts[sp.ElementSymbol()]++
	}
	symbols := make([]string, 0, len(counts))
	for sym := range counts {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	sum = formatFormula(symbols, counts)

	g := 0
	for _, sym := range symbols {
		g = gcd(g, counts[sym])
	}
	if g > 1 {
		reduced := make(map[string]int, len(counts))
		for _, sym := range symbols {
			reduced[sym] = counts[sym] / g
		}
		structural = formatFormula(symbols, reduced)
	} else {
		structural = sum
	}
	return structural, sum
}

func formatFormula(symbols []string, counts map[string]int) string {
	var b strings.Builder
	for i, sym := range symbols {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sym)
		if n := counts[sym]; n > 1 {
			fmt.Fprintf(&b, "%d", n)
		}
	}
	return b.String()
}

func gcd(a, b int) int {
	if a == 0 {
		return b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
