package design

import "github.com/pkg/errors"

// ErrInvalidCell is returned whenever a basis (supplied directly, or
// produced by a perturbation or an oracle reduction) has non-positive
// volume or an ill-conditioned inverse. Fatal within a driver attempt.
var ErrInvalidCell = errors.New("design: cell volume must be positive")

// ErrInfeasibleReduction is returned when a Delaunay reduction completes
// but the resulting cell still has non-positive volume, or fails the
// oracle's own feasibility test. Fatal.
var ErrInfeasibleReduction = errors.New("design: reduced cell is infeasible")
