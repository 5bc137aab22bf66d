package symmetry

import "errors"

// ErrSymmetryOracleFailure is returned when SymmetryOperations fails to
// converge within MaxSymmetryRetries precision-relaxation attempts.
var ErrSymmetryOracleFailure = errors.New("symmetry: oracle did not converge within retry budget")

// ErrOracleDegenerate is returned by an Oracle implementation when no
// non-degenerate basis could be recovered from a reduction attempt.
var ErrOracleDegenerate = errors.New("symmetry: reduction produced a degenerate basis")
