package solver

import "fmt"

// InsufficientDataError is returned before any variables are built, when the
// school lacks the reference data needed to form a non-trivial problem.
// Recoverable: the caller should prompt the user to add the missing data.
type InsufficientDataError struct {
	Category string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("the school has no %s, so no timetable can be solved for it", e.Category)
}

// SolverBackendError wraps a MIP backend failure (missing binary, timeout,
// numerical failure). Fatal: never retried by this package, always surfaced.
type SolverBackendError struct {
	Err error
}

func (e *SolverBackendError) Error() string {
	return fmt.Sprintf("solver backend failed: %v", e.Err)
}

func (e *SolverBackendError) Unwrap() error {
	return e.Err
}
