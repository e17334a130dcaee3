package lp

import "context"

// Status of a finished solve.
type Status int

const (
	// StatusOptimal means the backend found an optimal integer solution.
	StatusOptimal Status = iota
	// StatusFeasible means the backend found an integer solution but stopped
	// before proving it optimal.
	StatusFeasible
	// StatusInfeasible means the backend proved no feasible assignment exists.
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	default:
		return "infeasible"
	}
}

// Solution holds the outcome of one solve. Values is indexed by Var and is
// only populated when the backend produced a solution.
type Solution struct {
	Status    Status
	Values    []bool
	Objective float64
}

// Solver is a MIP backend. Solve blocks until the backend finishes; an
// infeasible problem is a valid Solution, not an error. Errors are reserved
// for backend failures (missing binary, timeout, numerical failure).
type Solver interface {
	Solve(ctx context.Context, problem *Problem) (Solution, error)
}
