package solver

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"timetabler/internal/lp"
)

// State tracks a solver's progress through its lifecycle.
type State int

const (
	StateBuilt State = iota
	StateSolving
	StateOptimal
	StateFeasible
	StateInfeasible
	StateError
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSolving:
		return "solving"
	case StateOptimal:
		return "optimal"
	case StateFeasible:
		return "feasible"
	case StateInfeasible:
		return "infeasible"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// TimetableSolver formulates one school's timetabling problem as a binary
// program and drives a backend through it.
type TimetableSolver struct {
	inputs  *Inputs
	backend lp.Solver
	logger  *zap.Logger

	problem   *lp.Problem
	variables *Variables
	state     State
	solution  lp.Solution
}

func NewTimetableSolver(inputs *Inputs, backend lp.Solver, logger *zap.Logger) *TimetableSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	solver := &TimetableSolver{
		inputs:  inputs,
		backend: backend,
		logger:  logger,
	}
	solver.build()
	return solver
}

func (s *TimetableSolver) build() {
	s.problem = lp.NewProblem(fmt.Sprintf("timetable_school_%d", s.inputs.SchoolID))
	s.variables = BuildVariables(s.inputs, s.problem)
	BuildConstraints(s.inputs, s.variables, s.problem)
	if objective := BuildObjective(s.inputs, s.variables); objective != nil {
		s.problem.SetObjective(objective)
		s.problem.SetMaximize()
	}
	s.state = StateBuilt
	s.logger.Info("formulated timetabling problem",
		zap.Int("school_id", s.inputs.SchoolID),
		zap.Int("lessons", len(s.inputs.Lessons)),
		zap.Int("variables", s.problem.NumVars()),
		zap.Int("constraints", s.problem.NumConstraints()),
	)
}

// Solve runs the backend. Infeasibility is a terminal state, not an error;
// the returned error is non-nil only when the backend itself fails.
func (s *TimetableSolver) Solve(ctx context.Context) error {
	s.state = StateSolving
	solution, err := s.backend.Solve(ctx, s.problem)
	if err != nil {
		s.state = StateError
		return &SolverBackendError{Err: err}
	}

	switch solution.Status {
	case lp.StatusOptimal:
		s.state = StateOptimal
		s.solution = solution
		s.logger.Info("solved timetabling problem",
			zap.Int("school_id", s.inputs.SchoolID),
			zap.Float64("objective", solution.Objective),
		)
	case lp.StatusFeasible:
		s.state = StateFeasible
		s.solution = solution
		s.logger.Warn("solver stopped with a feasible timetable before proving it optimal",
			zap.Int("school_id", s.inputs.SchoolID),
			zap.Float64("objective", solution.Objective),
		)
	case lp.StatusInfeasible:
		s.state = StateInfeasible
		s.logger.Warn("timetabling problem is infeasible", zap.Int("school_id", s.inputs.SchoolID))
	}
	return nil
}

func (s *TimetableSolver) State() State { return s.state }

func (s *TimetableSolver) Problem() *lp.Problem { return s.problem }

func (s *TimetableSolver) Variables() *Variables { return s.variables }

func (s *TimetableSolver) Inputs() *Inputs { return s.inputs }

// AssignedSlotIDs returns the slots the solution assigns to a lesson, sorted
// ascending. Only meaningful once the solver holds a solution.
func (s *TimetableSolver) AssignedSlotIDs(lessonID string) []int {
	if s.state != StateOptimal && s.state != StateFeasible {
		return nil
	}
	var slotIDs []int
	for key, variable := range s.variables.Decision {
		if key.LessonID == lessonID && s.solution.Values[variable] {
			slotIDs = append(slotIDs, key.SlotID)
		}
	}
	slices.Sort(slotIDs)
	return slotIDs
}
