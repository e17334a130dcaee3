package solver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"timetabler/internal/domain"
	"timetabler/internal/lp"
	"timetabler/internal/store"
)

// ProduceTimetableSolutions is the end-to-end solve for one school: it wipes
// previous solver assignments, loads the school, formulates and solves the
// problem, and persists the outcome. The returned messages are human readable
// and explain why no (or only a partial) timetable was produced; they are
// empty on a clean solve. The error is non-nil only for store or backend
// failures.
func ProduceTimetableSolutions(
	ctx context.Context,
	st store.Store,
	backend lp.Solver,
	logger *zap.Logger,
	schoolID int,
	spec domain.SolutionSpecification,
) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := spec.Validate(); err != nil {
		return []string{err.Error()}, nil
	}

	if err := st.ClearSolverDefinedSlots(ctx, schoolID); err != nil {
		return nil, fmt.Errorf("clear previous solution: %w", err)
	}

	inputs, err := LoadInputs(ctx, st, schoolID, spec)
	if err != nil {
		var insufficient *InsufficientDataError
		if errors.As(err, &insufficient) {
			logger.Warn("school data insufficient for solving",
				zap.Int("school_id", schoolID),
				zap.String("reason", insufficient.Error()),
			)
			return []string{insufficient.Error()}, nil
		}
		return nil, err
	}

	timetableSolver := NewTimetableSolver(inputs, backend, logger)
	if err := timetableSolver.Solve(ctx); err != nil {
		return nil, err
	}
	if timetableSolver.State() == StateInfeasible {
		return []string{"no timetable satisfies all requirements, try relaxing the solution specification or freeing up resources"}, nil
	}

	return NewOutcomeWriter(st, logger).Write(ctx, timetableSolver)
}
