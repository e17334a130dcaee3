package solver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"timetabler/internal/store"
)

// OutcomeWriter persists a solution's slot assignments.
type OutcomeWriter struct {
	writer store.SolutionWriter
	logger *zap.Logger
}

func NewOutcomeWriter(writer store.SolutionWriter, logger *zap.Logger) *OutcomeWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutcomeWriter{writer: writer, logger: logger}
}

// Write stores every lesson's assigned slots and reports, per lesson, any
// shortfall between the slots assigned and the slots still required.
func (w *OutcomeWriter) Write(ctx context.Context, solver *TimetableSolver) ([]string, error) {
	if solver.State() != StateOptimal && solver.State() != StateFeasible {
		return nil, fmt.Errorf("cannot write outcome in state %q", solver.State())
	}

	var messages []string
	for _, lesson := range solver.Inputs().Lessons {
		slotIDs := solver.AssignedSlotIDs(lesson.LessonID)
		if shortfall := lesson.SolverSlotsRequired() - len(slotIDs); shortfall > 0 {
			messages = append(messages, fmt.Sprintf(
				"lesson %q could only be assigned %d of the %d additional slots it requires",
				lesson.LessonID, len(slotIDs), lesson.SolverSlotsRequired()))
		}
		if err := w.writer.SetSolverDefinedSlots(ctx, solver.Inputs().SchoolID, lesson.LessonID, slotIDs); err != nil {
			return messages, fmt.Errorf("store slots for lesson %q: %w", lesson.LessonID, err)
		}
		w.logger.Debug("stored lesson assignment",
			zap.String("lesson_id", lesson.LessonID),
			zap.Ints("slot_ids", slotIDs),
		)
	}
	return messages, nil
}
