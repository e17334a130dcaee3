// Package store is the persistence boundary of the solver. The solver core
// only ever sees these interfaces; the web application owns the schema.
package store

import (
	"context"

	"timetabler/internal/domain"
)

// SchoolReader loads one school's reference data. Implementations return
// fully materialised collections; the solver never re-queries mid-solve.
type SchoolReader interface {
	// Lessons returns every lesson of the school, including lessons whose
	// slots are all user-defined (their commitments still block resources).
	Lessons(ctx context.Context, schoolID int) ([]domain.Lesson, error)
	TimetableSlots(ctx context.Context, schoolID int) ([]domain.TimetableSlot, error)
	Breaks(ctx context.Context, schoolID int) ([]domain.Break, error)
	Pupils(ctx context.Context, schoolID int) ([]domain.Pupil, error)
	Teachers(ctx context.Context, schoolID int) ([]domain.Teacher, error)
	Classrooms(ctx context.Context, schoolID int) ([]domain.Classroom, error)
	YearGroups(ctx context.Context, schoolID int) ([]domain.YearGroup, error)
}

// SolutionWriter persists solver outcomes.
type SolutionWriter interface {
	// SetSolverDefinedSlots replaces (never appends to) the solver-defined
	// slots of one lesson.
	SetSolverDefinedSlots(ctx context.Context, schoolID int, lessonID string, slotIDs []int) error
	// ClearSolverDefinedSlots removes every solver-defined slot of the school.
	ClearSolverDefinedSlots(ctx context.Context, schoolID int) error
}

// Store combines both sides of the boundary.
type Store interface {
	SchoolReader
	SolutionWriter
}
