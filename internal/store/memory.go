package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"timetabler/internal/domain"
)

// Snapshot is the full dataset of one school, as loaded from a file or fixture.
type Snapshot struct {
	SchoolID   int
	Lessons    []domain.Lesson
	Slots      []domain.TimetableSlot
	Breaks     []domain.Break
	Pupils     []domain.Pupil
	Teachers   []domain.Teacher
	Classrooms []domain.Classroom
	YearGroups []domain.YearGroup
}

// MemoryStore serves a Snapshot and records solver outcomes in memory. Used
// by the CLI (snapshot files) and throughout the tests.
type MemoryStore struct {
	mu          sync.RWMutex
	snapshot    Snapshot
	solverSlots map[string][]int
}

func NewMemoryStore(snapshot Snapshot) *MemoryStore {
	return &MemoryStore{
		snapshot:    snapshot,
		solverSlots: make(map[string][]int),
	}
}

func (s *MemoryStore) checkSchool(schoolID int) error {
	if schoolID != s.snapshot.SchoolID {
		return fmt.Errorf("unknown school %d", schoolID)
	}
	return nil
}

func (s *MemoryStore) Lessons(_ context.Context, schoolID int) ([]domain.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkSchool(schoolID); err != nil {
		return nil, err
	}
	return append([]domain.Lesson(nil), s.snapshot.Lessons...), nil
}

func (s *MemoryStore) TimetableSlots(_ context.Context, schoolID int) ([]domain.TimetableSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkSchool(schoolID); err != nil {
		return nil, err
	}
	return append([]domain.TimetableSlot(nil), s.snapshot.Slots...), nil
}

func (s *MemoryStore) Breaks(_ context.Context, schoolID int) ([]domain.Break, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkSchool(schoolID); err != nil {
		return nil, err
	}
	return append([]domain.Break(nil), s.snapshot.Breaks...), nil
}

func (s *MemoryStore) Pupils(_ context.Context, schoolID int) ([]domain.Pupil, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkSchool(schoolID); err != nil {
		return nil, err
	}
	return append([]domain.Pupil(nil), s.snapshot.Pupils...), nil
}

func (s *MemoryStore) Teachers(_ context.Context, schoolID int) ([]domain.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkSchool(schoolID); err != nil {
		return nil, err
	}
	return append([]domain.Teacher(nil), s.snapshot.Teachers...), nil
}

func (s *MemoryStore) Classrooms(_ context.Context, schoolID int) ([]domain.Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkSchool(schoolID); err != nil {
		return nil, err
	}
	return append([]domain.Classroom(nil), s.snapshot.Classrooms...), nil
}

func (s *MemoryStore) YearGroups(_ context.Context, schoolID int) ([]domain.YearGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkSchool(schoolID); err != nil {
		return nil, err
	}
	return append([]domain.YearGroup(nil), s.snapshot.YearGroups...), nil
}

func (s *MemoryStore) SetSolverDefinedSlots(_ context.Context, schoolID int, lessonID string, slotIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSchool(schoolID); err != nil {
		return err
	}
	if !lo.SomeBy(s.snapshot.Lessons, func(l domain.Lesson) bool { return l.LessonID == lessonID }) {
		return fmt.Errorf("unknown lesson %q", lessonID)
	}
	s.solverSlots[lessonID] = append([]int(nil), slotIDs...)
	return nil
}

func (s *MemoryStore) ClearSolverDefinedSlots(_ context.Context, schoolID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkSchool(schoolID); err != nil {
		return err
	}
	s.solverSlots = make(map[string][]int)
	return nil
}

// SolverDefinedSlots returns the persisted solver slots of one lesson.
func (s *MemoryStore) SolverDefinedSlots(lessonID string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int(nil), s.solverSlots[lessonID]...)
}
