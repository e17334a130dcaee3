package solver

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetabler/internal/domain"
	"timetabler/internal/lp"
	"timetabler/internal/store"
)

// failingBackend simulates an unavailable optimisation backend.
type failingBackend struct{}

func (failingBackend) Solve(context.Context, *lp.Problem) (lp.Solution, error) {
	return lp.Solution{}, fmt.Errorf("binary not found")
}

// unprovenBackend reports a correct solution without the optimality proof.
type unprovenBackend struct{ inner lp.Solver }

func (b unprovenBackend) Solve(ctx context.Context, problem *lp.Problem) (lp.Solution, error) {
	solution, err := b.inner.Solve(ctx, problem)
	if err == nil && solution.Status == lp.StatusOptimal {
		solution.Status = lp.StatusFeasible
	}
	return solution, err
}

func solveSchool(t *testing.T, snapshot store.Snapshot, spec domain.SolutionSpecification) *TimetableSolver {
	t.Helper()
	inputs := loadTestInputs(t, snapshot, spec)
	timetableSolver := NewTimetableSolver(inputs, lp.NewGLPKSolver(), nil)
	require.NoError(t, timetableSolver.Solve(context.Background()))
	return timetableSolver
}

// fullAssignment combines user-defined and solver-assigned slots per lesson.
func fullAssignment(timetableSolver *TimetableSolver) Assignment {
	assignment := make(Assignment)
	for _, lesson := range timetableSolver.Inputs().Lessons {
		slots := append([]int(nil), lesson.UserDefinedSlotIDs...)
		slots = append(slots, timetableSolver.AssignedSlotIDs(lesson.LessonID)...)
		assignment[lesson.LessonID] = slots
	}
	return assignment
}

func TestSolveSharedClassroom(t *testing.T) {
	// Arrange: two lessons compete for one classroom over two slots.
	snapshot := store.Snapshot{
		SchoolID:   1,
		YearGroups: []domain.YearGroup{{YearGroupID: 1, Name: "Year 7"}},
		Pupils:     []domain.Pupil{{PupilID: 1, Name: "Ada", YearGroupID: 1}},
		Teachers: []domain.Teacher{
			{TeacherID: 1, Name: "Hilbert"},
			{TeacherID: 2, Name: "Noether"},
		},
		Classrooms: []domain.Classroom{{ClassroomID: 1, Building: "Main", RoomNumber: 1}},
		Slots: []domain.TimetableSlot{
			{SlotID: 1, Day: domain.Monday, StartsAt: domain.NewTimeOfDay(9, 0), EndsAt: domain.NewTimeOfDay(10, 0), YearGroupIDs: []int{1}},
			{SlotID: 2, Day: domain.Monday, StartsAt: domain.NewTimeOfDay(10, 0), EndsAt: domain.NewTimeOfDay(11, 0), YearGroupIDs: []int{1}},
		},
		Lessons: []domain.Lesson{
			{LessonID: "maths", Subject: "Maths", TeacherID: 1, ClassroomID: 1, PupilIDs: []int{1}, TotalRequiredSlots: 1},
			{LessonID: "english", Subject: "English", TeacherID: 2, ClassroomID: 1, PupilIDs: []int{1}, TotalRequiredSlots: 1},
		},
	}

	// Act
	timetableSolver := solveSchool(t, snapshot, domain.DefaultSolutionSpecification())

	// Assert
	assert.Equal(t, StateOptimal, timetableSolver.State())
	maths := timetableSolver.AssignedSlotIDs("maths")
	english := timetableSolver.AssignedSlotIDs("english")
	require.Len(t, maths, 1)
	require.Len(t, english, 1)
	assert.NotEqual(t, maths[0], english[0])
	assert.NoError(t, VerifyAssignment(timetableSolver.Inputs(), fullAssignment(timetableSolver)))
}

func TestSolveDoublesSpreadAcrossDays(t *testing.T) {
	// Arrange: four slots on each of two days; the lesson needs four slots
	// with two doubles, no splitting and no triples. The only shape that
	// works is one double per day.
	slot := func(id int, day domain.Day, hour int) domain.TimetableSlot {
		return domain.TimetableSlot{
			SlotID:       id,
			Day:          day,
			StartsAt:     domain.NewTimeOfDay(hour, 0),
			EndsAt:       domain.NewTimeOfDay(hour+1, 0),
			YearGroupIDs: []int{1},
		}
	}
	snapshot := store.Snapshot{
		SchoolID:   1,
		YearGroups: []domain.YearGroup{{YearGroupID: 1, Name: "Year 7"}},
		Pupils:     []domain.Pupil{{PupilID: 1, Name: "Ada", YearGroupID: 1}},
		Teachers:   []domain.Teacher{{TeacherID: 1, Name: "Hilbert"}},
		Slots: []domain.TimetableSlot{
			slot(1, domain.Monday, 9), slot(2, domain.Monday, 10), slot(3, domain.Monday, 11), slot(4, domain.Monday, 12),
			slot(5, domain.Tuesday, 9), slot(6, domain.Tuesday, 10), slot(7, domain.Tuesday, 11), slot(8, domain.Tuesday, 12),
		},
		Lessons: []domain.Lesson{
			{
				LessonID:                   "science",
				Subject:                    "Science",
				TeacherID:                  1,
				PupilIDs:                   []int{1},
				TotalRequiredSlots:         4,
				TotalRequiredDoublePeriods: 2,
			},
		},
	}
	spec := domain.DefaultSolutionSpecification()
	spec.AllowSplitLessonsWithinEachDay = false
	spec.AllowTriplePeriodsAndAbove = false

	// Act
	timetableSolver := solveSchool(t, snapshot, spec)

	// Assert
	require.Equal(t, StateOptimal, timetableSolver.State())
	assigned := timetableSolver.AssignedSlotIDs("science")
	require.Len(t, assigned, 4)
	assert.NoError(t, VerifyAssignment(timetableSolver.Inputs(), fullAssignment(timetableSolver)))

	perDay := map[domain.Day][]int{}
	for _, slotID := range assigned {
		day := timetableSolver.Inputs().Slot(slotID).Day
		perDay[day] = append(perDay[day], slotID)
	}
	require.Len(t, perDay, 2)
	for day, daySlots := range perDay {
		require.Len(t, daySlots, 2, "expected a single double on %s", day)
		assert.True(t, timetableSolver.Inputs().Slot(daySlots[0]).IsConsecutiveWith(timetableSolver.Inputs().Slot(daySlots[1])))
	}
}

func TestSolveDoublesAroundUserFixedSlot(t *testing.T) {
	// Arrange: four Monday slots with the first user-defined, plus two Tuesday
	// slots. Four slots with two doubles, no splitting and no triples, force
	// the fixed slot to be extended into one double and Tuesday to hold the
	// other.
	slot := func(id int, day domain.Day, hour int) domain.TimetableSlot {
		return domain.TimetableSlot{
			SlotID:       id,
			Day:          day,
			StartsAt:     domain.NewTimeOfDay(hour, 0),
			EndsAt:       domain.NewTimeOfDay(hour+1, 0),
			YearGroupIDs: []int{1},
		}
	}
	snapshot := store.Snapshot{
		SchoolID:   1,
		YearGroups: []domain.YearGroup{{YearGroupID: 1, Name: "Year 7"}},
		Pupils:     []domain.Pupil{{PupilID: 1, Name: "Ada", YearGroupID: 1}},
		Teachers:   []domain.Teacher{{TeacherID: 1, Name: "Hilbert"}},
		Slots: []domain.TimetableSlot{
			slot(1, domain.Monday, 9), slot(2, domain.Monday, 10), slot(3, domain.Monday, 11), slot(4, domain.Monday, 12),
			slot(5, domain.Tuesday, 9), slot(6, domain.Tuesday, 10),
		},
		Lessons: []domain.Lesson{
			{
				LessonID:                   "history",
				Subject:                    "History",
				TeacherID:                  1,
				PupilIDs:                   []int{1},
				TotalRequiredSlots:         4,
				TotalRequiredDoublePeriods: 2,
				UserDefinedSlotIDs:         []int{1},
			},
		},
	}
	spec := domain.DefaultSolutionSpecification()
	spec.AllowSplitLessonsWithinEachDay = false
	spec.AllowTriplePeriodsAndAbove = false

	// Act
	timetableSolver := solveSchool(t, snapshot, spec)

	// Assert: slot 2 extends the fixed slot without forming a triple, and the
	// second double fills Tuesday.
	require.Equal(t, StateOptimal, timetableSolver.State())
	assert.Equal(t, []int{2, 5, 6}, timetableSolver.AssignedSlotIDs("history"))
	assert.NoError(t, VerifyAssignment(timetableSolver.Inputs(), fullAssignment(timetableSolver)))
}

func TestSolveMorningPreferenceLeavesMorningFree(t *testing.T) {
	// Arrange: one lesson, one morning slot and one afternoon slot. With a
	// morning free period preference the lesson must land in the afternoon.
	snapshot := store.Snapshot{
		SchoolID:   1,
		YearGroups: []domain.YearGroup{{YearGroupID: 1, Name: "Year 7"}},
		Pupils:     []domain.Pupil{{PupilID: 1, Name: "Ada", YearGroupID: 1}},
		Teachers:   []domain.Teacher{{TeacherID: 1, Name: "Hilbert"}},
		Slots: []domain.TimetableSlot{
			{SlotID: 1, Day: domain.Monday, StartsAt: domain.NewTimeOfDay(9, 0), EndsAt: domain.NewTimeOfDay(10, 0), YearGroupIDs: []int{1}},
			{SlotID: 2, Day: domain.Monday, StartsAt: domain.NewTimeOfDay(13, 0), EndsAt: domain.NewTimeOfDay(14, 0), YearGroupIDs: []int{1}},
		},
		Lessons: []domain.Lesson{
			{LessonID: "maths", Subject: "Maths", TeacherID: 1, PupilIDs: []int{1}, TotalRequiredSlots: 1},
		},
	}
	spec := domain.DefaultSolutionSpecification()
	spec.OptimalFreePeriodTimeOfDay = domain.MorningFreePeriods()

	// Act
	timetableSolver := solveSchool(t, snapshot, spec)

	// Assert
	require.Equal(t, StateOptimal, timetableSolver.State())
	assert.Equal(t, []int{2}, timetableSolver.AssignedSlotIDs("maths"))
}

func TestSolveInfeasibleSchool(t *testing.T) {
	// Arrange: one slot, two lessons of the same teacher.
	snapshot := store.Snapshot{
		SchoolID:   1,
		YearGroups: []domain.YearGroup{{YearGroupID: 1, Name: "Year 7"}},
		Pupils:     []domain.Pupil{{PupilID: 1, Name: "Ada", YearGroupID: 1}},
		Teachers:   []domain.Teacher{{TeacherID: 1, Name: "Hilbert"}},
		Slots: []domain.TimetableSlot{
			{SlotID: 1, Day: domain.Monday, StartsAt: domain.NewTimeOfDay(9, 0), EndsAt: domain.NewTimeOfDay(10, 0), YearGroupIDs: []int{1}},
		},
		Lessons: []domain.Lesson{
			{LessonID: "maths", Subject: "Maths", TeacherID: 1, PupilIDs: []int{1}, TotalRequiredSlots: 1},
			{LessonID: "english", Subject: "English", TeacherID: 1, PupilIDs: []int{1}, TotalRequiredSlots: 1},
		},
	}

	// Act
	timetableSolver := solveSchool(t, snapshot, domain.DefaultSolutionSpecification())

	// Assert
	assert.Equal(t, StateInfeasible, timetableSolver.State())
	assert.Nil(t, timetableSolver.AssignedSlotIDs("maths"))
}

func TestSolveBackendFailure(t *testing.T) {
	// Arrange
	inputs := loadTestInputs(t, testSchool(), domain.DefaultSolutionSpecification())
	timetableSolver := NewTimetableSolver(inputs, failingBackend{}, nil)

	// Act
	err := timetableSolver.Solve(context.Background())

	// Assert
	require.Error(t, err)
	var backendErr *SolverBackendError
	assert.ErrorAs(t, err, &backendErr)
	assert.Equal(t, StateError, timetableSolver.State())
}

func TestSolveUnprovenSolutionIsNotReportedOptimal(t *testing.T) {
	// Arrange
	inputs := loadTestInputs(t, testSchool(), domain.DefaultSolutionSpecification())
	timetableSolver := NewTimetableSolver(inputs, unprovenBackend{inner: lp.NewGLPKSolver()}, nil)

	// Act
	require.NoError(t, timetableSolver.Solve(context.Background()))

	// Assert: the timetable is usable and persistable, but its state records
	// that optimality was never proved.
	assert.Equal(t, StateFeasible, timetableSolver.State())
	assert.NotEmpty(t, timetableSolver.AssignedSlotIDs("maths_year_7"))
	assert.NoError(t, VerifyAssignment(timetableSolver.Inputs(), fullAssignment(timetableSolver)))

	memoryStore := store.NewMemoryStore(testSchool())
	_, err := NewOutcomeWriter(memoryStore, nil).Write(context.Background(), timetableSolver)
	assert.NoError(t, err)
}

func TestSolveRespectsUserDefinedDoubles(t *testing.T) {
	// Arrange: french's fixed slot 2 plus one more Monday slot must form the
	// required double, since splitting is off and the double count is one.
	spec := domain.DefaultSolutionSpecification()
	spec.AllowSplitLessonsWithinEachDay = false
	spec.AllowTriplePeriodsAndAbove = false

	// Act
	timetableSolver := solveSchool(t, testSchool(), spec)

	// Assert
	require.Equal(t, StateOptimal, timetableSolver.State())
	assert.NoError(t, VerifyAssignment(timetableSolver.Inputs(), fullAssignment(timetableSolver)))

	french := timetableSolver.AssignedSlotIDs("french_year_8")
	require.Len(t, french, 2)
	// Exactly one of the assigned slots extends the fixed slot 2.
	adjacent := 0
	for _, slotID := range french {
		if slotID == 1 || slotID == 3 {
			adjacent++
		}
	}
	assert.GreaterOrEqual(t, adjacent, 1)
}
