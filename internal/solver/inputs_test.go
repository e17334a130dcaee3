package solver

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetabler/internal/domain"
	"timetabler/internal/store"
)

// testSchool is a small school exercising every kind of commitment: a fully
// user-defined lesson blocking its resources, a partially fixed lesson, and a
// break applying to one year group and one teacher.
//
// Slots (all shared by both year groups):
//
//	1: Mon 09-10   2: Mon 10-11   3: Mon 11-12
//	4: Tue 09-10   5: Tue 10-11
func testSchool() store.Snapshot {
	slot := func(id int, day domain.Day, hour int) domain.TimetableSlot {
		return domain.TimetableSlot{
			SlotID:       id,
			Day:          day,
			StartsAt:     domain.NewTimeOfDay(hour, 0),
			EndsAt:       domain.NewTimeOfDay(hour+1, 0),
			YearGroupIDs: []int{1, 2},
		}
	}

	return store.Snapshot{
		SchoolID: 1,
		YearGroups: []domain.YearGroup{
			{YearGroupID: 1, Name: "Year 7"},
			{YearGroupID: 2, Name: "Year 8"},
		},
		Pupils: []domain.Pupil{
			{PupilID: 1, Name: "Ada", YearGroupID: 1},
			{PupilID: 2, Name: "Grace", YearGroupID: 1},
			{PupilID: 3, Name: "Alan", YearGroupID: 2},
		},
		Teachers: []domain.Teacher{
			{TeacherID: 1, Name: "Hilbert"},
			{TeacherID: 2, Name: "Noether"},
		},
		Classrooms: []domain.Classroom{
			{ClassroomID: 1, Building: "Main", RoomNumber: 1},
			{ClassroomID: 2, Building: "Main", RoomNumber: 2},
		},
		Slots: []domain.TimetableSlot{
			slot(1, domain.Monday, 9),
			slot(2, domain.Monday, 10),
			slot(3, domain.Monday, 11),
			slot(4, domain.Tuesday, 9),
			slot(5, domain.Tuesday, 10),
		},
		Breaks: []domain.Break{
			{
				BreakID:      1,
				Day:          domain.Tuesday,
				StartsAt:     domain.NewTimeOfDay(9, 0),
				EndsAt:       domain.NewTimeOfDay(10, 0),
				YearGroupIDs: []int{2},
				TeacherIDs:   []int{2},
			},
		},
		Lessons: []domain.Lesson{
			{
				LessonID:           "assembly",
				Subject:            "Assembly",
				TeacherID:          1,
				PupilIDs:           []int{1, 2},
				TotalRequiredSlots: 1,
				UserDefinedSlotIDs: []int{1},
			},
			{
				LessonID:           "maths_year_7",
				Subject:            "Maths",
				TeacherID:          1,
				ClassroomID:        1,
				PupilIDs:           []int{1, 2},
				TotalRequiredSlots: 2,
			},
			{
				LessonID:                   "french_year_8",
				Subject:                    "French",
				TeacherID:                  2,
				ClassroomID:                2,
				PupilIDs:                   []int{3},
				TotalRequiredSlots:         3,
				TotalRequiredDoublePeriods: 1,
				UserDefinedSlotIDs:         []int{2},
			},
		},
	}
}

func loadTestInputs(t *testing.T, snapshot store.Snapshot, spec domain.SolutionSpecification) *Inputs {
	t.Helper()
	inputs, err := LoadInputs(context.Background(), store.NewMemoryStore(snapshot), snapshot.SchoolID, spec)
	require.NoError(t, err)
	return inputs
}

func slotIDs(slots []domain.TimetableSlot) []int {
	return lo.Map(slots, func(s domain.TimetableSlot, _ int) int { return s.SlotID })
}

func TestLoadInputsFiltersSolvedLessons(t *testing.T) {
	// Act
	inputs := loadTestInputs(t, testSchool(), domain.DefaultSolutionSpecification())

	// Assert: assembly is fully user-defined so nothing remains to solve for it.
	lessonIDs := lo.Map(inputs.Lessons, func(l domain.Lesson, _ int) string { return l.LessonID })
	assert.ElementsMatch(t, []string{"maths_year_7", "french_year_8"}, lessonIDs)
}

func TestLoadInputsInsufficientData(t *testing.T) {
	ctx := context.Background()
	spec := domain.DefaultSolutionSpecification()

	t.Run("no pupils", func(t *testing.T) {
		snapshot := testSchool()
		snapshot.Pupils = nil

		_, err := LoadInputs(ctx, store.NewMemoryStore(snapshot), 1, spec)

		var insufficient *InsufficientDataError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "pupils", insufficient.Category)
	})

	t.Run("no teachers", func(t *testing.T) {
		snapshot := testSchool()
		snapshot.Teachers = nil

		_, err := LoadInputs(ctx, store.NewMemoryStore(snapshot), 1, spec)

		var insufficient *InsufficientDataError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "teachers", insufficient.Category)
	})

	t.Run("no slots", func(t *testing.T) {
		snapshot := testSchool()
		snapshot.Slots = nil

		_, err := LoadInputs(ctx, store.NewMemoryStore(snapshot), 1, spec)

		var insufficient *InsufficientDataError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "timetable slots", insufficient.Category)
	})

	t.Run("nothing to solve", func(t *testing.T) {
		snapshot := testSchool()
		snapshot.Lessons = snapshot.Lessons[:1]

		_, err := LoadInputs(ctx, store.NewMemoryStore(snapshot), 1, spec)

		var insufficient *InsufficientDataError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "lessons requiring solving", insufficient.Category)
	})

	t.Run("lesson without pupils", func(t *testing.T) {
		snapshot := testSchool()
		snapshot.Lessons = append(snapshot.Lessons, domain.Lesson{
			LessonID:           "empty",
			Subject:            "Empty",
			TotalRequiredSlots: 1,
		})

		_, err := LoadInputs(ctx, store.NewMemoryStore(snapshot), 1, spec)

		var insufficient *InsufficientDataError
		assert.ErrorAs(t, err, &insufficient)
	})
}

func TestCheckBusy(t *testing.T) {
	// Arrange
	inputs := loadTestInputs(t, testSchool(), domain.DefaultSolutionSpecification())
	monMorning := domain.TimeOfWeek{Day: domain.Monday, StartsAt: domain.NewTimeOfDay(9, 0), EndsAt: domain.NewTimeOfDay(10, 0)}
	tueMorning := domain.TimeOfWeek{Day: domain.Tuesday, StartsAt: domain.NewTimeOfDay(9, 0), EndsAt: domain.NewTimeOfDay(10, 0)}

	// Assert: assembly blocks its pupils and teacher on Monday morning.
	assert.True(t, inputs.CheckBusy(PupilResource, 1, monMorning))
	assert.True(t, inputs.CheckBusy(TeacherResource, 1, monMorning))
	assert.False(t, inputs.CheckBusy(PupilResource, 3, monMorning))

	// The break blocks teacher 2 directly and pupil 3 through year group 2.
	assert.True(t, inputs.CheckBusy(TeacherResource, 2, tueMorning))
	assert.True(t, inputs.CheckBusy(PupilResource, 3, tueMorning))
	assert.True(t, inputs.CheckBusy(YearGroupResource, 2, tueMorning))
	assert.False(t, inputs.CheckBusy(PupilResource, 1, tueMorning))
}

func TestSlotsRelevantTo(t *testing.T) {
	// Arrange
	inputs := loadTestInputs(t, testSchool(), domain.DefaultSolutionSpecification())
	maths, french := inputs.Lessons[0], inputs.Lessons[1]

	// Act and Assert: slot 1 is blocked for maths through assembly.
	assert.ElementsMatch(t, []int{2, 3, 4, 5}, slotIDs(inputs.SlotsRelevantTo(maths)))

	// French's own fixed slot 2 and the Tuesday morning break are blocked.
	assert.ElementsMatch(t, []int{1, 3, 5}, slotIDs(inputs.SlotsRelevantTo(french)))
}

func TestConsecutiveSlotPairsAndTriples(t *testing.T) {
	// Arrange
	inputs := loadTestInputs(t, testSchool(), domain.DefaultSolutionSpecification())

	// Act
	pairs := inputs.ConsecutiveSlotPairs(1)
	triples := inputs.ConsecutiveSlotTriples(1)

	// Assert
	require.Len(t, pairs, 3)
	assert.Equal(t, [2]int{1, 2}, [2]int{pairs[0][0].SlotID, pairs[0][1].SlotID})
	assert.Equal(t, [2]int{2, 3}, [2]int{pairs[1][0].SlotID, pairs[1][1].SlotID})
	assert.Equal(t, [2]int{4, 5}, [2]int{pairs[2][0].SlotID, pairs[2][1].SlotID})

	require.Len(t, triples, 1)
	assert.Equal(t, [3]int{1, 2, 3}, [3]int{triples[0][0].SlotID, triples[0][1].SlotID, triples[0][2].SlotID})
}

func TestUserDefinedDoubleAccounting(t *testing.T) {
	// Arrange: chemistry has a fixed double on Monday (slots 1 and 2).
	snapshot := testSchool()
	snapshot.Lessons = append(snapshot.Lessons, domain.Lesson{
		LessonID:                   "chemistry_year_8",
		Subject:                    "Chemistry",
		TeacherID:                  2,
		PupilIDs:                   []int{3},
		TotalRequiredSlots:         4,
		TotalRequiredDoublePeriods: 2,
		UserDefinedSlotIDs:         []int{1, 2},
	})
	inputs := loadTestInputs(t, snapshot, domain.DefaultSolutionSpecification())
	chemistry, found := lo.Find(inputs.Lessons, func(l domain.Lesson) bool { return l.LessonID == "chemistry_year_8" })
	require.True(t, found)

	// Assert
	assert.Equal(t, 2, inputs.UserSinglesOnDay(chemistry, domain.Monday))
	assert.Equal(t, 1, inputs.UserDoubleCountOnDay(chemistry, domain.Monday))
	assert.Equal(t, 1, inputs.UserDoubleCount(chemistry))
	assert.Equal(t, 1, inputs.SolverDoublesRequired(chemistry))
}

func TestYearGroupAndDayHelpers(t *testing.T) {
	// Arrange
	inputs := loadTestInputs(t, testSchool(), domain.DefaultSolutionSpecification())
	maths, french := inputs.Lessons[0], inputs.Lessons[1]

	// Assert
	assert.Equal(t, 1, inputs.YearGroupFor(maths))
	assert.Equal(t, 2, inputs.YearGroupFor(french))
	assert.Equal(t, []domain.Day{domain.Monday, domain.Tuesday}, inputs.DaysForLesson(maths))
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, slotIDs(inputs.YearGroupSlots(1)))
}

func TestClashingSlots(t *testing.T) {
	// Arrange
	inputs := loadTestInputs(t, testSchool(), domain.DefaultSolutionSpecification())

	// Act: a span covering Monday 10:30 to 11:30 clashes with slots 2 and 3.
	clashing := inputs.ClashingSlots(domain.TimeOfWeek{
		Day:      domain.Monday,
		StartsAt: domain.NewTimeOfDay(10, 30),
		EndsAt:   domain.NewTimeOfDay(11, 30),
	})

	// Assert
	assert.ElementsMatch(t, []int{2, 3}, slotIDs(clashing))
}
