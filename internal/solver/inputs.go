package solver

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"timetabler/internal/domain"
	"timetabler/internal/store"
)

// ResourceKind identifies which kind of school resource a busy-check targets.
type ResourceKind int

const (
	PupilResource ResourceKind = iota
	TeacherResource
	ClassroomResource
	YearGroupResource
)

type resourceKey struct {
	kind ResourceKind
	id   int
}

// Inputs is the immutable snapshot of one school's data that a single solve
// operates on. Everything is loaded and indexed once at construction; nothing
// re-queries the store mid-solve.
type Inputs struct {
	SchoolID int
	Spec     domain.SolutionSpecification

	// Lessons needing at least one solver-assigned slot.
	Lessons []domain.Lesson
	// Slots ordered by (day, start time).
	Slots      []domain.TimetableSlot
	Breaks     []domain.Break
	Pupils     []domain.Pupil
	Teachers   []domain.Teacher
	Classrooms []domain.Classroom
	YearGroups []domain.YearGroup

	allLessons       []domain.Lesson
	slotsByID        map[int]domain.TimetableSlot
	slotsByYearGroup map[int][]domain.TimetableSlot
	pupilsByID       map[int]domain.Pupil
	busy             map[resourceKey][]domain.TimeOfWeek
}

// LoadInputs reads one school's data and precomputes the busy commitments of
// every pupil, teacher, classroom and year group. Returns
// *InsufficientDataError when the school cannot form a solvable problem.
func LoadInputs(ctx context.Context, reader store.SchoolReader, schoolID int, spec domain.SolutionSpecification) (*Inputs, error) {
	allLessons, err := reader.Lessons(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}
	slots, err := reader.TimetableSlots(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("load timetable slots: %w", err)
	}
	breaks, err := reader.Breaks(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("load breaks: %w", err)
	}
	pupils, err := reader.Pupils(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("load pupils: %w", err)
	}
	teachers, err := reader.Teachers(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("load teachers: %w", err)
	}
	classrooms, err := reader.Classrooms(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("load classrooms: %w", err)
	}
	yearGroups, err := reader.YearGroups(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("load year groups: %w", err)
	}

	slices.SortFunc(slots, func(a, b domain.TimetableSlot) int {
		if a.Day != b.Day {
			return int(a.Day) - int(b.Day)
		}
		return int(a.StartsAt) - int(b.StartsAt)
	})

	lessons := lo.Filter(allLessons, func(l domain.Lesson, _ int) bool {
		return l.SolverSlotsRequired() > 0
	})

	switch {
	case len(pupils) == 0:
		return nil, &InsufficientDataError{Category: "pupils"}
	case len(teachers) == 0:
		return nil, &InsufficientDataError{Category: "teachers"}
	case len(slots) == 0:
		return nil, &InsufficientDataError{Category: "timetable slots"}
	case len(lessons) == 0:
		return nil, &InsufficientDataError{Category: "lessons requiring solving"}
	}

	in := &Inputs{
		SchoolID:         schoolID,
		Spec:             spec,
		Lessons:          lessons,
		Slots:            slots,
		Breaks:           breaks,
		Pupils:           pupils,
		Teachers:         teachers,
		Classrooms:       classrooms,
		YearGroups:       yearGroups,
		allLessons:       allLessons,
		slotsByID:        lo.KeyBy(slots, func(s domain.TimetableSlot) int { return s.SlotID }),
		slotsByYearGroup: make(map[int][]domain.TimetableSlot),
		pupilsByID:       lo.KeyBy(pupils, func(p domain.Pupil) int { return p.PupilID }),
		busy:             make(map[resourceKey][]domain.TimeOfWeek),
	}

	for _, slot := range slots {
		for _, ygID := range slot.YearGroupIDs {
			in.slotsByYearGroup[ygID] = append(in.slotsByYearGroup[ygID], slot)
		}
	}

	for _, lesson := range lessons {
		if len(lesson.PupilIDs) == 0 {
			return nil, &InsufficientDataError{Category: fmt.Sprintf("pupils for lesson %q", lesson.LessonID)}
		}
	}

	in.buildBusyCommitments()
	return in, nil
}

// buildBusyCommitments derives every resource's existing commitments from
// user-defined lesson slots and breaks. Pupil commitments from year group
// breaks are resolved at query time via the pupil's year group.
func (in *Inputs) buildBusyCommitments() {
	addBusy := func(key resourceKey, tw domain.TimeOfWeek) {
		in.busy[key] = append(in.busy[key], tw)
	}

	for _, lesson := range in.allLessons {
		for _, slotID := range lesson.UserDefinedSlotIDs {
			slot, ok := in.slotsByID[slotID]
			if !ok {
				continue
			}
			tw := slot.TimeOfWeek()
			for _, pupilID := range lesson.PupilIDs {
				addBusy(resourceKey{PupilResource, pupilID}, tw)
			}
			if lesson.TeacherID != 0 {
				addBusy(resourceKey{TeacherResource, lesson.TeacherID}, tw)
			}
			if lesson.ClassroomID != 0 {
				addBusy(resourceKey{ClassroomResource, lesson.ClassroomID}, tw)
			}
		}
	}

	for _, break_ := range in.Breaks {
		tw := break_.TimeOfWeek()
		for _, ygID := range break_.YearGroupIDs {
			addBusy(resourceKey{YearGroupResource, ygID}, tw)
		}
		for _, teacherID := range break_.TeacherIDs {
			addBusy(resourceKey{TeacherResource, teacherID}, tw)
		}
	}
}

// CheckBusy reports whether the resource has an existing commitment clashing
// with the given time of week. Pupils inherit their year group's commitments.
func (in *Inputs) CheckBusy(kind ResourceKind, id int, tw domain.TimeOfWeek) bool {
	clash := func(key resourceKey) bool {
		return lo.SomeBy(in.busy[key], func(busy domain.TimeOfWeek) bool { return busy.ClashesWith(tw) })
	}
	if clash(resourceKey{kind, id}) {
		return true
	}
	if kind == PupilResource {
		if pupil, ok := in.pupilsByID[id]; ok {
			return clash(resourceKey{YearGroupResource, pupil.YearGroupID})
		}
	}
	return false
}

// Slot looks up a slot by ID. Panics on unknown IDs, which only arise from
// programming errors since all IDs come from the snapshot itself.
func (in *Inputs) Slot(slotID int) domain.TimetableSlot {
	slot, ok := in.slotsByID[slotID]
	if !ok {
		panic(fmt.Sprintf("unknown slot %d", slotID))
	}
	return slot
}

// YearGroupFor resolves the year group a lesson is taught to, via its pupils.
func (in *Inputs) YearGroupFor(lesson domain.Lesson) int {
	if len(lesson.PupilIDs) == 0 {
		return 0
	}
	pupil, ok := in.pupilsByID[lesson.PupilIDs[0]]
	if !ok {
		return 0
	}
	return pupil.YearGroupID
}

// YearGroupSlots returns the year group's slots ordered by (day, start).
func (in *Inputs) YearGroupSlots(yearGroupID int) []domain.TimetableSlot {
	return in.slotsByYearGroup[yearGroupID]
}

// SlotsRelevantTo returns a lesson's candidate slots: the slots of its
// pupils' year groups, minus slots clashing with an existing commitment of
// the lesson's pupils, teacher or classroom.
func (in *Inputs) SlotsRelevantTo(lesson domain.Lesson) []domain.TimetableSlot {
	seen := make(map[int]bool)
	var candidates []domain.TimetableSlot

	yearGroupIDs := lo.Uniq(lo.FilterMap(lesson.PupilIDs, func(pupilID int, _ int) (int, bool) {
		pupil, ok := in.pupilsByID[pupilID]
		return pupil.YearGroupID, ok
	}))

	for _, ygID := range yearGroupIDs {
		for _, slot := range in.slotsByYearGroup[ygID] {
			if seen[slot.SlotID] {
				continue
			}
			seen[slot.SlotID] = true
			if in.lessonBlockedAt(lesson, slot.TimeOfWeek()) {
				continue
			}
			candidates = append(candidates, slot)
		}
	}
	return candidates
}

func (in *Inputs) lessonBlockedAt(lesson domain.Lesson, tw domain.TimeOfWeek) bool {
	for _, pupilID := range lesson.PupilIDs {
		if in.CheckBusy(PupilResource, pupilID, tw) {
			return true
		}
	}
	if lesson.TeacherID != 0 && in.CheckBusy(TeacherResource, lesson.TeacherID, tw) {
		return true
	}
	if lesson.ClassroomID != 0 && in.CheckBusy(ClassroomResource, lesson.ClassroomID, tw) {
		return true
	}
	return false
}

// ClashingSlots returns every school slot clashing with the time of week,
// including any slot spanning exactly that time.
func (in *Inputs) ClashingSlots(tw domain.TimeOfWeek) []domain.TimetableSlot {
	return lo.Filter(in.Slots, func(slot domain.TimetableSlot, _ int) bool {
		return slot.TimeOfWeek().ClashesWith(tw)
	})
}

// ConsecutiveSlotPairs returns the back-to-back slot pairs of a year group,
// the candidates for double periods.
func (in *Inputs) ConsecutiveSlotPairs(yearGroupID int) [][2]domain.TimetableSlot {
	slots := in.slotsByYearGroup[yearGroupID]
	var pairs [][2]domain.TimetableSlot
	for i := 1; i < len(slots); i++ {
		if slots[i-1].IsConsecutiveWith(slots[i]) {
			pairs = append(pairs, [2]domain.TimetableSlot{slots[i-1], slots[i]})
		}
	}
	return pairs
}

// ConsecutiveSlotTriples returns runs of three back-to-back slots of a year
// group, the shapes a no-triple constraint must exclude.
func (in *Inputs) ConsecutiveSlotTriples(yearGroupID int) [][3]domain.TimetableSlot {
	slots := in.slotsByYearGroup[yearGroupID]
	var triples [][3]domain.TimetableSlot
	for i := 2; i < len(slots); i++ {
		if slots[i-2].IsConsecutiveWith(slots[i-1]) && slots[i-1].IsConsecutiveWith(slots[i]) {
			triples = append(triples, [3]domain.TimetableSlot{slots[i-2], slots[i-1], slots[i]})
		}
	}
	return triples
}

// DaysForLesson returns the distinct days the lesson could be taught on,
// sorted ascending.
func (in *Inputs) DaysForLesson(lesson domain.Lesson) []domain.Day {
	days := lo.Uniq(lo.Map(in.slotsByYearGroup[in.YearGroupFor(lesson)], func(s domain.TimetableSlot, _ int) domain.Day {
		return s.Day
	}))
	slices.Sort(days)
	return days
}

// UserSinglesOnDay counts a lesson's user-defined slots on the given day.
func (in *Inputs) UserSinglesOnDay(lesson domain.Lesson, day domain.Day) int {
	return len(in.userSlotsOnDay(lesson, day))
}

// UserDoubleCountOnDay counts the double periods already present among a
// lesson's user-defined slots on the given day.
func (in *Inputs) UserDoubleCountOnDay(lesson domain.Lesson, day domain.Day) int {
	slots := in.userSlotsOnDay(lesson, day)
	count := 0
	for i := 1; i < len(slots); i++ {
		if slots[i-1].IsConsecutiveWith(slots[i]) {
			count++
		}
	}
	return count
}

// UserDoubleCount counts a lesson's user-defined double periods over the week.
func (in *Inputs) UserDoubleCount(lesson domain.Lesson) int {
	total := 0
	for _, day := range in.DaysForLesson(lesson) {
		total += in.UserDoubleCountOnDay(lesson, day)
	}
	return total
}

// SolverDoublesRequired is the number of double periods the solver still has
// to produce for the lesson.
func (in *Inputs) SolverDoublesRequired(lesson domain.Lesson) int {
	return lesson.TotalRequiredDoublePeriods - in.UserDoubleCount(lesson)
}

func (in *Inputs) userSlotsOnDay(lesson domain.Lesson, day domain.Day) []domain.TimetableSlot {
	slots := lo.FilterMap(lesson.UserDefinedSlotIDs, func(slotID int, _ int) (domain.TimetableSlot, bool) {
		slot, ok := in.slotsByID[slotID]
		return slot, ok && slot.Day == day
	})
	slices.SortFunc(slots, func(a, b domain.TimetableSlot) int { return int(a.StartsAt) - int(b.StartsAt) })
	return slots
}

// LessonsFor returns the lessons needing solving that involve the resource.
func (in *Inputs) LessonsFor(kind ResourceKind, id int) []domain.Lesson {
	return lo.Filter(in.Lessons, func(l domain.Lesson, _ int) bool {
		switch kind {
		case PupilResource:
			return l.HasPupil(id)
		case TeacherResource:
			return l.TeacherID == id
		case ClassroomResource:
			return l.ClassroomID == id
		case YearGroupResource:
			return in.YearGroupFor(l) == id
		default:
			return false
		}
	})
}
