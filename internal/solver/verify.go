package solver

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"timetabler/internal/domain"
)

// Assignment maps lesson IDs to their full slot occupancy, user-defined and
// solver-assigned combined.
type Assignment map[string][]int

// VerifyAssignment checks a finished timetable against the structural rules
// the problem formulation encodes. It exists for tests and diagnostics; a
// solution accepted by the backend should always verify cleanly.
func VerifyAssignment(in *Inputs, assignment Assignment) error {
	if err := verifyFulfilment(in, assignment); err != nil {
		return err
	}
	if err := verifyNoClashes(in, assignment); err != nil {
		return err
	}
	if !in.Spec.AllowSplitLessonsWithinEachDay {
		if err := verifyNoSplits(in, assignment); err != nil {
			return err
		}
	}
	if !in.Spec.AllowTriplePeriodsAndAbove {
		if err := verifyNoTriples(in, assignment); err != nil {
			return err
		}
	}
	return nil
}

func verifyFulfilment(in *Inputs, assignment Assignment) error {
	for _, lesson := range in.Lessons {
		got := len(assignment[lesson.LessonID])
		if got != lesson.TotalRequiredSlots {
			return fmt.Errorf("lesson %q occupies %d slots, requires %d", lesson.LessonID, got, lesson.TotalRequiredSlots)
		}
	}
	return nil
}

func verifyNoClashes(in *Inputs, assignment Assignment) error {
	type occupancy struct {
		lessonID string
		tw       domain.TimeOfWeek
	}
	byResource := make(map[resourceKey][]occupancy)

	for _, lesson := range in.allLessons {
		slotIDs := assignment[lesson.LessonID]
		if slotIDs == nil {
			slotIDs = lesson.UserDefinedSlotIDs
		}
		for _, slotID := range slotIDs {
			occ := occupancy{lessonID: lesson.LessonID, tw: in.Slot(slotID).TimeOfWeek()}
			for _, pupilID := range lesson.PupilIDs {
				byResource[resourceKey{PupilResource, pupilID}] = append(byResource[resourceKey{PupilResource, pupilID}], occ)
			}
			if lesson.TeacherID != 0 {
				byResource[resourceKey{TeacherResource, lesson.TeacherID}] = append(byResource[resourceKey{TeacherResource, lesson.TeacherID}], occ)
			}
			if lesson.ClassroomID != 0 {
				byResource[resourceKey{ClassroomResource, lesson.ClassroomID}] = append(byResource[resourceKey{ClassroomResource, lesson.ClassroomID}], occ)
			}
		}
	}

	for key, occupancies := range byResource {
		for i := range occupancies {
			for j := i + 1; j < len(occupancies); j++ {
				if occupancies[i].tw.ClashesWith(occupancies[j].tw) {
					return fmt.Errorf("resource %+v double booked between lessons %q and %q",
						key, occupancies[i].lessonID, occupancies[j].lessonID)
				}
			}
		}
	}
	return nil
}

func verifyNoSplits(in *Inputs, assignment Assignment) error {
	for _, lesson := range in.Lessons {
		for _, day := range in.DaysForLesson(lesson) {
			slots := lo.Filter(lo.Map(assignment[lesson.LessonID], func(slotID int, _ int) domain.TimetableSlot {
				return in.Slot(slotID)
			}), func(s domain.TimetableSlot, _ int) bool { return s.Day == day })
			if len(slots) < 2 {
				continue
			}
			slices.SortFunc(slots, func(a, b domain.TimetableSlot) int { return int(a.StartsAt) - int(b.StartsAt) })
			doubles := 0
			for i := 1; i < len(slots); i++ {
				if slots[i-1].IsConsecutiveWith(slots[i]) {
					doubles++
				}
			}
			if len(slots)-doubles > 1 {
				return fmt.Errorf("lesson %q split across day %s", lesson.LessonID, day)
			}
		}
	}
	return nil
}

func verifyNoTriples(in *Inputs, assignment Assignment) error {
	for _, lesson := range in.Lessons {
		occupied := lo.SliceToMap(assignment[lesson.LessonID], func(slotID int) (int, bool) { return slotID, true })
		for _, triple := range in.ConsecutiveSlotTriples(in.YearGroupFor(lesson)) {
			if occupied[triple[0].SlotID] && occupied[triple[1].SlotID] && occupied[triple[2].SlotID] {
				return fmt.Errorf("lesson %q occupies three consecutive slots starting at slot %d",
					lesson.LessonID, triple[0].SlotID)
			}
		}
	}
	return nil
}
