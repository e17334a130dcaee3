package solver

import (
	"fmt"

	"timetabler/internal/domain"
	"timetabler/internal/lp"
)

// VarKey identifies the binary decision variable stating that a lesson takes
// place at a slot.
type VarKey struct {
	LessonID string
	SlotID   int
}

// DoubleKey identifies the binary variable stating that a lesson occupies
// both slots of a consecutive pair as one double period.
type DoubleKey struct {
	LessonID string
	Slot1ID  int
	Slot2ID  int
}

// Variables holds the full variable set of one timetabling problem.
type Variables struct {
	Decision map[VarKey]lp.Var
	Doubles  map[DoubleKey]lp.Var
}

// BuildVariables registers one decision variable per (lesson, candidate slot)
// and one double-period variable per (lesson, consecutive pair). Slots the
// user already fixed get no decision variable; a pair gets a double variable
// as long as at least one of its slots is still open to the solver.
func BuildVariables(in *Inputs, problem *lp.Problem) *Variables {
	v := &Variables{
		Decision: make(map[VarKey]lp.Var),
		Doubles:  make(map[DoubleKey]lp.Var),
	}

	for _, lesson := range in.Lessons {
		for _, slot := range in.SlotsRelevantTo(lesson) {
			if lesson.HasUserDefinedSlot(slot.SlotID) {
				continue
			}
			key := VarKey{LessonID: lesson.LessonID, SlotID: slot.SlotID}
			v.Decision[key] = problem.AddBinary(fmt.Sprintf("%s_occurs_at_slot_%d", lesson.LessonID, slot.SlotID))
		}
	}

	for _, lesson := range in.Lessons {
		if lesson.TotalRequiredDoublePeriods == 0 {
			continue
		}
		for _, pair := range in.ConsecutiveSlotPairs(in.YearGroupFor(lesson)) {
			if !v.slotOccupiable(lesson, pair[0]) || !v.slotOccupiable(lesson, pair[1]) {
				continue
			}
			if lesson.HasUserDefinedSlot(pair[0].SlotID) && lesson.HasUserDefinedSlot(pair[1].SlotID) {
				continue
			}
			key := DoubleKey{LessonID: lesson.LessonID, Slot1ID: pair[0].SlotID, Slot2ID: pair[1].SlotID}
			v.Doubles[key] = problem.AddBinary(fmt.Sprintf("%s_double_period_at_%d_%d", lesson.LessonID, pair[0].SlotID, pair[1].SlotID))
		}
	}

	return v
}

// slotOccupiable reports whether the lesson can occupy the slot, either via a
// decision variable or because the user already fixed it there.
func (v *Variables) slotOccupiable(lesson domain.Lesson, slot domain.TimetableSlot) bool {
	if lesson.HasUserDefinedSlot(slot.SlotID) {
		return true
	}
	_, ok := v.Decision[VarKey{LessonID: lesson.LessonID, SlotID: slot.SlotID}]
	return ok
}

// DecisionVar returns the decision variable for (lesson, slot) if one exists.
func (v *Variables) DecisionVar(lessonID string, slotID int) (lp.Var, bool) {
	variable, ok := v.Decision[VarKey{LessonID: lessonID, SlotID: slotID}]
	return variable, ok
}
