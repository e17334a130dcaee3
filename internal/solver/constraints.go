package solver

import (
	"fmt"

	"timetabler/internal/domain"
	"timetabler/internal/lp"
)

// BuildConstraints assembles every constraint family the solution
// specification calls for and adds them to the problem.
func BuildConstraints(in *Inputs, v *Variables, problem *lp.Problem) {
	problem.AddConstraints(fulfilmentConstraints(in, v))
	problem.AddConstraints(pupilAvailabilityConstraints(in, v))
	problem.AddConstraints(teacherAvailabilityConstraints(in, v))
	problem.AddConstraints(classroomAvailabilityConstraints(in, v))
	problem.AddConstraints(yearGroupExclusionConstraints(in, v))
	problem.AddConstraints(doubleFulfilmentConstraints(in, v))
	problem.AddConstraints(doubleDependencyConstraints(in, v))
	if !in.Spec.AllowSplitLessonsWithinEachDay {
		problem.AddConstraints(noSplitConstraints(in, v))
	}
	if !in.Spec.AllowTriplePeriodsAndAbove {
		problem.AddConstraints(noTripleConstraints(in, v))
	}
}

// fulfilmentConstraints force each lesson to receive exactly the number of
// solver-assigned slots it still needs. An empty expression with a non-zero
// requirement is kept so the infeasibility surfaces at solve time.
func fulfilmentConstraints(in *Inputs, v *Variables) []lp.Constraint {
	var constraints []lp.Constraint
	for _, lesson := range in.Lessons {
		var expr lp.Expr
		for key, variable := range v.Decision {
			if key.LessonID == lesson.LessonID {
				expr = expr.Add(variable, 1)
			}
		}
		constraints = append(constraints, lp.Constraint{
			Name:  fmt.Sprintf("%s_taught_for_%d_additional_slots", lesson.LessonID, lesson.SolverSlotsRequired()),
			Expr:  expr,
			Sense: lp.Equal,
			RHS:   float64(lesson.SolverSlotsRequired()),
		})
	}
	return constraints
}

func pupilAvailabilityConstraints(in *Inputs, v *Variables) []lp.Constraint {
	var constraints []lp.Constraint
	for _, pupil := range in.Pupils {
		lessons := in.LessonsFor(PupilResource, pupil.PupilID)
		if len(lessons) == 0 {
			continue
		}
		for _, slot := range in.Slots {
			name := fmt.Sprintf("pupil_%d_free_at_slot_%d", pupil.PupilID, slot.SlotID)
			constraint, ok := availabilityConstraint(in, v, lessons, slot, name, in.CheckBusy(PupilResource, pupil.PupilID, slot.TimeOfWeek()))
			if ok {
				constraints = append(constraints, constraint)
			}
		}
	}
	return constraints
}

func teacherAvailabilityConstraints(in *Inputs, v *Variables) []lp.Constraint {
	var constraints []lp.Constraint
	for _, teacher := range in.Teachers {
		lessons := in.LessonsFor(TeacherResource, teacher.TeacherID)
		if len(lessons) == 0 {
			continue
		}
		for _, slot := range in.Slots {
			name := fmt.Sprintf("teacher_%d_free_at_slot_%d", teacher.TeacherID, slot.SlotID)
			constraint, ok := availabilityConstraint(in, v, lessons, slot, name, in.CheckBusy(TeacherResource, teacher.TeacherID, slot.TimeOfWeek()))
			if ok {
				constraints = append(constraints, constraint)
			}
		}
	}
	return constraints
}

func classroomAvailabilityConstraints(in *Inputs, v *Variables) []lp.Constraint {
	var constraints []lp.Constraint
	for _, classroom := range in.Classrooms {
		lessons := in.LessonsFor(ClassroomResource, classroom.ClassroomID)
		if len(lessons) == 0 {
			continue
		}
		for _, slot := range in.Slots {
			name := fmt.Sprintf("classroom_%d_free_at_slot_%d", classroom.ClassroomID, slot.SlotID)
			constraint, ok := availabilityConstraint(in, v, lessons, slot, name, in.CheckBusy(ClassroomResource, classroom.ClassroomID, slot.TimeOfWeek()))
			if ok {
				constraints = append(constraints, constraint)
			}
		}
	}
	return constraints
}

// availabilityConstraint caps a resource's assignments across all slots
// clashing with the reference slot at one, or at zero when the resource has
// an existing commitment there. Trivially true empty expressions are skipped.
func availabilityConstraint(in *Inputs, v *Variables, lessons []domain.Lesson, slot domain.TimetableSlot, name string, busy bool) (lp.Constraint, bool) {
	var expr lp.Expr
	for _, clashing := range in.ClashingSlots(slot.TimeOfWeek()) {
		for _, lesson := range lessons {
			if variable, ok := v.DecisionVar(lesson.LessonID, clashing.SlotID); ok {
				expr = expr.Add(variable, 1)
			}
		}
	}
	if len(expr) == 0 {
		return lp.Constraint{}, false
	}
	if busy {
		return lp.Constraint{Name: name, Expr: expr, Sense: lp.Equal, RHS: 0}, true
	}
	return lp.Constraint{Name: name, Expr: expr, Sense: lp.LessOrEqual, RHS: 1}, true
}

// yearGroupExclusionConstraints force all of a year group's lessons away from
// the times where the whole year group has an existing commitment, such as a
// break. Only busy times produce a constraint; elsewhere pupil availability
// already caps the year group's usage of each slot.
func yearGroupExclusionConstraints(in *Inputs, v *Variables) []lp.Constraint {
	var constraints []lp.Constraint
	for _, yg := range in.YearGroups {
		lessons := in.LessonsFor(YearGroupResource, yg.YearGroupID)
		if len(lessons) == 0 {
			continue
		}
		for _, slot := range in.YearGroupSlots(yg.YearGroupID) {
			if !in.CheckBusy(YearGroupResource, yg.YearGroupID, slot.TimeOfWeek()) {
				continue
			}
			name := fmt.Sprintf("year_group_%d_free_at_slot_%d", yg.YearGroupID, slot.SlotID)
			constraint, ok := availabilityConstraint(in, v, lessons, slot, name, true)
			if ok {
				constraints = append(constraints, constraint)
			}
		}
	}
	return constraints
}

// doubleFulfilmentConstraints force each lesson's double-period count to
// match what its requirement still demands after user-defined doubles.
func doubleFulfilmentConstraints(in *Inputs, v *Variables) []lp.Constraint {
	var constraints []lp.Constraint
	for _, lesson := range in.Lessons {
		if lesson.TotalRequiredDoublePeriods == 0 {
			continue
		}
		var expr lp.Expr
		for key, variable := range v.Doubles {
			if key.LessonID == lesson.LessonID {
				expr = expr.Add(variable, 1)
			}
		}
		constraints = append(constraints, lp.Constraint{
			Name:  fmt.Sprintf("%s_has_%d_double_periods", lesson.LessonID, in.SolverDoublesRequired(lesson)),
			Expr:  expr,
			Sense: lp.Equal,
			RHS:   float64(in.SolverDoublesRequired(lesson)),
		})
	}
	return constraints
}

// doubleDependencyConstraints tie each double-period variable to the decision
// variables of its two slots. A double can only be active when both slots
// are; when the user already fixed one slot, activating the other slot is the
// same thing as activating the double, so the pair is bound with an equality.
func doubleDependencyConstraints(in *Inputs, v *Variables) []lp.Constraint {
	var constraints []lp.Constraint
	for key, double := range v.Doubles {
		for n, slotID := range []int{key.Slot1ID, key.Slot2ID} {
			decision, ok := v.DecisionVar(key.LessonID, slotID)
			if !ok {
				// User-defined slot, the double hinges entirely on the other one.
				continue
			}
			other := key.Slot2ID
			if n == 1 {
				other = key.Slot1ID
			}
			sense := lp.LessOrEqual
			if _, otherFree := v.DecisionVar(key.LessonID, other); !otherFree {
				sense = lp.Equal
			}
			constraints = append(constraints, lp.Constraint{
				Name:  fmt.Sprintf("%s_double_%d_%d_links_slot_%d", key.LessonID, key.Slot1ID, key.Slot2ID, slotID),
				Expr:  lp.Expr{}.Add(double, 1).Add(decision, -1),
				Sense: sense,
				RHS:   0,
			})
		}
	}
	return constraints
}

// noSplitConstraints forbid a lesson from appearing more than once on a day
// unless the repeats form double periods. Counting each double once against
// its two singles caps distinct appearances per day at one.
func noSplitConstraints(in *Inputs, v *Variables) []lp.Constraint {
	var constraints []lp.Constraint
	for _, lesson := range in.Lessons {
		for _, day := range in.DaysForLesson(lesson) {
			var expr lp.Expr
			for key, variable := range v.Decision {
				if key.LessonID == lesson.LessonID && in.Slot(key.SlotID).Day == day {
					expr = expr.Add(variable, 1)
				}
			}
			if len(expr) == 0 {
				continue
			}
			for key, variable := range v.Doubles {
				if key.LessonID == lesson.LessonID && in.Slot(key.Slot1ID).Day == day {
					expr = expr.Add(variable, -1)
				}
			}
			fixed := in.UserSinglesOnDay(lesson, day) - in.UserDoubleCountOnDay(lesson, day)
			if fixed > 1 {
				fixed = 1
			}
			constraints = append(constraints, lp.Constraint{
				Name:  fmt.Sprintf("%s_no_split_on_day_%d", lesson.LessonID, day),
				Expr:  expr,
				Sense: lp.LessOrEqual,
				RHS:   float64(1 - fixed),
			})
		}
	}
	return constraints
}

// noTripleConstraints cap each lesson's usage of any three back-to-back slots
// at two, so double periods never chain into triples or longer runs. Slots
// the user already fixed count against the cap as constants.
func noTripleConstraints(in *Inputs, v *Variables) []lp.Constraint {
	var constraints []lp.Constraint
	for _, lesson := range in.Lessons {
		for _, triple := range in.ConsecutiveSlotTriples(in.YearGroupFor(lesson)) {
			var expr lp.Expr
			fixed := 0
			occupiable := true
			for _, slot := range triple {
				if lesson.HasUserDefinedSlot(slot.SlotID) {
					fixed++
					continue
				}
				variable, ok := v.DecisionVar(lesson.LessonID, slot.SlotID)
				if !ok {
					occupiable = false
					break
				}
				expr = expr.Add(variable, 1)
			}
			if !occupiable || len(expr) == 0 {
				continue
			}
			rhs := 2 - fixed
			if rhs < 0 {
				rhs = 0
			}
			constraints = append(constraints, lp.Constraint{
				Name:  fmt.Sprintf("%s_no_triple_at_%d_%d_%d", lesson.LessonID, triple[0].SlotID, triple[1].SlotID, triple[2].SlotID),
				Expr:  expr,
				Sense: lp.LessOrEqual,
				RHS:   float64(rhs),
			})
		}
	}
	return constraints
}
