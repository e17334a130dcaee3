package domain

import "github.com/samber/lo"

// TimetableSlot is a schedulable period of a school's timetable.
type TimetableSlot struct {
	SlotID       int
	Day          Day
	StartsAt     TimeOfDay
	EndsAt       TimeOfDay
	YearGroupIDs []int
}

func (s TimetableSlot) TimeOfWeek() TimeOfWeek {
	return TimeOfWeek{Day: s.Day, StartsAt: s.StartsAt, EndsAt: s.EndsAt}
}

// IsConsecutiveWith reports whether other immediately follows s on the same day.
func (s TimetableSlot) IsConsecutiveWith(other TimetableSlot) bool {
	return s.Day == other.Day && s.EndsAt == other.StartsAt
}

func (s TimetableSlot) AppliesToYearGroup(yearGroupID int) bool {
	return lo.Contains(s.YearGroupIDs, yearGroupID)
}

// Break is committed non-lesson time for a set of year groups and teachers.
type Break struct {
	BreakID      int
	Day          Day
	StartsAt     TimeOfDay
	EndsAt       TimeOfDay
	YearGroupIDs []int
	TeacherIDs   []int
}

func (b Break) TimeOfWeek() TimeOfWeek {
	return TimeOfWeek{Day: b.Day, StartsAt: b.StartsAt, EndsAt: b.EndsAt}
}

func (b Break) AppliesToYearGroup(yearGroupID int) bool {
	return lo.Contains(b.YearGroupIDs, yearGroupID)
}

func (b Break) AppliesToTeacher(teacherID int) bool {
	return lo.Contains(b.TeacherIDs, teacherID)
}

// YearGroup is a set of pupils sharing one timetable structure.
type YearGroup struct {
	YearGroupID int
	Name        string
}

type Pupil struct {
	PupilID     int
	Name        string
	YearGroupID int
}

type Teacher struct {
	TeacherID int
	Name      string
}

type Classroom struct {
	ClassroomID int
	Building    string
	RoomNumber  int
}

// Lesson is a class that must occupy a number of timetable slots.
//
// TeacherID and ClassroomID are 0 when the lesson has no teacher or no fixed
// classroom. UserDefinedSlotIDs are slots the user pre-fixed for the lesson;
// they count toward TotalRequiredSlots but are not solver decisions.
type Lesson struct {
	LessonID                   string
	Subject                    string
	TeacherID                  int
	ClassroomID                int
	PupilIDs                   []int
	TotalRequiredSlots         int
	TotalRequiredDoublePeriods int
	UserDefinedSlotIDs         []int
}

// SolverSlotsRequired is the number of slots the solver still has to assign.
func (l Lesson) SolverSlotsRequired() int {
	return l.TotalRequiredSlots - len(l.UserDefinedSlotIDs)
}

func (l Lesson) HasUserDefinedSlot(slotID int) bool {
	return lo.Contains(l.UserDefinedSlotIDs, slotID)
}

func (l Lesson) HasPupil(pupilID int) bool {
	return lo.Contains(l.PupilIDs, pupilID)
}
