package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"timetabler/internal/domain"
)

// schoolInput mirrors the snapshot JSON document. Clock times are written as
// "HH:MM"; lessons refer to every other entity by ID.
type schoolInput struct {
	SchoolID   int              `mapstructure:"schoolId" validate:"required"`
	YearGroups []yearGroupInput `mapstructure:"yearGroups" validate:"dive"`
	Pupils     []pupilInput     `mapstructure:"pupils" validate:"dive"`
	Teachers   []teacherInput   `mapstructure:"teachers" validate:"dive"`
	Classrooms []classroomInput `mapstructure:"classrooms" validate:"dive"`
	Slots      []slotInput      `mapstructure:"timetableSlots" validate:"dive"`
	Breaks     []breakInput     `mapstructure:"breaks" validate:"dive"`
	Lessons    []lessonInput    `mapstructure:"lessons" validate:"dive"`
}

type yearGroupInput struct {
	ID   int    `mapstructure:"id" validate:"required"`
	Name string `mapstructure:"name" validate:"required"`
}

type pupilInput struct {
	ID          int    `mapstructure:"id" validate:"required"`
	Name        string `mapstructure:"name" validate:"required"`
	YearGroupID int    `mapstructure:"yearGroupId" validate:"required"`
}

type teacherInput struct {
	ID   int    `mapstructure:"id" validate:"required"`
	Name string `mapstructure:"name" validate:"required"`
}

type classroomInput struct {
	ID         int    `mapstructure:"id" validate:"required"`
	Building   string `mapstructure:"building"`
	RoomNumber int    `mapstructure:"roomNumber"`
}

type slotInput struct {
	ID           int    `mapstructure:"id" validate:"required"`
	Day          int    `mapstructure:"day" validate:"min=1,max=7"`
	StartsAt     string `mapstructure:"startsAt" validate:"required"`
	EndsAt       string `mapstructure:"endsAt" validate:"required"`
	YearGroupIDs []int  `mapstructure:"yearGroupIds"`
}

type breakInput struct {
	ID           int    `mapstructure:"id" validate:"required"`
	Day          int    `mapstructure:"day" validate:"min=1,max=7"`
	StartsAt     string `mapstructure:"startsAt" validate:"required"`
	EndsAt       string `mapstructure:"endsAt" validate:"required"`
	YearGroupIDs []int  `mapstructure:"yearGroupIds"`
	TeacherIDs   []int  `mapstructure:"teacherIds"`
}

type lessonInput struct {
	ID                         string `mapstructure:"id" validate:"required"`
	Subject                    string `mapstructure:"subject" validate:"required"`
	TeacherID                  int    `mapstructure:"teacherId"`
	ClassroomID                int    `mapstructure:"classroomId"`
	PupilIDs                   []int  `mapstructure:"pupilIds" validate:"min=1"`
	TotalRequiredSlots         int    `mapstructure:"totalRequiredSlots" validate:"min=1"`
	TotalRequiredDoublePeriods int    `mapstructure:"totalRequiredDoublePeriods" validate:"min=0"`
	UserDefinedSlotIDs         []int  `mapstructure:"userDefinedSlotIds"`
}

// SnapshotFromJSON reads one school's data from a JSON document, validates it
// and converts it into a store snapshot.
func SnapshotFromJSON(file string) (Snapshot, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Snapshot{}, err
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Snapshot{}, err
	}

	var input schoolInput
	if err := mapstructure.Decode(inputJson, &input); err != nil {
		return Snapshot{}, err
	}

	if err := validator.New().Struct(input); err != nil {
		return Snapshot{}, fmt.Errorf("invalid school input: %w", err)
	}

	return input.toSnapshot()
}

func (input schoolInput) toSnapshot() (Snapshot, error) {
	snapshot := Snapshot{SchoolID: input.SchoolID}

	for _, yg := range input.YearGroups {
		snapshot.YearGroups = append(snapshot.YearGroups, domain.YearGroup{YearGroupID: yg.ID, Name: yg.Name})
	}
	for _, p := range input.Pupils {
		snapshot.Pupils = append(snapshot.Pupils, domain.Pupil{PupilID: p.ID, Name: p.Name, YearGroupID: p.YearGroupID})
	}
	for _, t := range input.Teachers {
		snapshot.Teachers = append(snapshot.Teachers, domain.Teacher{TeacherID: t.ID, Name: t.Name})
	}
	for _, c := range input.Classrooms {
		snapshot.Classrooms = append(snapshot.Classrooms, domain.Classroom{ClassroomID: c.ID, Building: c.Building, RoomNumber: c.RoomNumber})
	}

	for _, s := range input.Slots {
		startsAt, endsAt, err := parseSpan(s.StartsAt, s.EndsAt)
		if err != nil {
			return Snapshot{}, fmt.Errorf("slot %d: %w", s.ID, err)
		}
		snapshot.Slots = append(snapshot.Slots, domain.TimetableSlot{
			SlotID:       s.ID,
			Day:          domain.Day(s.Day),
			StartsAt:     startsAt,
			EndsAt:       endsAt,
			YearGroupIDs: s.YearGroupIDs,
		})
	}

	for _, b := range input.Breaks {
		startsAt, endsAt, err := parseSpan(b.StartsAt, b.EndsAt)
		if err != nil {
			return Snapshot{}, fmt.Errorf("break %d: %w", b.ID, err)
		}
		snapshot.Breaks = append(snapshot.Breaks, domain.Break{
			BreakID:      b.ID,
			Day:          domain.Day(b.Day),
			StartsAt:     startsAt,
			EndsAt:       endsAt,
			YearGroupIDs: b.YearGroupIDs,
			TeacherIDs:   b.TeacherIDs,
		})
	}

	for _, l := range input.Lessons {
		if 2*l.TotalRequiredDoublePeriods > l.TotalRequiredSlots {
			return Snapshot{}, fmt.Errorf("lesson %q: %d double periods cannot fit in %d slots",
				l.ID, l.TotalRequiredDoublePeriods, l.TotalRequiredSlots)
		}
		snapshot.Lessons = append(snapshot.Lessons, domain.Lesson{
			LessonID:                   l.ID,
			Subject:                    l.Subject,
			TeacherID:                  l.TeacherID,
			ClassroomID:                l.ClassroomID,
			PupilIDs:                   l.PupilIDs,
			TotalRequiredSlots:         l.TotalRequiredSlots,
			TotalRequiredDoublePeriods: l.TotalRequiredDoublePeriods,
			UserDefinedSlotIDs:         l.UserDefinedSlotIDs,
		})
	}

	return snapshot, nil
}

func parseSpan(startsAt, endsAt string) (domain.TimeOfDay, domain.TimeOfDay, error) {
	start, err := parseClock(startsAt)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(endsAt)
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, fmt.Errorf("span %s to %s does not start before it ends", startsAt, endsAt)
	}
	return start, end, nil
}
