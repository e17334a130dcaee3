package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetabler/internal/domain"
)

func writeSnapshotFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "school.json")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

const validSchoolJSON = `{
	"schoolId": 3,
	"yearGroups": [{"id": 1, "name": "Year 7"}],
	"pupils": [{"id": 10, "name": "Ada", "yearGroupId": 1}],
	"teachers": [{"id": 4, "name": "Turing"}],
	"classrooms": [{"id": 9, "building": "Science", "roomNumber": 2}],
	"timetableSlots": [
		{"id": 1, "day": 1, "startsAt": "09:00", "endsAt": "10:00", "yearGroupIds": [1]},
		{"id": 2, "day": 1, "startsAt": "10:00", "endsAt": "11:00", "yearGroupIds": [1]}
	],
	"breaks": [
		{"id": 1, "day": 1, "startsAt": "12:00", "endsAt": "13:00", "yearGroupIds": [1]}
	],
	"lessons": [
		{"id": "maths_year_7", "subject": "Maths", "teacherId": 4, "classroomId": 9,
		 "pupilIds": [10], "totalRequiredSlots": 2, "totalRequiredDoublePeriods": 1}
	]
}`

func TestSnapshotFromJSON(t *testing.T) {
	// Arrange
	file := writeSnapshotFile(t, validSchoolJSON)

	// Act
	snapshot, err := SnapshotFromJSON(file)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.SchoolID)
	require.Len(t, snapshot.Slots, 2)
	assert.Equal(t, domain.Monday, snapshot.Slots[0].Day)
	assert.Equal(t, domain.NewTimeOfDay(9, 0), snapshot.Slots[0].StartsAt)
	require.Len(t, snapshot.Lessons, 1)
	assert.Equal(t, 4, snapshot.Lessons[0].TeacherID)
	assert.Equal(t, []int{10}, snapshot.Lessons[0].PupilIDs)
	require.Len(t, snapshot.Breaks, 1)
	assert.True(t, snapshot.Breaks[0].AppliesToYearGroup(1))
}

func TestSnapshotFromJSONRejectsInvalidInput(t *testing.T) {
	scenarios := []struct {
		name    string
		content string
	}{
		{
			name:    "missing school id",
			content: `{"lessons": []}`,
		},
		{
			name: "lesson without pupils",
			content: `{"schoolId": 1, "lessons": [
				{"id": "l", "subject": "s", "pupilIds": [], "totalRequiredSlots": 1}
			]}`,
		},
		{
			name: "doubles exceed slots",
			content: `{"schoolId": 1, "lessons": [
				{"id": "l", "subject": "s", "pupilIds": [1], "totalRequiredSlots": 2, "totalRequiredDoublePeriods": 2}
			]}`,
		},
		{
			name: "slot ends before it starts",
			content: `{"schoolId": 1, "timetableSlots": [
				{"id": 1, "day": 1, "startsAt": "10:00", "endsAt": "09:00"}
			]}`,
		},
		{
			name: "day out of range",
			content: `{"schoolId": 1, "timetableSlots": [
				{"id": 1, "day": 8, "startsAt": "09:00", "endsAt": "10:00"}
			]}`,
		},
		{
			name:    "not json",
			content: `this is not json`,
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			file := writeSnapshotFile(t, scenario.content)

			_, err := SnapshotFromJSON(file)

			assert.Error(t, err)
		})
	}
}
