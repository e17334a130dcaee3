package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"

	"timetabler/internal/domain"
	"timetabler/internal/lp"
	"timetabler/internal/solver"
	"timetabler/internal/store"
)

type SchoolShape struct {
	Name       string
	YearGroups int
	Teachers   int
	Classrooms int
	// Slots per day, Monday through Friday.
	SlotsPerDay int
	// Lessons per year group; each requires SlotsPerLesson slots.
	LessonsPerYearGroup int
	SlotsPerLesson      int
	DoublePeriods       int
}

type BenchmarkResult struct {
	Backend     string
	Shape       SchoolShape
	Variables   int
	Constraints int
	Duration    time.Duration
	Result      string
}

func main() {
	shapes := getShapes()
	backends := getBackends()
	results := make([]BenchmarkResult, 0, len(shapes)*len(backends))

	for _, shape := range shapes {
		for name, backend := range backends {
			fmt.Printf("Benchmarking school %q with backend %q\n", shape.Name, name)
			results = append(results, measure(name, backend, shape))
		}
	}

	toCsv(results)
}

func getShapes() []SchoolShape {
	return []SchoolShape{
		{Name: "small", YearGroups: 2, Teachers: 4, Classrooms: 4, SlotsPerDay: 5, LessonsPerYearGroup: 4, SlotsPerLesson: 4, DoublePeriods: 1},
		{Name: "medium", YearGroups: 4, Teachers: 10, Classrooms: 8, SlotsPerDay: 6, LessonsPerYearGroup: 6, SlotsPerLesson: 4, DoublePeriods: 1},
		{Name: "large", YearGroups: 7, Teachers: 20, Classrooms: 15, SlotsPerDay: 7, LessonsPerYearGroup: 8, SlotsPerLesson: 4, DoublePeriods: 2},
	}
}

func getBackends() map[string]lp.Solver {
	backends := map[string]lp.Solver{"glpk": lp.NewGLPKSolver()}
	if _, err := exec.LookPath("cbc"); err == nil {
		backends["cbc"] = lp.NewCBCSolver()
	}
	return backends
}

func measure(name string, backend lp.Solver, shape SchoolShape) BenchmarkResult {
	snapshot := GenerateSchool(shape)
	st := store.NewMemoryStore(snapshot)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	inputs, err := solver.LoadInputs(ctx, st, snapshot.SchoolID, domain.DefaultSolutionSpecification())
	if err != nil {
		log.Fatalf("cannot load generated school %q: %v", shape.Name, err)
	}

	timetableSolver := solver.NewTimetableSolver(inputs, backend, nil)

	start := time.Now()
	err = timetableSolver.Solve(ctx)
	duration := time.Since(start)

	result := "solved"
	switch {
	case err != nil:
		result = "error"
	case timetableSolver.State() == solver.StateInfeasible:
		result = "infeasible"
	}

	return BenchmarkResult{
		Backend:     name,
		Shape:       shape,
		Variables:   timetableSolver.Problem().NumVars(),
		Constraints: timetableSolver.Problem().NumConstraints(),
		Duration:    duration,
		Result:      result,
	}
}

// GenerateSchool builds a synthetic school: five teaching days, one slot grid
// shared by every year group, and lessons dealt round-robin over teachers and
// classrooms so resource contention scales with the shape.
func GenerateSchool(shape SchoolShape) store.Snapshot {
	snapshot := store.Snapshot{SchoolID: 1}

	yearGroupIDs := make([]int, 0, shape.YearGroups)
	for yg := 1; yg <= shape.YearGroups; yg++ {
		yearGroupIDs = append(yearGroupIDs, yg)
		snapshot.YearGroups = append(snapshot.YearGroups, domain.YearGroup{YearGroupID: yg, Name: fmt.Sprintf("Year %d", yg)})
		// One representative pupil per year group keeps the problem's
		// structure while the pupil dimension stays flat.
		snapshot.Pupils = append(snapshot.Pupils, domain.Pupil{PupilID: yg, Name: fmt.Sprintf("Pupil %d", yg), YearGroupID: yg})
	}
	for t := 1; t <= shape.Teachers; t++ {
		snapshot.Teachers = append(snapshot.Teachers, domain.Teacher{TeacherID: t, Name: fmt.Sprintf("Teacher %d", t)})
	}
	for c := 1; c <= shape.Classrooms; c++ {
		snapshot.Classrooms = append(snapshot.Classrooms, domain.Classroom{ClassroomID: c, Building: "Main", RoomNumber: c})
	}

	slotID := 0
	for day := domain.Monday; day <= domain.Friday; day++ {
		for period := 0; period < shape.SlotsPerDay; period++ {
			slotID++
			starts := domain.NewTimeOfDay(9+period, 0)
			snapshot.Slots = append(snapshot.Slots, domain.TimetableSlot{
				SlotID:       slotID,
				Day:          day,
				StartsAt:     starts,
				EndsAt:       starts + 60,
				YearGroupIDs: yearGroupIDs,
			})
		}
	}

	lessonIndex := 0
	for yg := 1; yg <= shape.YearGroups; yg++ {
		for l := 0; l < shape.LessonsPerYearGroup; l++ {
			lessonIndex++
			snapshot.Lessons = append(snapshot.Lessons, domain.Lesson{
				LessonID:                   fmt.Sprintf("lesson_%d", lessonIndex),
				Subject:                    fmt.Sprintf("Subject %d", l+1),
				TeacherID:                  (lessonIndex-1)%shape.Teachers + 1,
				ClassroomID:                (lessonIndex-1)%shape.Classrooms + 1,
				PupilIDs:                   []int{yg},
				TotalRequiredSlots:         shape.SlotsPerLesson,
				TotalRequiredDoublePeriods: shape.DoublePeriods,
			})
		}
	}

	return snapshot
}

func toCsv(results []BenchmarkResult) {
	file, err := os.Create("benchmark_results.csv")
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Backend", "School", "YearGroups", "Teachers", "Classrooms", "Lessons", "Variables", "Constraints", "Duration(ms)", "Result"}
	if err := writer.Write(header); err != nil {
		log.Panicf("cannot write CSV header: %v", err)
	}

	for _, result := range results {
		record := []string{
			result.Backend,
			result.Shape.Name,
			fmt.Sprintf("%d", result.Shape.YearGroups),
			fmt.Sprintf("%d", result.Shape.Teachers),
			fmt.Sprintf("%d", result.Shape.Classrooms),
			fmt.Sprintf("%d", result.Shape.YearGroups*result.Shape.LessonsPerYearGroup),
			fmt.Sprintf("%d", result.Variables),
			fmt.Sprintf("%d", result.Constraints),
			fmt.Sprintf("%d", result.Duration.Milliseconds()),
			result.Result,
		}
		if err := writer.Write(record); err != nil {
			log.Panicf("cannot write CSV record: %v", err)
		}
	}
}
