package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"slices"

	"timetabler/internal/domain"
	"timetabler/internal/lp"
	"timetabler/internal/solver"
	"timetabler/internal/store"
	"timetabler/pkg/config"
	"timetabler/pkg/logger"
)

func main() {
	var (
		file        = flag.String("file", "", "school snapshot JSON file, for -store=memory")
		storeKind   = flag.String("store", "memory", "where the school lives: memory (snapshot file) or postgres")
		schoolID    = flag.Int("school", 0, "school id to solve, for -store=postgres")
		allowSplit  = flag.Bool("allow-split", false, "allow a lesson to appear more than once on a day outside double periods")
		allowTriple = flag.Bool("allow-triple", false, "allow three or more consecutive slots of the same lesson")
		freeTime    = flag.String("free-time", "", "preferred free period time: morning, afternoon or HH:MM")
		proportion  = flag.Float64("free-proportion", 1, "ideal proportion of free periods, in (0, 1]")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}
	zapLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("cannot initialise logger: %v", err)
	}
	defer zapLogger.Sync()

	var (
		st          store.Store
		memoryStore *store.MemoryStore
		snapshot    store.Snapshot
		school      int
	)
	switch *storeKind {
	case "memory":
		if *file == "" {
			log.Fatal("a snapshot file is required, pass -file")
		}
		snapshot, err = store.SnapshotFromJSON(*file)
		if err != nil {
			log.Fatalf("cannot parse snapshot file: %v", err)
		}
		memoryStore = store.NewMemoryStore(snapshot)
		st, school = memoryStore, snapshot.SchoolID
	case "postgres":
		if *schoolID == 0 {
			log.Fatal("a school id is required, pass -school")
		}
		postgresStore, err := store.OpenPostgres(cfg.Database.DSN(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			log.Fatalf("cannot open database: %v", err)
		}
		st, school = postgresStore, *schoolID
	default:
		log.Fatalf("unknown store %q, expected memory or postgres", *storeKind)
	}

	spec := domain.DefaultSolutionSpecification()
	spec.AllowSplitLessonsWithinEachDay = *allowSplit
	spec.AllowTriplePeriodsAndAbove = *allowTriple
	spec.IdealProportionOfFreePeriods = *proportion
	spec.OptimalFreePeriodTimeOfDay, err = parseFreeTime(*freeTime)
	if err != nil {
		log.Fatal(err)
	}

	var backend lp.Solver
	switch cfg.Solver.Backend {
	case config.BackendCBC:
		backend = lp.NewCBCSolver()
	default:
		backend = lp.NewGLPKSolver()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Solver.TimeLimit)
	defer cancel()

	messages, err := solver.ProduceTimetableSolutions(ctx, st, backend, zapLogger, school, spec)
	if err != nil {
		log.Fatalf("solving failed: %v", err)
	}
	for _, message := range messages {
		fmt.Println(message)
	}
	if len(messages) > 0 {
		return
	}

	if memoryStore != nil {
		printTimetable(snapshot, memoryStore)
	} else {
		fmt.Printf("Timetable for school %d stored.\n", school)
	}
}

func parseFreeTime(raw string) (domain.FreePeriodPreference, error) {
	switch raw {
	case "":
		return domain.NoFreePeriodPreference(), nil
	case "morning":
		return domain.MorningFreePeriods(), nil
	case "afternoon":
		return domain.AfternoonFreePeriods(), nil
	default:
		var hour, minute int
		if _, err := fmt.Sscanf(raw, "%d:%d", &hour, &minute); err != nil {
			return domain.FreePeriodPreference{}, fmt.Errorf("cannot parse free period time %q: %v", raw, err)
		}
		return domain.FreePeriodsAt(domain.NewTimeOfDay(hour, minute)), nil
	}
}

type timetableRow struct {
	slot   domain.TimetableSlot
	lesson domain.Lesson
	fixed  bool
}

func printTimetable(snapshot store.Snapshot, memoryStore *store.MemoryStore) {
	slotsByID := make(map[int]domain.TimetableSlot)
	for _, slot := range snapshot.Slots {
		slotsByID[slot.SlotID] = slot
	}

	var rows []timetableRow
	for _, lesson := range snapshot.Lessons {
		for _, slotID := range lesson.UserDefinedSlotIDs {
			rows = append(rows, timetableRow{slot: slotsByID[slotID], lesson: lesson, fixed: true})
		}
		for _, slotID := range memoryStore.SolverDefinedSlots(lesson.LessonID) {
			rows = append(rows, timetableRow{slot: slotsByID[slotID], lesson: lesson})
		}
	}

	slices.SortFunc(rows, func(a, b timetableRow) int {
		if a.slot.Day != b.slot.Day {
			return int(a.slot.Day) - int(b.slot.Day)
		}
		if a.slot.StartsAt != b.slot.StartsAt {
			return int(a.slot.StartsAt) - int(b.slot.StartsAt)
		}
		return int(a.slot.SlotID) - int(b.slot.SlotID)
	})

	for _, row := range rows {
		origin := "solver"
		if row.fixed {
			origin = "user"
		}
		fmt.Printf("Day: %v, Time: %v to %v, Lesson: %v, Subject: %v, Origin: %v\n",
			row.slot.Day, row.slot.StartsAt, row.slot.EndsAt, row.lesson.LessonID, row.lesson.Subject, origin)
	}
}
