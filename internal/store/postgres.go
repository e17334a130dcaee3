package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"timetabler/internal/domain"
)

// PostgresStore implements Store against the web application's schema.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects and sizes the connection pool.
func OpenPostgres(dsn string, maxOpenConns, maxIdleConns int) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	configurePool(db, maxOpenConns, maxIdleConns)
	return NewPostgresStore(db), nil
}

func configurePool(db *sqlx.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)
}

type lessonRow struct {
	LessonID                   string `db:"lesson_id"`
	Subject                    string `db:"subject_name"`
	TeacherID                  *int   `db:"teacher_id"`
	ClassroomID                *int   `db:"classroom_id"`
	TotalRequiredSlots         int    `db:"total_required_slots"`
	TotalRequiredDoublePeriods int    `db:"total_required_double_periods"`
}

type slotRow struct {
	SlotID   int    `db:"slot_id"`
	Day      int    `db:"day_of_week"`
	StartsAt string `db:"starts_at"`
	EndsAt   string `db:"ends_at"`
}

type breakRow struct {
	BreakID  int    `db:"break_id"`
	Day      int    `db:"day_of_week"`
	StartsAt string `db:"starts_at"`
	EndsAt   string `db:"ends_at"`
}

type pairRow struct {
	Left  string `db:"left_id"`
	Right int    `db:"right_id"`
}

func parseClock(value string) (domain.TimeOfDay, error) {
	var hour, minute, second int
	if _, err := fmt.Sscanf(value, "%d:%d:%d", &hour, &minute, &second); err != nil {
		if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
			return 0, fmt.Errorf("cannot parse clock time %q: %w", value, err)
		}
	}
	return domain.NewTimeOfDay(hour, minute), nil
}

func (s *PostgresStore) Lessons(ctx context.Context, schoolID int) ([]domain.Lesson, error) {
	const query = `SELECT lesson_id, subject_name, teacher_id, classroom_id, total_required_slots, total_required_double_periods
FROM lessons WHERE school_id = $1 ORDER BY lesson_id ASC`
	var rows []lessonRow
	if err := s.db.SelectContext(ctx, &rows, query, schoolID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}

	pupilsByLesson, err := s.lessonPairs(ctx, schoolID, "lesson_pupils", "pupil_id")
	if err != nil {
		return nil, err
	}
	userSlotsByLesson, err := s.lessonPairs(ctx, schoolID, "lesson_user_defined_slots", "slot_id")
	if err != nil {
		return nil, err
	}

	lessons := make([]domain.Lesson, 0, len(rows))
	for _, row := range rows {
		lesson := domain.Lesson{
			LessonID:                   row.LessonID,
			Subject:                    row.Subject,
			TotalRequiredSlots:         row.TotalRequiredSlots,
			TotalRequiredDoublePeriods: row.TotalRequiredDoublePeriods,
			PupilIDs:                   pupilsByLesson[row.LessonID],
			UserDefinedSlotIDs:         userSlotsByLesson[row.LessonID],
		}
		if row.TeacherID != nil {
			lesson.TeacherID = *row.TeacherID
		}
		if row.ClassroomID != nil {
			lesson.ClassroomID = *row.ClassroomID
		}
		lessons = append(lessons, lesson)
	}
	return lessons, nil
}

func (s *PostgresStore) lessonPairs(ctx context.Context, schoolID int, table, column string) (map[string][]int, error) {
	query := fmt.Sprintf(`SELECT lesson_id AS left_id, %s AS right_id FROM %s WHERE school_id = $1`, column, table)
	var rows []pairRow
	if err := s.db.SelectContext(ctx, &rows, query, schoolID); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	result := make(map[string][]int)
	for _, row := range rows {
		result[row.Left] = append(result[row.Left], row.Right)
	}
	return result, nil
}

func (s *PostgresStore) intPairs(ctx context.Context, schoolID int, query string) (map[int][]int, error) {
	type row struct {
		Left  int `db:"left_id"`
		Right int `db:"right_id"`
	}
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, schoolID); err != nil {
		return nil, fmt.Errorf("list id pairs: %w", err)
	}
	result := make(map[int][]int)
	for _, r := range rows {
		result[r.Left] = append(result[r.Left], r.Right)
	}
	return result, nil
}

func (s *PostgresStore) TimetableSlots(ctx context.Context, schoolID int) ([]domain.TimetableSlot, error) {
	const query = `SELECT slot_id, day_of_week, starts_at, ends_at
FROM timetable_slots WHERE school_id = $1 ORDER BY day_of_week ASC, starts_at ASC`
	var rows []slotRow
	if err := s.db.SelectContext(ctx, &rows, query, schoolID); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	yearGroupsBySlot, err := s.intPairs(ctx, schoolID,
		`SELECT slot_id AS left_id, year_group_id AS right_id FROM slot_year_groups WHERE school_id = $1`)
	if err != nil {
		return nil, err
	}

	slots := make([]domain.TimetableSlot, 0, len(rows))
	for _, row := range rows {
		starts, err := parseClock(row.StartsAt)
		if err != nil {
			return nil, err
		}
		ends, err := parseClock(row.EndsAt)
		if err != nil {
			return nil, err
		}
		slots = append(slots, domain.TimetableSlot{
			SlotID:       row.SlotID,
			Day:          domain.Day(row.Day),
			StartsAt:     starts,
			EndsAt:       ends,
			YearGroupIDs: yearGroupsBySlot[row.SlotID],
		})
	}
	return slots, nil
}

func (s *PostgresStore) Breaks(ctx context.Context, schoolID int) ([]domain.Break, error) {
	const query = `SELECT break_id, day_of_week, starts_at, ends_at
FROM breaks WHERE school_id = $1 ORDER BY day_of_week ASC, starts_at ASC`
	var rows []breakRow
	if err := s.db.SelectContext(ctx, &rows, query, schoolID); err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}
	yearGroupsByBreak, err := s.intPairs(ctx, schoolID,
		`SELECT break_id AS left_id, year_group_id AS right_id FROM break_year_groups WHERE school_id = $1`)
	if err != nil {
		return nil, err
	}
	teachersByBreak, err := s.intPairs(ctx, schoolID,
		`SELECT break_id AS left_id, teacher_id AS right_id FROM break_teachers WHERE school_id = $1`)
	if err != nil {
		return nil, err
	}

	breaks := make([]domain.Break, 0, len(rows))
	for _, row := range rows {
		starts, err := parseClock(row.StartsAt)
		if err != nil {
			return nil, err
		}
		ends, err := parseClock(row.EndsAt)
		if err != nil {
			return nil, err
		}
		breaks = append(breaks, domain.Break{
			BreakID:      row.BreakID,
			Day:          domain.Day(row.Day),
			StartsAt:     starts,
			EndsAt:       ends,
			YearGroupIDs: yearGroupsByBreak[row.BreakID],
			TeacherIDs:   teachersByBreak[row.BreakID],
		})
	}
	return breaks, nil
}

func (s *PostgresStore) Pupils(ctx context.Context, schoolID int) ([]domain.Pupil, error) {
	const query = `SELECT pupil_id, name, year_group_id FROM pupils WHERE school_id = $1 ORDER BY pupil_id ASC`
	type row struct {
		PupilID     int    `db:"pupil_id"`
		Name        string `db:"name"`
		YearGroupID int    `db:"year_group_id"`
	}
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, schoolID); err != nil {
		return nil, fmt.Errorf("list pupils: %w", err)
	}
	pupils := make([]domain.Pupil, 0, len(rows))
	for _, r := range rows {
		pupils = append(pupils, domain.Pupil{PupilID: r.PupilID, Name: r.Name, YearGroupID: r.YearGroupID})
	}
	return pupils, nil
}

func (s *PostgresStore) Teachers(ctx context.Context, schoolID int) ([]domain.Teacher, error) {
	const query = `SELECT teacher_id, name FROM teachers WHERE school_id = $1 ORDER BY teacher_id ASC`
	type row struct {
		TeacherID int    `db:"teacher_id"`
		Name      string `db:"name"`
	}
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, schoolID); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	teachers := make([]domain.Teacher, 0, len(rows))
	for _, r := range rows {
		teachers = append(teachers, domain.Teacher{TeacherID: r.TeacherID, Name: r.Name})
	}
	return teachers, nil
}

func (s *PostgresStore) Classrooms(ctx context.Context, schoolID int) ([]domain.Classroom, error) {
	const query = `SELECT classroom_id, building, room_number FROM classrooms WHERE school_id = $1 ORDER BY classroom_id ASC`
	type row struct {
		ClassroomID int    `db:"classroom_id"`
		Building    string `db:"building"`
		RoomNumber  int    `db:"room_number"`
	}
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, schoolID); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	classrooms := make([]domain.Classroom, 0, len(rows))
	for _, r := range rows {
		classrooms = append(classrooms, domain.Classroom{ClassroomID: r.ClassroomID, Building: r.Building, RoomNumber: r.RoomNumber})
	}
	return classrooms, nil
}

func (s *PostgresStore) YearGroups(ctx context.Context, schoolID int) ([]domain.YearGroup, error) {
	const query = `SELECT year_group_id, name FROM year_groups WHERE school_id = $1 ORDER BY year_group_id ASC`
	type row struct {
		YearGroupID int    `db:"year_group_id"`
		Name        string `db:"name"`
	}
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, query, schoolID); err != nil {
		return nil, fmt.Errorf("list year groups: %w", err)
	}
	yearGroups := make([]domain.YearGroup, 0, len(rows))
	for _, r := range rows {
		yearGroups = append(yearGroups, domain.YearGroup{YearGroupID: r.YearGroupID, Name: r.Name})
	}
	return yearGroups, nil
}

// SetSolverDefinedSlots replaces one lesson's solver slots inside a single
// transaction, so a crash mid-write leaves the prior solution intact.
func (s *PostgresStore) SetSolverDefinedSlots(ctx context.Context, schoolID int, lessonID string, slotIDs []int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin solver slot write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM lesson_solver_defined_slots WHERE school_id = $1 AND lesson_id = $2`,
		schoolID, lessonID); err != nil {
		return fmt.Errorf("clear solver slots for lesson %s: %w", lessonID, err)
	}
	for _, slotID := range slotIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lesson_solver_defined_slots (school_id, lesson_id, slot_id) VALUES ($1, $2, $3)`,
			schoolID, lessonID, slotID); err != nil {
			return fmt.Errorf("insert solver slot %d for lesson %s: %w", slotID, lessonID, err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ClearSolverDefinedSlots(ctx context.Context, schoolID int) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM lesson_solver_defined_slots WHERE school_id = $1`, schoolID); err != nil {
		return fmt.Errorf("clear solver slots: %w", err)
	}
	return nil
}
