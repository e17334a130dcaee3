package domain

import "fmt"

// FreePeriodKind discriminates the variants of FreePeriodPreference.
type FreePeriodKind int

const (
	// NoPreference means any feasible solution is acceptable.
	NoPreference FreePeriodKind = iota
	// Morning prefers free periods before noon.
	Morning
	// Afternoon prefers free periods after noon.
	Afternoon
	// ExactTime prefers free periods at a specific time of day.
	ExactTime
)

// FreePeriodPreference states when the user would like free periods to fall.
// At is only meaningful for the ExactTime kind.
type FreePeriodPreference struct {
	Kind FreePeriodKind
	At   TimeOfDay
}

func NoFreePeriodPreference() FreePeriodPreference {
	return FreePeriodPreference{Kind: NoPreference}
}

func MorningFreePeriods() FreePeriodPreference {
	return FreePeriodPreference{Kind: Morning}
}

func AfternoonFreePeriods() FreePeriodPreference {
	return FreePeriodPreference{Kind: Afternoon}
}

func FreePeriodsAt(at TimeOfDay) FreePeriodPreference {
	return FreePeriodPreference{Kind: ExactTime, At: at}
}

func (p FreePeriodPreference) String() string {
	switch p.Kind {
	case Morning:
		return "morning"
	case Afternoon:
		return "afternoon"
	case ExactTime:
		return p.At.String()
	default:
		return "none"
	}
}

// SolutionSpecification carries the user-defined requirements for how a
// timetable solution should be produced.
type SolutionSpecification struct {
	AllowSplitLessonsWithinEachDay bool
	AllowTriplePeriodsAndAbove     bool
	OptimalFreePeriodTimeOfDay     FreePeriodPreference
	// IdealProportionOfFreePeriods scales how strongly the free period
	// preference is pursued. Must lie in (0, 1].
	IdealProportionOfFreePeriods float64
}

// DefaultSolutionSpecification allows every structure and states no free
// period preference.
func DefaultSolutionSpecification() SolutionSpecification {
	return SolutionSpecification{
		AllowSplitLessonsWithinEachDay: true,
		AllowTriplePeriodsAndAbove:     true,
		OptimalFreePeriodTimeOfDay:     NoFreePeriodPreference(),
		IdealProportionOfFreePeriods:   1.0,
	}
}

// Validate rejects specifications whose numeric parameters are out of range.
func (s SolutionSpecification) Validate() error {
	if s.IdealProportionOfFreePeriods <= 0 || s.IdealProportionOfFreePeriods > 1 {
		return fmt.Errorf("ideal proportion of free periods must be in (0, 1], got %v", s.IdealProportionOfFreePeriods)
	}
	return nil
}
