package domain

import "fmt"

// Day of the week a slot or break occurs on.
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = map[Day]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

func (d Day) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Day(%d)", int(d))
}

// TimeOfDay is a clock time with minute precision, stored as minutes since midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func (t TimeOfDay) Hour() int { return int(t) / 60 }

func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Hours returns the time as a fractional hour count, e.g. 09:30 -> 9.5.
func (t TimeOfDay) Hours() float64 { return float64(t) / 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Noon divides the timetable into its morning and afternoon halves.
const Noon = TimeOfDay(12 * 60)

// TimeOfWeek bundles up the span of the week that a slot or break covers.
type TimeOfWeek struct {
	Day      Day
	StartsAt TimeOfDay
	EndsAt   TimeOfDay
}

// ClashesWith reports whether two spans cannot be double-booked for one resource.
//
// Two spans on the same day clash when they overlap in the open sense, or when
// they share an exact start or an exact end. The boundary rule exists so that
// the same nominal period defined twice (e.g. once per year group) is treated
// as one period; purely adjacent spans such as 9-10 and 10-11 do not clash.
func (t TimeOfWeek) ClashesWith(other TimeOfWeek) bool {
	if t.Day != other.Day {
		return false
	}
	if t.StartsAt < other.EndsAt && other.StartsAt < t.EndsAt {
		return true
	}
	return t.StartsAt == other.StartsAt || t.EndsAt == other.EndsAt
}
