package solver

import (
	"math"

	"timetabler/internal/domain"
	"timetabler/internal/lp"
)

// BuildObjective returns the free-period objective expression, or nil when
// the specification expresses no preference. Each decision variable is
// weighted by its slot's distance in hours from the preferred free time, so
// maximizing the expression pushes lessons away from it and leaves the slots
// nearest the preference free.
func BuildObjective(in *Inputs, v *Variables) lp.Expr {
	if in.Spec.OptimalFreePeriodTimeOfDay.Kind == domain.NoPreference {
		return nil
	}

	var expr lp.Expr
	for key, variable := range v.Decision {
		slot := in.Slot(key.SlotID)
		anchor := in.anchorTime(slot.Day)
		coef := math.Abs(slot.StartsAt.Hours()-anchor.Hours()) * in.Spec.IdealProportionOfFreePeriods
		if coef == 0 {
			continue
		}
		expr = expr.Add(variable, coef)
	}
	return expr
}

// anchorTime resolves the preferred free time to a concrete time of day for
// the given day's slots.
func (in *Inputs) anchorTime(day domain.Day) domain.TimeOfDay {
	pref := in.Spec.OptimalFreePeriodTimeOfDay
	if pref.Kind == domain.ExactTime {
		return pref.At
	}

	daySlots := make([]domain.TimetableSlot, 0)
	for _, slot := range in.Slots {
		if slot.Day == day {
			daySlots = append(daySlots, slot)
		}
	}
	if len(daySlots) == 0 {
		return domain.Noon
	}

	switch pref.Kind {
	case domain.Morning:
		for _, slot := range daySlots {
			if slot.StartsAt < domain.Noon {
				return slot.StartsAt
			}
		}
		return daySlots[0].StartsAt
	case domain.Afternoon:
		for _, slot := range daySlots {
			if slot.StartsAt >= domain.Noon {
				return slot.StartsAt
			}
		}
		return daySlots[len(daySlots)-1].StartsAt
	default:
		return domain.Noon
	}
}
