package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSolutionSpecificationValidate(t *testing.T) {
	scenarios := []struct {
		name       string
		proportion float64
		valid      bool
	}{
		{name: "full proportion", proportion: 1, valid: true},
		{name: "half proportion", proportion: 0.5, valid: true},
		{name: "zero proportion", proportion: 0, valid: false},
		{name: "negative proportion", proportion: -0.2, valid: false},
		{name: "above one", proportion: 1.5, valid: false},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			spec := DefaultSolutionSpecification()
			spec.IdealProportionOfFreePeriods = scenario.proportion

			err := spec.Validate()

			if scenario.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFreePeriodPreferenceString(t *testing.T) {
	assert.Equal(t, "none", NoFreePeriodPreference().String())
	assert.Equal(t, "morning", MorningFreePeriods().String())
	assert.Equal(t, "afternoon", AfternoonFreePeriods().String())
	assert.Equal(t, "14:00", FreePeriodsAt(NewTimeOfDay(14, 0)).String())
}
