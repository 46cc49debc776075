package nutrition

import (
	"errors"

	"github.com/jon4hz/lifetrack/internal/database"
)

// Onboarding is the first profile a user fills in. Goal overrides are optional.
type Onboarding struct {
	Metrics
	ProteinGoal *float64 `json:"protein_goal"`
	CarbGoal    *float64 `json:"carb_goal"`
	FatGoal     *float64 `json:"fat_goal"`
	CalorieGoal *float64 `json:"calorie_goal"`
	Birthday    string   `json:"birthday"`
}

// BuildProfile validates o and returns the resulting profile with goals
// derived from the recommendation where no usable override was given.
func BuildProfile(o Onboarding) (database.Profile, error) {
	m := o.Metrics
	d := DefaultMetrics()
	if m.Weight == 0 {
		m.Weight = d.Weight
	}
	if m.Height == 0 {
		m.Height = d.Height
	}
	if m.Age == 0 {
		m.Age = d.Age
	}
	if m.ActivityLevel == 0 {
		m.ActivityLevel = d.ActivityLevel
	}

	if err := errors.Join(
		ValidateRange(m.Weight, "Weight", 30, 300),
		ValidateRange(m.Height, "Height", 100, 250),
		ValidateRange(m.Age, "Age", 13, 120),
		ValidateRange(m.ActivityLevel, "Activity level", 1, 3),
	); err != nil {
		return database.Profile{}, err
	}

	if m.Gender != GenderMale && m.Gender != GenderFemale {
		m.Gender = GenderMale
	}
	if _, ok := goalFactor[m.Goal]; !ok {
		m.Goal = GoalMaintain
	}

	rec := Recommend(m)
	return database.Profile{
		Height:             database.Number(m.Height),
		Weight:             database.Number(m.Weight),
		Age:                database.Number(m.Age),
		Gender:             m.Gender,
		Goal:               m.Goal,
		ActivityLevel:      database.Number(m.ActivityLevel),
		ProteinGoal:        database.Number(override(o.ProteinGoal, 0, 1000, rec.Protein)),
		CarbGoal:           database.Number(override(o.CarbGoal, 0, 2000, rec.Carbs)),
		FatGoal:            database.Number(override(o.FatGoal, 0, 500, rec.Fat)),
		CalorieGoal:        database.Number(override(o.CalorieGoal, 500, 10000, rec.Calories)),
		TDEE:               database.Number(rec.TDEE),
		BMR:                database.Number(rec.BMR),
		Birthday:           o.Birthday,
		OnboardingComplete: true,
	}, nil
}

func override(v *float64, lo, hi, fallback float64) float64 {
	if v == nil || *v < lo || *v > hi {
		return fallback
	}
	return *v
}
