package nutrition

import (
	"testing"
	"time"

	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommend_Defaults(t *testing.T) {
	got := Recommend(DefaultMetrics())
	assert.Equal(t, Recommendation{
		Protein:  126,
		Carbs:    359.9,
		Fat:      63,
		Calories: 2511,
		TDEE:     2511,
		BMR:      1674,
	}, got)
}

func TestRecommend_FemaleLose(t *testing.T) {
	got := Recommend(Metrics{Weight: 60, Height: 165, Age: 30, Gender: "Female", Goal: "LOSE", ActivityLevel: 1.2})
	assert.Equal(t, 1320.0, got.BMR)
	assert.Equal(t, 1584.0, got.TDEE)
	assert.Equal(t, 1267.0, got.Calories)
	assert.Equal(t, 120.0, got.Protein)
	assert.Equal(t, 54.0, got.Fat)
	assert.Equal(t, 75.4, got.Carbs)
}

func TestRecommend_CarbsNeverNegative(t *testing.T) {
	got := Recommend(Metrics{Weight: 300, Height: 100, Age: 120, Gender: "female", Goal: "lose", ActivityLevel: 1})
	assert.Zero(t, got.Carbs)
}

func TestMetricsFromProfile(t *testing.T) {
	assert.Equal(t, DefaultMetrics(), MetricsFromProfile(nil))

	m := MetricsFromProfile(&database.Profile{Weight: 80, Goal: "gain"})
	assert.Equal(t, 80.0, m.Weight)
	assert.Equal(t, "gain", m.Goal)
	assert.Equal(t, 175.0, m.Height)
}

func TestBuildProfile(t *testing.T) {
	tooMuchProtein := 5000.0
	carbs := 250.0
	p, err := BuildProfile(Onboarding{
		Metrics:     Metrics{Weight: 70, Height: 175, Age: 25, Gender: "other", Goal: "bulk", ActivityLevel: 1.5},
		ProteinGoal: &tooMuchProtein,
		CarbGoal:    &carbs,
	})
	require.NoError(t, err)
	assert.Equal(t, GenderMale, p.Gender)
	assert.Equal(t, GoalMaintain, p.Goal)
	assert.Equal(t, 126.0, p.ProteinGoal.Float())
	assert.Equal(t, 250.0, p.CarbGoal.Float())
	assert.Equal(t, 63.0, p.FatGoal.Float())
	assert.Equal(t, 2511.0, p.CalorieGoal.Float())
	assert.Equal(t, 1674.0, p.BMR.Float())
	assert.True(t, p.OnboardingComplete)
}

func TestBuildProfile_Ranges(t *testing.T) {
	_, err := BuildProfile(Onboarding{Metrics: Metrics{Weight: 20}})
	assert.ErrorContains(t, err, "Weight must be between 30 and 300")

	_, err = BuildProfile(Onboarding{Metrics: Metrics{Height: 300}})
	assert.ErrorContains(t, err, "Height")

	_, err = BuildProfile(Onboarding{Metrics: Metrics{Age: 12}})
	assert.ErrorContains(t, err, "Age")
}

func TestIsBirthday(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, IsBirthday("1990-03-10", day))
	assert.False(t, IsBirthday("1990-03-11", day))
	assert.False(t, IsBirthday("", day))
	assert.False(t, IsBirthday("10.03.1990", day))
}
