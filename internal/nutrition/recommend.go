package nutrition

import (
	"math"
	"strings"
	"time"

	"github.com/jon4hz/lifetrack/internal/clock"
	"github.com/jon4hz/lifetrack/internal/database"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"

	GoalLose     = "lose"
	GoalMaintain = "maintain"
	GoalGain     = "gain"
)

var (
	goalFactor = map[string]float64{
		GoalLose:     0.8,
		GoalMaintain: 1.0,
		GoalGain:     1.15,
	}
	proteinPerKg = map[string]float64{
		GoalLose:     2.0,
		GoalMaintain: 1.8,
		GoalGain:     2.0,
	}
)

// fatPerKg is the fat target in grams per kilogram of body weight.
const fatPerKg = 0.9

// ActivityLevels are the multipliers offered during onboarding.
var ActivityLevels = []struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}{
	{1.2, "Sedentary (little/no exercise)"},
	{1.375, "Light activity (light exercise 1-3 days/week)"},
	{1.5, "Moderate activity (moderate exercise 3-5 days/week)"},
	{1.725, "Very active (hard exercise 6-7 days/week)"},
	{1.9, "Extremely active (very hard exercise, physical job)"},
}

// Metrics are the body metrics a recommendation is based on.
type Metrics struct {
	Weight        float64 `json:"weight"`
	Height        float64 `json:"height"`
	Age           float64 `json:"age"`
	Gender        string  `json:"gender"`
	Goal          string  `json:"goal"`
	ActivityLevel float64 `json:"activity_level"`
}

// DefaultMetrics are used for values the user has not provided.
func DefaultMetrics() Metrics {
	return Metrics{
		Weight:        70,
		Height:        175,
		Age:           25,
		Gender:        GenderMale,
		Goal:          GoalMaintain,
		ActivityLevel: 1.5,
	}
}

// MetricsFromProfile fills the metrics known from p over the defaults.
func MetricsFromProfile(p *database.Profile) Metrics {
	m := DefaultMetrics()
	if p == nil {
		return m
	}
	if p.Weight > 0 {
		m.Weight = p.Weight.Float()
	}
	if p.Height > 0 {
		m.Height = p.Height.Float()
	}
	if p.Age > 0 {
		m.Age = p.Age.Float()
	}
	if p.Gender != "" {
		m.Gender = p.Gender
	}
	if p.Goal != "" {
		m.Goal = p.Goal
	}
	if p.ActivityLevel > 0 {
		m.ActivityLevel = p.ActivityLevel.Float()
	}
	return m
}

// Recommendation is a daily intake target.
type Recommendation struct {
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Calories float64 `json:"calories"`
	TDEE     float64 `json:"tdee"`
	BMR      float64 `json:"bmr"`
}

// Recommend computes daily targets with the Mifflin-St Jeor equation.
func Recommend(m Metrics) Recommendation {
	goal := strings.ToLower(m.Goal)

	s := -161.0
	if strings.EqualFold(m.Gender, GenderMale) {
		s = 5
	}
	bmr := 10*m.Weight + 6.25*m.Height - 5*m.Age + s
	tdee := bmr * m.ActivityLevel

	factor, ok := goalFactor[goal]
	if !ok {
		factor = 1.0
	}
	calories := tdee * factor

	perKg, ok := proteinPerKg[goal]
	if !ok {
		perKg = proteinPerKg[GoalMaintain]
	}
	protein := m.Weight * perKg
	fat := m.Weight * fatPerKg
	carbs := math.Max((calories-protein*4-fat*9)/4, 0)

	return Recommendation{
		Protein:  Round1(protein),
		Carbs:    Round1(carbs),
		Fat:      Round1(fat),
		Calories: math.Round(calories),
		TDEE:     math.Round(tdee),
		BMR:      math.Round(bmr),
	}
}

// IsBirthday reports whether birthday (YYYY-MM-DD) falls on the month and day of today.
func IsBirthday(birthday string, today time.Time) bool {
	if birthday == "" {
		return false
	}
	b, err := clock.ParseDate(birthday, today.Location())
	if err != nil {
		return false
	}
	return b.Month() == today.Month() && b.Day() == today.Day()
}
