package nutrition

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Limits of user supplied values.
const (
	MaxCategories      = 5
	MaxCategoryLength  = 50
	MinNameLength      = 2
	MaxNameLength      = 100
	MaxFoodCalories    = 10000
	MaxFoodMacro       = 1000
	MaxWorkoutSets     = 100
	MaxWorkoutReps     = 1000
	MaxWorkoutWeight   = 1000
	MaxWorkoutDuration = 1440
	MaxWorkoutSpeed    = 100
	MaxProfileValue    = 10000
)

var (
	namePattern   = regexp.MustCompile(`^[a-zA-Z0-9\s\-']+$`)
	reservedNames = []string{"system", "admin", "default"}
)

// ValidateName checks a catalog or user name. kind is used in messages, e.g. "Food".
func ValidateName(name, kind string) error {
	name = strings.TrimSpace(name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return fmt.Errorf("%s name is required", kind)
	case n < MinNameLength:
		return fmt.Errorf("%s name must be at least %d characters", kind, MinNameLength)
	case n > MaxNameLength:
		return fmt.Errorf("%s name must be less than %d characters", kind, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%s name can only contain letters, numbers, spaces, hyphens, and apostrophes", kind)
	}
	lower := strings.ToLower(name)
	for _, r := range reservedNames {
		if strings.HasPrefix(lower, r) {
			return fmt.Errorf("%s name cannot start with reserved words", kind)
		}
	}
	return nil
}

// ValidateRange checks that value lies within [lo, hi].
func ValidateRange(value float64, field string, lo, hi float64) error {
	if value < lo || value > hi {
		return fmt.Errorf("%s must be between %g and %g", field, lo, hi)
	}
	return nil
}

// SanitizeCategories keeps at most MaxCategories categories and drops
// empty or overly long ones.
func SanitizeCategories(categories []string) []string {
	if len(categories) > MaxCategories {
		categories = categories[:MaxCategories]
	}
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" || utf8.RuneCountInString(c) > MaxCategoryLength {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ValidateFood checks the nutrition values of a new food.
func ValidateFood(calories, protein, carbs, fat float64) error {
	return errors.Join(
		ValidateRange(calories, "Calories", 0, MaxFoodCalories),
		ValidateRange(protein, "Protein", 0, MaxFoodMacro),
		ValidateRange(carbs, "Carbs", 0, MaxFoodMacro),
		ValidateRange(fat, "Fat", 0, MaxFoodMacro),
	)
}

// ValidateWorkoutLog checks the measurements of a logged workout.
func ValidateWorkoutLog(sets, reps int, weight, duration, speed float64) error {
	return errors.Join(
		ValidateRange(float64(sets), "Sets", 0, MaxWorkoutSets),
		ValidateRange(float64(reps), "Reps", 0, MaxWorkoutReps),
		ValidateRange(weight, "Weight", 0, MaxWorkoutWeight),
		ValidateRange(duration, "Duration", 0, MaxWorkoutDuration),
		ValidateRange(speed, "Speed", 0, MaxWorkoutSpeed),
	)
}
