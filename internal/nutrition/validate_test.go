package nutrition

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"valid", "Chicken Breast", ""},
		{"apostrophe and hyphen", "Mom's Stir-Fry", ""},
		{"empty", "   ", "Food name is required"},
		{"too short", "A", "at least 2"},
		{"too long", strings.Repeat("a", 101), "less than 100"},
		{"bad characters", "Pizza!", "can only contain"},
		{"reserved prefix", "Admin Shake", "reserved words"},
		{"reserved prefix any case", "SYSTEM food", "reserved words"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input, "Food")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSanitizeCategories(t *testing.T) {
	got := SanitizeCategories([]string{"protein", " ", "meat", strings.Repeat("x", 51), "lunch", "dinner"})
	assert.Equal(t, []string{"protein", "meat", "lunch"}, got)
	assert.Empty(t, SanitizeCategories(nil))
}

func TestValidateFood(t *testing.T) {
	assert.NoError(t, ValidateFood(165, 31, 0, 3.6))
	assert.ErrorContains(t, ValidateFood(10001, 0, 0, 0), "Calories")
	assert.ErrorContains(t, ValidateFood(0, -1, 0, 0), "Protein")
}

func TestValidateWorkoutLog(t *testing.T) {
	assert.NoError(t, ValidateWorkoutLog(3, 10, 50, 30, 12))
	assert.ErrorContains(t, ValidateWorkoutLog(101, 0, 0, 0, 0), "Sets")
	assert.ErrorContains(t, ValidateWorkoutLog(0, 0, 0, 1441, 0), "Duration")
	assert.ErrorContains(t, ValidateWorkoutLog(0, 0, 0, 0, 101), "Speed")
}
