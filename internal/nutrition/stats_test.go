package nutrition

import (
	"testing"
	"time"

	"github.com/jon4hz/lifetrack/internal/clock"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/stretchr/testify/assert"
)

var today = time.Date(2024, 3, 10, 0, 0, 0, 0, clock.New(4).Location())

func entryOn(date string, foods ...database.FoodSnapshot) database.Entry {
	return database.Entry{User: "alice", Date: date, Foods: foods}
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  int
	}{
		{"today yesterday and three days ago", []string{"2024-03-10", "2024-03-09", "2024-03-07"}, 2},
		{"nothing today", []string{"2024-03-09", "2024-03-08"}, 0},
		{"duplicates count once", []string{"2024-03-10", "2024-03-10", "2024-03-09"}, 2},
		{"unparsable dates are skipped", []string{"not-a-date", "2024-03-10"}, 1},
		{"future date stops the scan", []string{"2024-03-11", "2024-03-10"}, 0},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := make([]database.Entry, 0, len(tt.dates))
			for _, d := range tt.dates {
				entries = append(entries, entryOn(d))
			}
			assert.Equal(t, tt.want, Streak(entries, today))
		})
	}
}

func TestMostFrequent(t *testing.T) {
	assert.Equal(t, NotAvailable, MostFrequent(nil))
	assert.Equal(t, "Rice", MostFrequent([]string{"Oats", "Rice", "Rice"}))
	// ties go to the first occurrence
	assert.Equal(t, "Oats", MostFrequent([]string{"Oats", "Rice", "Rice", "Oats"}))
	assert.Equal(t, "Rice", MostFrequent([]string{"", "", "Rice"}))
}

func TestUserStats(t *testing.T) {
	run := database.WorkoutSnapshot{Name: "Run", Duration: 30}
	entries := []database.Entry{
		entryOn("2024-03-10", chicken(150)),
		entryOn("2024-03-10", chicken(100)),
		entryOn("2024-03-09", chicken(200)),
		{User: "alice", Date: "2024-03-09", Workouts: []database.WorkoutSnapshot{run}},
	}

	stats := UserStats(entries, today)
	assert.Equal(t, 2, stats.Streak)
	assert.Equal(t, 4, stats.TotalEntries)
	// (247.5 + 165 + 330) / 2 days
	assert.Equal(t, 371, stats.AvgCalories)
	assert.Equal(t, 413, stats.TodayCalories)
	assert.Equal(t, "Chicken", stats.FavoriteFood)
	assert.Equal(t, "Run", stats.FavoriteWorkout)
	assert.Equal(t, 77.5, stats.Macros.Protein)
	assert.Equal(t, 9.0, stats.Macros.Fat)
}

func TestUserStats_Empty(t *testing.T) {
	stats := UserStats(nil, today)
	assert.Zero(t, stats.Streak)
	assert.Zero(t, stats.AvgCalories)
	assert.Equal(t, NotAvailable, stats.FavoriteFood)
	assert.Equal(t, NotAvailable, stats.FavoriteWorkout)
}
