package nutrition

import (
	"math"
	"sort"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/jon4hz/lifetrack/internal/clock"
	"github.com/jon4hz/lifetrack/internal/database"
)

// NotAvailable is reported as favorite when nothing was logged.
const NotAvailable = "N/A"

// Stats summarises the entries of one user.
type Stats struct {
	Streak          int    `json:"streak"`
	TotalEntries    int    `json:"total_entries"`
	AvgCalories     int    `json:"avg_calories"`
	TodayCalories   int    `json:"today_calories"`
	FavoriteFood    string `json:"favorite_food"`
	FavoriteWorkout string `json:"favorite_workout"`
	Macros          Totals `json:"macros"`
}

// UserStats computes the statistics of entries as seen on the calendar day today.
func UserStats(entries []database.Entry, today time.Time) Stats {
	todayStr := clock.FormatDate(today)

	var (
		calSum   float64
		calDays  = make(map[string]float64)
		foods    []string
		workouts []string
		macros   Totals
	)
	for _, e := range entries {
		for _, w := range e.Workouts {
			workouts = append(workouts, w.Name)
		}
		for _, f := range e.Foods {
			foods = append(foods, f.Name)
		}

		t := RawTotals(e)
		if t.Calories != 0 {
			calSum += t.Calories
			calDays[e.Date] += t.Calories
		}
		if e.Date == todayStr {
			macros = macros.add(t)
		}
	}

	stats := Stats{
		Streak:          Streak(entries, today),
		TotalEntries:    len(entries),
		FavoriteFood:    MostFrequent(foods),
		FavoriteWorkout: MostFrequent(workouts),
		Macros: Totals{
			Protein: Round1(macros.Protein),
			Carbs:   Round1(macros.Carbs),
			Fat:     Round1(macros.Fat),
		},
	}
	if len(calDays) > 0 {
		stats.AvgCalories = toInt(math.Floor(calSum / float64(len(calDays))))
	}
	stats.TodayCalories = toInt(math.Round(calDays[todayStr]))
	stats.Macros.Calories = float64(stats.TodayCalories)
	return stats
}

// Streak counts consecutive days with at least one entry, going back from today.
// Dates that do not parse are skipped.
func Streak(entries []database.Entry, today time.Time) int {
	seen := make(map[string]struct{}, len(entries))
	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Date]; ok {
			continue
		}
		seen[e.Date] = struct{}{}
		dates = append(dates, e.Date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	streak := 0
	cursor := clock.TruncateDay(today)
	for _, d := range dates {
		dt, err := clock.ParseDate(d, cursor.Location())
		if err != nil {
			continue
		}
		if !dt.Equal(cursor) {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// MostFrequent returns the most common non-empty name. Ties go to the
// name that occurs first.
func MostFrequent(names []string) string {
	counts := make(map[string]int, len(names))
	best, bestCount := NotAvailable, 0
	for _, n := range names {
		if n == "" {
			continue
		}
		counts[n]++
	}
	for _, n := range names {
		if n == "" {
			continue
		}
		if c := counts[n]; c > bestCount {
			best, bestCount = n, c
		}
	}
	return best
}

func toInt(v float64) int {
	n, err := safecast.Convert[int](v)
	if err != nil {
		return 0
	}
	return n
}
