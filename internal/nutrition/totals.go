// Package nutrition computes entry totals, per-user statistics and macro recommendations.
package nutrition

import (
	"math"

	"github.com/jon4hz/lifetrack/internal/database"
)

// DefaultAmount is used for foods logged without a positive amount.
const DefaultAmount = 100.0

// Totals are the summed macros of one or more foods.
type Totals struct {
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Calories float64 `json:"calories"`
}

func (t Totals) add(o Totals) Totals {
	return Totals{
		Protein:  t.Protein + o.Protein,
		Carbs:    t.Carbs + o.Carbs,
		Fat:      t.Fat + o.Fat,
		Calories: t.Calories + o.Calories,
	}
}

// Amount returns the amount of a logged food, falling back to DefaultAmount.
func Amount(f database.FoodSnapshot) float64 {
	if f.Amount <= 0 {
		return DefaultAmount
	}
	return f.Amount
}

// FoodTotals scales the per-100 values of a logged food by its amount.
func FoodTotals(f database.FoodSnapshot) Totals {
	factor := Amount(f) / 100
	return Totals{
		Protein:  f.Protein * factor,
		Carbs:    f.Carbs * factor,
		Fat:      f.Fat * factor,
		Calories: f.Calories * factor,
	}
}

// RawTotals sums the foods of an entry without rounding.
func RawTotals(e database.Entry) Totals {
	var t Totals
	for _, f := range e.Foods {
		t = t.add(FoodTotals(f))
	}
	return t
}

// EntryTotals returns the totals of an entry rounded for display:
// macros to one decimal and calories to a whole number.
func EntryTotals(e database.Entry) Totals {
	t := RawTotals(e)
	return Totals{
		Protein:  Round1(t.Protein),
		Carbs:    Round1(t.Carbs),
		Fat:      Round1(t.Fat),
		Calories: math.Round(t.Calories),
	}
}

// DateMacros sums the foods of all entries dated date, rounded to one decimal.
func DateMacros(entries []database.Entry, date string) Totals {
	var t Totals
	for _, e := range entries {
		if e.Date == date {
			t = t.add(RawTotals(e))
		}
	}
	return t.round1()
}

func (t Totals) round1() Totals {
	return Totals{
		Protein:  Round1(t.Protein),
		Carbs:    Round1(t.Carbs),
		Fat:      Round1(t.Fat),
		Calories: Round1(t.Calories),
	}
}

// Round1 rounds half away from zero to one decimal.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
