package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jon4hz/lifetrack/internal/clock"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/nutrition"
	"github.com/jon4hz/lifetrack/internal/policy"
)

// FoodSelection is one food to log with its amount.
type FoodSelection struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// WorkoutSelection is one workout to log with its optional measurements.
type WorkoutSelection struct {
	Name     string  `json:"name"`
	Sets     int     `json:"sets"`
	Reps     int     `json:"reps"`
	Weight   float64 `json:"weight"`
	Duration float64 `json:"duration"`
	Speed    float64 `json:"speed"`
}

// EntryView is an entry with its derived totals.
type EntryView struct {
	database.Entry
	Totals nutrition.Totals `json:"totals"`
}

// Home is what a user sees after logging in.
type Home struct {
	Entries []EntryView     `json:"entries"`
	Stats   nutrition.Stats `json:"stats"`
}

func (e *Engine) newEntry(owner string) database.Entry {
	return database.Entry{
		ID:       uuid.NewString(),
		User:     owner,
		Date:     e.today(),
		Foods:    []database.FoodSnapshot{},
		Workouts: []database.WorkoutSnapshot{},
		Privacy:  database.PrivacyPrivate,
	}
}

// LogFoods creates one entry per selected food, dated today.
func (e *Engine) LogFoods(ctx context.Context, actor policy.Actor, selections []FoodSelection) ([]database.Entry, error) {
	if len(selections) == 0 {
		return nil, validationErrorf("Please select at least one food item.")
	}
	foods, err := e.foods.load(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]database.Entry, 0, len(selections))
	for _, sel := range selections {
		if sel.Amount <= 0 {
			return nil, validationErrorf("Amount for %s must be greater than 0.", sel.Name)
		}
		if err := nutrition.ValidateRange(sel.Amount, "Amount", 0, nutrition.MaxProfileValue); err != nil {
			return nil, asValidation(err)
		}
		food, found, ok := resolve(foods, strings.TrimSpace(sel.Name), actor)
		if !found || !ok {
			return nil, notFound("food", sel.Name)
		}
		entry := e.newEntry(actor.Username)
		entry.Foods = append(entry.Foods, food.Snapshot(sel.Amount))
		entries = append(entries, entry)
	}

	if err := e.appendEntries(ctx, actor.Username, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LogWorkouts creates one entry per selected workout, dated today.
func (e *Engine) LogWorkouts(ctx context.Context, actor policy.Actor, selections []WorkoutSelection) ([]database.Entry, error) {
	if len(selections) == 0 {
		return nil, validationErrorf("Please select at least one workout.")
	}
	workouts, err := e.workouts.load(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]database.Entry, 0, len(selections))
	for _, sel := range selections {
		if err := nutrition.ValidateWorkoutLog(sel.Sets, sel.Reps, sel.Weight, sel.Duration, sel.Speed); err != nil {
			return nil, asValidation(err)
		}
		workout, found, ok := resolve(workouts, strings.TrimSpace(sel.Name), actor)
		if !found || !ok {
			return nil, notFound("workout", sel.Name)
		}
		snap := workout.Snapshot()
		snap.Sets = sel.Sets
		snap.Reps = sel.Reps
		snap.Weight = sel.Weight
		snap.Duration = sel.Duration
		snap.Speed = sel.Speed

		entry := e.newEntry(actor.Username)
		entry.Workouts = append(entry.Workouts, snap)
		entries = append(entries, entry)
	}

	if err := e.appendEntries(ctx, actor.Username, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (e *Engine) appendEntries(ctx context.Context, owner string, entries []database.Entry) error {
	err := e.db.Entries.Update(ctx, func(all []database.Entry) ([]database.Entry, error) {
		return append(all, entries...), nil
	})
	if err != nil {
		return err
	}
	e.invalidateStats(ctx, owner)
	return nil
}

// updateEntry applies fn to the entry with the given id if actor owns it.
// Entries the actor may not see are reported as missing.
func (e *Engine) updateEntry(ctx context.Context, actor policy.Actor, id string, fn func(entries []database.Entry, i int) []database.Entry) error {
	err := e.db.Entries.Update(ctx, func(entries []database.Entry) ([]database.Entry, error) {
		i := slices.IndexFunc(entries, func(en database.Entry) bool { return en.ID == id })
		if i < 0 || !policy.CanViewEntry(entries[i], actor) {
			return nil, notFound("entry", id)
		}
		if !policy.CanEditEntry(entries[i], actor) {
			return nil, permissionDenied("you can only change your own logs")
		}
		return fn(entries, i), nil
	})
	if err != nil {
		return err
	}
	e.invalidateStats(ctx, actor.Username)
	return nil
}

// DeleteEntry removes one of actor's entries.
func (e *Engine) DeleteEntry(ctx context.Context, actor policy.Actor, id string) error {
	return e.updateEntry(ctx, actor, id, func(entries []database.Entry, i int) []database.Entry {
		return slices.Delete(entries, i, i+1)
	})
}

// EditEntryDate moves one of actor's entries to another day.
func (e *Engine) EditEntryDate(ctx context.Context, actor policy.Actor, id, date string) error {
	t, err := clock.ParseDate(strings.TrimSpace(date), e.clock.Now().Location())
	if err != nil {
		return validationErrorf("Invalid date format, expected YYYY-MM-DD.")
	}
	return e.updateEntry(ctx, actor, id, func(entries []database.Entry, i int) []database.Entry {
		entries[i].Date = clock.FormatDate(t)
		return entries
	})
}

// ToggleEntryPrivacy flips one of actor's entries between Public and Private
// and returns the new privacy.
func (e *Engine) ToggleEntryPrivacy(ctx context.Context, actor policy.Actor, id string) (database.Privacy, error) {
	var privacy database.Privacy
	err := e.updateEntry(ctx, actor, id, func(entries []database.Entry, i int) []database.Entry {
		if entries[i].Privacy == database.PrivacyPublic {
			entries[i].Privacy = database.PrivacyPrivate
		} else {
			entries[i].Privacy = database.PrivacyPublic
		}
		privacy = entries[i].Privacy
		return entries
	})
	return privacy, err
}

// VisibleEntries returns the entries actor may see, newest date first.
func (e *Engine) VisibleEntries(ctx context.Context, actor policy.Actor) ([]EntryView, error) {
	entries, err := e.db.Entries.Load(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]EntryView, 0, len(entries))
	for _, entry := range entries {
		if !policy.CanViewEntry(entry, actor) {
			continue
		}
		views = append(views, EntryView{Entry: entry, Totals: nutrition.EntryTotals(entry)})
	}
	slices.SortStableFunc(views, func(a, b EntryView) int {
		return cmp.Compare(b.Date, a.Date)
	})
	return views, nil
}

// Home returns the visible entries together with actor's statistics.
func (e *Engine) Home(ctx context.Context, actor policy.Actor) (*Home, error) {
	views, err := e.VisibleEntries(ctx, actor)
	if err != nil {
		return nil, err
	}
	stats, err := e.UserStats(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &Home{Entries: views, Stats: stats}, nil
}

// UserStats returns actor's statistics for today. Results are cached per user and day.
func (e *Engine) UserStats(ctx context.Context, actor policy.Actor) (nutrition.Stats, error) {
	key := e.statsKey(actor.Username)
	if stats, err := e.cache.StatsCache.Get(ctx, key); err == nil {
		return stats, nil
	}
	own, err := e.ownEntries(ctx, actor.Username)
	if err != nil {
		return nutrition.Stats{}, err
	}
	stats := nutrition.UserStats(own, e.clock.Today())
	if err := e.cache.StatsCache.Set(ctx, key, stats, e.cache.Expiration()); err != nil {
		log.Warn("failed to cache stats", "user", actor.Username, "error", err)
	}
	return stats, nil
}

// DateMacros returns actor's macro totals of one day.
func (e *Engine) DateMacros(ctx context.Context, actor policy.Actor, date string) (nutrition.Totals, error) {
	if _, err := clock.ParseDate(date, e.clock.Now().Location()); err != nil {
		return nutrition.Totals{}, validationErrorf("Invalid date format, expected YYYY-MM-DD.")
	}
	own, err := e.ownEntries(ctx, actor.Username)
	if err != nil {
		return nutrition.Totals{}, err
	}
	return nutrition.DateMacros(own, date), nil
}

func (e *Engine) ownEntries(ctx context.Context, username string) ([]database.Entry, error) {
	entries, err := e.db.Entries.Load(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(entries, func(en database.Entry) bool { return en.User != username }), nil
}

func (e *Engine) statsKey(username string) string {
	return fmt.Sprintf("%s:%s", username, e.today())
}

func (e *Engine) invalidateStats(ctx context.Context, username string) {
	if username == "" {
		return
	}
	if err := e.cache.StatsCache.Delete(ctx, e.statsKey(username)); err != nil {
		log.Warn("failed to invalidate stats cache", "user", username, "error", err)
	}
}

