package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/nutrition"
	"github.com/jon4hz/lifetrack/internal/policy"
	"golang.org/x/sync/errgroup"
)

// Measurements a referenced workout gets when a template is used.
const (
	defaultTemplateSets = 3
	defaultTemplateReps = 10
)

// TemplateInput describes a new template.
type TemplateInput struct {
	Name     string
	Foods    []database.TemplateFood
	Workouts []database.TemplateWorkout
}

// TemplateUpdate replaces the lists that are not nil.
type TemplateUpdate struct {
	Foods    *[]database.TemplateFood
	Workouts *[]database.TemplateWorkout
}

// TemplateSummary is a template in the listing.
type TemplateSummary struct {
	Name          string `json:"name"`
	FoodsCount    int    `json:"foods_count"`
	WorkoutsCount int    `json:"workouts_count"`
	CreatedAt     string `json:"created_at"`
}

// UseResult reports what UseTemplate logged.
type UseResult struct {
	Entries  []database.Entry `json:"entries"`
	Foods    int              `json:"foods"`
	Workouts int              `json:"workouts"`
}

// catalogs loads both catalogs in parallel.
func (e *Engine) catalogs(ctx context.Context) ([]database.Food, []database.Workout, error) {
	var (
		foods    []database.Food
		workouts []database.Workout
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		foods, err = e.foods.load(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		workouts, err = e.workouts.load(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return foods, workouts, nil
}

// resolveForTemplate finds the live item an item of a template points at.
func resolveForTemplate[T policy.Item](items []T, name, label string, actor policy.Actor) (T, error) {
	item, found, ok := resolve(items, name, actor)
	if !found {
		return item, validationErrorf("%s %q not found.", label, name)
	}
	if !ok {
		return item, permissionDenied(fmt.Sprintf("you don't have permission to use %s %q", strings.ToLower(label), name))
	}
	return item, nil
}

// normalizeFoods checks every food of a template and rebuilds snapshots
// from the live catalog, keeping only the amount given by the client.
func normalizeFoods(in []database.TemplateFood, foods []database.Food, actor policy.Actor) ([]database.TemplateFood, error) {
	out := make([]database.TemplateFood, 0, len(in))
	for _, item := range in {
		name := strings.TrimSpace(item.Name())
		if name == "" {
			return nil, validationErrorf("Template foods need a name.")
		}
		live, err := resolveForTemplate(foods, name, "Food", actor)
		if err != nil {
			return nil, err
		}
		if !item.IsSnapshot() {
			out = append(out, database.Reference[database.FoodSnapshot](live.Name))
			continue
		}
		amount := item.Snapshot.Amount
		if err := nutrition.ValidateRange(amount, "Amount", 0, nutrition.MaxProfileValue); err != nil {
			return nil, asValidation(err)
		}
		out = append(out, database.Embed(live.Snapshot(amount)))
	}
	return out, nil
}

// normalizeWorkouts is normalizeFoods for workouts, keeping the client's measurements.
func normalizeWorkouts(in []database.TemplateWorkout, workouts []database.Workout, actor policy.Actor) ([]database.TemplateWorkout, error) {
	out := make([]database.TemplateWorkout, 0, len(in))
	for _, item := range in {
		name := strings.TrimSpace(item.Name())
		if name == "" {
			return nil, validationErrorf("Template workouts need a name.")
		}
		live, err := resolveForTemplate(workouts, name, "Workout", actor)
		if err != nil {
			return nil, err
		}
		if !item.IsSnapshot() {
			out = append(out, database.Reference[database.WorkoutSnapshot](live.Name))
			continue
		}
		s := *item.Snapshot
		if err := nutrition.ValidateWorkoutLog(s.Sets, s.Reps, s.Weight, s.Duration, s.Speed); err != nil {
			return nil, asValidation(err)
		}
		snap := live.Snapshot()
		snap.Sets, snap.Reps = s.Sets, s.Reps
		snap.Weight, snap.Duration, snap.Speed = s.Weight, s.Duration, s.Speed
		out = append(out, database.Embed(snap))
	}
	return out, nil
}

func validateTemplateName(name string) error {
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return validationErrorf("Template name is required.")
	case n > nutrition.MaxNameLength:
		return validationErrorf("Template name must be less than %d characters.", nutrition.MaxNameLength)
	}
	return nil
}

func ownTemplate(actor policy.Actor, name string) func(database.Template) bool {
	return func(t database.Template) bool {
		return t.User == actor.Username && policy.SameName(t.Name, name)
	}
}

// CreateTemplate stores a new template of actor.
func (e *Engine) CreateTemplate(ctx context.Context, actor policy.Actor, in TemplateInput) (database.Template, error) {
	name := strings.TrimSpace(in.Name)
	if err := validateTemplateName(name); err != nil {
		return database.Template{}, err
	}
	foods, workouts, err := e.catalogs(ctx)
	if err != nil {
		return database.Template{}, err
	}
	tmpl := database.Template{
		Name:      name,
		User:      actor.Username,
		CreatedAt: e.clock.Now().Format(time.RFC3339),
	}
	if tmpl.Foods, err = normalizeFoods(in.Foods, foods, actor); err != nil {
		return database.Template{}, err
	}
	if tmpl.Workouts, err = normalizeWorkouts(in.Workouts, workouts, actor); err != nil {
		return database.Template{}, err
	}

	err = e.db.Templates.Update(ctx, func(templates []database.Template) ([]database.Template, error) {
		if slices.ContainsFunc(templates, ownTemplate(actor, name)) {
			return nil, validationErrorf("You already have a template named %q.", name)
		}
		return append(templates, tmpl), nil
	})
	if err != nil {
		return database.Template{}, err
	}
	return tmpl, nil
}

// UpdateTemplate replaces the foods and/or workouts of one of actor's templates.
func (e *Engine) UpdateTemplate(ctx context.Context, actor policy.Actor, name string, upd TemplateUpdate) (database.Template, error) {
	foods, workouts, err := e.catalogs(ctx)
	if err != nil {
		return database.Template{}, err
	}
	var newFoods []database.TemplateFood
	if upd.Foods != nil {
		if newFoods, err = normalizeFoods(*upd.Foods, foods, actor); err != nil {
			return database.Template{}, err
		}
	}
	var newWorkouts []database.TemplateWorkout
	if upd.Workouts != nil {
		if newWorkouts, err = normalizeWorkouts(*upd.Workouts, workouts, actor); err != nil {
			return database.Template{}, err
		}
	}

	var updated database.Template
	err = e.db.Templates.Update(ctx, func(templates []database.Template) ([]database.Template, error) {
		i := slices.IndexFunc(templates, ownTemplate(actor, name))
		if i < 0 {
			return nil, notFound("template", name)
		}
		if upd.Foods != nil {
			templates[i].Foods = newFoods
		}
		if upd.Workouts != nil {
			templates[i].Workouts = newWorkouts
		}
		updated = templates[i]
		return templates, nil
	})
	return updated, err
}

// DeleteTemplate removes one of actor's templates.
func (e *Engine) DeleteTemplate(ctx context.Context, actor policy.Actor, name string) error {
	return e.db.Templates.Update(ctx, func(templates []database.Template) ([]database.Template, error) {
		i := slices.IndexFunc(templates, ownTemplate(actor, name))
		if i < 0 {
			return nil, notFound("template", name)
		}
		return slices.Delete(templates, i, i+1), nil
	})
}

// ListTemplates summarizes actor's templates.
func (e *Engine) ListTemplates(ctx context.Context, actor policy.Actor) ([]TemplateSummary, error) {
	templates, err := e.db.Templates.Load(ctx)
	if err != nil {
		return nil, err
	}
	summaries := []TemplateSummary{}
	for _, t := range templates {
		if t.User != actor.Username {
			continue
		}
		summaries = append(summaries, TemplateSummary{
			Name:          t.Name,
			FoodsCount:    len(t.Foods),
			WorkoutsCount: len(t.Workouts),
			CreatedAt:     t.CreatedAt,
		})
	}
	return summaries, nil
}

// TemplateDetails returns one of actor's templates.
func (e *Engine) TemplateDetails(ctx context.Context, actor policy.Actor, name string) (database.Template, error) {
	templates, err := e.db.Templates.Load(ctx)
	if err != nil {
		return database.Template{}, err
	}
	i := slices.IndexFunc(templates, ownTemplate(actor, name))
	if i < 0 {
		return database.Template{}, notFound("template", name)
	}
	return templates[i], nil
}

// UseTemplate logs the items of one of actor's templates for today. Items
// whose catalog entry is gone or no longer usable by actor are skipped.
// At most two entries are created, one for foods and one for workouts.
func (e *Engine) UseTemplate(ctx context.Context, actor policy.Actor, name string) (*UseResult, error) {
	tmpl, err := e.TemplateDetails(ctx, actor, name)
	if err != nil {
		return nil, err
	}
	foods, workouts, err := e.catalogs(ctx)
	if err != nil {
		return nil, err
	}

	var snaps []database.FoodSnapshot
	for _, item := range tmpl.Foods {
		live, found, ok := resolve(foods, item.Name(), actor)
		if !found || !ok {
			log.Debug("skipping template food", "template", tmpl.Name, "food", item.Name(), "found", found)
			continue
		}
		if !item.IsSnapshot() {
			snaps = append(snaps, live.Snapshot(nutrition.DefaultAmount))
			continue
		}
		s := *item.Snapshot
		if s.Amount <= 0 {
			s.Amount = nutrition.DefaultAmount
		}
		snaps = append(snaps, s)
	}

	var workoutSnaps []database.WorkoutSnapshot
	for _, item := range tmpl.Workouts {
		live, found, ok := resolve(workouts, item.Name(), actor)
		if !found || !ok {
			log.Debug("skipping template workout", "template", tmpl.Name, "workout", item.Name(), "found", found)
			continue
		}
		if !item.IsSnapshot() {
			s := live.Snapshot()
			s.Sets, s.Reps = defaultTemplateSets, defaultTemplateReps
			workoutSnaps = append(workoutSnaps, s)
			continue
		}
		workoutSnaps = append(workoutSnaps, *item.Snapshot)
	}

	if len(snaps) == 0 && len(workoutSnaps) == 0 {
		return nil, ErrNothingToLog
	}

	result := &UseResult{Foods: len(snaps), Workouts: len(workoutSnaps)}
	if len(snaps) > 0 {
		entry := e.newEntry(actor.Username)
		entry.Foods = snaps
		result.Entries = append(result.Entries, entry)
	}
	if len(workoutSnaps) > 0 {
		entry := e.newEntry(actor.Username)
		entry.Workouts = workoutSnaps
		result.Entries = append(result.Entries, entry)
	}
	if err := e.appendEntries(ctx, actor.Username, result.Entries); err != nil {
		return nil, err
	}
	return result, nil
}
