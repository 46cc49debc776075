package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/jon4hz/lifetrack/internal/cache"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/notify/email"
	"github.com/jon4hz/lifetrack/internal/nutrition"
	"github.com/jon4hz/lifetrack/internal/policy"
)

// catalogItem is the constraint of pointers to catalog types.
type catalogItem[T any] interface {
	*T
	Meta() *database.CatalogItem
}

// catalog is the shared logic of the food and workout catalogs.
type catalog[T policy.Item, PT catalogItem[T]] struct {
	kind       database.Kind
	label      string
	coll       *database.Collection[T]
	cache      *cache.PrefixedCache[[]T]
	expiration store.Option

	// mu orders cache fills against writes, so a fill that read the
	// document before a write can never be stored after its invalidation.
	mu sync.Mutex
}

func (c *catalog[T, PT]) load(ctx context.Context) ([]T, error) {
	if items, err := c.cache.Get(ctx, cache.CatalogKey); err == nil {
		return items, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if items, err := c.cache.Get(ctx, cache.CatalogKey); err == nil {
		return items, nil
	}
	items, err := c.coll.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, cache.CatalogKey, items, c.expiration); err != nil {
		log.Warn("failed to cache catalog", "kind", c.kind, "error", err)
	}
	return items, nil
}

// update runs fn as a read-modify-write of the collection and drops the cached listing.
func (c *catalog[T, PT]) update(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.coll.Update(ctx, fn)
	if cerr := c.cache.Delete(ctx, cache.CatalogKey); cerr != nil {
		log.Warn("failed to invalidate catalog cache", "kind", c.kind, "error", cerr)
	}
	return err
}

// findIndex returns the index of the item called name. Among several
// matches the first one satisfying prefer wins, then the first match.
func findIndex[T policy.Item](items []T, name string, prefer func(T) bool) int {
	first := -1
	for i, item := range items {
		if !policy.SameName(item.GetName(), name) {
			continue
		}
		if prefer == nil || prefer(item) {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}

// resolve finds the item called name that actor may use. If only items the
// actor may not use carry the name, the first of those is returned with ok false.
func resolve[T policy.Item](items []T, name string, actor policy.Actor) (item T, found, ok bool) {
	i := findIndex(items, name, func(it T) bool { return policy.IsListable(it, actor) })
	if i < 0 {
		return item, false, false
	}
	return items[i], true, policy.IsListable(items[i], actor)
}

func isPending[T policy.Item](item T) bool {
	return policy.IsPendingModeration(item)
}

func (c *catalog[T, PT]) list(ctx context.Context, actor policy.Actor) ([]T, error) {
	items, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return policy.Listable(items, actor), nil
}

func (c *catalog[T, PT]) get(ctx context.Context, actor policy.Actor, name string) (T, error) {
	var zero T
	items, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	item, found, ok := resolve(items, name, actor)
	if !found || !ok {
		return zero, notFound(strings.ToLower(c.label), name)
	}
	return item, nil
}

// submit stores item. Public items enter moderation, private ones are usable by the creator right away.
func (c *catalog[T, PT]) submit(ctx context.Context, item T) (T, error) {
	meta := PT(&item).Meta()
	meta.PendingApproval = meta.Public
	err := c.update(ctx, func(items []T) ([]T, error) {
		if meta.Public && policy.HasDuplicatePublicName(items, meta.Name) {
			return nil, validationErrorf("A public %s with this name already exists or is pending approval.", strings.ToLower(c.label))
		}
		return append(items, item), nil
	})
	return item, err
}

// remove deletes the first item called name that actor may delete.
func (c *catalog[T, PT]) remove(ctx context.Context, actor policy.Actor, name string) (T, error) {
	var removed T
	err := c.update(ctx, func(items []T) ([]T, error) {
		i := findIndex(items, name, func(it T) bool { return policy.CanDelete(it, actor) })
		if i < 0 {
			return nil, notFound(strings.ToLower(c.label), name)
		}
		if !policy.CanDelete(items[i], actor) {
			// report on an item the actor can see, if there is one
			i = findIndex(items, name, func(it T) bool { return policy.IsListable(it, actor) })
		}
		if !policy.IsListable(items[i], actor) && !actor.Admin {
			return nil, notFound(strings.ToLower(c.label), name)
		}
		if !policy.CanDelete(items[i], actor) {
			return nil, permissionDenied(fmt.Sprintf("you can't delete this %s", strings.ToLower(c.label)))
		}
		removed = items[i]
		return slices.Delete(items, i, i+1), nil
	})
	return removed, err
}

// approve clears the pending flag of the item called name. Approving an
// already approved item succeeds without changes.
func (c *catalog[T, PT]) approve(ctx context.Context, name string) (T, error) {
	var approved T
	err := c.update(ctx, func(items []T) ([]T, error) {
		i := findIndex(items, name, isPending[T])
		if i < 0 {
			return nil, notFound(strings.ToLower(c.label), name)
		}
		PT(&items[i]).Meta().PendingApproval = false
		approved = items[i]
		return items, nil
	})
	return approved, err
}

// reject removes the pending item called name. Items outside moderation
// are not found.
func (c *catalog[T, PT]) reject(ctx context.Context, name string) (T, error) {
	var rejected T
	err := c.update(ctx, func(items []T) ([]T, error) {
		i := findIndex(items, name, isPending[T])
		if i < 0 || !isPending(items[i]) {
			return nil, notFound(strings.ToLower(c.label), name)
		}
		rejected = items[i]
		return slices.Delete(items, i, i+1), nil
	})
	return rejected, err
}

func (c *catalog[T, PT]) pending(ctx context.Context) ([]T, error) {
	items, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return policy.Pending(items), nil
}

// FoodSubmission is the user input of a new food.
type FoodSubmission struct {
	Name       string   `json:"name"`
	Calories   float64  `json:"calories"`
	Protein    float64  `json:"protein"`
	Carbs      float64  `json:"carbs"`
	Fat        float64  `json:"fat"`
	Categories []string `json:"categories"`
	Public     bool     `json:"public"`
}

// WorkoutSubmission is the user input of a new workout.
type WorkoutSubmission struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Public     bool     `json:"public"`
}

// ListFoods returns the foods actor may see.
func (e *Engine) ListFoods(ctx context.Context, actor policy.Actor) ([]database.Food, error) {
	return e.foods.list(ctx, actor)
}

// ListWorkouts returns the workouts actor may see.
func (e *Engine) ListWorkouts(ctx context.Context, actor policy.Actor) ([]database.Workout, error) {
	return e.workouts.list(ctx, actor)
}

// GetFood returns the food called name if actor may see it.
func (e *Engine) GetFood(ctx context.Context, actor policy.Actor, name string) (database.Food, error) {
	return e.foods.get(ctx, actor, name)
}

// GetWorkout returns the workout called name if actor may see it.
func (e *Engine) GetWorkout(ctx context.Context, actor policy.Actor, name string) (database.Workout, error) {
	return e.workouts.get(ctx, actor, name)
}

// SubmitFood validates and stores a new food created by actor.
func (e *Engine) SubmitFood(ctx context.Context, actor policy.Actor, in FoodSubmission) (database.Food, error) {
	name := strings.TrimSpace(in.Name)
	if err := nutrition.ValidateName(name, "Food"); err != nil {
		return database.Food{}, asValidation(err)
	}
	if err := nutrition.ValidateFood(in.Calories, in.Protein, in.Carbs, in.Fat); err != nil {
		return database.Food{}, asValidation(err)
	}

	food, err := e.foods.submit(ctx, database.Food{
		CatalogItem: database.CatalogItem{
			Name:       name,
			Creator:    actor.Username,
			Public:     in.Public,
			Categories: nutrition.SanitizeCategories(in.Categories),
		},
		Nutrition: database.Nutrition{
			Calories: in.Calories,
			Protein:  in.Protein,
			Carbs:    in.Carbs,
			Fat:      in.Fat,
		},
	})
	if err != nil {
		return database.Food{}, err
	}
	e.afterSubmit(ctx, database.KindFood, food.CatalogItem)
	return food, nil
}

// SubmitWorkout validates and stores a new workout created by actor.
func (e *Engine) SubmitWorkout(ctx context.Context, actor policy.Actor, in WorkoutSubmission) (database.Workout, error) {
	name := strings.TrimSpace(in.Name)
	if err := nutrition.ValidateName(name, "Workout"); err != nil {
		return database.Workout{}, asValidation(err)
	}

	workout, err := e.workouts.submit(ctx, database.Workout{
		CatalogItem: database.CatalogItem{
			Name:       name,
			Creator:    actor.Username,
			Public:     in.Public,
			Categories: nutrition.SanitizeCategories(in.Categories),
		},
	})
	if err != nil {
		return database.Workout{}, err
	}
	e.afterSubmit(ctx, database.KindWorkout, workout.CatalogItem)
	return workout, nil
}

// afterSubmit records public submissions and tells the admins about them.
func (e *Engine) afterSubmit(ctx context.Context, kind database.Kind, item database.CatalogItem) {
	if !item.PendingApproval {
		return
	}
	e.recordEvent(ctx, database.HistoryEventSubmitted, kind, item.Name, item.Creator)

	reviewURL := strings.TrimRight(e.cfg.ServerURL, "/") + "/admin"
	if e.email != nil {
		if err := e.email.SendSubmissionNotification(email.Submission{
			Kind:        string(kind),
			Name:        item.Name,
			Creator:     item.Creator,
			SubmittedAt: e.clock.Now(),
			ReviewURL:   reviewURL,
		}); err != nil {
			log.Errorf("failed to send submission email: %v", err)
		}
	}
	if e.ntfy != nil {
		if err := e.ntfy.SendSubmission(ctx, string(kind), item.Name, item.Creator, reviewURL); err != nil {
			log.Errorf("failed to send ntfy submission notification: %v", err)
		}
	}
}

// DeleteItem removes a food or workout called name on behalf of actor.
func (e *Engine) DeleteItem(ctx context.Context, actor policy.Actor, kind database.Kind, name string) error {
	var (
		item database.CatalogItem
		err  error
	)
	switch kind {
	case database.KindFood:
		var f database.Food
		f, err = e.foods.remove(ctx, actor, name)
		item = f.CatalogItem
	case database.KindWorkout:
		var w database.Workout
		w, err = e.workouts.remove(ctx, actor, name)
		item = w.CatalogItem
	default:
		return validationErrorf("unknown item type %q", kind)
	}
	if err != nil {
		return err
	}
	if item.Public {
		e.recordEvent(ctx, database.HistoryEventDeleted, kind, item.Name, actor.Username)
	}
	return nil
}
