package engine

import (
	"context"
	"slices"
	"time"

	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/policy"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// timeoutDuration is how long a timeout suspends a user.
const timeoutDuration = 7 * 24 * time.Hour

// Dashboard is the moderation overview.
type Dashboard struct {
	Foods    []database.Food    `json:"foods"`
	Workouts []database.Workout `json:"workouts"`
	Entries  []database.Entry   `json:"entries"`
	Users    []database.User    `json:"users"`
}

// PendingItems returns everything awaiting moderation plus all users.
func (e *Engine) PendingItems(ctx context.Context, actor policy.Actor) (*Dashboard, error) {
	if err := e.requireAdmin(actor); err != nil {
		return nil, err
	}

	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Foods, err = e.foods.pending(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Workouts, err = e.workouts.pending(gctx)
		return err
	})
	g.Go(func() error {
		entries, err := e.db.Entries.Load(gctx)
		d.Entries = policy.Pending(entries)
		return err
	})
	g.Go(func() error {
		var err error
		d.Users, err = e.db.Users.Load(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ApproveItem makes a pending food or workout visible to everybody.
func (e *Engine) ApproveItem(ctx context.Context, actor policy.Actor, kind database.Kind, name string) error {
	if err := e.requireAdmin(actor); err != nil {
		return err
	}
	var (
		item database.CatalogItem
		err  error
	)
	switch kind {
	case database.KindFood:
		var f database.Food
		f, err = e.foods.approve(ctx, name)
		item = f.CatalogItem
	case database.KindWorkout:
		var w database.Workout
		w, err = e.workouts.approve(ctx, name)
		item = w.CatalogItem
	default:
		return validationErrorf("unknown item type %q", kind)
	}
	if err != nil {
		return err
	}
	e.recordEvent(ctx, database.HistoryEventApproved, kind, item.Name, actor.Username)
	return nil
}

// RejectItem removes a food or workout permanently.
func (e *Engine) RejectItem(ctx context.Context, actor policy.Actor, kind database.Kind, name string) error {
	if err := e.requireAdmin(actor); err != nil {
		return err
	}
	var (
		item database.CatalogItem
		err  error
	)
	switch kind {
	case database.KindFood:
		var f database.Food
		f, err = e.foods.reject(ctx, name)
		item = f.CatalogItem
	case database.KindWorkout:
		var w database.Workout
		w, err = e.workouts.reject(ctx, name)
		item = w.CatalogItem
	default:
		return validationErrorf("unknown item type %q", kind)
	}
	if err != nil {
		return err
	}
	e.recordEvent(ctx, database.HistoryEventRejected, kind, item.Name, actor.Username)
	return nil
}

// ApproveEntry clears the pending flag of the entry with the given id.
func (e *Engine) ApproveEntry(ctx context.Context, actor policy.Actor, id string) error {
	if err := e.requireAdmin(actor); err != nil {
		return err
	}
	var owner string
	err := e.db.Entries.Update(ctx, func(entries []database.Entry) ([]database.Entry, error) {
		i := slices.IndexFunc(entries, func(en database.Entry) bool { return en.ID == id })
		if i < 0 {
			return nil, notFound("entry", id)
		}
		entries[i].PendingApproval = false
		owner = entries[i].User
		return entries, nil
	})
	if err != nil {
		return err
	}
	e.invalidateStats(ctx, owner)
	e.recordEvent(ctx, database.HistoryEventEntryApproved, database.KindEntry, id, actor.Username)
	return nil
}

// RejectEntry removes the entry with the given id.
func (e *Engine) RejectEntry(ctx context.Context, actor policy.Actor, id string) error {
	if err := e.requireAdmin(actor); err != nil {
		return err
	}
	var owner string
	err := e.db.Entries.Update(ctx, func(entries []database.Entry) ([]database.Entry, error) {
		i := slices.IndexFunc(entries, func(en database.Entry) bool { return en.ID == id })
		if i < 0 {
			return nil, notFound("entry", id)
		}
		owner = entries[i].User
		return slices.Delete(entries, i, i+1), nil
	})
	if err != nil {
		return err
	}
	e.invalidateStats(ctx, owner)
	e.recordEvent(ctx, database.HistoryEventEntryRejected, database.KindEntry, id, actor.Username)
	return nil
}

// BanUser suspends username permanently.
func (e *Engine) BanUser(ctx context.Context, actor policy.Actor, username string) error {
	return e.suspend(ctx, actor, username, lo.ToPtr(database.BannedUntil), database.HistoryEventUserBanned)
}

// TimeoutUser suspends username for seven days.
func (e *Engine) TimeoutUser(ctx context.Context, actor policy.Actor, username string) error {
	until := e.clock.Now().Add(timeoutDuration).Format(time.RFC3339)
	return e.suspend(ctx, actor, username, &until, database.HistoryEventUserTimedOut)
}

// UnbanUser lifts any suspension of username.
func (e *Engine) UnbanUser(ctx context.Context, actor policy.Actor, username string) error {
	return e.suspend(ctx, actor, username, nil, database.HistoryEventUserUnbanned)
}

func (e *Engine) suspend(ctx context.Context, actor policy.Actor, username string, until *string, typ database.HistoryEventType) error {
	if err := e.requireAdmin(actor); err != nil {
		return err
	}
	if until != nil && username == actor.Username {
		return validationErrorf("You can't suspend yourself.")
	}
	if err := e.setSuspension(ctx, username, until); err != nil {
		return err
	}
	e.recordEvent(ctx, typ, database.KindUser, username, actor.Username)
	return nil
}

func (e *Engine) setSuspension(ctx context.Context, username string, until *string) error {
	return e.db.Users.Update(ctx, func(users []database.User) ([]database.User, error) {
		i := slices.IndexFunc(users, func(u database.User) bool { return u.Username == username })
		if i < 0 {
			return nil, notFound("user", username)
		}
		users[i].SuspendedUntil = until
		return users, nil
	})
}

// SetRole changes the role of username. It is meant for operators and is not exposed over HTTP.
func (e *Engine) SetRole(ctx context.Context, username string, role database.Role) error {
	if role != database.RoleUser && role != database.RoleAdmin {
		return validationErrorf("unknown role %q", role)
	}
	err := e.db.Users.Update(ctx, func(users []database.User) ([]database.User, error) {
		i := slices.IndexFunc(users, func(u database.User) bool { return u.Username == username })
		if i < 0 {
			return nil, notFound("user", username)
		}
		users[i].Role = role
		return users, nil
	})
	if err != nil {
		return err
	}
	e.recordEvent(ctx, database.HistoryEventRoleChanged, database.KindUser, username, systemActor)
	return nil
}
