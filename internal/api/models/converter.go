package models

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/engine"
	"github.com/jon4hz/lifetrack/internal/policy"
	"github.com/mergestat/timediff"
	"github.com/samber/lo"
)

// ToUser converts a database.User for the request context.
func ToUser(u database.User, isBirthday bool) *User {
	return &User{
		Username:        u.Username,
		Role:            u.Role,
		IsAdmin:         u.IsAdmin(),
		NeedsOnboarding: engine.NeedsOnboarding(u),
		IsBirthday:      isBirthday,
	}
}

// ToAdminUser converts a database.User for the dashboard. The password hash is dropped.
func ToAdminUser(u database.User, now time.Time) AdminUser {
	item := AdminUser{
		Username:       u.Username,
		Role:           u.Role,
		SuspendedUntil: u.SuspendedUntil,
		Suspended:      policy.IsSuspended(u.SuspendedUntil, now),
	}
	if !item.Suspended {
		return item
	}
	if *u.SuspendedUntil == database.BannedUntil {
		item.SuspendedFor = "permanently"
		return item
	}
	if until, ok := policy.ParseSuspension(*u.SuspendedUntil); ok {
		item.SuspendedFor = humanize.RelTime(until, now, "ago", "from now")
	}
	return item
}

// ToDashboard converts the engine dashboard.
func ToDashboard(d *engine.Dashboard, now time.Time) Dashboard {
	return Dashboard{
		Foods:    d.Foods,
		Workouts: d.Workouts,
		Entries:  d.Entries,
		Users: lo.Map(d.Users, func(u database.User, _ int) AdminUser {
			return ToAdminUser(u, now)
		}),
	}
}

// ToHistoryItems converts history events.
func ToHistoryItems(events []database.HistoryEvent) []HistoryItem {
	return lo.Map(events, func(e database.HistoryEvent, _ int) HistoryItem {
		return HistoryItem{
			ID:        e.ID,
			Type:      e.Type,
			Kind:      e.Kind,
			Subject:   e.Subject,
			Actor:     e.Actor,
			CreatedAt: e.CreatedAt,
			Ago:       timediff.TimeDiff(e.CreatedAt),
		}
	})
}
