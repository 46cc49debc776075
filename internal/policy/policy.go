// Package policy decides who may see, use and remove catalog items and entries.
package policy

import (
	"strings"

	"github.com/samber/lo"
)

// Item is anything with a creator and a visibility state: foods, workouts and entries.
type Item interface {
	GetName() string
	GetCreator() string
	IsPublic() bool
	IsPending() bool
}

// Actor is the user on whose behalf an operation runs.
type Actor struct {
	Username string
	Admin    bool
}

// Anonymous is an actor without a session.
var Anonymous = Actor{}

func (a Actor) owns(item Item) bool {
	return a.Username != "" && item.GetCreator() == a.Username
}

// IsListable reports whether actor may see item in a listing.
// Approved public items are visible to everyone; everything else only to its creator.
// Admins get no exception here, they see pending items through the moderation dashboard.
func IsListable(item Item, actor Actor) bool {
	return (item.IsPublic() && !item.IsPending()) || actor.owns(item)
}

// CanDelete reports whether actor may delete item.
func CanDelete(item Item, actor Actor) bool {
	if actor.owns(item) {
		return true
	}
	return actor.Admin && item.IsPublic() && !item.IsPending()
}

// CanUseInTemplate reports whether actor may put item into a template or replay it from one.
func CanUseInTemplate(item Item, actor Actor) bool {
	return IsListable(item, actor)
}

// IsPendingModeration reports whether item waits for an admin decision.
func IsPendingModeration(item Item) bool {
	return item.IsPending()
}

// CanViewEntry reports whether actor may see a log entry.
func CanViewEntry(entry Item, actor Actor) bool {
	return IsListable(entry, actor)
}

// CanEditEntry reports whether actor may change or delete a log entry.
func CanEditEntry(entry Item, actor Actor) bool {
	return actor.owns(entry)
}

// HasDuplicatePublicName reports whether a public item, pending or approved,
// already uses name. Names are compared trimmed and case-insensitively.
func HasDuplicatePublicName[T Item](items []T, name string) bool {
	return lo.ContainsBy(items, func(item T) bool {
		return item.IsPublic() && SameName(item.GetName(), name)
	})
}

// SameName compares two catalog names the way lookups do.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Listable returns the items actor may see.
func Listable[T Item](items []T, actor Actor) []T {
	return lo.Filter(items, func(item T, _ int) bool {
		return IsListable(item, actor)
	})
}

// Pending returns the items waiting for moderation.
func Pending[T Item](items []T) []T {
	return lo.Filter(items, func(item T, _ int) bool {
		return IsPendingModeration(item)
	})
}
