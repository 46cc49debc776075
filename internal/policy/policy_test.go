package policy

import (
	"testing"
	"time"

	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/stretchr/testify/assert"
)

func food(name, creator string, public, pending bool) database.Food {
	return database.Food{CatalogItem: database.CatalogItem{
		Name:            name,
		Creator:         creator,
		Public:          public,
		PendingApproval: pending,
	}}
}

func TestIsListable_Truth(t *testing.T) {
	alice := Actor{Username: "alice"}
	bob := Actor{Username: "bob"}
	admin := Actor{Username: "root", Admin: true}

	for _, public := range []bool{true, false} {
		for _, pending := range []bool{true, false} {
			item := food("Chicken", "alice", public, pending)
			for _, actor := range []Actor{alice, bob, admin, Anonymous} {
				want := (public && !pending) || actor.Username == "alice"
				assert.Equal(t, want, IsListable(item, actor),
					"public=%v pending=%v actor=%s", public, pending, actor.Username)
				assert.Equal(t, IsListable(item, actor), CanUseInTemplate(item, actor))
			}
		}
	}
}

func TestIsListable_CreatorIsCaseSensitive(t *testing.T) {
	item := food("Chicken", "alice", false, false)
	assert.False(t, IsListable(item, Actor{Username: "Alice"}))
}

func TestIsListable_EmptyCreatorNeverOwned(t *testing.T) {
	item := food("Orphan", "", false, false)
	assert.False(t, IsListable(item, Anonymous))
}

func TestCanDelete(t *testing.T) {
	tests := []struct {
		name  string
		item  database.Food
		actor Actor
		want  bool
	}{
		{"creator private", food("x", "alice", false, false), Actor{Username: "alice"}, true},
		{"creator pending", food("x", "alice", true, true), Actor{Username: "alice"}, true},
		{"stranger approved", food("x", "alice", true, false), Actor{Username: "bob"}, false},
		{"admin approved public", food("x", "alice", true, false), Actor{Username: "root", Admin: true}, true},
		{"admin pending", food("x", "alice", true, true), Actor{Username: "root", Admin: true}, false},
		{"admin private", food("x", "alice", false, false), Actor{Username: "root", Admin: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanDelete(tt.item, tt.actor))
		})
	}
}

func TestEntryPermissions(t *testing.T) {
	entry := database.Entry{ID: "1", User: "alice", Privacy: database.PrivacyPublic}
	assert.True(t, CanViewEntry(entry, Actor{Username: "bob"}))
	assert.False(t, CanEditEntry(entry, Actor{Username: "bob"}))
	assert.False(t, CanEditEntry(entry, Actor{Username: "root", Admin: true}))
	assert.True(t, CanEditEntry(entry, Actor{Username: "alice"}))

	entry.PendingApproval = true
	assert.False(t, CanViewEntry(entry, Actor{Username: "bob"}))
	assert.True(t, CanViewEntry(entry, Actor{Username: "alice"}))

	entry.PendingApproval = false
	entry.Privacy = database.PrivacyPrivate
	assert.False(t, CanViewEntry(entry, Actor{Username: "bob"}))
}

func TestHasDuplicatePublicName(t *testing.T) {
	items := []database.Food{
		food("Chicken", "alice", true, true),
		food("Secret Sauce", "bob", false, false),
	}
	assert.True(t, HasDuplicatePublicName(items, "chicken"))
	assert.True(t, HasDuplicatePublicName(items, "  CHICKEN "))
	assert.False(t, HasDuplicatePublicName(items, "secret sauce"))
	assert.False(t, HasDuplicatePublicName(items, "Rice"))
}

func TestListableAndPending(t *testing.T) {
	items := []database.Food{
		food("A", "alice", true, false),
		food("B", "alice", true, true),
		food("C", "bob", false, false),
	}
	listed := Listable(items, Actor{Username: "bob"})
	assert.Len(t, listed, 2)
	assert.Equal(t, "A", listed[0].Name)
	assert.Equal(t, "C", listed[1].Name)

	pending := Pending(items)
	assert.Len(t, pending, 1)
	assert.Equal(t, "B", pending[0].Name)
}

func TestIsSuspended(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	ptr := func(s string) *string { return &s }

	assert.False(t, IsSuspended(nil, now))
	assert.False(t, IsSuspended(ptr(""), now))
	assert.True(t, IsSuspended(ptr(database.BannedUntil), now))
	assert.True(t, IsSuspended(ptr("2024-03-17T12:00:00Z"), now))
	assert.True(t, IsSuspended(ptr("2024-03-17T12:00:00.123456"), now))
	assert.False(t, IsSuspended(ptr("2024-03-01T12:00:00Z"), now))
	assert.False(t, IsSuspended(ptr("next tuesday"), now))
}
