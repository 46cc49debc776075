package database_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/database/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_LoadMissingIsEmpty(t *testing.T) {
	client, _ := mock.NewClient()

	foods, err := client.Foods.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, foods)
	assert.Empty(t, foods)
}

func TestCollection_MalformedDegradesToEmpty(t *testing.T) {
	client, backend := mock.NewClient()
	backend.SeedRaw(database.CollectionFoods, []byte(`{"not": "a list"}`))

	foods, err := client.Foods.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, foods)

	// a writer keeps a copy of the malformed document before replacing it
	err = client.Foods.Update(context.Background(), func(items []database.Food) ([]database.Food, error) {
		return append(items, database.Food{CatalogItem: database.CatalogItem{Name: "Rice"}}), nil
	})
	require.NoError(t, err)

	var quarantined bool
	for _, name := range backend.Names() {
		if strings.HasPrefix(name, database.CollectionFoods+".corrupt-") {
			quarantined = true
		}
	}
	assert.True(t, quarantined)

	foods, err = client.Foods.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, foods, 1)
	assert.Equal(t, "Rice", foods[0].Name)
}

func TestCollection_UpdateErrorSkipsWrite(t *testing.T) {
	client, backend := mock.NewClient()
	boom := errors.New("boom")

	err := client.Users.Update(context.Background(), func(users []database.User) ([]database.User, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, backend.Writes[database.CollectionUsers])
}

func TestCollection_StorageErrors(t *testing.T) {
	client, backend := mock.NewClient()
	backend.ReadError = errors.New("disk gone")

	_, err := client.Users.Load(context.Background())
	assert.ErrorIs(t, err, database.ErrStorage)

	backend.ReadError = nil
	backend.WriteError = errors.New("disk full")
	err = client.Users.Update(context.Background(), func(users []database.User) ([]database.User, error) {
		return users, nil
	})
	assert.ErrorIs(t, err, database.ErrStorage)
}

func TestCollection_UpdateSerializesWriters(t *testing.T) {
	client, _ := mock.NewClient()
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := client.History.Update(ctx, func(events []database.HistoryEvent) ([]database.HistoryEvent, error) {
				return append(events, database.HistoryEvent{Type: database.HistoryEventSubmitted}), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	events, err := client.History.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 50)
}

func TestMigrate_AssignsEntryIDs(t *testing.T) {
	client, backend := mock.NewClient()
	require.NoError(t, backend.Seed(database.CollectionEntries, []map[string]any{
		{"user": "alice", "date": "2024-03-01", "foods": []any{}, "workouts": []any{}},
		{"user": "bob", "date": "2024-03-02", "privacy": "Public"},
	}))

	first, err := client.Entries.Load(context.Background())
	require.NoError(t, err)
	second, err := client.Entries.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.NotEmpty(t, first[0].ID)
	assert.NotEqual(t, first[0].ID, first[1].ID)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, database.PrivacyPrivate, first[0].Privacy)
	assert.Equal(t, database.PrivacyPublic, first[1].Privacy)

	require.NoError(t, client.Migrate(context.Background()))
	assert.Contains(t, string(backend.Raw(database.CollectionEntries)), first[0].ID)
}

func TestFileBackend_WriteAndRead(t *testing.T) {
	dir := t.TempDir()
	backend, err := database.NewFileBackend(dir)
	require.NoError(t, err)
	ctx := context.Background()

	data, err := backend.Read(ctx, "foods")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, backend.Write(ctx, "foods", []byte(`[{"name":"Rice"}]`)))
	require.NoError(t, backend.Write(ctx, "foods", []byte(`[{"name":"Oats"}]`)))

	data, err = backend.Read(ctx, "foods")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Oats"}]`, string(data))

	// no temp or backup files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "foods.json", entries[0].Name())
}

func TestFileBackend_InvalidJSONKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	backend, err := database.NewFileBackend(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, backend.Write(ctx, "users", []byte(`[]`)))
	assert.Error(t, backend.Write(ctx, "users", []byte(`[{`)))

	data, err := os.ReadFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestSQLiteBackend_RoundTrip(t *testing.T) {
	backend, err := database.NewSQLiteBackend(filepath.Join(t.TempDir(), "lifetrack.db"))
	require.NoError(t, err)
	defer backend.Close() //nolint:errcheck

	client := database.New(backend)
	ctx := context.Background()

	require.NoError(t, client.Foods.Update(ctx, func(foods []database.Food) ([]database.Food, error) {
		return append(foods, database.Food{
			CatalogItem: database.CatalogItem{Name: "Chicken", Creator: "alice", Public: true, PendingApproval: true},
			Nutrition:   database.Nutrition{Calories: 165, Protein: 31, Fat: 3.6},
		}), nil
	}))
	require.NoError(t, client.Foods.Update(ctx, func(foods []database.Food) ([]database.Food, error) {
		foods[0].PendingApproval = false
		return foods, nil
	}))

	foods, err := client.Foods.Load(ctx)
	require.NoError(t, err)
	require.Len(t, foods, 1)
	assert.False(t, foods[0].PendingApproval)
	assert.Equal(t, 165.0, foods[0].Calories)

	counts, err := client.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[database.CollectionFoods])
	assert.Equal(t, 0, counts[database.CollectionUsers])
}

func TestClient_CopyTo(t *testing.T) {
	src, srcBackend := mock.NewClient()
	ctx := context.Background()
	require.NoError(t, src.Users.Replace(ctx, []database.User{{Username: "alice", Role: database.RoleUser}}))

	dst := mock.NewBackend()
	require.NoError(t, src.CopyTo(ctx, dst))
	assert.Equal(t, srcBackend.Raw(database.CollectionUsers), dst.Raw(database.CollectionUsers))
	assert.Nil(t, dst.Raw(database.CollectionFoods))
}
