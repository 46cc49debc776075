package database

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jon4hz/lifetrack/internal/config"
)

// Collection names.
const (
	CollectionUsers     = "users"
	CollectionFoods     = "foods"
	CollectionWorkouts  = "workouts"
	CollectionEntries   = "entries"
	CollectionTemplates = "templates"
	CollectionHistory   = "history"
)

// CollectionNames lists every collection the client manages.
var CollectionNames = []string{
	CollectionUsers,
	CollectionFoods,
	CollectionWorkouts,
	CollectionEntries,
	CollectionTemplates,
	CollectionHistory,
}

// legacyEntryNamespace derives stable ids for entries written before ids existed.
var legacyEntryNamespace = uuid.MustParse("6f1c4e0a-8d1b-4c55-9a43-2f7d0b9e6a11")

// Client gives typed access to all collections of a backend.
type Client struct {
	backend Backend

	Users     *Collection[User]
	Foods     *Collection[Food]
	Workouts  *Collection[Workout]
	Entries   *Collection[Entry]
	Templates *Collection[Template]
	History   *Collection[HistoryEvent]
}

// New wraps backend in a Client.
func New(backend Backend) *Client {
	entries := NewCollection[Entry](backend, CollectionEntries)
	entries.normalize = normalizeEntries

	return &Client{
		backend:   backend,
		Users:     NewCollection[User](backend, CollectionUsers),
		Foods:     NewCollection[Food](backend, CollectionFoods),
		Workouts:  NewCollection[Workout](backend, CollectionWorkouts),
		Entries:   entries,
		Templates: NewCollection[Template](backend, CollectionTemplates),
		History:   NewCollection[HistoryEvent](backend, CollectionHistory),
	}
}

// Open creates the backend selected in cfg and performs migrations.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case config.DatabaseBackendSQLite:
		backend, err = NewSQLiteBackend(cfg.Path)
	case config.DatabaseBackendJSON, "":
		backend, err = NewFileBackend(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	client := New(backend)
	if err := client.Migrate(ctx); err != nil {
		backend.Close() //nolint:errcheck
		return nil, err
	}
	return client, nil
}

// Migrate persists the fix-ups applied when older documents are loaded.
func (c *Client) Migrate(ctx context.Context) error {
	var changed bool
	err := c.Entries.Update(ctx, func(entries []Entry) ([]Entry, error) {
		changed = normalizeEntries(entries)
		return entries, nil
	})
	if err != nil {
		return fmt.Errorf("failed to migrate entries: %w", err)
	}
	if changed {
		log.Info("migrated legacy entries")
	}
	return nil
}

// Backend returns the underlying backend.
func (c *Client) Backend() Backend {
	return c.backend
}

// Close closes the backend.
func (c *Client) Close() error {
	return c.backend.Close()
}

// Counts returns the number of records per collection.
func (c *Client) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(CollectionNames))
	var err error
	if counts[CollectionUsers], err = count(ctx, c.Users); err != nil {
		return nil, err
	}
	if counts[CollectionFoods], err = count(ctx, c.Foods); err != nil {
		return nil, err
	}
	if counts[CollectionWorkouts], err = count(ctx, c.Workouts); err != nil {
		return nil, err
	}
	if counts[CollectionEntries], err = count(ctx, c.Entries); err != nil {
		return nil, err
	}
	if counts[CollectionTemplates], err = count(ctx, c.Templates); err != nil {
		return nil, err
	}
	if counts[CollectionHistory], err = count(ctx, c.History); err != nil {
		return nil, err
	}
	return counts, nil
}

// CopyTo writes the raw document of every collection to dst.
func (c *Client) CopyTo(ctx context.Context, dst Backend) error {
	for _, name := range CollectionNames {
		data, err := c.backend.Read(ctx, name)
		if err != nil {
			return fmt.Errorf("%w: failed to read %s: %w", ErrStorage, name, err)
		}
		if data == nil {
			continue
		}
		if err := dst.Write(ctx, name, data); err != nil {
			return fmt.Errorf("%w: failed to write %s: %w", ErrStorage, name, err)
		}
	}
	return nil
}

func count[T any](ctx context.Context, c *Collection[T]) (int, error) {
	items, err := c.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// normalizeEntries assigns ids and a privacy to entries that lack them.
// The derived ids are stable until the collection is written back.
func normalizeEntries(entries []Entry) bool {
	changed := false
	for i := range entries {
		e := &entries[i]
		if e.ID == "" {
			key := fmt.Sprintf("%d:%s:%s", i, e.User, e.Date)
			e.ID = uuid.NewSHA1(legacyEntryNamespace, []byte(key)).String()
			changed = true
		}
		if e.Privacy != PrivacyPublic && e.Privacy != PrivacyPrivate {
			e.Privacy = PrivacyPrivate
			changed = true
		}
	}
	return changed
}
