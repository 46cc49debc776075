package engine

import (
	"fmt"
	"time"

	"github.com/jon4hz/lifetrack/internal/cache"
	"github.com/jon4hz/lifetrack/internal/clock"
	"github.com/jon4hz/lifetrack/internal/config"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/notify/email"
	"github.com/jon4hz/lifetrack/internal/notify/ntfy"
	"github.com/jon4hz/lifetrack/internal/policy"
	"github.com/jon4hz/lifetrack/internal/scheduler"
)

// Engine implements the tracker: catalog, moderation, entries, templates and accounts.
// Every operation takes the acting user explicitly.
type Engine struct {
	cfg       *config.Config
	db        *database.Client
	clock     clock.Clock
	email     *email.NotificationService
	ntfy      *ntfy.Client
	scheduler *scheduler.Scheduler
	cache     *cache.EngineCache

	foods    *catalog[database.Food, *database.Food]
	workouts *catalog[database.Workout, *database.Workout]
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates a new Engine instance.
func New(cfg *config.Config, db *database.Client, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:   cfg,
		db:    db,
		clock: clock.New(cfg.TimezoneOffsetHours),
	}
	for _, opt := range opts {
		opt(e)
	}

	sched, err := scheduler.New(e.clock.Now().Location())
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	e.scheduler = sched

	cacheCfg := cfg.Cache
	if cacheCfg == nil {
		cacheCfg = &config.CacheConfig{Type: config.CacheTypeMemory}
	}
	ttl := time.Duration(cacheCfg.TTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	e.cache = cache.NewEngineCache(cacheCfg, ttl)

	e.foods = &catalog[database.Food, *database.Food]{
		kind:       database.KindFood,
		label:      "Food",
		coll:       db.Foods,
		cache:      e.cache.FoodsCache,
		expiration: e.cache.Expiration(),
	}
	e.workouts = &catalog[database.Workout, *database.Workout]{
		kind:       database.KindWorkout,
		label:      "Workout",
		coll:       db.Workouts,
		cache:      e.cache.WorkoutsCache,
		expiration: e.cache.Expiration(),
	}

	if cfg.Email != nil {
		e.email = email.New(cfg.Email)
	}
	if cfg.Ntfy != nil && cfg.Ntfy.Enabled {
		e.ntfy = ntfy.NewClient(cfg.Ntfy)
	}

	if err := e.setupJobs(); err != nil {
		return nil, fmt.Errorf("failed to setup scheduled jobs: %w", err)
	}

	return e, nil
}

// GetEngineCache returns the engine cache instance.
func (e *Engine) GetEngineCache() *cache.EngineCache {
	return e.cache
}

// Now returns the current time of the engine clock.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

func (e *Engine) today() string {
	return clock.FormatDate(e.clock.Today())
}

// ActorFor returns the policy actor of user.
func ActorFor(user database.User) policy.Actor {
	return policy.Actor{Username: user.Username, Admin: user.IsAdmin()}
}

func (e *Engine) requireAdmin(actor policy.Actor) error {
	if !actor.Admin {
		return permissionDenied("admin access required")
	}
	return nil
}
