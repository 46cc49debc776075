package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/policy"
	"github.com/jon4hz/lifetrack/internal/scheduler"
)

const (
	suspensionSweepJobID = "suspension_sweep"
	backupJobID          = "backup"
	cacheFlushJobID      = "cache_flush"

	// cacheFlushSchedule runs at the start of every day in the engine zone.
	cacheFlushSchedule = "0 0 * * *"
	// keepBackups is how many backup snapshots are retained.
	keepBackups = 7
	// backupDirLayout names backup directories; it sorts chronologically.
	backupDirLayout = "20060102-150405"
)

// GetScheduler returns the scheduler instance for API access.
func (e *Engine) GetScheduler() *scheduler.Scheduler {
	return e.scheduler
}

// Run starts the engine and all its background jobs.
func (e *Engine) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := e.EnsureAdmins(ctx); err != nil {
		log.Errorf("failed to promote configured admins: %v", err)
	}

	// Start the scheduler
	e.scheduler.Start()

	// Wait for context cancellation
	<-ctx.Done()
	return nil
}

// Close stops the engine and cleans up resources.
func (e *Engine) Close() error {
	return e.scheduler.Stop()
}

// setupJobs configures all scheduled jobs.
func (e *Engine) setupJobs() error {
	sweepSchedule, backupSchedule := "*/15 * * * *", "0 3 * * *"
	if sc := e.cfg.Scheduler; sc != nil {
		if sc.SuspensionSweepSchedule != "" {
			sweepSchedule = sc.SuspensionSweepSchedule
		}
		if sc.BackupSchedule != "" {
			backupSchedule = sc.BackupSchedule
		}
	}

	if err := e.scheduler.AddSingletonJob(
		suspensionSweepJobID,
		"Suspension Sweep",
		"Lifts timeouts that have run out",
		sweepSchedule,
		func(ctx context.Context) error {
			_, err := e.SweepSuspensions(ctx)
			return err
		},
		true,
	); err != nil {
		return fmt.Errorf("failed to add suspension sweep job: %w", err)
	}

	if e.backupDir() != "" {
		if err := e.scheduler.AddSingletonJob(
			backupJobID,
			"Backup",
			"Writes a snapshot of every collection",
			backupSchedule,
			func(ctx context.Context) error {
				_, err := e.Backup(ctx)
				return err
			},
			false,
		); err != nil {
			return fmt.Errorf("failed to add backup job: %w", err)
		}
	}

	if err := e.scheduler.AddSingletonJob(
		cacheFlushJobID,
		"Flush Caches",
		"Drops cached listings and statistics at day change",
		cacheFlushSchedule,
		func(ctx context.Context) error {
			e.cache.ClearAll(ctx)
			return nil
		},
		false,
	); err != nil {
		return fmt.Errorf("failed to add cache flush job: %w", err)
	}

	log.Info("Scheduled jobs configured successfully")
	return nil
}

// SweepSuspensions clears suspensions that have expired and returns the affected usernames.
// Permanent bans and values that cannot be parsed are left alone.
func (e *Engine) SweepSuspensions(ctx context.Context) ([]string, error) {
	now := e.clock.Now()
	var lifted []string
	err := e.db.Users.Update(ctx, func(users []database.User) ([]database.User, error) {
		for i, u := range users {
			if u.SuspendedUntil == nil || *u.SuspendedUntil == "" {
				continue
			}
			if _, ok := policy.ParseSuspension(*u.SuspendedUntil); !ok {
				continue
			}
			if policy.IsSuspended(u.SuspendedUntil, now) {
				continue
			}
			users[i].SuspendedUntil = nil
			lifted = append(lifted, u.Username)
		}
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	if len(lifted) == 0 {
		return nil, nil
	}

	log.Info("Lifted expired suspensions", "users", strings.Join(lifted, ", "))
	for _, username := range lifted {
		e.recordEvent(ctx, database.HistoryEventUserUnbanned, database.KindUser, username, systemActor)
	}
	if e.ntfy != nil {
		if ntfyErr := e.ntfy.SendSuspensionSweep(ctx, lifted); ntfyErr != nil {
			log.Errorf("failed to send ntfy suspension sweep notification: %v", ntfyErr)
		}
	}
	return lifted, nil
}

func (e *Engine) backupDir() string {
	if e.cfg.Scheduler == nil {
		return ""
	}
	return e.cfg.Scheduler.BackupDir
}

// Backup copies every collection into a new timestamped directory below
// the backup dir and prunes old snapshots. It returns the new directory.
func (e *Engine) Backup(ctx context.Context) (string, error) {
	root := e.backupDir()
	if root == "" {
		return "", fmt.Errorf("no backup directory configured")
	}
	dir := filepath.Join(root, e.clock.Now().Format(backupDirLayout))
	dst, err := database.NewFileBackend(dir)
	if err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := e.db.CopyTo(ctx, dst); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	log.Info("Backup written", "dir", dir)

	if err := pruneBackups(root, keepBackups); err != nil {
		log.Warn("failed to prune old backups", "error", err)
	}
	return dir, nil
}

// pruneBackups removes all but the newest keep snapshot directories.
// Directories whose name is not a snapshot timestamp are left alone.
func pruneBackups(root string, keep int) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := time.Parse(backupDirLayout, entry.Name()); err != nil {
			continue
		}
		dirs = append(dirs, entry.Name())
	}
	if len(dirs) <= keep {
		return nil
	}
	slices.Sort(dirs)
	for _, name := range dirs[:len(dirs)-keep] {
		if err := os.RemoveAll(filepath.Join(root, name)); err != nil {
			return err
		}
	}
	return nil
}
