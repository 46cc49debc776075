package engine

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jon4hz/lifetrack/internal/database"
)

// maxHistoryEvents is how many events the history keeps.
const maxHistoryEvents = 1000

// systemActor is recorded for changes not made by a logged in user.
const systemActor = "system"

// recordEvent appends an event to the history. Failures are logged only,
// the operation that triggered the event has already happened.
func (e *Engine) recordEvent(ctx context.Context, typ database.HistoryEventType, kind database.Kind, subject, actor string) {
	event := database.HistoryEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		Kind:      kind,
		Subject:   subject,
		Actor:     actor,
		CreatedAt: e.clock.Now(),
	}
	err := e.db.History.Update(ctx, func(events []database.HistoryEvent) ([]database.HistoryEvent, error) {
		events = append(events, event)
		if over := len(events) - maxHistoryEvents; over > 0 {
			events = events[over:]
		}
		return events, nil
	})
	if err != nil {
		log.Errorf("failed to create %s event for %s: %v", typ, subject, err)
	}
}

// ListHistory returns the most recent events, newest first. A limit <= 0 returns all.
func (e *Engine) ListHistory(ctx context.Context, limit int) ([]database.HistoryEvent, error) {
	events, err := e.db.History.Load(ctx)
	if err != nil {
		return nil, err
	}
	slices.Reverse(events)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
