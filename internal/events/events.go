// Package events publishes change notifications for folders, bookmarks and
// accounts. Publishing is best effort: callers log a failed publish and carry
// on, so a broker outage never fails a request that already committed.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/rs/xid"
)

// Event types.
const (
	FolderCreated     = "folder.created"
	FolderDeleted     = "folder.deleted"
	BookmarkCreated   = "bookmark.created"
	BookmarkDeleted   = "bookmark.deleted"
	BookmarksImported = "bookmarks.imported"
	UserRegistered    = "user.registered"
)

// Event is the JSON message body.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	UserID     int64          `json:"userId"`
	ResourceID int64          `json:"resourceId,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// New stamps an event with a fresh id and the current time.
func New(typ string, userID, resourceID int64) Event {
	return Event{
		ID:         xid.New().String(),
		Type:       typ,
		UserID:     userID,
		ResourceID: resourceID,
		OccurredAt: time.Now().UTC(),
	}
}

// With returns a copy of e carrying an extra data field.
func (e Event) With(key string, value any) Event {
	data := make(map[string]any, len(e.Data)+1)
	for k, v := range e.Data {
		data[k] = v
	}
	data[key] = value
	e.Data = data
	return e
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the log. It is used when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.LogAttrs(ctx, slog.LevelDebug, "event",
		slog.String("event_id", e.ID),
		slog.String("type", e.Type),
		slog.Int64("user_id", e.UserID),
		slog.Int64("resource_id", e.ResourceID),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Discard drops every event. Handy in tests.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
func (Discard) Close() error                         { return nil }
