// Package service holds the business rules of the bookmarks API.
//
// THE LAYERS:
//
//	Handler (HTTP)     → decodes requests, writes responses
//	Service (rules)    → validates, checks ownership, orchestrates
//	Repository (data)  → reads and writes rows
//
// Services take repository interfaces, never a concrete database, so tests
// run against small in-memory fakes and the same code serves SQLite and
// MySQL. They return apperror values; only the handler layer turns those
// into status codes.
//
// Side effects that must not fail a committed write (cache invalidation,
// event publishing) are logged and swallowed here.
package service

import (
	"context"
	"log/slog"

	"github.com/sakif/bookmarks/internal/events"
	"github.com/sakif/bookmarks/internal/model"
)

// StructureCache stores rendered trees per user. cache.Structure implements
// it on Redis; NoCache is used when Redis is not configured.
//
// Get reports the generation it looked under. A miss is filled by passing
// that generation to Set, and Invalidate moves the user past it, so a tree
// read before a change is never served after it.
type StructureCache interface {
	Get(ctx context.Context, userID int64) (s model.Structure, gen int64, ok bool, err error)
	Set(ctx context.Context, userID, gen int64, s model.Structure) error
	Invalidate(ctx context.Context, userID int64) error
}

// NoCache never stores anything.
type NoCache struct{}

func (NoCache) Get(context.Context, int64) (model.Structure, int64, bool, error) {
	return model.Structure{}, 0, false, nil
}
func (NoCache) Set(context.Context, int64, int64, model.Structure) error { return nil }
func (NoCache) Invalidate(context.Context, int64) error                   { return nil }

// sideEffects bundles the best-effort work done after a successful write.
type sideEffects struct {
	cache     StructureCache
	publisher events.Publisher
	logger    *slog.Logger
}

func newSideEffects(cache StructureCache, publisher events.Publisher, logger *slog.Logger) sideEffects {
	if cache == nil {
		cache = NoCache{}
	}
	if publisher == nil {
		publisher = events.Discard{}
	}
	return sideEffects{cache: cache, publisher: publisher, logger: logger}
}

// changed drops userID's cached tree and publishes e.
func (s sideEffects) changed(ctx context.Context, userID int64, e events.Event) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("structure cache invalidation failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	s.publish(ctx, e)
}

func (s sideEffects) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("event publish failed",
			slog.String("type", e.Type),
			slog.String("event_id", e.ID),
			slog.String("error", err.Error()),
		)
	}
}
