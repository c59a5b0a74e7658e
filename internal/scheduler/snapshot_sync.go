package scheduler

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/navbar/internal/domain"
	"github.com/MrSnakeDoc/navbar/internal/logger"
	redisstore "github.com/MrSnakeDoc/navbar/internal/store/redis"
)

// SnapshotSyncer republishes the last stored navigation snapshot on startup,
// so pages render the previous navigator list even if the book file is
// unreadable.
type SnapshotSyncer struct {
	store   *redisstore.Store
	emitter StartEmitter
	logger  logger.Logger
}

// NewSnapshotSyncer creates a new syncer. store may be nil.
func NewSnapshotSyncer(
	store *redisstore.Store,
	emitter StartEmitter,
	log logger.Logger,
) *SnapshotSyncer {
	return &SnapshotSyncer{
		store:   store,
		emitter: emitter,
		logger:  log,
	}
}

// Sync emits a start event with the stored snapshot. It reports whether a
// snapshot was found.
func (ss *SnapshotSyncer) Sync(ctx context.Context) (bool, error) {
	if ss.store == nil {
		return false, nil
	}

	ss.logger.Info("restoring navigation snapshot from redis")

	snap, err := ss.store.LoadNavigation(ctx)
	if err != nil {
		if errors.Is(err, redisstore.ErrCorruptSnapshot) {
			// Drop it so the next reload writes a clean one.
			if derr := ss.store.DeleteNavigation(ctx); derr != nil {
				ss.logger.Warn("failed to delete corrupt navigation snapshot",
					logger.Error(derr))
			}
		}
		return false, err
	}
	if snap == nil {
		ss.logger.Info("no navigation snapshot found in redis")
		return false, nil
	}

	cfg := snap.Config.Clone()
	ss.emitter.EmitStart(domain.HostConfig{Navigation: &cfg})

	ss.logger.Info("restored navigation snapshot",
		logger.Int("entries", cfg.Len()),
		logger.String("saved_at", snap.UpdatedAt.Format("2006-01-02 15:04:05")))

	return true, nil
}
