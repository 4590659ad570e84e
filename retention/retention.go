// Package retention keeps stored collections within fixed size ceilings.
//
// Each write path calls into this package before inserting: the scoped
// collection is counted and, when at or above its ceiling, the oldest
// surplus rows are deleted so that the pending insert lands the collection
// at exactly the ceiling. Eviction is best-effort: fetch and delete failures
// are logged and never block the insert, so the ceiling can transiently be
// exceeded and self-corrects on a later write. A performed eviction is not
// rolled back if the insert that follows it fails.
package retention

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/textbin/rooms_backend/metrics"
	"github.com/textbin/rooms_backend/models"
	"github.com/textbin/rooms_backend/storage"
)

const (
	// RoomCeiling is the maximum number of rooms retained globally.
	RoomCeiling = 20
	// MessageCeiling is the maximum number of messages retained per room.
	MessageCeiling = 500
)

// Scope narrows an eviction round to a subset of a table, such as a single
// room's messages. A nil scope covers the whole table.
type Scope func(tx *gorm.DB) *gorm.DB

// Config parameterizes one eviction round over a collection of T.
type Config[T any] struct {
	// Ceiling is the number of rows the collection may hold after the
	// pending insert.
	Ceiling int64

	// Scope restricts both the count and the victim query.
	Scope Scope

	// Cascade runs against the victim rows before they are deleted, e.g. to
	// remove attached blobs. It must handle its own failures; row deletion
	// proceeds regardless of what it does.
	Cascade func(victims []T)

	// Collection names the collection in logs and metrics.
	Collection string
}

// EnsureCapacity makes room for one pending insert into the scoped
// collection. When the current count n is below the ceiling it does
// nothing. Otherwise it deletes the n-(ceiling-1) oldest rows, ordered by
// created_at with id as tiebreak, so the victim set is deterministic.
//
// Only a count failure is returned; the caller decides whether that is
// fatal. Victim fetch and delete failures are logged and swallowed.
func EnsureCapacity[T any](db *gorm.DB, cfg Config[T]) error {
	var model T

	q := db.Model(&model)
	if cfg.Scope != nil {
		q = cfg.Scope(q)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n < cfg.Ceiling {
		return nil
	}

	// Deleting surplus rows and then inserting one leaves exactly
	// Ceiling rows.
	surplus := n - (cfg.Ceiling - 1)

	sel := db.Model(&model)
	if cfg.Scope != nil {
		sel = cfg.Scope(sel)
	}
	var victims []T
	if err := sel.Order("created_at ASC, id ASC").Limit(int(surplus)).Find(&victims).Error; err != nil {
		log.Error().Err(err).Str("collection", cfg.Collection).Msg("failed to fetch eviction victims")
		metrics.EvictionFailures.WithLabelValues(cfg.Collection, "fetch").Inc()
		return nil
	}
	if len(victims) == 0 {
		return nil
	}

	if cfg.Cascade != nil {
		cfg.Cascade(victims)
	}

	if err := db.Delete(&victims).Error; err != nil {
		log.Error().Err(err).Str("collection", cfg.Collection).Int("victims", len(victims)).
			Msg("failed to delete evicted rows")
		metrics.EvictionFailures.WithLabelValues(cfg.Collection, "delete").Inc()
		return nil
	}

	metrics.RowsEvicted.WithLabelValues(cfg.Collection).Add(float64(len(victims)))
	log.Info().Str("collection", cfg.Collection).Int("evicted", len(victims)).Int64("count", n).
		Msg("evicted oldest rows to enforce capacity")
	return nil
}

// EnsureRoomCapacity evicts the oldest rooms so that one more room fits
// under RoomCeiling. Rooms carry no blobs, so there is no cascade; messages
// of an evicted room are left in place and age out through their own
// retention.
func EnsureRoomCapacity(db *gorm.DB) error {
	return EnsureCapacity(db, Config[models.Room]{
		Ceiling:    RoomCeiling,
		Collection: "rooms",
	})
}

// EnsureMessageCapacity evicts the oldest messages of a single room so that
// one more message fits under MessageCeiling. Blobs attached to evicted
// messages are removed from the blob store in one batch before the rows are
// deleted; removal failures only orphan blobs, never rows.
func EnsureMessageCapacity(ctx context.Context, db *gorm.DB, roomID uuid.UUID, blobs storage.Remover) error {
	return EnsureCapacity(db, Config[models.Message]{
		Ceiling:    MessageCeiling,
		Collection: "messages",
		Scope: func(tx *gorm.DB) *gorm.DB {
			return tx.Where("room_id = ?", roomID)
		},
		Cascade: func(victims []models.Message) {
			keys := make([]string, 0, len(victims))
			for _, m := range victims {
				if m.HasBlob() {
					keys = append(keys, *m.FilePath)
				}
			}
			if len(keys) == 0 || blobs == nil {
				return
			}
			if err := blobs.Remove(ctx, keys); err != nil {
				log.Error().Err(err).Int("keys", len(keys)).Stringer("room_id", roomID).
					Msg("failed to remove blobs of evicted messages")
				metrics.BlobRemoveFailures.Add(float64(len(keys)))
			}
		},
	})
}
