package retention

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/textbin/rooms_backend/database"
	"github.com/textbin/rooms_backend/models"
)

type captureRemover struct {
	calls [][]string
	err   error
}

func (c *captureRemover) Remove(ctx context.Context, keys []string) error {
	c.calls = append(c.calls, keys)
	return c.err
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// A pooled second connection would see its own empty in-memory database.
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedRooms(t *testing.T, db *gorm.DB, n int) []models.Room {
	t.Helper()
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	rooms := make([]models.Room, n)
	for i := range rooms {
		rooms[i] = models.Room{
			Topic:     fmt.Sprintf("topic-%03d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	if err := db.CreateInBatches(&rooms, 100).Error; err != nil {
		t.Fatalf("seed rooms: %v", err)
	}
	return rooms
}

func seedMessages(t *testing.T, db *gorm.DB, roomID uuid.UUID, n int, filePaths map[int]string) []models.Message {
	t.Helper()
	base := time.Now().Add(-time.Duration(n) * time.Second)
	msgs := make([]models.Message, n)
	for i := range msgs {
		msgs[i] = models.Message{
			RoomID:    roomID,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if p, ok := filePaths[i]; ok {
			path := p
			msgs[i].FilePath = &path
		}
	}
	if err := db.CreateInBatches(&msgs, 100).Error; err != nil {
		t.Fatalf("seed messages: %v", err)
	}
	return msgs
}

func TestEnsureCapacityBelowCeilingIsNoOp(t *testing.T) {
	db := openTestDB(t)
	seedRooms(t, db, 5)

	if err := EnsureRoomCapacity(db); err != nil {
		t.Fatalf("ensure capacity: %v", err)
	}

	var n int64
	db.Model(&models.Room{}).Count(&n)
	if n != 5 {
		t.Fatalf("expected 5 rooms, got %d", n)
	}
}

func TestRoomEvictionConvergesToCeiling(t *testing.T) {
	db := openTestDB(t)
	rooms := seedRooms(t, db, 25)

	if err := EnsureRoomCapacity(db); err != nil {
		t.Fatalf("ensure capacity: %v", err)
	}

	var n int64
	db.Model(&models.Room{}).Count(&n)
	if n != RoomCeiling-1 {
		t.Fatalf("expected %d rooms after eviction, got %d", RoomCeiling-1, n)
	}

	// The 6 oldest rooms (surplus = 25 - 19) must be the ones deleted.
	for i := 0; i < 6; i++ {
		var found models.Room
		err := db.First(&found, "id = ?", rooms[i].ID).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Fatalf("room %d should be evicted, got err=%v", i, err)
		}
	}
	var survivor models.Room
	if err := db.First(&survivor, "id = ?", rooms[6].ID).Error; err != nil {
		t.Fatalf("room 6 should survive: %v", err)
	}

	// After the pending insert the collection sits exactly at the ceiling.
	if err := db.Create(&models.Room{Topic: "fresh"}).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	db.Model(&models.Room{}).Count(&n)
	if n != RoomCeiling {
		t.Fatalf("expected exactly %d rooms, got %d", RoomCeiling, n)
	}
}

func TestMessageEvictionAtCeiling(t *testing.T) {
	db := openTestDB(t)
	room := models.Room{Topic: "full"}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("create room: %v", err)
	}
	msgs := seedMessages(t, db, room.ID, MessageCeiling, map[int]string{0: "private/1/r/old.png"})

	remover := &captureRemover{}
	if err := EnsureMessageCapacity(context.Background(), db, room.ID, remover); err != nil {
		t.Fatalf("ensure capacity: %v", err)
	}

	// Exactly the single oldest message goes, and its blob with it.
	var gone models.Message
	if err := db.First(&gone, msgs[0].ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("oldest message should be evicted, got err=%v", err)
	}
	if len(remover.calls) != 1 {
		t.Fatalf("expected 1 remove call, got %d", len(remover.calls))
	}
	if len(remover.calls[0]) != 1 || remover.calls[0][0] != "private/1/r/old.png" {
		t.Fatalf("unexpected removed keys: %v", remover.calls[0])
	}

	if err := db.Create(&models.Message{RoomID: room.ID, Content: "new"}).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var n int64
	db.Model(&models.Message{}).Where("room_id = ?", room.ID).Count(&n)
	if n != MessageCeiling {
		t.Fatalf("expected exactly %d messages, got %d", MessageCeiling, n)
	}
	var second models.Message
	if err := db.First(&second, msgs[1].ID).Error; err != nil {
		t.Fatalf("second-oldest message should survive: %v", err)
	}
}

func TestMessageEvictionBatchesBlobRemoval(t *testing.T) {
	db := openTestDB(t)
	room := models.Room{Topic: "overshoot"}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("create room: %v", err)
	}
	// Transient overshoot: 502 rows means a surplus of 3.
	seedMessages(t, db, room.ID, MessageCeiling+2, map[int]string{
		0: "private/1/r/a.png",
		2: "private/1/r/b.png",
		9: "private/1/r/untouched.png",
	})

	remover := &captureRemover{}
	if err := EnsureMessageCapacity(context.Background(), db, room.ID, remover); err != nil {
		t.Fatalf("ensure capacity: %v", err)
	}

	var n int64
	db.Model(&models.Message{}).Where("room_id = ?", room.ID).Count(&n)
	if n != MessageCeiling-1 {
		t.Fatalf("expected %d messages, got %d", MessageCeiling-1, n)
	}

	// Both victim blobs in one batched remove call, nothing else.
	if len(remover.calls) != 1 {
		t.Fatalf("expected 1 remove call, got %d", len(remover.calls))
	}
	got := remover.calls[0]
	if len(got) != 2 || got[0] != "private/1/r/a.png" || got[1] != "private/1/r/b.png" {
		t.Fatalf("unexpected removed keys: %v", got)
	}
}

func TestMessageEvictionIsScopedToRoom(t *testing.T) {
	db := openTestDB(t)
	full := models.Room{Topic: "busy"}
	quiet := models.Room{Topic: "quiet"}
	if err := db.Create(&full).Error; err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := db.Create(&quiet).Error; err != nil {
		t.Fatalf("create room: %v", err)
	}
	seedMessages(t, db, full.ID, MessageCeiling, nil)
	seedMessages(t, db, quiet.ID, 3, nil)

	if err := EnsureMessageCapacity(context.Background(), db, full.ID, &captureRemover{}); err != nil {
		t.Fatalf("ensure capacity: %v", err)
	}

	var n int64
	db.Model(&models.Message{}).Where("room_id = ?", quiet.ID).Count(&n)
	if n != 3 {
		t.Fatalf("quiet room lost messages: %d", n)
	}
	db.Model(&models.Message{}).Where("room_id = ?", full.ID).Count(&n)
	if n != MessageCeiling-1 {
		t.Fatalf("expected %d messages in busy room, got %d", MessageCeiling-1, n)
	}
}

func TestVictimOrderTieBrokenByID(t *testing.T) {
	db := openTestDB(t)
	room := models.Room{Topic: "ties"}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("create room: %v", err)
	}

	// All rows share one created_at, so the victim set must follow id order.
	ts := time.Now().Truncate(time.Second)
	var msgs []models.Message
	for i := 0; i < 5; i++ {
		msgs = append(msgs, models.Message{RoomID: room.ID, Content: fmt.Sprintf("m%d", i), CreatedAt: ts})
	}
	if err := db.Create(&msgs).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := EnsureCapacity(db, Config[models.Message]{
		Ceiling:    3,
		Collection: "messages",
		Scope: func(tx *gorm.DB) *gorm.DB {
			return tx.Where("room_id = ?", room.ID)
		},
	})
	if err != nil {
		t.Fatalf("ensure capacity: %v", err)
	}

	// surplus = 5 - 2 = 3: the three lowest ids go.
	var remaining []models.Message
	if err := db.Where("room_id = ?", room.ID).Order("id ASC").Find(&remaining).Error; err != nil {
		t.Fatalf("fetch remaining: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 remaining, got %d", len(remaining))
	}
	if remaining[0].ID != msgs[3].ID || remaining[1].ID != msgs[4].ID {
		t.Fatalf("wrong survivors: %d, %d", remaining[0].ID, remaining[1].ID)
	}
}

func TestCascadeFailureDoesNotBlockRowDeletion(t *testing.T) {
	db := openTestDB(t)
	room := models.Room{Topic: "flaky-blobs"}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("create room: %v", err)
	}
	seedMessages(t, db, room.ID, MessageCeiling, map[int]string{0: "private/1/r/stuck.png"})

	remover := &captureRemover{err: errors.New("storage unavailable")}
	if err := EnsureMessageCapacity(context.Background(), db, room.ID, remover); err != nil {
		t.Fatalf("ensure capacity: %v", err)
	}

	// The blob may be orphaned, the row must not be.
	var n int64
	db.Model(&models.Message{}).Where("room_id = ?", room.ID).Count(&n)
	if n != MessageCeiling-1 {
		t.Fatalf("expected %d messages, got %d", MessageCeiling-1, n)
	}
}

func TestEvictionWithoutBlobsSkipsRemover(t *testing.T) {
	db := openTestDB(t)
	room := models.Room{Topic: "text-only"}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("create room: %v", err)
	}
	seedMessages(t, db, room.ID, MessageCeiling, nil)

	remover := &captureRemover{}
	if err := EnsureMessageCapacity(context.Background(), db, room.ID, remover); err != nil {
		t.Fatalf("ensure capacity: %v", err)
	}
	if len(remover.calls) != 0 {
		t.Fatalf("expected no remove calls, got %d", len(remover.calls))
	}
}
