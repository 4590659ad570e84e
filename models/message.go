package models

import (
	"time"

	"github.com/google/uuid"
)

// Message ids are auto-incremented by the store, so they also serve as the
// polling watermark: a client that remembers the highest id it has seen can
// fetch everything newer with a single "id > watermark" query.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uuid.UUID `gorm:"type:uuid;not null;index" json:"room_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	FileURL   *string   `gorm:"size:1024" json:"file_url"`
	FilePath  *string   `gorm:"size:1024" json:"file_path"`
	OwnerID   *uint     `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasBlob reports whether the message owns an uploaded object that must be
// removed when the message is evicted.
func (m *Message) HasBlob() bool {
	return m.FilePath != nil && *m.FilePath != ""
}
