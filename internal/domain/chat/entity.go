package chat

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ImagePlaceholder is the room summary text used for image messages.
const ImagePlaceholder = "[image]"

// Message represents the messages table. RoomID is the design request id.
type Message struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID      uuid.UUID      `gorm:"type:uuid;index:idx_messages_room_order,priority:1;not null" json:"room"`
	Seq         int64          `gorm:"index:idx_messages_room_order,priority:3;not null" json:"seq"`
	Text        sql.NullString `json:"-"`
	ImageURL    sql.NullString `json:"-"`
	SenderEmail string         `gorm:"index;not null" json:"sender_email"`
	User        string         `json:"user"`
	CreatedAt   time.Time      `gorm:"index:idx_messages_room_order,priority:2;not null" json:"created_at"`
	Read        bool           `gorm:"column:is_read;not null;default:false" json:"read"`
	ReadAt      sql.NullTime   `json:"-"`
}

func (Message) TableName() string {
	return "messages"
}

// Summary is what the room's lastMessage shows for this message.
func (m Message) Summary() string {
	if m.ImageURL.Valid && !m.Text.Valid {
		return ImagePlaceholder
	}
	return m.Text.String
}

// ChatRoom represents the chat_rooms table, a denormalized summary of its messages.
type ChatRoom struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LastMessage  string    `json:"last_message"`
	LastSequence int64     `gorm:"not null;default:0" json:"-"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (ChatRoom) TableName() string {
	return "chat_rooms"
}
