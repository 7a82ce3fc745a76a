package httpdto

import (
	"time"

	"uniform-studio/internal/domain/chat"
)

// SendMessageRequest carries exactly one of Text or ImageURL.
type SendMessageRequest struct {
	Text     *string `json:"text"`
	ImageURL *string `json:"image_url"`
}

type MessageDTO struct {
	ID          string    `json:"id"`
	Room        string    `json:"room"`
	Seq         int64     `json:"seq"`
	Text        *string   `json:"text,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	SenderEmail string    `json:"sender_email"`
	User        string    `json:"user"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}

type MessagesResponse struct {
	Messages []MessageDTO `json:"messages"`
	Unread   int64        `json:"unread"`
	Locked   bool         `json:"locked"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

type UnreadResponse struct {
	Unread int64 `json:"unread"`
}

// RoomSnapshotFrame is pushed over the room WebSocket on every change.
type RoomSnapshotFrame struct {
	Type string           `json:"type"`
	Data MessagesResponse `json:"data"`
}

const FrameRoomSnapshot = "room.snapshot"

func ToMessageDTO(m chat.Message) MessageDTO {
	dto := MessageDTO{
		ID:          m.ID.String(),
		Room:        m.RoomID.String(),
		Seq:         m.Seq,
		SenderEmail: m.SenderEmail,
		User:        m.User,
		CreatedAt:   m.CreatedAt,
		Read:        m.Read,
	}
	if m.Text.Valid {
		text := m.Text.String
		dto.Text = &text
	}
	if m.ImageURL.Valid {
		u := m.ImageURL.String
		dto.ImageURL = &u
	}
	return dto
}

func ToMessageDTOs(messages []chat.Message) []MessageDTO {
	out := make([]MessageDTO, 0, len(messages))
	for _, m := range messages {
		out = append(out, ToMessageDTO(m))
	}
	return out
}
