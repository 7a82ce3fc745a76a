package repository

import (
	"context"
	"errors"
	"time"

	"uniform-studio/internal/domain/chat"
	studio_errors "uniform-studio/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *chat.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) || isUniqueViolation(res.Error) {
			return studio_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

// ListByRoom returns the full room history, oldest first. Seq breaks ties on created_at.
func (r *PostgresMessageRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]chat.Message, error) {
	var messages []chat.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Order("seq ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresMessageRepository) CountUnread(ctx context.Context, roomID uuid.UUID, self string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("room_id = ? AND is_read = ? AND sender_email <> ?", roomID, false, self).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRoomRead flips every unread message in the room not sent by self in one statement.
func (r *PostgresMessageRepository) MarkRoomRead(ctx context.Context, roomID uuid.UUID, self string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("room_id = ? AND is_read = ? AND sender_email <> ?", roomID, false, self).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

type PostgresChatRoomRepository struct {
	db *gorm.DB
}

func NewChatRoomRepository(db *gorm.DB) ChatRoomRepository {
	return &PostgresChatRoomRepository{db: db}
}

func (r *PostgresChatRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.ChatRoom, error) {
	var room chat.ChatRoom
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.ChatRoom{}, studio_errors.ErrNotFound
		}
		return chat.ChatRoom{}, err
	}
	return room, nil
}

func (r *PostgresChatRoomRepository) Touch(ctx context.Context, id uuid.UUID, lastMessage string, at time.Time) (int64, error) {
	room := chat.ChatRoom{
		ID:           id,
		LastMessage:  lastMessage,
		LastSequence: 1,
		UpdatedAt:    at,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_message":  lastMessage,
			"updated_at":    at,
			"last_sequence": gorm.Expr("chat_rooms.last_sequence + 1"),
		}),
	}).Create(&room).Error
	if err != nil {
		return 0, err
	}

	stored, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return stored.LastSequence, nil
}
