package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"uniform-studio/internal/domain/chat"
	"uniform-studio/internal/events"
	"uniform-studio/internal/proxy"
	"uniform-studio/internal/repository"
	"uniform-studio/internal/storage"
	studio_errors "uniform-studio/pkg/errors"
	"uniform-studio/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Identity is who acts in a room. Email is compared against Message.SenderEmail.
type Identity struct {
	SchoolID uuid.UUID
	Email    string
	Name     string
}

// ChatLockChecker reports whether a design request's chat is read-only.
type ChatLockChecker interface {
	ChatLocked(ctx context.Context, requestID uuid.UUID) (bool, error)
}

type ImagePresigner interface {
	PresignImage(ctx context.Context, roomID uuid.UUID, contentType string, sizeBytes int64) (*storage.ImageUpload, error)
}

// RoomSnapshot is one frame of the merged live view. Unread is derived from Messages.
type RoomSnapshot struct {
	Messages []chat.Message
	Unread   int64
	Locked   bool
}

type ChatService struct {
	db          *gorm.DB
	messageRepo repository.MessageRepository
	roomRepo    repository.ChatRoomRepository
	access      *proxy.AccessControl
	locks       ChatLockChecker
	uploads     ImagePresigner
	bus         events.Bus
	publisher   *EventPublisher
	log         *logger.Logger
}

func NewChatService(
	db *gorm.DB,
	messageRepo repository.MessageRepository,
	roomRepo repository.ChatRoomRepository,
	access *proxy.AccessControl,
	locks ChatLockChecker,
	uploads ImagePresigner,
	bus events.Bus,
	log *logger.Logger,
) *ChatService {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &ChatService{
		db:          db,
		messageRepo: messageRepo,
		roomRepo:    roomRepo,
		access:      access,
		locks:       locks,
		uploads:     uploads,
		bus:         bus,
		publisher:   NewEventPublisher(bus, log),
		log:         log,
	}
}

// Authorize checks that schoolID owns the design request behind roomID.
func (s *ChatService) Authorize(ctx context.Context, schoolID, roomID uuid.UUID) error {
	if s.access == nil {
		return nil
	}
	return s.access.CanViewRoom(ctx, schoolID, roomID)
}

func (s *ChatService) Messages(ctx context.Context, roomID uuid.UUID) ([]chat.Message, error) {
	return s.messageRepo.ListByRoom(ctx, roomID)
}

func (s *ChatService) Unread(ctx context.Context, roomID uuid.UUID, self string) (int64, error) {
	return s.messageRepo.CountUnread(ctx, roomID, self)
}

// Room returns the room summary. A room without messages yet has an empty summary.
func (s *ChatService) Room(ctx context.Context, roomID uuid.UUID) (chat.ChatRoom, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if errors.Is(err, studio_errors.ErrNotFound) {
		return chat.ChatRoom{ID: roomID}, nil
	}
	return room, err
}

func (s *ChatService) Locked(ctx context.Context, roomID uuid.UUID) (bool, error) {
	if s.locks == nil {
		return false, nil
	}
	return s.locks.ChatLocked(ctx, roomID)
}

// Send stores a message with server time and bumps the room summary in one transaction.
func (s *ChatService) Send(ctx context.Context, roomID uuid.UUID, sender Identity, payload chat.Payload) (chat.Message, error) {
	if payload == nil || sender.Email == "" {
		return chat.Message{}, studio_errors.ErrInvalidInput
	}
	if err := payload.Validate(); err != nil {
		return chat.Message{}, err
	}
	if err := s.Authorize(ctx, sender.SchoolID, roomID); err != nil {
		return chat.Message{}, err
	}
	locked, err := s.Locked(ctx, roomID)
	if err != nil {
		return chat.Message{}, err
	}
	if locked {
		return chat.Message{}, studio_errors.ErrReadOnly
	}

	msg := chat.Message{
		ID:          uuid.New(),
		RoomID:      roomID,
		SenderEmail: sender.Email,
		User:        sender.Name,
		CreatedAt:   time.Now().UTC(),
	}
	chat.Apply(payload, &msg)

	err = repository.WithTx(ctx, s.db, func(repos repository.Repositories) error {
		seq, err := repos.Rooms.Touch(ctx, roomID, msg.Summary(), msg.CreatedAt)
		if err != nil {
			return err
		}
		msg.Seq = seq
		return repos.Messages.Create(ctx, &msg)
	})
	if err != nil {
		s.log.WithContext(ctx).Error("send message failed", zap.String("room_id", roomID.String()), zap.Error(err))
		return chat.Message{}, err
	}

	s.publisher.PublishMessageCreated(ctx, roomID, msg.ID, msg.Seq, msg.SenderEmail, payload.Kind())
	return msg, nil
}

// MarkRead marks every unread message in the room not sent by self. It returns how
// many changed; zero means nothing was written or published.
func (s *ChatService) MarkRead(ctx context.Context, roomID uuid.UUID, self string) (int64, error) {
	if self == "" {
		return 0, studio_errors.ErrInvalidInput
	}

	var updated int64
	err := repository.WithTx(ctx, s.db, func(repos repository.Repositories) error {
		n, err := repos.Messages.MarkRoomRead(ctx, roomID, self, time.Now().UTC())
		updated = n
		return err
	})
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.publisher.PublishMessagesRead(ctx, roomID, self, updated)
	}
	return updated, nil
}

// Subscribe streams the full ordered message list of the room, re-sent whole on
// every change. Cancel ctx to unsubscribe.
func (s *ChatService) Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan []chat.Message, error) {
	sub, err := s.subscribe(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return watch(ctx, sub, isMessageEvent, func(ctx context.Context) ([]chat.Message, error) {
		return s.messageRepo.ListByRoom(ctx, roomID)
	}, s.streamLog(roomID, "messages")), nil
}

// UnreadCount streams the number of unread messages not sent by self.
func (s *ChatService) UnreadCount(ctx context.Context, roomID uuid.UUID, self string) (<-chan int64, error) {
	sub, err := s.subscribe(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return watch(ctx, sub, isMessageEvent, func(ctx context.Context) (int64, error) {
		return s.messageRepo.CountUnread(ctx, roomID, self)
	}, s.streamLog(roomID, "unread")), nil
}

// Watch merges messages, unread count and lock state into one stream, so the count
// always agrees with the list it arrives with.
func (s *ChatService) Watch(ctx context.Context, roomID uuid.UUID, self string) (<-chan RoomSnapshot, error) {
	sub, err := s.subscribe(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return watch(ctx, sub, anyEvent, func(ctx context.Context) (RoomSnapshot, error) {
		messages, err := s.messageRepo.ListByRoom(ctx, roomID)
		if err != nil {
			return RoomSnapshot{}, err
		}
		locked, err := s.Locked(ctx, roomID)
		if err != nil {
			return RoomSnapshot{}, err
		}
		return RoomSnapshot{
			Messages: messages,
			Unread:   CountUnread(messages, self),
			Locked:   locked,
		}, nil
	}, s.streamLog(roomID, "snapshot")), nil
}

// PresignImageUpload returns a presigned PUT for an image that will then be sent
// as an ImagePayload.
func (s *ChatService) PresignImageUpload(ctx context.Context, roomID uuid.UUID, contentType string, sizeBytes int64) (*storage.ImageUpload, error) {
	if s.uploads == nil {
		return nil, studio_errors.ErrServiceUnavailable
	}
	locked, err := s.Locked(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, studio_errors.ErrReadOnly
	}

	upload, err := s.uploads.PresignImage(ctx, roomID, contentType, sizeBytes)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidContentType) || errors.Is(err, storage.ErrInvalidSize) {
			return nil, fmt.Errorf("%w: %v", studio_errors.ErrInvalidInput, err)
		}
		if errors.Is(err, storage.ErrNotConfigured) {
			return nil, studio_errors.ErrServiceUnavailable
		}
		return nil, err
	}
	return upload, nil
}

// CountUnread counts messages in list that self has not read yet.
func CountUnread(messages []chat.Message, self string) int64 {
	var n int64
	for _, m := range messages {
		if !m.Read && m.SenderEmail != self {
			n++
		}
	}
	return n
}

func (s *ChatService) subscribe(ctx context.Context, roomID uuid.UUID) (<-chan events.Envelope, error) {
	if s.bus == nil {
		return nil, studio_errors.ErrServiceUnavailable
	}
	return s.bus.Subscribe(ctx, events.RoomChannel(roomID))
}

func (s *ChatService) streamLog(roomID uuid.UUID, stream string) *zap.Logger {
	return s.log.Logger.With(zap.String("room_id", roomID.String()), zap.String("stream", stream))
}
