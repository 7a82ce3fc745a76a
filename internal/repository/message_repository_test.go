package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"uniform-studio/internal/domain/chat"
	"uniform-studio/internal/repository"
	"uniform-studio/internal/repository/repotest"

	"github.com/google/uuid"
)

func insertMessage(t *testing.T, repo repository.MessageRepository, roomID uuid.UUID, seq int64, sender string, at time.Time) chat.Message {
	t.Helper()
	m := chat.Message{
		ID:          uuid.New(),
		RoomID:      roomID,
		Seq:         seq,
		Text:        sql.NullString{String: "hello", Valid: true},
		SenderEmail: sender,
		User:        sender,
		CreatedAt:   at,
	}
	if err := repo.Create(context.Background(), &m); err != nil {
		t.Fatalf("create message: %v", err)
	}
	return m
}

func TestListByRoomOrdersByCreatedAtThenSeq(t *testing.T) {
	db := repotest.NewDB(t)
	repo := repository.NewMessageRepository(db)
	roomID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	third := insertMessage(t, repo, roomID, 3, "a@school.test", now.Add(time.Second))
	second := insertMessage(t, repo, roomID, 2, "a@school.test", now)
	first := insertMessage(t, repo, roomID, 1, "b@studio.test", now)
	insertMessage(t, repo, uuid.New(), 1, "a@school.test", now)

	got, err := repo.ListByRoom(context.Background(), roomID)
	if err != nil {
		t.Fatalf("ListByRoom: %v", err)
	}
	want := []uuid.UUID{first.ID, second.ID, third.ID}
	if len(got) != len(want) {
		t.Fatalf("len: want=%d got=%d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("position %d: want=%s got=%s", i, want[i], got[i].ID)
		}
	}
}

func TestMarkRoomReadSkipsOwnMessages(t *testing.T) {
	db := repotest.NewDB(t)
	repo := repository.NewMessageRepository(db)
	ctx := context.Background()
	roomID := uuid.New()
	self := "school@school.test"
	now := time.Now()

	own := insertMessage(t, repo, roomID, 1, self, now)
	insertMessage(t, repo, roomID, 2, "designer@studio.test", now)
	insertMessage(t, repo, roomID, 3, "designer@studio.test", now)

	unread, err := repo.CountUnread(ctx, roomID, self)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if unread != 2 {
		t.Fatalf("unread before: want=2 got=%d", unread)
	}

	n, err := repo.MarkRoomRead(ctx, roomID, self, now)
	if err != nil {
		t.Fatalf("MarkRoomRead: %v", err)
	}
	if n != 2 {
		t.Fatalf("marked: want=2 got=%d", n)
	}

	n, err = repo.MarkRoomRead(ctx, roomID, self, now)
	if err != nil {
		t.Fatalf("second MarkRoomRead: %v", err)
	}
	if n != 0 {
		t.Fatalf("second call should be a no-op, marked %d", n)
	}

	msgs, err := repo.ListByRoom(ctx, roomID)
	if err != nil {
		t.Fatalf("ListByRoom: %v", err)
	}
	for _, m := range msgs {
		if m.ID == own.ID && m.Read {
			t.Fatalf("own message must stay unread")
		}
		if m.ID != own.ID && (!m.Read || !m.ReadAt.Valid) {
			t.Fatalf("message %s should be read with read_at set", m.ID)
		}
	}
}

func TestChatRoomTouchIncrementsSequence(t *testing.T) {
	db := repotest.NewDB(t)
	rooms := repository.NewChatRoomRepository(db)
	ctx := context.Background()
	roomID := uuid.New()

	seq, err := rooms.Touch(ctx, roomID, "first", time.Now())
	if err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if seq != 1 {
		t.Fatalf("first seq: want=1 got=%d", seq)
	}
	seq, err = rooms.Touch(ctx, roomID, chat.ImagePlaceholder, time.Now())
	if err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if seq != 2 {
		t.Fatalf("second seq: want=2 got=%d", seq)
	}

	room, err := rooms.GetByID(ctx, roomID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if room.LastMessage != chat.ImagePlaceholder {
		t.Fatalf("last message: got %q", room.LastMessage)
	}
}
