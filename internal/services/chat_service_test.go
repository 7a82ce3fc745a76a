package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"uniform-studio/internal/domain/chat"
	"uniform-studio/internal/domain/design"
	"uniform-studio/internal/events"
	"uniform-studio/internal/repository"
	"uniform-studio/internal/repository/repotest"
	studio_errors "uniform-studio/pkg/errors"

	"github.com/google/uuid"
)

const designerEmail = "designer@example.com"

func schoolIdentity(t *testing.T, env *testEnv, email string) (Identity, design.DesignRequest) {
	t.Helper()
	s := repotest.CreateSchool(t, env.db, email)
	req, _ := repotest.CreateRequest(t, env.db, repotest.RequestFixture{SchoolID: s.ID, RevisionTime: 2})
	return Identity{SchoolID: s.ID, Email: s.Email, Name: s.Name}, req
}

func insertDesignerMessage(t *testing.T, env *testEnv, roomID uuid.UUID, text string) {
	t.Helper()
	m := chat.Message{
		ID:          uuid.New(),
		RoomID:      roomID,
		SenderEmail: designerEmail,
		User:        "Designer",
		CreatedAt:   time.Now().UTC(),
	}
	chat.Apply(chat.TextPayload{Text: text}, &m)
	if err := repository.NewMessageRepository(env.db).Create(context.Background(), &m); err != nil {
		t.Fatalf("insert designer message: %v", err)
	}
}

func TestSendDeliversOrderedSnapshots(t *testing.T) {
	env := newTestEnv(t)
	self, req := schoolIdentity(t, env, "a@school.test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := env.chat.Subscribe(ctx, req.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	waitFor(t, stream, func(list []chat.Message) bool { return len(list) == 0 })

	for _, text := range []string{"first", "second", "third"} {
		if _, err := env.chat.Send(ctx, req.ID, self, chat.TextPayload{Text: text}); err != nil {
			t.Fatalf("Send(%q): %v", text, err)
		}
	}

	list := waitFor(t, stream, func(list []chat.Message) bool { return len(list) == 3 })
	for i, want := range []string{"first", "second", "third"} {
		if list[i].Text.String != want {
			t.Fatalf("message %d: want=%q got=%q", i, want, list[i].Text.String)
		}
		if list[i].Read {
			t.Fatalf("message %d stored as read", i)
		}
		if list[i].SenderEmail != self.Email {
			t.Fatalf("message %d sender: want=%s got=%s", i, self.Email, list[i].SenderEmail)
		}
		if list[i].Seq != int64(i+1) {
			t.Fatalf("message %d seq: want=%d got=%d", i, i+1, list[i].Seq)
		}
	}

	room, err := env.chat.Room(ctx, req.ID)
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	if room.LastMessage != "third" {
		t.Fatalf("last message: want=third got=%q", room.LastMessage)
	}
}

func TestSubscribeEndsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	_, req := schoolIdentity(t, env, "cancel@school.test")

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := env.chat.Subscribe(ctx, req.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, open := <-stream:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("stream still open after cancel")
		}
	}
}

func TestSendImageUsesPlaceholderSummary(t *testing.T) {
	env := newTestEnv(t)
	self, req := schoolIdentity(t, env, "img@school.test")
	ctx := context.Background()

	msg, err := env.chat.Send(ctx, req.ID, self, chat.ImagePayload{ImageURL: "https://cdn.test/rooms/a.png"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Text.Valid || msg.ImageURL.String != "https://cdn.test/rooms/a.png" {
		t.Fatalf("unexpected message body %+v", msg)
	}

	room, err := env.chat.Room(ctx, req.ID)
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	if room.LastMessage != chat.ImagePlaceholder {
		t.Fatalf("last message: want=%q got=%q", chat.ImagePlaceholder, room.LastMessage)
	}
}

func TestSendRejectsInvalidPayloadWithoutWrite(t *testing.T) {
	env := newTestEnv(t)
	self, req := schoolIdentity(t, env, "bad@school.test")
	ctx := context.Background()

	payloads := []chat.Payload{
		chat.TextPayload{Text: "   "},
		chat.ImagePayload{ImageURL: "javascript:alert(1)"},
		nil,
	}
	for _, p := range payloads {
		if _, err := env.chat.Send(ctx, req.ID, self, p); !errors.Is(err, studio_errors.ErrInvalidInput) {
			t.Fatalf("Send(%v): want ErrInvalidInput got %v", p, err)
		}
	}

	list, err := env.chat.Messages(ctx, req.ID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("messages written: %d", len(list))
	}
}

func TestSendRejectsOtherSchool(t *testing.T) {
	env := newTestEnv(t)
	_, req := schoolIdentity(t, env, "owner@school.test")
	other := repotest.CreateSchool(t, env.db, "other@school.test")

	_, err := env.chat.Send(context.Background(), req.ID, Identity{SchoolID: other.ID, Email: other.Email}, chat.TextPayload{Text: "hi"})
	if !errors.Is(err, studio_errors.ErrNotFound) {
		t.Fatalf("want ErrNotFound got %v", err)
	}
}

func TestSendRejectedAfterFinalDelivery(t *testing.T) {
	env := newTestEnv(t)
	self, req := schoolIdentity(t, env, "final@school.test")
	ctx := context.Background()

	d := repotest.CreateDelivery(t, env.db, req.ID, 1)
	if _, err := env.workflow.MakeFinal(ctx, self.SchoolID, req.ID, d.ID); err != nil {
		t.Fatalf("MakeFinal: %v", err)
	}

	if _, err := env.chat.Send(ctx, req.ID, self, chat.TextPayload{Text: "late"}); !errors.Is(err, studio_errors.ErrReadOnly) {
		t.Fatalf("want ErrReadOnly got %v", err)
	}
}

func TestMarkReadSkipsOwnMessages(t *testing.T) {
	env := newTestEnv(t)
	self, req := schoolIdentity(t, env, "reader@school.test")
	ctx := context.Background()

	insertDesignerMessage(t, env, req.ID, "draft ready")
	insertDesignerMessage(t, env, req.ID, "please review")
	if _, err := env.chat.Send(ctx, req.ID, self, chat.TextPayload{Text: "thanks"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	n, err := env.chat.MarkRead(ctx, req.ID, self.Email)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if n != 2 {
		t.Fatalf("marked: want=2 got=%d", n)
	}

	list, _ := env.chat.Messages(ctx, req.ID)
	for _, m := range list {
		if m.SenderEmail == self.Email && m.Read {
			t.Fatal("own message marked read")
		}
		if m.SenderEmail == designerEmail && (!m.Read || !m.ReadAt.Valid) {
			t.Fatalf("designer message not read: %+v", m)
		}
	}

	n, err = env.chat.MarkRead(ctx, req.ID, self.Email)
	if err != nil || n != 0 {
		t.Fatalf("second MarkRead: want 0, nil got %d, %v", n, err)
	}
}

func TestUnreadCountStream(t *testing.T) {
	env := newTestEnv(t)
	self, req := schoolIdentity(t, env, "count@school.test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	insertDesignerMessage(t, env, req.ID, "one")
	insertDesignerMessage(t, env, req.ID, "two")

	counts, err := env.chat.UnreadCount(ctx, req.ID, self.Email)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	waitFor(t, counts, func(n int64) bool { return n == 2 })

	// Own messages never count.
	if _, err := env.chat.Send(ctx, req.ID, self, chat.TextPayload{Text: "reply"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := env.chat.MarkRead(ctx, req.ID, self.Email); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	waitFor(t, counts, func(n int64) bool { return n == 0 })
}

func TestWatchMergesUnreadAndLock(t *testing.T) {
	env := newTestEnv(t)
	self, req := schoolIdentity(t, env, "watch@school.test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	insertDesignerMessage(t, env, req.ID, "hello")

	snapshots, err := env.chat.Watch(ctx, req.ID, self.Email)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	snap := waitFor(t, snapshots, func(s RoomSnapshot) bool { return len(s.Messages) == 1 })
	if snap.Unread != 1 || snap.Locked {
		t.Fatalf("initial snapshot: %+v", snap)
	}

	d := repotest.CreateDelivery(t, env.db, req.ID, 1)
	if _, err := env.workflow.MakeFinal(ctx, self.SchoolID, req.ID, d.ID); err != nil {
		t.Fatalf("MakeFinal: %v", err)
	}
	waitFor(t, snapshots, func(s RoomSnapshot) bool { return s.Locked })
}

func TestCountUnread(t *testing.T) {
	list := []chat.Message{
		{SenderEmail: "me@x"},
		{SenderEmail: "them@x"},
		{SenderEmail: "them@x", Read: true},
	}
	if got := CountUnread(list, "me@x"); got != 1 {
		t.Fatalf("want=1 got=%d", got)
	}
}

func TestSendPublishesPayloadKind(t *testing.T) {
	env := newTestEnv(t)
	self, req := schoolIdentity(t, env, "kind@school.test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := env.bus.Subscribe(ctx, events.RoomChannel(req.ID))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if _, err := env.chat.Send(ctx, req.ID, self, chat.ImagePayload{ImageURL: "https://cdn.test/a.png"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	env2 := waitFor(t, sub, func(e events.Envelope) bool { return e.EventType == events.EventTypeMessageCreated })
	var body struct {
		Kind        string `json:"kind"`
		SenderEmail string `json:"sender_email"`
	}
	if err := json.Unmarshal(env2.Payload, &body); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if body.Kind != chat.KindImage || body.SenderEmail != self.Email {
		t.Fatalf("payload: want kind=%s sender=%s got %+v", chat.KindImage, self.Email, body)
	}
}
