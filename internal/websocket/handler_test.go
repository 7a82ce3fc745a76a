package websocket

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"uniform-studio/internal/domain/chat"
	"uniform-studio/internal/services"
	"uniform-studio/internal/transport/httpdto"
	studio_errors "uniform-studio/pkg/errors"
	"uniform-studio/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type fakeParser struct {
	claims services.AccessClaims
}

func (p fakeParser) ParseAccessToken(token string) (services.AccessClaims, error) {
	if token != "good" {
		return services.AccessClaims{}, studio_errors.ErrUnauthorized
	}
	return p.claims, nil
}

type fakeWatcher struct {
	owner uuid.UUID
	ch    chan services.RoomSnapshot
	self  chan string
}

func (w *fakeWatcher) Authorize(ctx context.Context, schoolID, roomID uuid.UUID) error {
	if schoolID != w.owner {
		return studio_errors.ErrNotFound
	}
	return nil
}

func (w *fakeWatcher) Watch(ctx context.Context, roomID uuid.UUID, self string) (<-chan services.RoomSnapshot, error) {
	w.self <- self
	return w.ch, nil
}

func newSocketServer(t *testing.T, owner uuid.UUID, watcher *fakeWatcher) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	parser := fakeParser{claims: services.AccessClaims{SchoolID: owner.String(), Email: "school@test", Name: "School"}}
	h := NewHandler(parser, watcher, hub, logger.NewNop(), nil)

	r := gin.New()
	r.GET("/v1/rooms/:id/ws", h.Connect)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func wsURL(srv *httptest.Server, room uuid.UUID, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/rooms/" + room.String() + "/ws?token=" + token
}

func TestConnectPushesSnapshots(t *testing.T) {
	owner := uuid.New()
	room := uuid.New()
	watcher := &fakeWatcher{owner: owner, ch: make(chan services.RoomSnapshot, 1), self: make(chan string, 1)}
	srv, hub := newSocketServer(t, owner, watcher)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, room, "good"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if self := <-watcher.self; self != "school@test" {
		t.Fatalf("watch identity: got %q", self)
	}

	watcher.ch <- services.RoomSnapshot{
		Messages: []chat.Message{{
			ID:          uuid.New(),
			RoomID:      room,
			Seq:         1,
			Text:        sql.NullString{String: "hello", Valid: true},
			SenderEmail: "designer@test",
			CreatedAt:   time.Now(),
		}},
		Unread: 1,
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var frame httpdto.RoomSnapshotFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Type != httpdto.FrameRoomSnapshot || frame.Data.Unread != 1 || len(frame.Data.Messages) != 1 {
		t.Fatalf("unexpected frame %+v", frame)
	}
	if frame.Data.Messages[0].Text == nil || *frame.Data.Messages[0].Text != "hello" {
		t.Fatalf("unexpected message %+v", frame.Data.Messages[0])
	}

	eventually(t, func() bool { return hub.ClientCount() == 1 })
	conn.Close()
	eventually(t, func() bool { return hub.ClientCount() == 0 })
}

func TestConnectRejectsBadToken(t *testing.T) {
	owner := uuid.New()
	watcher := &fakeWatcher{owner: owner, ch: make(chan services.RoomSnapshot), self: make(chan string, 1)}
	srv, _ := newSocketServer(t, owner, watcher)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, uuid.New(), "bad"), nil)
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("want ErrBadHandshake got %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: want=%d got=%d", http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestConnectRejectsForeignRoom(t *testing.T) {
	watcher := &fakeWatcher{owner: uuid.New(), ch: make(chan services.RoomSnapshot), self: make(chan string, 1)}
	srv, _ := newSocketServer(t, uuid.New(), watcher)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, uuid.New(), "good"), nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: want=%d got=%d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestEncodeSnapshotImageMessage(t *testing.T) {
	data, err := EncodeSnapshot(services.RoomSnapshot{
		Messages: []chat.Message{{ImageURL: sql.NullString{String: "https://cdn.test/a.png", Valid: true}}},
		Locked:   true,
	})
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"image_url":"https://cdn.test/a.png"`) || strings.Contains(s, `"text"`) || !strings.Contains(s, `"locked":true`) {
		t.Fatalf("unexpected frame %s", s)
	}
}
