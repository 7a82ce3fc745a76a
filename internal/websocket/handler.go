package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"uniform-studio/internal/events"
	"uniform-studio/internal/middleware"
	"uniform-studio/internal/services"
	"uniform-studio/internal/transport/httpdto"
	"uniform-studio/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// RoomWatcher is the chat surface the room socket needs.
type RoomWatcher interface {
	Authorize(ctx context.Context, schoolID, roomID uuid.UUID) error
	Watch(ctx context.Context, roomID uuid.UUID, self string) (<-chan services.RoomSnapshot, error)
}

type Handler struct {
	auth     middleware.TokenParser
	chat     RoomWatcher
	hub      *Hub
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler builds the room socket handler. An empty origins list accepts any origin.
func NewHandler(auth middleware.TokenParser, chat RoomWatcher, hub *Hub, log *logger.Logger, origins []string) *Handler {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return &Handler{
		auth: auth,
		chat: chat,
		hub:  hub,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Connect upgrades GET /v1/rooms/:id/ws and pushes a room.snapshot frame on every
// change until either side goes away.
func (h *Handler) Connect(c *gin.Context) {
	claims, err := h.auth.ParseAccessToken(middleware.ExtractBearer(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	schoolID, err := uuid.Parse(claims.SchoolID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid id", "INVALID_REQUEST"))
		return
	}
	if err := h.chat.Authorize(c.Request.Context(), schoolID, roomID); err != nil {
		c.JSON(services.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), services.ErrorCode(err)))
		return
	}

	// The stream must outlive the upgrade request's context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = context.WithValue(ctx, logger.SchoolIdKey, schoolID.String())

	snapshots, err := h.chat.Watch(ctx, roomID, claims.Email)
	if err != nil {
		c.JSON(services.HTTPStatus(err), httpdto.NewErrorResponse("subscription failed", services.ErrorCode(err)))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithContext(ctx).Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, schoolID.String(), events.RoomChannel(roomID))
	log := h.log.WithContext(ctx).With(zap.String("client_id", client.ID), zap.String("room_id", roomID.String()))
	log.Info("websocket connected")

	h.hub.Register(client)
	go client.WriteLoop(ctx)
	go h.forward(ctx, client, snapshots, log)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancel()
	h.hub.Unregister(client)
	log.Info("websocket disconnected")
}

func (h *Handler) forward(ctx context.Context, client *Client, snapshots <-chan services.RoomSnapshot, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				// Stream ended under us; drop the socket so the client reconnects.
				client.closeConn()
				return
			}
			frame, err := EncodeSnapshot(snap)
			if err != nil {
				log.Error("encode snapshot failed", zap.Error(err))
				continue
			}
			client.SendMessage(frame)
		}
	}
}

// EncodeSnapshot renders a snapshot as a room.snapshot frame.
func EncodeSnapshot(snap services.RoomSnapshot) ([]byte, error) {
	return json.Marshal(httpdto.RoomSnapshotFrame{
		Type: httpdto.FrameRoomSnapshot,
		Data: httpdto.MessagesResponse{
			Messages: httpdto.ToMessageDTOs(snap.Messages),
			Unread:   snap.Unread,
			Locked:   snap.Locked,
		},
	})
}
