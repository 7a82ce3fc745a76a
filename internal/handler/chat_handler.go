package handler

import (
	"net/http"

	"uniform-studio/internal/domain/chat"
	"uniform-studio/internal/services"
	"uniform-studio/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler serves the room chat of a design request. The room id is the request id.
type ChatHandler struct {
	service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// room resolves the caller and the :id room, writing the error response on failure.
func (h *ChatHandler) room(c *gin.Context) (services.Identity, uuid.UUID, bool) {
	id, ok := identity(c)
	if !ok {
		return services.Identity{}, uuid.Nil, false
	}
	roomID, ok := pathUUID(c, "id")
	if !ok {
		return services.Identity{}, uuid.Nil, false
	}
	if err := h.service.Authorize(c.Request.Context(), id.SchoolID, roomID); err != nil {
		writeError(c, err)
		return services.Identity{}, uuid.Nil, false
	}
	return id, roomID, true
}

func (h *ChatHandler) List(c *gin.Context) {
	id, roomID, ok := h.room(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	messages, err := h.service.Messages(ctx, roomID)
	if err != nil {
		writeError(c, err)
		return
	}
	locked, err := h.service.Locked(ctx, roomID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.MessagesResponse{
		Messages: httpdto.ToMessageDTOs(messages),
		Unread:   services.CountUnread(messages, id.Email),
		Locked:   locked,
	}))
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	var payload chat.Payload
	switch {
	case req.Text != nil && req.ImageURL == nil:
		payload = chat.TextPayload{Text: *req.Text}
	case req.ImageURL != nil && req.Text == nil:
		payload = chat.ImagePayload{ImageURL: *req.ImageURL}
	default:
		badRequest(c, "exactly one of text or image_url is required")
		return
	}

	id, ok := identity(c)
	if !ok {
		return
	}
	roomID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	msg, err := h.service.Send(c.Request.Context(), roomID, id, payload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.ToMessageDTO(msg)))
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	id, roomID, ok := h.room(c)
	if !ok {
		return
	}
	updated, err := h.service.MarkRead(c.Request.Context(), roomID, id.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.MarkReadResponse{Updated: updated}))
}

func (h *ChatHandler) Unread(c *gin.Context) {
	id, roomID, ok := h.room(c)
	if !ok {
		return
	}
	n, err := h.service.Unread(c.Request.Context(), roomID, id.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UnreadResponse{Unread: n}))
}

// CreateUpload presigns an image upload for the room.
func (h *ChatHandler) CreateUpload(c *gin.Context) {
	var req httpdto.CreateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	_, roomID, ok := h.room(c)
	if !ok {
		return
	}

	upload, err := h.service.PresignImageUpload(c.Request.Context(), roomID, req.ContentType, req.FileSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(upload))
}
