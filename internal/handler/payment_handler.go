package handler

import (
	"net/http"

	"uniform-studio/internal/services"
	"uniform-studio/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	service *services.PaymentService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Callback is called by the payment gateway. It is authenticated by signature, not JWT.
func (h *PaymentHandler) Callback(c *gin.Context) {
	var req httpdto.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		badRequest(c, "invalid order_id")
		return
	}

	order, err := h.service.Confirm(c.Request.Context(), services.ConfirmInput{
		OrderID:   orderID,
		Status:    req.Status,
		Signature: req.Signature,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToOrderDTO(order)))
}

func (h *PaymentHandler) Order(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.service.Order(c.Request.Context(), id.SchoolID, orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToOrderDTO(order)))
}

func (h *PaymentHandler) Wallet(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	balance, err := h.service.WalletBalance(c.Request.Context(), id.SchoolID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.WalletResponse{Balance: balance}))
}
