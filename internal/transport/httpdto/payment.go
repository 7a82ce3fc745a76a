package httpdto

import (
	"time"

	"uniform-studio/internal/domain/payment"
)

// PaymentCallbackRequest is posted by the payment gateway
type PaymentCallbackRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	Status    string `json:"status" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

type OrderDTO struct {
	ID              string     `json:"id"`
	DesignRequestID string     `json:"design_request_id"`
	OrderType       string     `json:"order_type"`
	Rail            string     `json:"rail"`
	Quantity        int        `json:"quantity"`
	Subtotal        int64      `json:"subtotal"`
	Fee             int64      `json:"fee"`
	Total           int64      `json:"total"`
	Status          string     `json:"status"`
	PaymentURL      string     `json:"payment_url,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type WalletResponse struct {
	Balance int64 `json:"balance"`
}

func ToOrderDTO(o payment.Order) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID.String(),
		DesignRequestID: o.DesignRequestID.String(),
		OrderType:       string(o.OrderType),
		Rail:            string(o.Rail),
		Quantity:        o.Quantity,
		Subtotal:        o.Subtotal,
		Fee:             o.Fee,
		Total:           o.Total,
		Status:          string(o.Status),
		PaymentURL:      o.PaymentURL.String,
		CreatedAt:       o.CreatedAt,
	}
	if o.PaidAt.Valid {
		dto.PaidAt = &o.PaidAt.Time
	}
	return dto
}
