package httpdto

import (
	"time"

	"uniform-studio/internal/domain/design"
)

type DesignRequestDTO struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	Status                 string    `json:"status"`
	RevisionTime           int       `json:"revision_time"`
	UnlimitedRevisions     bool      `json:"unlimited_revisions"`
	FinalDesignQuotationID *string   `json:"final_design_quotation_id,omitempty"`
	Feedback               *string   `json:"feedback,omitempty"`
	CancelReason           *string   `json:"cancel_reason,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

type QuotationDTO struct {
	ID                 string `json:"id"`
	DesignerName       string `json:"designer_name"`
	DesignerEmail      string `json:"designer_email"`
	Price              int64  `json:"price"`
	RevisionTime       int    `json:"revision_time"`
	ExtraRevisionPrice int64  `json:"extra_revision_price"`
	DeliveryWithIn     int    `json:"delivery_with_in"`
	Status             string `json:"status"`
}

type DeliveryDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Version    int       `json:"version"`
	SubmitDate time.Time `json:"submit_date"`
	IsRevision bool      `json:"is_revision"`
	IsFinal    bool      `json:"is_final"`
	Note       *string   `json:"note,omitempty"`
}

type RevisionDTO struct {
	ID          string    `json:"id"`
	DeliveryID  string    `json:"delivery_id"`
	Note        string    `json:"note"`
	Status      string    `json:"status"`
	RequestDate time.Time `json:"request_date"`
}

type RequestDetailResponse struct {
	Request         DesignRequestDTO `json:"request"`
	Deliveries      []DeliveryDTO    `json:"deliveries"`
	UndoneRevisions []RevisionDTO    `json:"undone_revisions"`
	Locked          bool             `json:"locked"`
}

// RevisionRequestBody is used for POST /v1/requests/:id/revisions
type RevisionRequestBody struct {
	DeliveryID string `json:"delivery_id" binding:"required"`
	Note       string `json:"note"`
}

// CancelRequestBody is used for POST /v1/requests/:id/cancel
type CancelRequestBody struct {
	Reason string `json:"reason"`
}

// BuyRevisionsBody is used for POST /v1/requests/:id/revisions/purchase
type BuyRevisionsBody struct {
	Quantity   int    `json:"quantity" binding:"required"`
	Rail       string `json:"rail" binding:"required"`
	ReturnPath string `json:"return_path" binding:"required"`
}

// SelectQuotationBody is used for POST /v1/requests/:id/quotations/:quotationId/select
type SelectQuotationBody struct {
	ExtraRevisions int    `json:"extra_revisions"`
	Rail           string `json:"rail" binding:"required"`
	ReturnPath     string `json:"return_path" binding:"required"`
}

func ToDesignRequestDTO(r design.DesignRequest) DesignRequestDTO {
	dto := DesignRequestDTO{
		ID:                 r.ID.String(),
		Name:               r.Name,
		Status:             string(r.Status),
		RevisionTime:       int(r.RevisionTime),
		UnlimitedRevisions: r.RevisionTime.IsUnlimited(),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.FinalDesignQuotationID.Valid {
		id := r.FinalDesignQuotationID.UUID.String()
		dto.FinalDesignQuotationID = &id
	}
	if r.Feedback.Valid {
		dto.Feedback = &r.Feedback.String
	}
	if r.CancelReason.Valid {
		dto.CancelReason = &r.CancelReason.String
	}
	return dto
}

func ToDesignRequestDTOs(requests []design.DesignRequest) []DesignRequestDTO {
	out := make([]DesignRequestDTO, 0, len(requests))
	for _, r := range requests {
		out = append(out, ToDesignRequestDTO(r))
	}
	return out
}

func ToQuotationDTOs(quotations []design.DesignQuotation) []QuotationDTO {
	out := make([]QuotationDTO, 0, len(quotations))
	for _, q := range quotations {
		out = append(out, QuotationDTO{
			ID:                 q.ID.String(),
			DesignerName:       q.DesignerName,
			DesignerEmail:      q.DesignerEmail,
			Price:              q.Price,
			RevisionTime:       int(q.RevisionTime),
			ExtraRevisionPrice: q.ExtraRevisionPrice,
			DeliveryWithIn:     q.DeliveryWithIn,
			Status:             string(q.Status),
		})
	}
	return out
}

func ToDeliveryDTO(d design.Delivery) DeliveryDTO {
	dto := DeliveryDTO{
		ID:         d.ID.String(),
		Name:       d.Name,
		Version:    d.Version,
		SubmitDate: d.SubmitDate,
		IsRevision: d.IsRevision,
		IsFinal:    d.IsFinal,
	}
	if d.Note.Valid {
		dto.Note = &d.Note.String
	}
	return dto
}

func ToDeliveryDTOs(deliveries []design.Delivery) []DeliveryDTO {
	out := make([]DeliveryDTO, 0, len(deliveries))
	for _, d := range deliveries {
		out = append(out, ToDeliveryDTO(d))
	}
	return out
}

func ToRevisionDTOs(revisions []design.RevisionRequest) []RevisionDTO {
	out := make([]RevisionDTO, 0, len(revisions))
	for _, r := range revisions {
		out = append(out, RevisionDTO{
			ID:          r.ID.String(),
			DeliveryID:  r.DeliveryID.String(),
			Note:        r.Note,
			Status:      string(r.Status),
			RequestDate: r.RequestDate,
		})
	}
	return out
}
