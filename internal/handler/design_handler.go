package handler

import (
	"net/http"
	"strconv"

	"uniform-studio/internal/domain/payment"
	"uniform-studio/internal/services"
	"uniform-studio/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DesignHandler serves design requests and their delivery/revision workflow.
type DesignHandler struct {
	service *services.WorkflowService
}

func NewDesignHandler(service *services.WorkflowService) *DesignHandler {
	return &DesignHandler{service: service}
}

func (h *DesignHandler) request(c *gin.Context) (services.Identity, uuid.UUID, bool) {
	id, ok := identity(c)
	if !ok {
		return services.Identity{}, uuid.Nil, false
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return services.Identity{}, uuid.Nil, false
	}
	return id, requestID, true
}

func (h *DesignHandler) List(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	requests, err := h.service.List(c.Request.Context(), id.SchoolID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"requests": httpdto.ToDesignRequestDTOs(requests)}))
}

func (h *DesignHandler) Detail(c *gin.Context) {
	id, requestID, ok := h.request(c)
	if !ok {
		return
	}
	d, err := h.service.Detail(c.Request.Context(), id.SchoolID, requestID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.RequestDetailResponse{
		Request:         httpdto.ToDesignRequestDTO(d.Request),
		Deliveries:      httpdto.ToDeliveryDTOs(d.Deliveries),
		UndoneRevisions: httpdto.ToRevisionDTOs(d.UndoneRevisions),
		Locked:          d.Locked,
	}))
}

func (h *DesignHandler) Deliveries(c *gin.Context) {
	id, requestID, ok := h.request(c)
	if !ok {
		return
	}
	deliveries, err := h.service.Deliveries(c.Request.Context(), id.SchoolID, requestID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deliveries": httpdto.ToDeliveryDTOs(deliveries)}))
}

func (h *DesignHandler) Revisions(c *gin.Context) {
	id, requestID, ok := h.request(c)
	if !ok {
		return
	}
	revisions, err := h.service.UndoneRevisions(c.Request.Context(), id.SchoolID, requestID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"revisions": httpdto.ToRevisionDTOs(revisions)}))
}

func (h *DesignHandler) Quotations(c *gin.Context) {
	id, requestID, ok := h.request(c)
	if !ok {
		return
	}
	quotations, err := h.service.Quotations(c.Request.Context(), id.SchoolID, requestID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"quotations": httpdto.ToQuotationDTOs(quotations)}))
}

func (h *DesignHandler) RequestRevision(c *gin.Context) {
	var req httpdto.RevisionRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	deliveryID, err := uuid.Parse(req.DeliveryID)
	if err != nil {
		badRequest(c, "invalid delivery_id")
		return
	}
	id, requestID, ok := h.request(c)
	if !ok {
		return
	}

	updated, err := h.service.RequestRevision(c.Request.Context(), id.SchoolID, requestID, deliveryID, req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.ToDesignRequestDTO(updated)))
}

// QuoteRevisions prices ?quantity= extra revisions without charging.
func (h *DesignHandler) QuoteRevisions(c *gin.Context) {
	quantity, err := strconv.Atoi(c.Query("quantity"))
	if err != nil {
		badRequest(c, "invalid quantity")
		return
	}
	id, requestID, ok := h.request(c)
	if !ok {
		return
	}
	b, err := h.service.QuoteRevisions(c.Request.Context(), id.SchoolID, requestID, quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(b))
}

func (h *DesignHandler) BuyRevisions(c *gin.Context) {
	var req httpdto.BuyRevisionsBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	id, requestID, ok := h.request(c)
	if !ok {
		return
	}

	res, err := h.service.BuyMoreRevisions(c.Request.Context(), id.SchoolID, requestID, req.Quantity, payment.Rail(req.Rail), req.ReturnPath)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(res))
}

func (h *DesignHandler) MakeFinal(c *gin.Context) {
	id, requestID, ok := h.request(c)
	if !ok {
		return
	}
	deliveryID, ok := pathUUID(c, "deliveryId")
	if !ok {
		return
	}

	d, err := h.service.MakeFinal(c.Request.Context(), id.SchoolID, requestID, deliveryID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToDeliveryDTO(d)))
}

func (h *DesignHandler) Cancel(c *gin.Context) {
	var req httpdto.CancelRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	id, requestID, ok := h.request(c)
	if !ok {
		return
	}

	updated, err := h.service.CancelDesignRequest(c.Request.Context(), id.SchoolID, requestID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToDesignRequestDTO(updated)))
}

// QuoteSelection prices a quotation with ?extra_revisions= bought up front.
func (h *DesignHandler) QuoteSelection(c *gin.Context) {
	extra := 0
	if v := c.Query("extra_revisions"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "invalid extra_revisions")
			return
		}
		extra = n
	}
	id, requestID, ok := h.request(c)
	if !ok {
		return
	}
	quotationID, ok := pathUUID(c, "quotationId")
	if !ok {
		return
	}

	b, err := h.service.QuoteSelection(c.Request.Context(), id.SchoolID, requestID, quotationID, extra)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(b))
}

func (h *DesignHandler) SelectQuotation(c *gin.Context) {
	var req httpdto.SelectQuotationBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	id, requestID, ok := h.request(c)
	if !ok {
		return
	}
	quotationID, ok := pathUUID(c, "quotationId")
	if !ok {
		return
	}

	res, err := h.service.SelectQuotation(c.Request.Context(), id.SchoolID, requestID, quotationID, req.ExtraRevisions, payment.Rail(req.Rail), req.ReturnPath)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(res))
}
