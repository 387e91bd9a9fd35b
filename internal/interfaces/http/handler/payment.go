package handler

import (
	paymentapp "github.com/exportexpress/backoffice/internal/application/payment"
	"github.com/exportexpress/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment flow endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.Service
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// GenerateFlow splits an order into its customer, vendor and shipping payments.
// POST /payments/flows
func (h *PaymentHandler) GenerateFlow(c *gin.Context) {
	var req paymentapp.GenerateFlowRequest
	if !h.BindJSON(c, &req) {
		return
	}
	flow, err := h.paymentService.GenerateFlow(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, flow)
}

// GetByID returns one payment.
// GET /payments/:id
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.paymentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// GetByCode returns a payment by its PAY- code.
// GET /payments/code/:code
func (h *PaymentHandler) GetByCode(c *gin.Context) {
	p, err := h.paymentService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// ListByOrder returns every payment of an order.
// GET /orders/:id/payments
func (h *PaymentHandler) ListByOrder(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	payments, err := h.paymentService.ListByOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

func (h *PaymentHandler) bindFilter(c *gin.Context) (paymentapp.ListFilter, bool) {
	var filter paymentapp.ListFilter
	if !h.BindQuery(c, &filter) {
		return filter, false
	}
	orderID, ok := h.queryUUID(c, "order_id")
	if !ok {
		return filter, false
	}
	filter.OrderID = orderID
	return filter, true
}

// List returns a page of payments.
// GET /payments
func (h *PaymentHandler) List(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	result, err := h.paymentService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(&h.BaseHandler, c, result)
}

// Analytics aggregates payments matching the list filter.
// GET /payments/analytics
func (h *PaymentHandler) Analytics(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	analytics, err := h.paymentService.Analytics(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, analytics)
}

// TransitionStatus moves a payment through its lifecycle. Completing a
// customer payment also releases the order's pending vendor payouts.
// POST /payments/:id/status
func (h *PaymentHandler) TransitionStatus(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req paymentapp.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.paymentService.TransitionStatus(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ReleaseEscrow releases an escrowed payment.
// POST /payments/:id/escrow/release
func (h *PaymentHandler) ReleaseEscrow(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req paymentapp.ReleaseEscrowRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	result, err := h.paymentService.ReleaseEscrow(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ReleaseVendorPayouts re-runs the payout trigger for a completed customer payment.
// POST /payments/:id/payouts
func (h *PaymentHandler) ReleaseVendorPayouts(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.paymentService.ReleaseVendorPayouts(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ProcessRefund refunds part or all of a completed payment.
// POST /payments/:id/refund
func (h *PaymentHandler) ProcessRefund(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req paymentapp.RefundRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.paymentService.ProcessRefund(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// BulkTransition applies one status change to many payments.
// POST /payments/bulk/status
func (h *PaymentHandler) BulkTransition(c *gin.Context) {
	var req paymentapp.BulkTransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.Success(c, h.paymentService.BulkTransition(c.Request.Context(), middleware.GetActor(c), req))
}
