package handler

import (
	orderapp "github.com/exportexpress/backoffice/internal/application/order"
	"github.com/exportexpress/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.Service) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create creates an order.
// POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req orderapp.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orderService.Create(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, o)
}

// GetByID returns one order.
// GET /orders/:id
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// GetByNumber returns an order by its ORD- number.
// GET /orders/number/:number
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	o, err := h.orderService.GetByOrderNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// List returns a page of orders.
// GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	var filter orderapp.ListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	customerID, ok := h.queryUUID(c, "customer_id")
	if !ok {
		return
	}
	filter.CustomerID = customerID

	result, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(&h.BaseHandler, c, result)
}

// Stats returns order counts per status and revenue per currency for the list filter.
// GET /orders/stats
func (h *OrderHandler) Stats(c *gin.Context) {
	var filter orderapp.ListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	customerID, ok := h.queryUUID(c, "customer_id")
	if !ok {
		return
	}
	filter.CustomerID = customerID

	stats, err := h.orderService.Stats(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// AddItem adds a line to a pending order.
// POST /orders/:id/items
func (h *OrderHandler) AddItem(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req orderapp.ItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orderService.AddItem(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// UpdateItemQuantity changes the quantity of a line.
// PUT /orders/:id/items/:item_id
func (h *OrderHandler) UpdateItemQuantity(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(c, "item_id")
	if !ok {
		return
	}
	var req orderapp.UpdateItemQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orderService.UpdateItemQuantity(c.Request.Context(), middleware.GetActor(c), id, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// RemoveItem deletes a line.
// DELETE /orders/:id/items/:item_id
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(c, "item_id")
	if !ok {
		return
	}
	o, err := h.orderService.RemoveItem(c.Request.Context(), middleware.GetActor(c), id, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// SetCharges replaces tax, shipping and discount.
// PUT /orders/:id/charges
func (h *OrderHandler) SetCharges(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req orderapp.SetChargesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orderService.SetCharges(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// TransitionStatus moves an order through its lifecycle.
// POST /orders/:id/status
func (h *OrderHandler) TransitionStatus(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req orderapp.TransitionStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orderService.TransitionStatus(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// UpdateItemStatus moves one line through its lifecycle.
// PUT /orders/:id/items/:item_id/status
func (h *OrderHandler) UpdateItemStatus(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(c, "item_id")
	if !ok {
		return
	}
	var req orderapp.UpdateItemStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orderService.UpdateItemStatus(c.Request.Context(), middleware.GetActor(c), id, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// UpdatePaymentStatus records the customer's payment state.
// PUT /orders/:id/payment-status
func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req orderapp.UpdatePaymentStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orderService.UpdatePaymentStatus(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// BulkUpdateStatus applies one status change to many orders. Always 200;
// per-order failures are reported in the body.
// POST /orders/bulk/status
func (h *OrderHandler) BulkUpdateStatus(c *gin.Context) {
	var req orderapp.BulkStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.Success(c, h.orderService.BulkUpdateStatus(c.Request.Context(), middleware.GetActor(c), req))
}

// Delete removes an order without payments or shipment.
// DELETE /orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
