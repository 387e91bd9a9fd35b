package handler

import (
	shipmentapp "github.com/exportexpress/backoffice/internal/application/shipment"
	"github.com/exportexpress/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ShipmentHandler handles shipment tracking endpoints
type ShipmentHandler struct {
	BaseHandler
	shipmentService *shipmentapp.Service
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(shipmentService *shipmentapp.Service) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

// Create creates the shipment of an order.
// POST /shipments
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req shipmentapp.CreateShipmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sh, err := h.shipmentService.Create(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sh)
}

// GetByID returns one shipment.
// GET /shipments/:id
func (h *ShipmentHandler) GetByID(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	sh, err := h.shipmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sh)
}

// GetByCode returns a shipment by SHP- code or tracking number.
// GET /shipments/code/:code
func (h *ShipmentHandler) GetByCode(c *gin.Context) {
	sh, err := h.shipmentService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sh)
}

// GetByOrder returns the shipment of an order.
// GET /orders/:id/shipment
func (h *ShipmentHandler) GetByOrder(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	sh, err := h.shipmentService.GetByOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sh)
}

func (h *ShipmentHandler) bindFilter(c *gin.Context) (shipmentapp.ListFilter, bool) {
	var filter shipmentapp.ListFilter
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

// List returns a page of shipments.
// GET /shipments
func (h *ShipmentHandler) List(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	result, err := h.shipmentService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(&h.BaseHandler, c, result)
}

// Analytics aggregates delivery times, delays and exceptions.
// GET /shipments/analytics
func (h *ShipmentHandler) Analytics(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	analytics, err := h.shipmentService.Analytics(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, analytics)
}

// AppendTrackingUpdate records a tracking event.
// POST /shipments/:id/tracking
func (h *ShipmentHandler) AppendTrackingUpdate(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req shipmentapp.TrackingUpdateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sh, err := h.shipmentService.AppendTrackingUpdate(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sh)
}

// Timeline returns the tracking log with per-phase timing.
// GET /shipments/:id/timeline
func (h *ShipmentHandler) Timeline(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	timeline, err := h.shipmentService.Timeline(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, timeline)
}

// RequestDocumentUpload presigns an upload for a document file.
// POST /shipments/:id/documents/upload-url
func (h *ShipmentHandler) RequestDocumentUpload(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req shipmentapp.DocumentUploadURLRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.shipmentService.RequestDocumentUpload(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UploadDocument attaches an uploaded document to the shipment.
// POST /shipments/:id/documents
func (h *ShipmentHandler) UploadDocument(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req shipmentapp.UploadDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.shipmentService.UploadDocument(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// DocumentDownloadURL presigns a download of a document file.
// GET /shipments/:id/documents/:document_id/download-url
func (h *ShipmentHandler) DocumentDownloadURL(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	documentID, ok := h.pathUUID(c, "document_id")
	if !ok {
		return
	}
	resp, err := h.shipmentService.DocumentDownloadURL(c.Request.Context(), id, documentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// VerifyDocument records a verification decision.
// POST /shipments/:id/documents/:document_id/verify
func (h *ShipmentHandler) VerifyDocument(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	documentID, ok := h.pathUUID(c, "document_id")
	if !ok {
		return
	}
	var req shipmentapp.VerifyDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.shipmentService.VerifyDocument(c.Request.Context(), middleware.GetActor(c), id, documentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Compliance reports missing and expired documents per phase.
// GET /shipments/:id/compliance
func (h *ShipmentHandler) Compliance(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.shipmentService.Compliance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddStakeholder adds a party to the shipment.
// POST /shipments/:id/stakeholders
func (h *ShipmentHandler) AddStakeholder(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req shipmentapp.StakeholderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sh, err := h.shipmentService.AddStakeholder(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sh)
}

// LiveTracking is the public, customer-safe view of a shipment.
// GET /track/:code
func (h *ShipmentHandler) LiveTracking(c *gin.Context) {
	view, err := h.shipmentService.LiveTracking(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}
