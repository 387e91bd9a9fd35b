package shipment

import (
	"time"

	"github.com/exportexpress/backoffice/internal/domain/shared/valueobject"
	"github.com/exportexpress/backoffice/internal/domain/shipment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CargoInput describes the goods of a new shipment
type CargoInput struct {
	WeightKg       decimal.Decimal `json:"weight_kg"`
	VolumeM3       decimal.Decimal `json:"volume_m3"`
	PackageCount   int             `json:"package_count" binding:"min=0"`
	Description    string          `json:"description" binding:"max=1000"`
	HSCode         string          `json:"hs_code" binding:"max=20"`
	DangerousGoods bool            `json:"dangerous_goods"`
	InsuranceValue decimal.Decimal `json:"insurance_value"`
}

// CreateShipmentRequest represents a request to create the shipment of an order
type CreateShipmentRequest struct {
	OrderID        uuid.UUID              `json:"order_id" binding:"required"`
	Origin         valueobject.Location   `json:"origin" binding:"required"`
	Destination    valueobject.Location   `json:"destination" binding:"required"`
	TransitPorts   []valueobject.Location `json:"transit_ports"`
	TransportMode  string                 `json:"transport_mode" binding:"required,oneof=AIR_FREIGHT SEA_FREIGHT ROAD_FREIGHT RAIL_FREIGHT MULTIMODAL"`
	CarrierName    string                 `json:"carrier_name" binding:"max=200"`
	TrackingNumber string                 `json:"tracking_number" binding:"max=100"`
	Cargo          CargoInput             `json:"cargo"`
	ShippingCost   decimal.Decimal        `json:"shipping_cost"`
	CustomsDuties  decimal.Decimal        `json:"customs_duties"`
	Notes          string                 `json:"notes" binding:"max=2000"`
}

// TrackingUpdateRequest appends one entry to a shipment's tracking log
type TrackingUpdateRequest struct {
	Phase                 string               `json:"phase"`
	Status                string               `json:"status" binding:"required"`
	Location              valueobject.Location `json:"location"`
	Description           string               `json:"description" binding:"max=1000"`
	EstimatedNextUpdate   *time.Time           `json:"estimated_next_update"`
	ExpectedDurationHours *int                 `json:"expected_duration_hours" binding:"omitempty,min=0"`
	IsException           bool                 `json:"is_exception"`
	ExceptionReason       string               `json:"exception_reason" binding:"max=1000"`
}

// DocumentUploadURLRequest asks for a presigned URL to upload a document file
type DocumentUploadURLRequest struct {
	Type        string `json:"type" binding:"required"`
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// DocumentUploadURLResponse carries the presigned upload target
type DocumentUploadURLResponse struct {
	FileRef   string    `json:"file_ref"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentDownloadURLResponse carries a presigned download link
type DocumentDownloadURLResponse struct {
	DocumentID  uuid.UUID `json:"document_id"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UploadDocumentRequest records an uploaded document on the shipment
type UploadDocumentRequest struct {
	Type           string     `json:"type" binding:"required"`
	Phase          string     `json:"phase"`
	FileName       string     `json:"file_name" binding:"required,min=1,max=255"`
	FileRef        string     `json:"file_ref" binding:"required,min=1,max=1024"`
	DocumentNumber string     `json:"document_number" binding:"max=100"`
	IssuedBy       string     `json:"issued_by" binding:"max=200"`
	ExpiryDate     *time.Time `json:"expiry_date"`
}

// VerifyDocumentRequest records a verification decision
type VerifyDocumentRequest struct {
	Verified bool   `json:"verified"`
	Notes    string `json:"notes" binding:"max=1000"`
}

// StakeholderRequest adds a party to a shipment
type StakeholderRequest struct {
	Type    string   `json:"type" binding:"required,oneof=customer platform vendor carrier customs_broker"`
	Role    string   `json:"role" binding:"required,min=1,max=100"`
	Name    string   `json:"name" binding:"required,min=1,max=200"`
	Company string   `json:"company" binding:"max=200"`
	Email   string   `json:"email" binding:"omitempty,email"`
	Phone   string   `json:"phone" binding:"max=50"`
	Phases  []string `json:"phases" binding:"required,min=1"`
}

// ListFilter represents filter options for the shipment list
type ListFilter struct {
	Search        string     `form:"search"`
	OrderID       *uuid.UUID `form:"-"`
	Phase         string     `form:"phase"`
	Status        string     `form:"status"`
	TransportMode string     `form:"transport_mode"`
	Country       string     `form:"country"`
	StartDate     *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate       *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CostsResponse is the cost block of a shipment
type CostsResponse struct {
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	InsuranceCost decimal.Decimal `json:"insurance_cost"`
	CustomsDuties decimal.Decimal `json:"customs_duties"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Currency      string          `json:"currency"`
}

// ShipmentResponse represents a shipment in internal API responses
type ShipmentResponse struct {
	ID                    uuid.UUID                 `json:"id"`
	ShipmentCode          string                    `json:"shipment_code"`
	TrackingNumber        string                    `json:"tracking_number"`
	OrderID               uuid.UUID                 `json:"order_id"`
	OrderNumber           string                    `json:"order_number"`
	CustomerID            uuid.UUID                 `json:"customer_id"`
	Origin                valueobject.Location      `json:"origin"`
	Destination           valueobject.Location      `json:"destination"`
	TransitPorts          []valueobject.Location    `json:"transit_ports,omitempty"`
	TransportMode         string                    `json:"transport_mode"`
	CarrierName           string                    `json:"carrier_name,omitempty"`
	CurrentPhase          string                    `json:"current_phase"`
	CurrentStatus         string                    `json:"current_status"`
	EstimatedDeliveryDate time.Time                 `json:"estimated_delivery_date"`
	ActualDeliveryDate    *time.Time                `json:"actual_delivery_date,omitempty"`
	Delayed               bool                      `json:"delayed"`
	Progress              int                       `json:"progress"`
	Cargo                 shipment.Cargo            `json:"cargo"`
	Costs                 CostsResponse             `json:"costs"`
	TrackingUpdates       []shipment.TrackingUpdate `json:"tracking_updates"`
	Phases                []shipment.PhaseTiming    `json:"phases"`
	Documents             []shipment.Document       `json:"documents"`
	Stakeholders          []shipment.Stakeholder    `json:"stakeholders"`
	Notes                 string                    `json:"notes,omitempty"`
	CreatedBy             string                    `json:"created_by,omitempty"`
	UpdatedBy             string                    `json:"updated_by,omitempty"`
	CreatedAt             time.Time                 `json:"created_at"`
	UpdatedAt             time.Time                 `json:"updated_at"`
	Version               int                       `json:"version"`
}

// ToShipmentResponse converts the domain shipment to a response DTO as of now
func ToShipmentResponse(s *shipment.Shipment, now time.Time) ShipmentResponse {
	return ShipmentResponse{
		ID:                    s.ID,
		ShipmentCode:          s.ShipmentCode,
		TrackingNumber:        s.TrackingNumber,
		OrderID:               s.OrderID,
		OrderNumber:           s.OrderNumber,
		CustomerID:            s.CustomerID,
		Origin:                s.Origin,
		Destination:           s.Destination,
		TransitPorts:          s.TransitPorts,
		TransportMode:         string(s.TransportMode),
		CarrierName:           s.CarrierName,
		CurrentPhase:          string(s.CurrentPhase),
		CurrentStatus:         string(s.CurrentStatus),
		EstimatedDeliveryDate: s.EstimatedDeliveryDate,
		ActualDeliveryDate:    s.ActualDeliveryDate,
		Delayed:               s.IsDelayed(now),
		Progress:              s.Progress(),
		Cargo:                 s.Cargo,
		Costs: CostsResponse{
			ShippingCost:  s.Costs.ShippingCost,
			InsuranceCost: s.Costs.InsuranceCost,
			CustomsDuties: s.Costs.CustomsDuties,
			TotalCost:     s.Costs.TotalCost,
			Currency:      s.Costs.Currency.String(),
		},
		TrackingUpdates: s.TrackingUpdates,
		Phases:          s.Phases[:],
		Documents:       s.Documents,
		Stakeholders:    s.Stakeholders,
		Notes:           s.Notes,
		CreatedBy:       s.CreatedBy,
		UpdatedBy:       s.UpdatedBy,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		Version:         s.Version,
	}
}

// ToShipmentResponses converts a slice of shipments
func ToShipmentResponses(shipments []shipment.Shipment, now time.Time) []ShipmentResponse {
	out := make([]ShipmentResponse, len(shipments))
	for i := range shipments {
		out[i] = ToShipmentResponse(&shipments[i], now)
	}
	return out
}

// PhaseCompliance lists what a phase still lacks
type PhaseCompliance struct {
	Phase            string   `json:"phase"`
	Status           string   `json:"status"`
	MissingDocuments []string `json:"missing_documents"`
	Delayed          bool     `json:"delayed"`
}

// ComplianceResponse is the document and timing checklist of a shipment
type ComplianceResponse struct {
	ShipmentCode     string              `json:"shipment_code"`
	Phases           []PhaseCompliance   `json:"phases"`
	ExpiredDocuments []shipment.Document `json:"expired_documents"`
}

// TimelineResponse is the state rebuilt from the tracking log next to the stored state
type TimelineResponse struct {
	ShipmentCode  string                 `json:"shipment_code"`
	CurrentPhase  string                 `json:"current_phase"`
	CurrentStatus string                 `json:"current_status"`
	Phases        []shipment.PhaseTiming `json:"phases"`
	Consistent    bool                   `json:"consistent"`
}
