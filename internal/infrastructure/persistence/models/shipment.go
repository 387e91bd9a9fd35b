package models

import (
	"time"

	"github.com/exportexpress/backoffice/internal/domain/shipment"
	"github.com/exportexpress/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShipmentModel is the persistence model for the Shipment aggregate root.
// Route and tracking data are stored as JSON documents; the columns used for
// filtering are denormalized next to them.
type ShipmentModel struct {
	AggregateModel
	ShipmentCode          string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	TrackingNumber        string                    `gorm:"type:varchar(100);index"`
	OrderID               uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex"`
	OrderNumber           string                    `gorm:"type:varchar(50);not null"`
	CustomerID            uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Origin                valueobject.Location      `gorm:"type:jsonb;serializer:json"`
	Destination           valueobject.Location      `gorm:"type:jsonb;serializer:json"`
	DestinationCountry    string                    `gorm:"type:varchar(100);index"`
	TransitPorts          []valueobject.Location    `gorm:"type:jsonb;serializer:json"`
	TransportMode         string                    `gorm:"type:varchar(20);not null;index"`
	CarrierName           string                    `gorm:"type:varchar(200)"`
	CurrentPhase          string                    `gorm:"type:varchar(30);not null;index"`
	CurrentStatus         string                    `gorm:"type:varchar(30);not null;index"`
	EstimatedDeliveryDate time.Time                 `gorm:"not null"`
	ActualDeliveryDate    *time.Time
	Cargo                 shipment.Cargo            `gorm:"type:jsonb;serializer:json"`
	ShippingCost          decimal.Decimal           `gorm:"type:decimal(18,2);not null;default:0"`
	InsuranceCost         decimal.Decimal           `gorm:"type:decimal(18,2);not null;default:0"`
	CustomsDuties         decimal.Decimal           `gorm:"type:decimal(18,2);not null;default:0"`
	TotalCost             decimal.Decimal           `gorm:"type:decimal(18,2);not null;default:0"`
	Currency              string                    `gorm:"type:varchar(3);not null"`
	TrackingUpdates       []shipment.TrackingUpdate `gorm:"type:jsonb;serializer:json"`
	Phases                shipment.PhaseTimings     `gorm:"type:jsonb;serializer:json"`
	Documents             []shipment.Document       `gorm:"type:jsonb;serializer:json"`
	Stakeholders          []shipment.Stakeholder    `gorm:"type:jsonb;serializer:json"`
	Notes                 string                    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the persistence model to a domain Shipment
func (m *ShipmentModel) ToDomain() *shipment.Shipment {
	return &shipment.Shipment{
		BaseAggregateRoot:     m.AggregateRoot(),
		AuditInfo:             m.Audit(),
		ShipmentCode:          m.ShipmentCode,
		TrackingNumber:        m.TrackingNumber,
		OrderID:               m.OrderID,
		OrderNumber:           m.OrderNumber,
		CustomerID:            m.CustomerID,
		Origin:                m.Origin,
		Destination:           m.Destination,
		TransitPorts:          m.TransitPorts,
		TransportMode:         shipment.TransportMode(m.TransportMode),
		CarrierName:           m.CarrierName,
		CurrentPhase:          shipment.Phase(m.CurrentPhase),
		CurrentStatus:         shipment.Status(m.CurrentStatus),
		EstimatedDeliveryDate: m.EstimatedDeliveryDate,
		ActualDeliveryDate:    m.ActualDeliveryDate,
		Cargo:                 m.Cargo,
		Costs: shipment.Costs{
			ShippingCost:  m.ShippingCost,
			InsuranceCost: m.InsuranceCost,
			CustomsDuties: m.CustomsDuties,
			TotalCost:     m.TotalCost,
			Currency:      valueobject.Currency(m.Currency),
		},
		TrackingUpdates: m.TrackingUpdates,
		Phases:          m.Phases,
		Documents:       m.Documents,
		Stakeholders:    m.Stakeholders,
		Notes:           m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Shipment
func (m *ShipmentModel) FromDomain(s *shipment.Shipment) {
	m.FromDomainAggregate(s.BaseAggregateRoot, s.AuditInfo)
	m.ShipmentCode = s.ShipmentCode
	m.TrackingNumber = s.TrackingNumber
	m.OrderID = s.OrderID
	m.OrderNumber = s.OrderNumber
	m.CustomerID = s.CustomerID
	m.Origin = s.Origin
	m.Destination = s.Destination
	m.DestinationCountry = s.Destination.Country
	m.TransitPorts = s.TransitPorts
	m.TransportMode = string(s.TransportMode)
	m.CarrierName = s.CarrierName
	m.CurrentPhase = string(s.CurrentPhase)
	m.CurrentStatus = string(s.CurrentStatus)
	m.EstimatedDeliveryDate = s.EstimatedDeliveryDate
	m.ActualDeliveryDate = s.ActualDeliveryDate
	m.Cargo = s.Cargo
	m.ShippingCost = s.Costs.ShippingCost
	m.InsuranceCost = s.Costs.InsuranceCost
	m.CustomsDuties = s.Costs.CustomsDuties
	m.TotalCost = s.Costs.TotalCost
	m.Currency = s.Costs.Currency.String()
	m.TrackingUpdates = s.TrackingUpdates
	m.Phases = s.Phases
	m.Documents = s.Documents
	m.Stakeholders = s.Stakeholders
	m.Notes = s.Notes
}

// ShipmentModelFromDomain creates a new persistence model from a domain Shipment
func ShipmentModelFromDomain(s *shipment.Shipment) *ShipmentModel {
	m := &ShipmentModel{}
	m.FromDomain(s)
	return m
}
