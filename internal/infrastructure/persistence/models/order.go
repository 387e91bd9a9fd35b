package models

import (
	"time"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root
type OrderModel struct {
	AggregateModel
	OrderNumber     string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	CustomerName    string               `gorm:"type:varchar(200);not null"`
	CustomerEmail   string               `gorm:"type:varchar(200);not null"`
	CustomerPhone   string               `gorm:"type:varchar(50)"`
	CustomerAddress valueobject.Location `gorm:"type:jsonb;serializer:json"`
	Items           []OrderItemModel     `gorm:"foreignKey:OrderID;references:ID"`
	TotalAmount     decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	TaxAmount       decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingAmount  decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountAmount  decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	FinalAmount     decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	Currency        string               `gorm:"type:varchar(3);not null"`
	PaymentMethod   string               `gorm:"type:varchar(30)"`
	Status          string               `gorm:"type:varchar(20);not null;index"`
	PaymentStatus   string               `gorm:"type:varchar(20);not null;index"`
	Priority        string               `gorm:"type:varchar(20);not null"`
	Source          string               `gorm:"type:varchar(20);not null"`
	Notes           string               `gorm:"type:text"`
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the persistence model for an order line
type OrderItemModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position       int             `gorm:"not null"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName    string          `gorm:"type:varchar(200);not null"`
	VendorID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	VendorName     string          `gorm:"type:varchar(200);not null"`
	VendorEmail    string          `gorm:"type:varchar(200)"`
	Quantity       int             `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status         string          `gorm:"type:varchar(20);not null"`
	TrackingNumber string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.AggregateRoot(),
		AuditInfo:         m.Audit(),
		OrderNumber:       m.OrderNumber,
		Customer: order.Customer{
			ID:      m.CustomerID,
			Name:    m.CustomerName,
			Email:   m.CustomerEmail,
			Phone:   m.CustomerPhone,
			Address: m.CustomerAddress,
		},
		Items:          make([]order.Item, len(m.Items)),
		TotalAmount:    m.TotalAmount,
		TaxAmount:      m.TaxAmount,
		ShippingAmount: m.ShippingAmount,
		DiscountAmount: m.DiscountAmount,
		FinalAmount:    m.FinalAmount,
		Currency:       valueobject.Currency(m.Currency),
		PaymentMethod:  m.PaymentMethod,
		Status:         order.Status(m.Status),
		PaymentStatus:  order.PaymentStatus(m.PaymentStatus),
		Priority:       order.Priority(m.Priority),
		Source:         order.Source(m.Source),
		Notes:          m.Notes,
		ShippedAt:      m.ShippedAt,
		DeliveredAt:    m.DeliveredAt,
		CancelledAt:    m.CancelledAt,
		CancelReason:   m.CancelReason,
	}
	for i, item := range m.Items {
		o.Items[i] = order.Item{
			ID:             item.ID,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			VendorID:       item.VendorID,
			VendorName:     item.VendorName,
			VendorEmail:    item.VendorEmail,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			TotalPrice:     item.TotalPrice,
			Status:         order.ItemStatus(item.Status),
			TrackingNumber: item.TrackingNumber,
		}
	}
	return o
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregate(o.BaseAggregateRoot, o.AuditInfo)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.Customer.ID
	m.CustomerName = o.Customer.Name
	m.CustomerEmail = o.Customer.Email
	m.CustomerPhone = o.Customer.Phone
	m.CustomerAddress = o.Customer.Address
	m.TotalAmount = o.TotalAmount
	m.TaxAmount = o.TaxAmount
	m.ShippingAmount = o.ShippingAmount
	m.DiscountAmount = o.DiscountAmount
	m.FinalAmount = o.FinalAmount
	m.Currency = o.Currency.String()
	m.PaymentMethod = o.PaymentMethod
	m.Status = string(o.Status)
	m.PaymentStatus = string(o.PaymentStatus)
	m.Priority = string(o.Priority)
	m.Source = string(o.Source)
	m.Notes = o.Notes
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason

	m.Items = make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = OrderItemModel{
			ID:             item.ID,
			OrderID:        o.ID,
			Position:       i,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			VendorID:       item.VendorID,
			VendorName:     item.VendorName,
			VendorEmail:    item.VendorEmail,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			TotalPrice:     item.TotalPrice,
			Status:         string(item.Status),
			TrackingNumber: item.TrackingNumber,
		}
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
