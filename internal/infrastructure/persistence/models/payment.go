package models

import (
	"time"

	"github.com/exportexpress/backoffice/internal/domain/payment"
	"github.com/exportexpress/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment aggregate root.
// Amount mirrors Breakdown.Total so analytics can aggregate in SQL.
type PaymentModel struct {
	AggregateModel
	PaymentCode             string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	OrderID                 uuid.UUID              `gorm:"type:uuid;not null;index;uniqueIndex:idx_payments_one_customer_payment,where:type = 'customer_to_platform'"`
	OrderNumber             string                 `gorm:"type:varchar(50);not null"`
	Type                    string                 `gorm:"type:varchar(30);not null;index"`
	Method                  string                 `gorm:"type:varchar(30);not null"`
	Status                  string                 `gorm:"type:varchar(20);not null;index"`
	Currency                string                 `gorm:"type:varchar(3);not null"`
	Amount                  decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	PayerID                 string                 `gorm:"type:varchar(100);index"`
	PayeeID                 string                 `gorm:"type:varchar(100);index"`
	Payer                   payment.Participant    `gorm:"type:jsonb;serializer:json"`
	Payee                   payment.Participant    `gorm:"type:jsonb;serializer:json"`
	Breakdown               payment.Breakdown      `gorm:"type:jsonb;serializer:json"`
	IsEscrow                bool                   `gorm:"not null;default:false"`
	EscrowProvider          string                 `gorm:"type:varchar(100)"`
	EscrowReleaseConditions []string               `gorm:"type:jsonb;serializer:json"`
	EscrowReleasedAt        *time.Time
	EscrowReleasedBy        string                 `gorm:"type:varchar(200)"`
	EscrowReleaseNotes      string                 `gorm:"type:text"`
	Description             string                 `gorm:"type:text"`
	Notes                   string                 `gorm:"type:text"`
	TransactionID           string                 `gorm:"type:varchar(100)"`
	GatewayReference        string                 `gorm:"type:varchar(100)"`
	InitiatedAt             time.Time              `gorm:"not null"`
	ProcessedAt             *time.Time
	CompletedAt             *time.Time
	DueDate                 *time.Time             `gorm:"index"`
	RefundAmount            decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	RefundReason            string                 `gorm:"type:text"`
	RefundedAt              *time.Time
	RefundedBy              string                 `gorm:"type:varchar(200)"`
	RefundPaymentID         *uuid.UUID             `gorm:"type:uuid"`
	OriginalPaymentID       *uuid.UUID             `gorm:"type:uuid;index"`
	DisputeReason           string                 `gorm:"type:text"`
	DisputedAt              *time.Time
	StatusHistory           []payment.StatusChange `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *payment.Payment {
	return &payment.Payment{
		BaseAggregateRoot: m.AggregateRoot(),
		AuditInfo:         m.Audit(),
		PaymentCode:       m.PaymentCode,
		OrderID:           m.OrderID,
		OrderNumber:       m.OrderNumber,
		Type:              payment.Type(m.Type),
		Method:            payment.Method(m.Method),
		Status:            payment.Status(m.Status),
		Currency:          valueobject.Currency(m.Currency),
		Payer:             m.Payer,
		Payee:             m.Payee,
		Breakdown:         m.Breakdown,
		Escrow: payment.Escrow{
			IsEscrow:          m.IsEscrow,
			Provider:          m.EscrowProvider,
			ReleaseConditions: m.EscrowReleaseConditions,
			ReleasedAt:        m.EscrowReleasedAt,
			ReleasedBy:        m.EscrowReleasedBy,
			ReleaseNotes:      m.EscrowReleaseNotes,
		},
		Description:      m.Description,
		Notes:            m.Notes,
		TransactionID:    m.TransactionID,
		GatewayReference: m.GatewayReference,
		InitiatedAt:      m.InitiatedAt,
		ProcessedAt:      m.ProcessedAt,
		CompletedAt:      m.CompletedAt,
		DueDate:          m.DueDate,
		Refund: payment.RefundInfo{
			Amount:          m.RefundAmount,
			Reason:          m.RefundReason,
			RefundedAt:      m.RefundedAt,
			RefundedBy:      m.RefundedBy,
			RefundPaymentID: m.RefundPaymentID,
		},
		OriginalPaymentID: m.OriginalPaymentID,
		DisputeReason:     m.DisputeReason,
		DisputedAt:        m.DisputedAt,
		StatusHistory:     m.StatusHistory,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *payment.Payment) {
	m.FromDomainAggregate(p.BaseAggregateRoot, p.AuditInfo)
	m.PaymentCode = p.PaymentCode
	m.OrderID = p.OrderID
	m.OrderNumber = p.OrderNumber
	m.Type = string(p.Type)
	m.Method = string(p.Method)
	m.Status = string(p.Status)
	m.Currency = p.Currency.String()
	m.Amount = p.Breakdown.Total
	m.PayerID = p.Payer.ID
	m.PayeeID = p.Payee.ID
	m.Payer = p.Payer
	m.Payee = p.Payee
	m.Breakdown = p.Breakdown
	m.IsEscrow = p.Escrow.IsEscrow
	m.EscrowProvider = p.Escrow.Provider
	m.EscrowReleaseConditions = p.Escrow.ReleaseConditions
	m.EscrowReleasedAt = p.Escrow.ReleasedAt
	m.EscrowReleasedBy = p.Escrow.ReleasedBy
	m.EscrowReleaseNotes = p.Escrow.ReleaseNotes
	m.Description = p.Description
	m.Notes = p.Notes
	m.TransactionID = p.TransactionID
	m.GatewayReference = p.GatewayReference
	m.InitiatedAt = p.InitiatedAt
	m.ProcessedAt = p.ProcessedAt
	m.CompletedAt = p.CompletedAt
	m.DueDate = p.DueDate
	m.RefundAmount = p.Refund.Amount
	m.RefundReason = p.Refund.Reason
	m.RefundedAt = p.Refund.RefundedAt
	m.RefundedBy = p.Refund.RefundedBy
	m.RefundPaymentID = p.Refund.RefundPaymentID
	m.OriginalPaymentID = p.OriginalPaymentID
	m.DisputeReason = p.DisputeReason
	m.DisputedAt = p.DisputedAt
	m.StatusHistory = p.StatusHistory
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
