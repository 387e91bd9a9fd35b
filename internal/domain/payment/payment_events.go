package payment

import (
	"time"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypePayment names the payment aggregate in events
const AggregateTypePayment = "Payment"

// Event type constants
const (
	EventTypePaymentFlowGenerated  = "PaymentFlowGenerated"
	EventTypePaymentStatusChanged  = "PaymentStatusChanged"
	EventTypePaymentEscrowReleased = "PaymentEscrowReleased"
	EventTypePaymentRefunded       = "PaymentRefunded"
	EventTypeVendorPayoutsReleased = "VendorPayoutsReleased"
)

// PaymentFlowGeneratedEvent is raised on the customer payment when an order's flow is created
type PaymentFlowGeneratedEvent struct {
	shared.BaseDomainEvent
	OrderID           uuid.UUID       `json:"order_id"`
	OrderNumber       string          `json:"order_number"`
	CustomerPaymentID uuid.UUID       `json:"customer_payment_id"`
	VendorPaymentIDs  []uuid.UUID     `json:"vendor_payment_ids"`
	ShippingPaymentID *uuid.UUID      `json:"shipping_payment_id,omitempty"`
	Total             decimal.Decimal `json:"total"`
	Escrow            bool            `json:"escrow"`
}

// NewPaymentFlowGeneratedEvent creates a new PaymentFlowGeneratedEvent
func NewPaymentFlowGeneratedEvent(flow *Flow, o *order.Order, actor string, at time.Time) *PaymentFlowGeneratedEvent {
	e := &PaymentFlowGeneratedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePaymentFlowGenerated, AggregateTypePayment, flow.CustomerPayment.ID, actor, at),
		OrderID:           o.ID,
		OrderNumber:       o.OrderNumber,
		CustomerPaymentID: flow.CustomerPayment.ID,
		VendorPaymentIDs:  make([]uuid.UUID, 0, len(flow.VendorPayments)),
		Total:             flow.CustomerPayment.Amount(),
		Escrow:            flow.CustomerPayment.Escrow.IsEscrow,
	}
	for _, vp := range flow.VendorPayments {
		e.VendorPaymentIDs = append(e.VendorPaymentIDs, vp.ID)
	}
	if flow.ShippingPayment != nil {
		id := flow.ShippingPayment.ID
		e.ShippingPaymentID = &id
	}
	return e
}

// EventType returns the event type name
func (e *PaymentFlowGeneratedEvent) EventType() string {
	return EventTypePaymentFlowGenerated
}

// PaymentStatusChangedEvent is raised on every status transition
type PaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	PaymentID   uuid.UUID       `json:"payment_id"`
	PaymentCode string          `json:"payment_code"`
	OrderID     uuid.UUID       `json:"order_id"`
	PaymentType Type            `json:"payment_type"`
	FromStatus  Status          `json:"from_status"`
	ToStatus    Status          `json:"to_status"`
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note,omitempty"`
}

// NewPaymentStatusChangedEvent creates a new PaymentStatusChangedEvent
func NewPaymentStatusChangedEvent(p *Payment, from Status, note, actor string, at time.Time) *PaymentStatusChangedEvent {
	return &PaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentStatusChanged, AggregateTypePayment, p.ID, actor, at),
		PaymentID:       p.ID,
		PaymentCode:     p.PaymentCode,
		OrderID:         p.OrderID,
		PaymentType:     p.Type,
		FromStatus:      from,
		ToStatus:        p.Status,
		Amount:          p.Amount(),
		Note:            note,
	}
}

// EventType returns the event type name
func (e *PaymentStatusChangedEvent) EventType() string {
	return EventTypePaymentStatusChanged
}

// PaymentEscrowReleasedEvent is raised when held funds are released
type PaymentEscrowReleasedEvent struct {
	shared.BaseDomainEvent
	PaymentID   uuid.UUID       `json:"payment_id"`
	PaymentCode string          `json:"payment_code"`
	OrderID     uuid.UUID       `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	ReleasedBy  string          `json:"released_by"`
}

// NewPaymentEscrowReleasedEvent creates a new PaymentEscrowReleasedEvent
func NewPaymentEscrowReleasedEvent(p *Payment, actor string, at time.Time) *PaymentEscrowReleasedEvent {
	return &PaymentEscrowReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentEscrowReleased, AggregateTypePayment, p.ID, actor, at),
		PaymentID:       p.ID,
		PaymentCode:     p.PaymentCode,
		OrderID:         p.OrderID,
		Amount:          p.Amount(),
		ReleasedBy:      actor,
	}
}

// EventType returns the event type name
func (e *PaymentEscrowReleasedEvent) EventType() string {
	return EventTypePaymentEscrowReleased
}

// PaymentRefundedEvent is raised on the original payment when a refund is recorded
type PaymentRefundedEvent struct {
	shared.BaseDomainEvent
	PaymentID       uuid.UUID       `json:"payment_id"`
	RefundPaymentID uuid.UUID       `json:"refund_payment_id"`
	OrderID         uuid.UUID       `json:"order_id"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	Reason          string          `json:"reason"`
}

// NewPaymentRefundedEvent creates a new PaymentRefundedEvent
func NewPaymentRefundedEvent(p, refund *Payment, actor string, at time.Time) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRefunded, AggregateTypePayment, p.ID, actor, at),
		PaymentID:       p.ID,
		RefundPaymentID: refund.ID,
		OrderID:         p.OrderID,
		RefundAmount:    refund.Amount(),
		Reason:          p.Refund.Reason,
	}
}

// EventType returns the event type name
func (e *PaymentRefundedEvent) EventType() string {
	return EventTypePaymentRefunded
}

// VendorPayoutsReleasedEvent reports the outcome of the vendor payout rule for one customer payment
type VendorPayoutsReleasedEvent struct {
	shared.BaseDomainEvent
	CustomerPaymentID uuid.UUID   `json:"customer_payment_id"`
	OrderID           uuid.UUID   `json:"order_id"`
	Released          []uuid.UUID `json:"released"`
	Skipped           int         `json:"skipped"`
	Failed            int         `json:"failed"`
}

// NewVendorPayoutsReleasedEvent creates a new VendorPayoutsReleasedEvent
func NewVendorPayoutsReleasedEvent(customerPayment *Payment, released []uuid.UUID, skipped, failed int, actor string, at time.Time) *VendorPayoutsReleasedEvent {
	return &VendorPayoutsReleasedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeVendorPayoutsReleased, AggregateTypePayment, customerPayment.ID, actor, at),
		CustomerPaymentID: customerPayment.ID,
		OrderID:           customerPayment.OrderID,
		Released:          released,
		Skipped:           skipped,
		Failed:            failed,
	}
}

// EventType returns the event type name
func (e *VendorPayoutsReleasedEvent) EventType() string {
	return EventTypeVendorPayoutsReleased
}
