package event

import (
	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/payment"
	"github.com/exportexpress/backoffice/internal/domain/shipment"
)

// RegisterDomainEvents registers every event the back office raises
func RegisterDomainEvents(s *EventSerializer) {
	s.Register(order.EventTypeOrderCreated, &order.OrderCreatedEvent{})
	s.Register(order.EventTypeOrderStatusChanged, &order.OrderStatusChangedEvent{})

	s.Register(payment.EventTypePaymentFlowGenerated, &payment.PaymentFlowGeneratedEvent{})
	s.Register(payment.EventTypePaymentStatusChanged, &payment.PaymentStatusChangedEvent{})
	s.Register(payment.EventTypePaymentEscrowReleased, &payment.PaymentEscrowReleasedEvent{})
	s.Register(payment.EventTypePaymentRefunded, &payment.PaymentRefundedEvent{})
	s.Register(payment.EventTypeVendorPayoutsReleased, &payment.VendorPayoutsReleasedEvent{})

	s.Register(shipment.EventTypeShipmentCreated, &shipment.ShipmentCreatedEvent{})
	s.Register(shipment.EventTypeShipmentTrackingUpdated, &shipment.ShipmentTrackingUpdatedEvent{})
	s.Register(shipment.EventTypeShipmentPhaseCompleted, &shipment.ShipmentPhaseCompletedEvent{})
	s.Register(shipment.EventTypeShipmentDelivered, &shipment.ShipmentDeliveredEvent{})
	s.Register(shipment.EventTypeShipmentDocumentUploaded, &shipment.ShipmentDocumentUploadedEvent{})
	s.Register(shipment.EventTypeShipmentDocumentVerified, &shipment.ShipmentDocumentVerifiedEvent{})
}

// NewDomainEventSerializer returns a serializer with all domain events registered
func NewDomainEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterDomainEvents(s)
	return s
}
