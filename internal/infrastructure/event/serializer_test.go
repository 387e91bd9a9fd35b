package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/payment"
	"github.com/exportexpress/backoffice/internal/domain/shipment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_EncodeDecode(t *testing.T) {
	s := NewDomainEventSerializer()

	refunded := &payment.PaymentRefundedEvent{
		PaymentID:       uuid.New(),
		RefundPaymentID: uuid.New(),
		OrderID:         uuid.New(),
		RefundAmount:    decimal.RequireFromString("120.50"),
		Reason:          "damaged goods",
	}
	refunded.ID = uuid.New()
	refunded.Type = payment.EventTypePaymentRefunded
	refunded.AggID = refunded.PaymentID
	refunded.AggType = payment.AggregateTypePayment
	refunded.Timestamp = eventT0.In(time.FixedZone("IST", 19800))
	refunded.Actor = "finance@exportexpress.com"

	data, err := s.Encode(refunded)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, refunded.ID, env.EventID)
	assert.Equal(t, "PaymentRefunded", env.EventType)
	assert.Equal(t, refunded.PaymentID, env.AggregateID)
	assert.Equal(t, "Payment", env.AggregateType)
	assert.Equal(t, "finance@exportexpress.com", env.Actor)
	assert.Equal(t, time.UTC, env.OccurredAt.Location())

	decoded, err := s.Decode(data)
	require.NoError(t, err)
	got, ok := decoded.(*payment.PaymentRefundedEvent)
	require.True(t, ok)
	assert.Equal(t, refunded.RefundPaymentID, got.RefundPaymentID)
	assert.True(t, refunded.RefundAmount.Equal(got.RefundAmount))
	assert.Equal(t, "damaged goods", got.Reason)
	assert.Equal(t, "finance@exportexpress.com", got.Actor)
	assert.True(t, eventT0.Equal(got.OccurredAt()))
}

func TestRegisterDomainEvents(t *testing.T) {
	s := NewDomainEventSerializer()
	for _, et := range []string{
		order.EventTypeOrderCreated,
		order.EventTypeOrderStatusChanged,
		payment.EventTypePaymentFlowGenerated,
		payment.EventTypePaymentStatusChanged,
		payment.EventTypePaymentEscrowReleased,
		payment.EventTypePaymentRefunded,
		payment.EventTypeVendorPayoutsReleased,
		shipment.EventTypeShipmentCreated,
		shipment.EventTypeShipmentTrackingUpdated,
		shipment.EventTypeShipmentPhaseCompleted,
		shipment.EventTypeShipmentDelivered,
		shipment.EventTypeShipmentDocumentUploaded,
		shipment.EventTypeShipmentDocumentVerified,
	} {
		assert.True(t, s.IsRegistered(et), et)
	}
}

func TestEventSerializer_DecodeErrors(t *testing.T) {
	s := NewDomainEventSerializer()

	_, err := s.Decode([]byte("{not json"))
	assert.ErrorContains(t, err, "unmarshal envelope")

	_, err = s.Decode([]byte(`{"event_type":"Mystery","payload":{}}`))
	assert.ErrorContains(t, err, "unknown event type: Mystery")

	_, err = s.Decode([]byte(`{"event_type":"OrderCreated","payload":{"order_id":42}}`))
	assert.ErrorContains(t, err, "unmarshal OrderCreated payload")
}
