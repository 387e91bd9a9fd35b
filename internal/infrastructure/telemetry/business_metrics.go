package telemetry

import (
	"context"
	"errors"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/payment"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/domain/shipment"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned by NewBusinessMetrics without a meter
var ErrMeterNil = errors.New("business metrics: meter cannot be nil")

// BusinessMetrics turns domain events into counters and histograms. It is
// an event subscriber and never touches aggregates.
type BusinessMetrics struct {
	logger *zap.Logger

	ordersCreated      *Counter
	orderValue         *AmountCounter
	orderTransitions   *Counter
	paymentFlows       *Counter
	paymentTransitions *Counter
	paymentVolume      *AmountCounter
	escrowReleased     *Counter
	refunds            *Counter
	refundVolume       *AmountCounter
	payouts            *Counter
	shipmentsCreated   *Counter
	trackingUpdates    *Counter
	phaseDuration      *Histogram
	deliveries         *Counter
	documents          *Counter
}

// NewBusinessMetrics registers every instrument on meter
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{logger: logger}
	var err error
	counter := func(dst **Counter, name, desc, unit string) {
		if err == nil {
			*dst, err = NewCounter(meter, name, desc, unit)
		}
	}
	amount := func(dst **AmountCounter, name, desc string) {
		if err == nil {
			*dst, err = NewAmountCounter(meter, name, desc, "{currency_unit}")
		}
	}

	counter(&bm.ordersCreated, "backoffice_orders_created_total", "Orders placed", "{orders}")
	amount(&bm.orderValue, "backoffice_order_value_total", "Final amount of placed orders")
	counter(&bm.orderTransitions, "backoffice_order_transitions_total", "Order status transitions", "{transitions}")
	counter(&bm.paymentFlows, "backoffice_payment_flows_total", "Payment flows generated", "{flows}")
	counter(&bm.paymentTransitions, "backoffice_payment_transitions_total", "Payment status transitions", "{transitions}")
	amount(&bm.paymentVolume, "backoffice_payment_completed_volume_total", "Amount of payments reaching completed")
	counter(&bm.escrowReleased, "backoffice_escrow_released_total", "Escrow releases", "{payments}")
	counter(&bm.refunds, "backoffice_refunds_total", "Refunds recorded", "{refunds}")
	amount(&bm.refundVolume, "backoffice_refund_volume_total", "Refunded amount")
	counter(&bm.payouts, "backoffice_vendor_payouts_total", "Vendor payout rule outcomes per payment", "{payments}")
	counter(&bm.shipmentsCreated, "backoffice_shipments_created_total", "Shipments created", "{shipments}")
	counter(&bm.trackingUpdates, "backoffice_tracking_updates_total", "Tracking updates appended", "{updates}")
	counter(&bm.deliveries, "backoffice_shipments_delivered_total", "Shipments delivered", "{shipments}")
	counter(&bm.documents, "backoffice_shipment_documents_total", "Shipment documents uploaded", "{documents}")
	if err != nil {
		return nil, err
	}

	bm.phaseDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "backoffice_phase_duration_hours",
		Description: "Actual duration of completed shipment phases",
		Unit:        "h",
		Boundaries:  PhaseHoursBuckets,
	})
	if err != nil {
		return nil, err
	}
	return bm, nil
}

// EventTypes lists every event the metrics subscriber consumes
func (bm *BusinessMetrics) EventTypes() []string {
	return []string{
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
	}
}

// Handle records the event. Unknown events are ignored.
func (bm *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderCreatedEvent:
		cur := AttrCurrency.String(e.Currency)
		bm.ordersCreated.Inc(ctx, cur)
		bm.orderValue.Add(ctx, e.FinalAmount.InexactFloat64(), cur)

	case *order.OrderStatusChangedEvent:
		bm.orderTransitions.Inc(ctx,
			AttrFromStatus.String(string(e.FromStatus)),
			AttrOrderStatus.String(string(e.ToStatus)))

	case *payment.PaymentFlowGeneratedEvent:
		bm.paymentFlows.Inc(ctx, attribute.Bool("escrow", e.Escrow))

	case *payment.PaymentStatusChangedEvent:
		typ := AttrPaymentType.String(string(e.PaymentType))
		bm.paymentTransitions.Inc(ctx, typ,
			AttrFromStatus.String(string(e.FromStatus)),
			AttrPaymentStatus.String(string(e.ToStatus)))
		if e.ToStatus == payment.StatusCompleted {
			bm.paymentVolume.Add(ctx, e.Amount.InexactFloat64(), typ)
		}

	case *payment.PaymentEscrowReleasedEvent:
		bm.escrowReleased.Inc(ctx)

	case *payment.PaymentRefundedEvent:
		bm.refunds.Inc(ctx)
		bm.refundVolume.Add(ctx, e.RefundAmount.InexactFloat64())

	case *payment.VendorPayoutsReleasedEvent:
		if n := len(e.Released); n > 0 {
			bm.payouts.Add(ctx, int64(n), AttrOutcome.String("released"))
		}
		if e.Skipped > 0 {
			bm.payouts.Add(ctx, int64(e.Skipped), AttrOutcome.String("skipped"))
		}
		if e.Failed > 0 {
			bm.payouts.Add(ctx, int64(e.Failed), AttrOutcome.String("failed"))
		}

	case *shipment.ShipmentCreatedEvent:
		bm.shipmentsCreated.Inc(ctx,
			AttrTransportMode.String(string(e.TransportMode)),
			AttrCountry.String(e.DestinationCountry))

	case *shipment.ShipmentTrackingUpdatedEvent:
		bm.trackingUpdates.Inc(ctx,
			AttrPhase.String(string(e.Phase)),
			AttrShipmentState.String(string(e.Status)),
			AttrException.Bool(e.IsException))

	case *shipment.ShipmentPhaseCompletedEvent:
		bm.phaseDuration.Record(ctx, e.ActualDurationHours, AttrPhase.String(string(e.Phase)))

	case *shipment.ShipmentDeliveredEvent:
		bm.deliveries.Inc(ctx, AttrOnTime.Bool(e.OnTime))

	case *shipment.ShipmentDocumentUploadedEvent:
		bm.documents.Inc(ctx,
			AttrDocumentType.String(string(e.DocumentType)),
			AttrPhase.String(string(e.Phase)))

	default:
		bm.logger.Debug("no metrics for event", zap.String("event_type", event.EventType()))
	}
	return nil
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
