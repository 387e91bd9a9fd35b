package shipment

import "time"

// Analytics is a read-only aggregate view over a set of shipments
type Analytics struct {
	TotalShipments       int64                   `json:"total_shipments"`
	Delivered            int64                   `json:"delivered"`
	InTransit            int64                   `json:"in_transit"`
	DelayedCount         int64                   `json:"delayed_count"`
	ExceptionCount       int64                   `json:"exception_count"`
	AverageDeliveryHours float64                 `json:"average_delivery_hours"`
	ByPhase              map[Phase]int64         `json:"by_phase"`
	ByStatus             map[Status]int64        `json:"by_status"`
	ByTransportMode      map[TransportMode]int64 `json:"by_transport_mode"`
	ByDestination        map[string]int64        `json:"by_destination_country"`
}

// ComputeAnalytics aggregates shipments as of now.
// Delayed means past the estimated delivery date without a confirmed delivery.
func ComputeAnalytics(shipments []Shipment, now time.Time) Analytics {
	a := Analytics{
		ByPhase:         make(map[Phase]int64),
		ByStatus:        make(map[Status]int64),
		ByTransportMode: make(map[TransportMode]int64),
		ByDestination:   make(map[string]int64),
	}
	var totalDelivery time.Duration
	for i := range shipments {
		s := &shipments[i]
		a.TotalShipments++
		a.ByPhase[s.CurrentPhase]++
		a.ByStatus[s.CurrentStatus]++
		a.ByTransportMode[s.TransportMode]++
		a.ByDestination[s.Destination.Country]++

		if d, ok := s.DeliveryDuration(); ok {
			a.Delivered++
			totalDelivery += d
		} else if !s.IsTerminal() {
			a.InTransit++
		}
		if s.IsDelayed(now) {
			a.DelayedCount++
		}
		if s.HasException() {
			a.ExceptionCount++
		}
	}
	if a.Delivered > 0 {
		a.AverageDeliveryHours = totalDelivery.Hours() / float64(a.Delivered)
	}
	return a
}
