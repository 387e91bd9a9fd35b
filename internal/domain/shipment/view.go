package shipment

import (
	"time"

	"github.com/exportexpress/backoffice/internal/domain/shared/valueobject"
)

// PublicUpdate is a tracking entry stripped of internal details
type PublicUpdate struct {
	Phase       Phase                `json:"phase"`
	Status      Status               `json:"status"`
	Location    valueobject.Location `json:"location"`
	Timestamp   time.Time            `json:"timestamp"`
	Description string               `json:"description"`
}

// PublicView is the customer-facing live tracking projection. It carries no
// contacts, costs, documents or actors.
type PublicView struct {
	ShipmentCode          string               `json:"shipment_code"`
	TrackingNumber        string               `json:"tracking_number"`
	CurrentPhase          Phase                `json:"current_phase"`
	CurrentStatus         Status               `json:"current_status"`
	Origin                valueobject.Location `json:"origin"`
	Destination           valueobject.Location `json:"destination"`
	TransportMode         TransportMode        `json:"transport_mode"`
	EstimatedDeliveryDate time.Time            `json:"estimated_delivery_date"`
	ActualDeliveryDate    *time.Time           `json:"actual_delivery_date,omitempty"`
	Progress              int                  `json:"progress"`
	Delayed               bool                 `json:"delayed"`
	Timeline              []PublicUpdate       `json:"timeline"`
}

// PublicView projects the shipment for customers as of now
func (s *Shipment) PublicView(now time.Time) PublicView {
	v := PublicView{
		ShipmentCode:          s.ShipmentCode,
		TrackingNumber:        s.TrackingNumber,
		CurrentPhase:          s.CurrentPhase,
		CurrentStatus:         s.CurrentStatus,
		Origin:                s.Origin.Public(),
		Destination:           s.Destination.Public(),
		TransportMode:         s.TransportMode,
		EstimatedDeliveryDate: s.EstimatedDeliveryDate,
		ActualDeliveryDate:    s.ActualDeliveryDate,
		Progress:              s.Progress(),
		Delayed:               s.IsDelayed(now),
		Timeline:              make([]PublicUpdate, 0, len(s.TrackingUpdates)),
	}
	for _, u := range s.TrackingUpdates {
		v.Timeline = append(v.Timeline, PublicUpdate{
			Phase:       u.Phase,
			Status:      u.Status,
			Location:    u.Location.Public(),
			Timestamp:   u.Timestamp,
			Description: u.Description,
		})
	}
	return v
}
