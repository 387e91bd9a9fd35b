package shipment

// Status is the fine-grained shipment status. Regular statuses belong to exactly
// one phase; exception statuses may occur in any phase.
type Status string

// VENDOR_TO_HOST
const (
	StatusPendingPickup        Status = "PENDING_PICKUP"
	StatusPickupScheduled      Status = "PICKUP_SCHEDULED"
	StatusPickedUp             Status = "PICKED_UP"
	StatusInTransitToWarehouse Status = "IN_TRANSIT_TO_WAREHOUSE"
	StatusArrivedAtWarehouse   Status = "ARRIVED_AT_WAREHOUSE"
	StatusQualityCheck         Status = "QUALITY_CHECK"
	StatusPackaging            Status = "PACKAGING"
	StatusReadyForExport       Status = "READY_FOR_EXPORT"
)

// HOST_TO_PORT
const (
	StatusExportDocumentation    Status = "EXPORT_DOCUMENTATION"
	StatusCustomsClearanceExport Status = "CUSTOMS_CLEARANCE_EXPORT"
	StatusInTransitToPort        Status = "IN_TRANSIT_TO_PORT"
	StatusArrivedAtPort          Status = "ARRIVED_AT_PORT"
	StatusLoadedForShipping      Status = "LOADED_FOR_SHIPPING"
)

// PORT_TO_PORT
const (
	StatusDepartedOriginPort     Status = "DEPARTED_ORIGIN_PORT"
	StatusInTransitInternational Status = "IN_TRANSIT_INTERNATIONAL"
	StatusTransshipment          Status = "TRANSSHIPMENT"
	StatusArrivedDestinationPort Status = "ARRIVED_DESTINATION_PORT"
	StatusDischarged             Status = "DISCHARGED"
)

// IMPORT_PROCESSING
const (
	StatusCustomsClearanceImport Status = "CUSTOMS_CLEARANCE_IMPORT"
	StatusDutyPayment            Status = "DUTY_PAYMENT"
	StatusImportInspection       Status = "IMPORT_INSPECTION"
	StatusCustomsReleased        Status = "CUSTOMS_RELEASED"
	StatusReadyForDelivery       Status = "READY_FOR_DELIVERY"
)

// PORT_TO_CLIENT
const (
	StatusOutForDelivery    Status = "OUT_FOR_DELIVERY"
	StatusInTransitToClient Status = "IN_TRANSIT_TO_CLIENT"
	StatusDeliveryAttempted Status = "DELIVERY_ATTEMPTED"
	StatusDelivered         Status = "DELIVERED"
	StatusDeliveryConfirmed Status = "DELIVERY_CONFIRMED"
)

// Exception statuses
const (
	StatusDelayed   Status = "DELAYED"
	StatusException Status = "EXCEPTION"
	StatusReturned  Status = "RETURNED"
	StatusLost      Status = "LOST"
)

var statusPhase = map[Status]Phase{
	StatusPendingPickup:        PhaseVendorToHost,
	StatusPickupScheduled:      PhaseVendorToHost,
	StatusPickedUp:             PhaseVendorToHost,
	StatusInTransitToWarehouse: PhaseVendorToHost,
	StatusArrivedAtWarehouse:   PhaseVendorToHost,
	StatusQualityCheck:         PhaseVendorToHost,
	StatusPackaging:            PhaseVendorToHost,
	StatusReadyForExport:       PhaseVendorToHost,

	StatusExportDocumentation:    PhaseHostToPort,
	StatusCustomsClearanceExport: PhaseHostToPort,
	StatusInTransitToPort:        PhaseHostToPort,
	StatusArrivedAtPort:          PhaseHostToPort,
	StatusLoadedForShipping:      PhaseHostToPort,

	StatusDepartedOriginPort:     PhasePortToPort,
	StatusInTransitInternational: PhasePortToPort,
	StatusTransshipment:          PhasePortToPort,
	StatusArrivedDestinationPort: PhasePortToPort,
	StatusDischarged:             PhasePortToPort,

	StatusCustomsClearanceImport: PhaseImportProcessing,
	StatusDutyPayment:            PhaseImportProcessing,
	StatusImportInspection:       PhaseImportProcessing,
	StatusCustomsReleased:        PhaseImportProcessing,
	StatusReadyForDelivery:       PhaseImportProcessing,

	StatusOutForDelivery:    PhasePortToClient,
	StatusInTransitToClient: PhasePortToClient,
	StatusDeliveryAttempted: PhasePortToClient,
	StatusDelivered:         PhasePortToClient,
	StatusDeliveryConfirmed: PhasePortToClient,
}

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	_, ok := statusPhase[s]
	return ok || s.IsException()
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Phase returns the phase a regular status belongs to; exception statuses return ""
func (s Status) Phase() Phase {
	return statusPhase[s]
}

// IsException reports whether s is one of the exception statuses
func (s Status) IsException() bool {
	switch s {
	case StatusDelayed, StatusException, StatusReturned, StatusLost:
		return true
	}
	return false
}

// IsTerminal reports whether a shipment in s accepts no further tracking updates
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDeliveryConfirmed, StatusReturned, StatusLost:
		return true
	}
	return false
}

// StatusesOf lists the regular statuses of phase p
func StatusesOf(p Phase) []Status {
	var out []Status
	for s, ph := range statusPhase {
		if ph == p {
			out = append(out, s)
		}
	}
	return out
}
