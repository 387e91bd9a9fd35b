package shipment

import "time"

// Timeline is the state derived purely from a tracking log
type Timeline struct {
	CurrentPhase       Phase
	CurrentStatus      Status
	Phases             PhaseTimings
	ActualDeliveryDate *time.Time
	Durations          []*float64
}

// Replay re-applies a tracking log, in order, to a fresh phase record set.
// Applying a shipment's own log reproduces its current phase, status and timings.
func Replay(updates []TrackingUpdate) (*Timeline, error) {
	scratch := &Shipment{Phases: NewPhaseTimings()}
	for _, u := range updates {
		in := TrackingInput{
			Phase:                 u.Phase,
			Status:                u.Status,
			Location:              u.Location,
			Description:           u.Description,
			Actor:                 u.UpdatedBy,
			EstimatedNextUpdate:   u.EstimatedNextUpdate,
			ExpectedDurationHours: u.ExpectedDurationHours,
			IsException:           u.IsException,
			ExceptionReason:       u.ExceptionReason,
			At:                    u.Timestamp,
		}
		if _, err := scratch.apply(in); err != nil {
			return nil, err
		}
	}

	tl := &Timeline{
		CurrentPhase:       scratch.CurrentPhase,
		CurrentStatus:      scratch.CurrentStatus,
		Phases:             scratch.Phases,
		ActualDeliveryDate: scratch.ActualDeliveryDate,
	}
	for _, u := range scratch.TrackingUpdates {
		tl.Durations = append(tl.Durations, u.ActualDurationHours)
	}
	return tl, nil
}
