package shipment

import "time"

// Phase is one of the five ordered legs of a shipment's journey
type Phase string

const (
	PhaseVendorToHost     Phase = "VENDOR_TO_HOST"
	PhaseHostToPort       Phase = "HOST_TO_PORT"
	PhasePortToPort       Phase = "PORT_TO_PORT"
	PhaseImportProcessing Phase = "IMPORT_PROCESSING"
	PhasePortToClient     Phase = "PORT_TO_CLIENT"
)

// PhaseCount is the number of phases every shipment tracks
const PhaseCount = 5

// Phases lists every phase in journey order
var Phases = [PhaseCount]Phase{
	PhaseVendorToHost,
	PhaseHostToPort,
	PhasePortToPort,
	PhaseImportProcessing,
	PhasePortToClient,
}

type phaseSpec struct {
	completion     Status
	estimatedHours int
}

var phaseSpecs = map[Phase]phaseSpec{
	PhaseVendorToHost:     {completion: StatusReadyForExport, estimatedHours: 48},
	PhaseHostToPort:       {completion: StatusLoadedForShipping, estimatedHours: 24},
	PhasePortToPort:       {completion: StatusDischarged, estimatedHours: 240},
	PhaseImportProcessing: {completion: StatusReadyForDelivery, estimatedHours: 72},
	PhasePortToClient:     {completion: StatusDeliveryConfirmed, estimatedHours: 48},
}

// IsValid checks if the phase is valid
func (p Phase) IsValid() bool {
	_, ok := phaseSpecs[p]
	return ok
}

// String returns the string representation of Phase
func (p Phase) String() string {
	return string(p)
}

// Index returns the 0-based position of p in journey order, or -1
func (p Phase) Index() int {
	for i, ph := range Phases {
		if ph == p {
			return i
		}
	}
	return -1
}

// CompletionStatus returns the one status that completes p
func (p Phase) CompletionStatus() Status {
	return phaseSpecs[p].completion
}

// EstimatedDuration returns the planned length of p
func (p Phase) EstimatedDuration() time.Duration {
	return time.Duration(phaseSpecs[p].estimatedHours) * time.Hour
}

// PhaseStatus is the progress of one phase
type PhaseStatus string

const (
	PhaseStatusPending    PhaseStatus = "pending"
	PhaseStatusInProgress PhaseStatus = "in_progress"
	PhaseStatusCompleted  PhaseStatus = "completed"
	PhaseStatusDelayed    PhaseStatus = "delayed"
)

// PhaseTiming is the per-phase timing record. All five are present from creation.
type PhaseTiming struct {
	Phase                  Phase       `json:"phase"`
	Status                 PhaseStatus `json:"status"`
	StartDate              *time.Time  `json:"start_date,omitempty"`
	EndDate                *time.Time  `json:"end_date,omitempty"`
	EstimatedDurationHours int         `json:"estimated_duration_hours"`
	ActualDurationHours    *float64    `json:"actual_duration_hours,omitempty"`
}

// PhaseTimings holds one record per phase, indexed by Phase.Index
type PhaseTimings [PhaseCount]PhaseTiming

// NewPhaseTimings returns all five phases in pending state
func NewPhaseTimings() PhaseTimings {
	var timings PhaseTimings
	for i, p := range Phases {
		timings[i] = PhaseTiming{
			Phase:                  p,
			Status:                 PhaseStatusPending,
			EstimatedDurationHours: phaseSpecs[p].estimatedHours,
		}
	}
	return timings
}

// Get returns the record for p
func (t *PhaseTimings) Get(p Phase) *PhaseTiming {
	return &t[p.Index()]
}

// IsCompleted reports whether the phase reached its completion status
func (pt PhaseTiming) IsCompleted() bool {
	return pt.Status == PhaseStatusCompleted
}

// IsOverdue reports whether a started, unfinished phase has run past its estimate at now
func (pt PhaseTiming) IsOverdue(now time.Time) bool {
	if pt.StartDate == nil || pt.EndDate != nil {
		return false
	}
	return now.Sub(*pt.StartDate) > time.Duration(pt.EstimatedDurationHours)*time.Hour
}

func hoursBetween(from, to time.Time) *float64 {
	h := to.Sub(from).Hours()
	return &h
}
