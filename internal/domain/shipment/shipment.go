package shipment

import (
	"fmt"
	"strings"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CodePrefix and CodeWidth define shipment codes like SHP-20260101-000001
const (
	CodePrefix = "SHP"
	CodeWidth  = 6
)

var insuranceRate = decimal.RequireFromString("0.01")

// Cargo describes what is being shipped
type Cargo struct {
	WeightKg       decimal.Decimal `json:"weight_kg"`
	VolumeM3       decimal.Decimal `json:"volume_m3"`
	PackageCount   int             `json:"package_count"`
	Description    string          `json:"description"`
	HSCode         string          `json:"hs_code,omitempty"`
	DangerousGoods bool            `json:"dangerous_goods"`
	InsuranceValue decimal.Decimal `json:"insurance_value"`
}

// Costs are the logistics charges of a shipment
type Costs struct {
	ShippingCost  decimal.Decimal
	InsuranceCost decimal.Decimal
	CustomsDuties decimal.Decimal
	TotalCost     decimal.Decimal
	Currency      valueobject.Currency
}

// TrackingUpdate is one entry of the append-only tracking log
type TrackingUpdate struct {
	ID                    uuid.UUID            `json:"id"`
	Phase                 Phase                `json:"phase"`
	Status                Status               `json:"status"`
	Location              valueobject.Location `json:"location"`
	Timestamp             time.Time            `json:"timestamp"`
	Description           string               `json:"description"`
	UpdatedBy             string               `json:"updated_by"`
	EstimatedNextUpdate   *time.Time           `json:"estimated_next_update,omitempty"`
	ExpectedDurationHours *int                 `json:"expected_duration_hours,omitempty"`
	ActualDurationHours   *float64             `json:"actual_duration_hours,omitempty"`
	IsException           bool                 `json:"is_exception"`
	ExceptionReason       string               `json:"exception_reason,omitempty"`
}

// Shipment tracks an order's goods through the five logistics phases.
// CurrentPhase and CurrentStatus always mirror the last tracking update.
type Shipment struct {
	shared.BaseAggregateRoot
	shared.AuditInfo
	ShipmentCode          string
	TrackingNumber        string
	OrderID               uuid.UUID
	OrderNumber           string
	CustomerID            uuid.UUID
	Origin                valueobject.Location
	Destination           valueobject.Location
	TransitPorts          []valueobject.Location
	TransportMode         TransportMode
	CarrierName           string
	CurrentPhase          Phase
	CurrentStatus         Status
	EstimatedDeliveryDate time.Time
	ActualDeliveryDate    *time.Time
	Cargo                 Cargo
	Costs                 Costs
	TrackingUpdates       []TrackingUpdate
	Phases                PhaseTimings
	Documents             []Document
	Stakeholders          []Stakeholder
	Notes                 string
}

// CreateInput carries the route information for a new shipment
type CreateInput struct {
	ShipmentCode   string
	TrackingNumber string
	Origin         valueobject.Location
	Destination    valueobject.Location
	TransitPorts   []valueobject.Location
	TransportMode  TransportMode
	CarrierName    string
	Cargo          Cargo
	ShippingCost   decimal.Decimal
	CustomsDuties  decimal.Decimal
	Notes          string
	Actor          string
	At             time.Time
}

// NewShipment creates the shipment for o, estimating delivery from the transport
// mode and destination, seeding stakeholders and the initial pickup update.
func NewShipment(o *order.Order, in CreateInput) (*Shipment, error) {
	if o.IsCancelled() {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot ship cancelled order %s", o.OrderNumber))
	}
	if strings.TrimSpace(in.ShipmentCode) == "" {
		return nil, shared.NewValidationError("shipment code is required")
	}
	if err := in.Origin.Validate(); err != nil {
		return nil, shared.WrapDomainError(shared.CodeValidationFailed, "invalid origin", err)
	}
	if err := in.Destination.Validate(); err != nil {
		return nil, shared.WrapDomainError(shared.CodeValidationFailed, "invalid destination", err)
	}
	if !in.TransportMode.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("invalid transport mode %q", in.TransportMode))
	}
	for _, amount := range []decimal.Decimal{in.ShippingCost, in.CustomsDuties, in.Cargo.InsuranceValue, in.Cargo.WeightKg, in.Cargo.VolumeM3} {
		if amount.IsNegative() {
			return nil, shared.NewValidationError("cargo measures and costs cannot be negative")
		}
	}
	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	insuranceCost := valueobject.ApplyRate(in.Cargo.InsuranceValue, insuranceRate)
	s := &Shipment{
		BaseAggregateRoot:     shared.NewBaseAggregateRoot(at),
		ShipmentCode:          in.ShipmentCode,
		TrackingNumber:        in.TrackingNumber,
		OrderID:               o.ID,
		OrderNumber:           o.OrderNumber,
		CustomerID:            o.Customer.ID,
		Origin:                in.Origin,
		Destination:           in.Destination,
		TransitPorts:          append([]valueobject.Location(nil), in.TransitPorts...),
		TransportMode:         in.TransportMode,
		CarrierName:           in.CarrierName,
		EstimatedDeliveryDate: EstimateDeliveryDate(in.TransportMode, in.Destination.Country, at),
		Cargo:                 in.Cargo,
		Costs: Costs{
			ShippingCost:  valueobject.Round(in.ShippingCost),
			InsuranceCost: insuranceCost,
			CustomsDuties: valueobject.Round(in.CustomsDuties),
			TotalCost:     valueobject.Sum(valueobject.Round(in.ShippingCost), insuranceCost, valueobject.Round(in.CustomsDuties)),
			Currency:      o.Currency,
		},
		Phases:       NewPhaseTimings(),
		Stakeholders: seedStakeholders(o),
		Notes:        in.Notes,
	}
	if s.TrackingNumber == "" {
		s.TrackingNumber = s.ShipmentCode
	}
	s.Stamp(in.Actor)

	next := at.Add(24 * time.Hour)
	expected := PhaseVendorToHost.EstimatedDuration()
	expectedHours := int(expected.Hours())
	if _, err := s.apply(TrackingInput{
		Phase:                 PhaseVendorToHost,
		Status:                StatusPendingPickup,
		Location:              in.Origin,
		Description:           "Shipment created and awaiting pickup from vendor",
		Actor:                 in.Actor,
		EstimatedNextUpdate:   &next,
		ExpectedDurationHours: &expectedHours,
		At:                    at,
	}); err != nil {
		return nil, err
	}

	s.AddDomainEvent(NewShipmentCreatedEvent(s, in.Actor))
	return s, nil
}

func seedStakeholders(o *order.Order) []Stakeholder {
	stakeholders := []Stakeholder{
		{
			Type:   StakeholderCustomer,
			Role:   "Consignee",
			Name:   o.Customer.Name,
			Email:  o.Customer.Email,
			Phone:  o.Customer.Phone,
			Phases: []Phase{PhasePortToClient},
		},
		PlatformStakeholder(),
	}
	for _, group := range o.VendorGroups() {
		stakeholders = append(stakeholders, Stakeholder{
			Type:    StakeholderVendor,
			Role:    "Supplier",
			Name:    group.VendorName,
			Company: group.VendorName,
			Email:   group.VendorEmail,
			Phases:  []Phase{PhaseVendorToHost},
		})
	}
	return stakeholders
}

// TrackingInput is the append-tracking-update command. Phase may be omitted for
// regular statuses; exception statuses default to the current phase.
type TrackingInput struct {
	Phase                 Phase
	Status                Status
	Location              valueobject.Location
	Description           string
	Actor                 string
	EstimatedNextUpdate   *time.Time
	ExpectedDurationHours *int
	IsException           bool
	ExceptionReason       string
	At                    time.Time
}

// AppendTrackingUpdate validates and appends an update, advancing the current
// phase/status and the phase timing records.
//
// Phases are monotonic: an update for an earlier phase than the current one,
// or a regular update into an already completed phase, is rejected with
// INVALID_TRANSITION. Terminal shipments reject every update with INVALID_STATE.
func (s *Shipment) AppendTrackingUpdate(in TrackingInput) (*TrackingUpdate, error) {
	if in.At.IsZero() {
		in.At = time.Now().UTC()
	}
	completedBefore := s.completedPhases()
	update, err := s.apply(in)
	if err != nil {
		return nil, err
	}

	s.AddDomainEvent(NewShipmentTrackingUpdatedEvent(s, update))
	for _, pt := range s.Phases {
		if pt.IsCompleted() && !completedBefore[pt.Phase] {
			s.AddDomainEvent(NewShipmentPhaseCompletedEvent(s, pt, in.Actor))
		}
	}
	if update.Status == StatusDeliveryConfirmed {
		s.AddDomainEvent(NewShipmentDeliveredEvent(s, in.Actor))
	}
	return update, nil
}

func (s *Shipment) completedPhases() map[Phase]bool {
	done := make(map[Phase]bool, PhaseCount)
	for _, pt := range s.Phases {
		done[pt.Phase] = pt.IsCompleted()
	}
	return done
}

// apply is the single state-transition function shared by live appends and replay
func (s *Shipment) apply(in TrackingInput) (*TrackingUpdate, error) {
	phase, err := s.validateUpdate(&in)
	if err != nil {
		return nil, err
	}

	update := TrackingUpdate{
		ID:                    uuid.New(),
		Phase:                 phase,
		Status:                in.Status,
		Location:              in.Location,
		Timestamp:             in.At,
		Description:           in.Description,
		UpdatedBy:             in.Actor,
		EstimatedNextUpdate:   in.EstimatedNextUpdate,
		ExpectedDurationHours: in.ExpectedDurationHours,
		IsException:           in.IsException || in.Status.IsException(),
		ExceptionReason:       in.ExceptionReason,
	}
	if prev := s.LastUpdate(); prev != nil {
		update.ActualDurationHours = hoursBetween(prev.Timestamp, in.At)
	}
	s.TrackingUpdates = append(s.TrackingUpdates, update)
	s.CurrentPhase = phase
	s.CurrentStatus = in.Status

	timing := s.Phases.Get(phase)
	if timing.StartDate == nil {
		start := in.At
		timing.StartDate = &start
		timing.Status = PhaseStatusInProgress
	}
	if !timing.IsCompleted() {
		switch {
		case in.Status == phase.CompletionStatus():
			end := in.At
			timing.EndDate = &end
			timing.ActualDurationHours = hoursBetween(*timing.StartDate, end)
			timing.Status = PhaseStatusCompleted
		case in.Status == StatusDelayed:
			timing.Status = PhaseStatusDelayed
		case !in.Status.IsException():
			timing.Status = PhaseStatusInProgress
		}
	}
	if in.Status == StatusDeliveryConfirmed && s.ActualDeliveryDate == nil {
		delivered := in.At
		s.ActualDeliveryDate = &delivered
	}

	s.Touch(in.At)
	s.Stamp(in.Actor)
	return &s.TrackingUpdates[len(s.TrackingUpdates)-1], nil
}

func (s *Shipment) validateUpdate(in *TrackingInput) (Phase, error) {
	if !in.Status.IsValid() {
		return "", shared.NewValidationError(fmt.Sprintf("invalid shipment status %q", in.Status))
	}
	if s.CurrentStatus.IsTerminal() {
		return "", shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("shipment %s is %s and accepts no further updates", s.ShipmentCode, s.CurrentStatus))
	}

	phase := in.Phase
	if phase == "" {
		phase = in.Status.Phase()
		if phase == "" {
			phase = s.CurrentPhase
		}
	}
	if !phase.IsValid() {
		return "", shared.NewValidationError(fmt.Sprintf("invalid shipment phase %q", phase))
	}
	if owner := in.Status.Phase(); owner != "" && owner != phase {
		return "", shared.NewValidationError(
			fmt.Sprintf("status %s belongs to phase %s, not %s", in.Status, owner, phase))
	}
	if in.Location.IsZero() {
		if last := s.LastUpdate(); last != nil {
			in.Location = last.Location
		}
	}

	if s.CurrentPhase != "" && phase.Index() < s.CurrentPhase.Index() {
		return "", shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("cannot move shipment back from %s to %s", s.CurrentPhase, phase))
	}
	if s.Phases.Get(phase).IsCompleted() && !in.Status.IsException() {
		return "", shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("phase %s is already completed", phase))
	}
	if last := s.LastUpdate(); last != nil && in.At.Before(last.Timestamp) {
		return "", shared.NewValidationError("tracking update cannot be older than the previous update")
	}
	return phase, nil
}

// LastUpdate returns the most recent tracking update, or nil
func (s *Shipment) LastUpdate() *TrackingUpdate {
	if len(s.TrackingUpdates) == 0 {
		return nil
	}
	return &s.TrackingUpdates[len(s.TrackingUpdates)-1]
}

// UploadDocument appends a document. New documents start unverified.
func (s *Shipment) UploadDocument(in DocumentInput) (*Document, error) {
	if !in.Type.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("invalid document type %q", in.Type))
	}
	phase := in.Phase
	if phase == "" {
		phase = s.CurrentPhase
	}
	if !phase.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("invalid shipment phase %q", phase))
	}
	if strings.TrimSpace(in.FileName) == "" || strings.TrimSpace(in.FileRef) == "" {
		return nil, shared.NewValidationError("document file name and file reference are required")
	}
	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	s.Documents = append(s.Documents, Document{
		ID:             uuid.New(),
		Type:           in.Type,
		Phase:          phase,
		FileName:       in.FileName,
		FileRef:        in.FileRef,
		DocumentNumber: in.DocumentNumber,
		IssuedBy:       in.IssuedBy,
		UploadedBy:     in.Actor,
		UploadedAt:     at,
		ExpiryDate:     in.ExpiryDate,
	})
	doc := &s.Documents[len(s.Documents)-1]
	s.Touch(at)
	s.Stamp(in.Actor)

	s.AddDomainEvent(NewShipmentDocumentUploadedEvent(s, doc))
	return doc, nil
}

// VerifyDocument records a verification decision. A later verification overwrites an earlier one.
func (s *Shipment) VerifyDocument(documentID uuid.UUID, verified bool, actor, notes string, at time.Time) (*Document, error) {
	doc := s.GetDocument(documentID)
	if doc == nil {
		return nil, shared.NewNotFoundError("document", documentID)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	verifiedAt := at
	doc.Verified = verified
	doc.VerifiedBy = actor
	doc.VerifiedAt = &verifiedAt
	doc.VerificationNotes = notes
	s.Touch(at)
	s.Stamp(actor)

	s.AddDomainEvent(NewShipmentDocumentVerifiedEvent(s, doc, actor))
	return doc, nil
}

// GetDocument returns the document with id, or nil
func (s *Shipment) GetDocument(id uuid.UUID) *Document {
	for i := range s.Documents {
		if s.Documents[i].ID == id {
			return &s.Documents[i]
		}
	}
	return nil
}

// MissingDocuments lists the required documents of p that have not been uploaded
func (s *Shipment) MissingDocuments(p Phase) []DocumentType {
	have := make(map[DocumentType]bool)
	for _, d := range s.Documents {
		if d.Phase == p {
			have[d.Type] = true
		}
	}
	var missing []DocumentType
	for _, t := range RequiredDocuments(p) {
		if !have[t] {
			missing = append(missing, t)
		}
	}
	return missing
}

// ExpiredDocuments lists documents whose expiry date has passed at now
func (s *Shipment) ExpiredDocuments(now time.Time) []Document {
	var expired []Document
	for _, d := range s.Documents {
		if d.IsExpired(now) {
			expired = append(expired, d)
		}
	}
	return expired
}

// AddStakeholder registers another party, such as a carrier or customs broker
func (s *Shipment) AddStakeholder(st Stakeholder, actor string) error {
	if strings.TrimSpace(st.Name) == "" || strings.TrimSpace(st.Role) == "" {
		return shared.NewValidationError("stakeholder name and role are required")
	}
	if len(st.Phases) == 0 {
		return shared.NewValidationError("stakeholder must participate in at least one phase")
	}
	for _, p := range st.Phases {
		if !p.IsValid() {
			return shared.NewValidationError(fmt.Sprintf("invalid shipment phase %q", p))
		}
	}
	s.Stakeholders = append(s.Stakeholders, st)
	s.Touch(time.Now().UTC())
	s.Stamp(actor)
	return nil
}

// IsTerminal reports whether the shipment accepts no further tracking updates
func (s *Shipment) IsTerminal() bool {
	return s.CurrentStatus.IsTerminal()
}

// IsDelayed reports whether delivery is past its estimate at now and not yet confirmed
func (s *Shipment) IsDelayed(now time.Time) bool {
	return s.ActualDeliveryDate == nil && now.After(s.EstimatedDeliveryDate)
}

// HasException reports whether any tracking update was flagged as an exception
func (s *Shipment) HasException() bool {
	for _, u := range s.TrackingUpdates {
		if u.IsException {
			return true
		}
	}
	return false
}

// DelayedPhases returns phases that are marked delayed or have overrun their estimate at now.
// Phases behind the current one are left out: the shipment has moved past them.
func (s *Shipment) DelayedPhases(now time.Time) []Phase {
	current := s.CurrentPhase.Index()
	var delayed []Phase
	for _, pt := range s.Phases {
		if pt.Phase.Index() < current {
			continue
		}
		if pt.Status == PhaseStatusDelayed || pt.IsOverdue(now) {
			delayed = append(delayed, pt.Phase)
		}
	}
	return delayed
}

// DeliveryDuration returns creation-to-delivery time for delivered shipments
func (s *Shipment) DeliveryDuration() (time.Duration, bool) {
	if s.ActualDeliveryDate == nil {
		return 0, false
	}
	return s.ActualDeliveryDate.Sub(s.CreatedAt), true
}

// Progress returns the share of completed phases, 0 to 100
func (s *Shipment) Progress() int {
	done := 0
	for _, pt := range s.Phases {
		if pt.IsCompleted() {
			done++
		}
	}
	return done * 100 / PhaseCount
}
