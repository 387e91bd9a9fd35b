package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CodePrefix and CodeWidth define payment codes like PAY-20260101-000001
const (
	CodePrefix = "PAY"
	CodeWidth  = 6
)

// Escrow failure causes, reported inside INVALID_STATE errors
var (
	ErrNotEscrow       = errors.New("payment is not held in escrow")
	ErrAlreadyReleased = errors.New("escrow already released")
)

// Escrow is the held-funds sub-record. ReleasedAt is set once and never cleared.
type Escrow struct {
	IsEscrow          bool
	Provider          string
	ReleaseConditions []string
	ReleasedAt        *time.Time
	ReleasedBy        string
	ReleaseNotes      string
}

// IsReleased reports whether the escrow has been released
func (e Escrow) IsReleased() bool {
	return e.ReleasedAt != nil
}

// RefundInfo is recorded on an original payment once it is refunded
type RefundInfo struct {
	Amount          decimal.Decimal
	Reason          string
	RefundedAt      *time.Time
	RefundedBy      string
	RefundPaymentID *uuid.UUID
}

// Payment is one leg of an order's money flow
type Payment struct {
	shared.BaseAggregateRoot
	shared.AuditInfo
	PaymentCode       string
	OrderID           uuid.UUID
	OrderNumber       string
	Type              Type
	Method            Method
	Status            Status
	Currency          valueobject.Currency
	Payer             Participant
	Payee             Participant
	Breakdown         Breakdown
	Escrow            Escrow
	Description       string
	Notes             string
	TransactionID     string
	GatewayReference  string
	InitiatedAt       time.Time
	ProcessedAt       *time.Time
	CompletedAt       *time.Time
	DueDate           *time.Time
	Refund            RefundInfo
	OriginalPaymentID *uuid.UUID
	DisputeReason     string
	DisputedAt        *time.Time
	StatusHistory     []StatusChange
}

// NewPaymentInput is the explicit create command for a payment
type NewPaymentInput struct {
	PaymentCode string
	OrderID     uuid.UUID
	OrderNumber string
	Type        Type
	Method      Method
	Currency    valueobject.Currency
	Payer       Participant
	Payee       Participant
	Breakdown   Breakdown
	Description string
	DueDate     *time.Time
	Actor       string
	At          time.Time
}

// NewPayment creates a pending payment
func NewPayment(in NewPaymentInput) (*Payment, error) {
	if strings.TrimSpace(in.PaymentCode) == "" {
		return nil, shared.NewValidationError("payment code is required")
	}
	if in.OrderID == uuid.Nil {
		return nil, shared.NewValidationError("order id is required")
	}
	if !in.Type.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("invalid payment type %q", in.Type))
	}
	if !in.Method.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("invalid payment method %q", in.Method))
	}
	if in.Payer.ID == "" || in.Payee.ID == "" {
		return nil, shared.NewValidationError("payer and payee are required")
	}
	if err := in.Breakdown.Verify(in.Type); err != nil {
		return nil, err
	}
	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	currency := in.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(at),
		PaymentCode:       in.PaymentCode,
		OrderID:           in.OrderID,
		OrderNumber:       in.OrderNumber,
		Type:              in.Type,
		Method:            in.Method,
		Status:            StatusPending,
		Currency:          currency,
		Payer:             in.Payer,
		Payee:             in.Payee,
		Breakdown:         in.Breakdown,
		Description:       in.Description,
		InitiatedAt:       at,
		DueDate:           in.DueDate,
		StatusHistory: []StatusChange{
			{Status: StatusPending, At: at, Actor: in.Actor, Note: "Payment created"},
		},
	}
	p.Stamp(in.Actor)
	return p, nil
}

// Amount returns the payment total
func (p *Payment) Amount() decimal.Decimal {
	return p.Breakdown.Total
}

// EnableEscrow places the payment in escrow with the given provider and release conditions.
// Only a pending payment can be put in escrow.
func (p *Payment) EnableEscrow(provider string, conditions []string) error {
	if p.Status != StatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, "escrow can only be enabled on a pending payment")
	}
	p.Escrow = Escrow{
		IsEscrow:          true,
		Provider:          provider,
		ReleaseConditions: append([]string(nil), conditions...),
	}
	return nil
}

// TransitionOptions carries the optional data of a status change
type TransitionOptions struct {
	Note             string
	TransactionID    string
	GatewayReference string
	At               time.Time
}

// TransitionStatus moves the payment to target if the allowed-transition table permits it.
// Entering a status applies its local effects; the returned result lists every effect,
// including cross-payment ones the caller must apply.
func (p *Payment) TransitionStatus(target Status, actor string, opts TransitionOptions) (TransitionResult, error) {
	if !target.IsValid() {
		return TransitionResult{}, shared.NewValidationError(fmt.Sprintf("invalid payment status %q", target))
	}
	if !p.Status.CanTransitionTo(target) {
		return TransitionResult{}, shared.NewInvalidTransitionError("payment", p.Status, target)
	}
	if opts.TransactionID != "" {
		p.TransactionID = opts.TransactionID
	}
	if opts.GatewayReference != "" {
		p.GatewayReference = opts.GatewayReference
	}
	return p.enter(target, actor, opts.Note, opts.At), nil
}

// enter records the move to target, applies local effects and raises the status event.
// Callers have already validated the move.
func (p *Payment) enter(target Status, actor, note string, at time.Time) TransitionResult {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	from := p.Status
	p.Status = target
	p.StatusHistory = append(p.StatusHistory, StatusChange{
		From:   from,
		Status: target,
		At:     at,
		Actor:  actor,
		Note:   note,
	})

	effects := EffectsFor(p.Type, target)
	for _, effect := range effects {
		p.applyLocalEffect(effect, note, at)
	}
	p.Touch(at)
	p.Stamp(actor)

	p.AddDomainEvent(NewPaymentStatusChangedEvent(p, from, note, actor, at))
	return TransitionResult{From: from, To: target, Effects: effects}
}

func (p *Payment) applyLocalEffect(effect Effect, note string, at time.Time) {
	switch effect {
	case EffectStampProcessed:
		if p.ProcessedAt == nil {
			t := notBefore(at, p.InitiatedAt)
			p.ProcessedAt = &t
		}
	case EffectStampCompleted:
		if p.CompletedAt == nil {
			t := at
			if p.ProcessedAt != nil {
				t = notBefore(at, *p.ProcessedAt)
			}
			p.CompletedAt = &t
		}
	case EffectRecordDispute:
		p.DisputeReason = note
		t := at
		p.DisputedAt = &t
	}
}

// notBefore keeps the payment timestamps monotonically non-decreasing
func notBefore(at, floor time.Time) time.Time {
	if at.Before(floor) {
		return floor
	}
	return at
}

// ReleaseEscrow releases held funds. A pending or processing payment is forced to
// completed; a completed one keeps its status. The result always carries the
// completed-status effects so the vendor payout rule runs.
func (p *Payment) ReleaseEscrow(actor, notes string, at time.Time) (TransitionResult, error) {
	if !p.Escrow.IsEscrow {
		return TransitionResult{}, shared.WrapDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot release payment %s", p.PaymentCode), ErrNotEscrow)
	}
	if p.Escrow.IsReleased() {
		return TransitionResult{}, shared.WrapDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot release payment %s", p.PaymentCode), ErrAlreadyReleased)
	}
	switch p.Status {
	case StatusPending, StatusProcessing, StatusCompleted:
	default:
		return TransitionResult{}, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot release escrow of a %s payment", p.Status))
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	releasedAt := at
	p.Escrow.ReleasedAt = &releasedAt
	p.Escrow.ReleasedBy = actor
	p.Escrow.ReleaseNotes = notes

	var result TransitionResult
	if p.Status == StatusCompleted {
		p.Touch(at)
		p.Stamp(actor)
		result = TransitionResult{From: StatusCompleted, To: StatusCompleted, Effects: EffectsFor(p.Type, StatusCompleted)}
	} else {
		result = p.enter(StatusCompleted, actor, "Escrow released", at)
	}

	p.AddDomainEvent(NewPaymentEscrowReleasedEvent(p, actor, at))
	return result, nil
}

// RefundInput describes a refund against a completed payment
type RefundInput struct {
	PaymentCode string
	Amount      decimal.Decimal
	Reason      string
	Actor       string
	At          time.Time
}

// NewRefund builds the refund payment for p without mutating p.
// The refund swaps payer and payee and copies the breakdown with total set to the refund amount.
func (p *Payment) NewRefund(in RefundInput) (*Payment, error) {
	if p.Status != StatusCompleted {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("only completed payments can be refunded, payment %s is %s", p.PaymentCode, p.Status))
	}
	amount := valueobject.Round(in.Amount)
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("refund amount must be positive")
	}
	if amount.GreaterThan(p.Amount()) {
		return nil, shared.NewValidationError(
			fmt.Sprintf("refund amount %s exceeds payment total %s", amount, p.Amount()))
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, shared.NewValidationError("refund reason is required")
	}

	breakdown := p.Breakdown
	breakdown.Total = amount
	refund, err := NewPayment(NewPaymentInput{
		PaymentCode: in.PaymentCode,
		OrderID:     p.OrderID,
		OrderNumber: p.OrderNumber,
		Type:        TypeRefund,
		Method:      p.Method,
		Currency:    p.Currency,
		Payer:       p.Payee,
		Payee:       p.Payer,
		Breakdown:   breakdown,
		Description: "Refund for payment " + p.PaymentCode,
		Actor:       in.Actor,
		At:          in.At,
	})
	if err != nil {
		return nil, err
	}
	originalID := p.ID
	refund.OriginalPaymentID = &originalID
	refund.Notes = in.Reason
	return refund, nil
}

// MarkRefunded moves p to refunded and records the refund details
func (p *Payment) MarkRefunded(refund *Payment, reason, actor string, at time.Time) (TransitionResult, error) {
	if !p.Status.CanTransitionTo(StatusRefunded) {
		return TransitionResult{}, shared.NewInvalidTransitionError("payment", p.Status, StatusRefunded)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	refundedAt := at
	refundID := refund.ID
	p.Refund = RefundInfo{
		Amount:          refund.Amount(),
		Reason:          reason,
		RefundedAt:      &refundedAt,
		RefundedBy:      actor,
		RefundPaymentID: &refundID,
	}
	result := p.enter(StatusRefunded, actor, reason, at)

	p.AddDomainEvent(NewPaymentRefundedEvent(p, refund, actor, at))
	return result, nil
}

// IsOverdue reports whether a still-open payment is past its due date
func (p *Payment) IsOverdue(now time.Time) bool {
	if p.DueDate == nil {
		return false
	}
	if p.Status != StatusPending && p.Status != StatusProcessing {
		return false
	}
	return now.After(*p.DueDate)
}

// ProcessingDuration returns initiated-to-completed time for completed payments
func (p *Payment) ProcessingDuration() (time.Duration, bool) {
	if p.CompletedAt == nil {
		return 0, false
	}
	return p.CompletedAt.Sub(p.InitiatedAt), true
}
