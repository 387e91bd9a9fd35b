package payment

import (
	"context"
	"fmt"

	"github.com/exportexpress/backoffice/internal/domain/payment"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const payoutReleaseNote = "Payout released on customer payment completion"

// PayoutReleaser applies the vendor payout trigger rule: when a customer payment
// completes, every pending vendor payout of the same order moves to processing.
type PayoutReleaser struct {
	paymentRepo    payment.Repository
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPayoutReleaser creates a new PayoutReleaser
func NewPayoutReleaser(paymentRepo payment.Repository, clock shared.Clock, logger *zap.Logger) *PayoutReleaser {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayoutReleaser{
		paymentRepo: paymentRepo,
		clock:       clock,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher
func (r *PayoutReleaser) SetEventPublisher(publisher shared.EventPublisher) {
	r.eventPublisher = publisher
}

// Release advances the pending vendor payouts of customerPayment's order.
//
// Each payout is re-read right before it is written, so one cancelled or
// concurrently modified in the meantime is skipped or reported as failed
// without affecting the others. Only a failure to list the payouts is returned
// as an error.
func (r *PayoutReleaser) Release(ctx context.Context, customerPayment *payment.Payment, actor string) (*PayoutResult, error) {
	if customerPayment.Type != payment.TypeCustomerToPlatform {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("payment %s is not a customer payment", customerPayment.PaymentCode))
	}

	candidates, err := r.paymentRepo.FindByOrderAndType(ctx, customerPayment.OrderID, payment.TypePlatformToVendor)
	if err != nil {
		return nil, fmt.Errorf("list vendor payouts of order %s: %w", customerPayment.OrderNumber, err)
	}

	result := &PayoutResult{Transitioned: make([]uuid.UUID, 0, len(candidates))}
	for i := range candidates {
		candidate := &candidates[i]
		if candidate.Status != payment.StatusPending {
			result.Skipped++
			continue
		}
		released, err := r.releaseOne(ctx, candidate.ID, actor)
		switch {
		case err != nil:
			r.logger.Warn("vendor payout release failed",
				zap.String("customer_payment", customerPayment.PaymentCode),
				zap.String("vendor_payment", candidate.PaymentCode),
				zap.Error(err))
			result.Failed = append(result.Failed, PayoutFailure{PaymentID: candidate.ID, Error: err.Error()})
		case released:
			result.Transitioned = append(result.Transitioned, candidate.ID)
		default:
			result.Skipped++
		}
	}

	r.logger.Info("vendor payouts released",
		zap.String("customer_payment", customerPayment.PaymentCode),
		zap.Int("transitioned", len(result.Transitioned)),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failed)))

	if r.eventPublisher != nil {
		event := payment.NewVendorPayoutsReleasedEvent(customerPayment, result.Transitioned,
			result.Skipped, len(result.Failed), actor, r.clock.Now())
		if err := r.eventPublisher.Publish(ctx, event); err != nil {
			r.logger.Warn("failed to publish payout event", zap.Error(err))
		}
	}
	return result, nil
}

// releaseOne reloads one payout and moves it to processing if it is still pending
func (r *PayoutReleaser) releaseOne(ctx context.Context, id uuid.UUID, actor string) (bool, error) {
	current, err := r.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if current.Status != payment.StatusPending {
		return false, nil
	}
	if _, err := current.TransitionStatus(payment.StatusProcessing, actor, payment.TransitionOptions{
		Note: payoutReleaseNote,
		At:   r.clock.Now(),
	}); err != nil {
		return false, err
	}
	if err := r.paymentRepo.SaveWithLock(ctx, current); err != nil {
		return false, err
	}
	if err := shared.PublishAndClear(ctx, r.eventPublisher, current); err != nil {
		r.logger.Warn("failed to publish payment events", zap.String("payment", current.PaymentCode), zap.Error(err))
	}
	return true, nil
}
