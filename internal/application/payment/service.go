package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/payment"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultRefundAttempts bounds the reload-and-retry loop on refund version conflicts
const defaultRefundAttempts = 3

// Service handles payment flow operations
type Service struct {
	paymentRepo    payment.Repository
	orderRepo      order.Repository
	sequences      shared.SequenceReserver
	clock          shared.Clock
	policy         payment.FlowPolicy
	payouts        *PayoutReleaser
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	refundAttempts int
}

// NewService creates a new payment Service
func NewService(
	paymentRepo payment.Repository,
	orderRepo order.Repository,
	sequences shared.SequenceReserver,
	clock shared.Clock,
	logger *zap.Logger,
) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		paymentRepo:    paymentRepo,
		orderRepo:      orderRepo,
		sequences:      sequences,
		clock:          clock,
		policy:         payment.DefaultFlowPolicy(),
		payouts:        NewPayoutReleaser(paymentRepo, clock, logger),
		logger:         logger,
		refundAttempts: defaultRefundAttempts,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
	s.payouts.SetEventPublisher(publisher)
}

// SetPolicy overrides the fee rates and due-date offsets
func (s *Service) SetPolicy(policy payment.FlowPolicy) {
	s.policy = policy
}

// SetRefundAttempts overrides how many times a refund is retried on version conflicts
func (s *Service) SetRefundAttempts(n int) {
	if n > 0 {
		s.refundAttempts = n
	}
}

// GenerateFlow creates the customer payment, one payout per distinct vendor and the
// shipping payment for an order. An order's flow can only be generated once.
func (s *Service) GenerateFlow(ctx context.Context, actor string, req GenerateFlowRequest) (*FlowResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	existing, err := s.paymentRepo.FindByOrderAndType(ctx, o.ID, payment.TypeCustomerToPlatform)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists,
			fmt.Sprintf("payment flow for order %s already exists (%s)", o.OrderNumber, existing[0].PaymentCode))
	}

	now := s.clock.Now()
	flow, err := s.policy.GenerateFlow(o, payment.FlowInput{
		Method:        payment.Method(req.PaymentMethod),
		EscrowEnabled: req.EscrowEnabled,
		Actor:         actor,
		At:            now,
		NextCode: func() (string, error) {
			return shared.NextCode(ctx, s.sequences, shared.SequencePayment, payment.CodePrefix, payment.CodeWidth, now)
		},
	})
	if err != nil {
		return nil, err
	}

	all := flow.All()
	if err := s.paymentRepo.SaveAll(ctx, all); err != nil {
		return nil, err
	}
	s.publish(ctx, all...)

	s.logger.Info("payment flow generated",
		zap.String("order_number", o.OrderNumber),
		zap.Int("vendor_payments", len(flow.VendorPayments)),
		zap.Bool("escrow", req.EscrowEnabled))

	resp := &FlowResponse{
		CustomerPayment: ToPaymentResponse(flow.CustomerPayment, now),
		VendorPayments:  make([]PaymentResponse, len(flow.VendorPayments)),
	}
	for i, vp := range flow.VendorPayments {
		resp.VendorPayments[i] = ToPaymentResponse(vp, now)
	}
	if flow.ShippingPayment != nil {
		sp := ToPaymentResponse(flow.ShippingPayment, now)
		resp.ShippingPayment = &sp
	}
	return resp, nil
}

// GetByID retrieves a payment by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p, s.clock.Now())
	return &resp, nil
}

// GetByCode retrieves a payment by its payment code
func (s *Service) GetByCode(ctx context.Context, code string) (*PaymentResponse, error) {
	p, err := s.paymentRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p, s.clock.Now())
	return &resp, nil
}

// ListByOrder lists every payment of an order
func (s *Service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]PaymentResponse, error) {
	payments, err := s.paymentRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponses(payments, s.clock.Now()), nil
}

// List retrieves payments with filtering and pagination
func (s *Service) List(ctx context.Context, filter ListFilter) (*shared.Paginated[PaymentResponse], error) {
	domainFilter := filter.toDomain()
	payments, err := s.paymentRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.paymentRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToPaymentResponses(payments, s.clock.Now()), total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// Analytics aggregates the payments matching filter
func (s *Service) Analytics(ctx context.Context, filter ListFilter) (*payment.Analytics, error) {
	return s.paymentRepo.Analytics(ctx, filter.toDomain())
}

func (f ListFilter) toDomain() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
		From:     f.StartDate,
		To:       f.EndDate,
	}.Normalize()

	if f.OrderID != nil {
		filter.Filters["order_id"] = *f.OrderID
	}
	if f.Type != "" {
		filter.Filters["type"] = f.Type
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.Method != "" {
		filter.Filters["method"] = f.Method
	}
	if f.Escrow != nil {
		filter.Filters["escrow"] = *f.Escrow
	}
	if f.ParticipantID != "" {
		filter.Filters["participant_id"] = f.ParticipantID
	}
	return filter
}

// TransitionStatus moves a payment to req.Status. Completing a customer payment
// runs the vendor payout rule; its outcome is returned alongside the payment.
func (s *Service) TransitionStatus(ctx context.Context, actor string, id uuid.UUID, req TransitionRequest) (*TransitionResponse, error) {
	p, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	result, err := p.TransitionStatus(payment.Status(req.Status), actor, payment.TransitionOptions{
		Note:             req.Note,
		TransactionID:    req.TransactionID,
		GatewayReference: req.GatewayReference,
		At:               now,
	})
	if err != nil {
		return nil, err
	}
	return s.commitTransition(ctx, p, result, actor, now)
}

// ReleaseEscrow releases an escrowed payment, completing it if needed, and runs
// the vendor payout rule
func (s *Service) ReleaseEscrow(ctx context.Context, actor string, id uuid.UUID, req ReleaseEscrowRequest) (*TransitionResponse, error) {
	p, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	result, err := p.ReleaseEscrow(actor, req.Notes, now)
	if err != nil {
		return nil, err
	}
	return s.commitTransition(ctx, p, result, actor, now)
}

// ReleaseVendorPayouts re-runs the payout rule for a completed customer payment.
// Payouts that already left pending are skipped, so repeating it is harmless.
func (s *Service) ReleaseVendorPayouts(ctx context.Context, actor string, id uuid.UUID) (*PayoutResult, error) {
	p, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != payment.StatusCompleted {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("payment %s is %s, payouts are released on completion", p.PaymentCode, p.Status))
	}
	return s.payouts.Release(ctx, p, actor)
}

func (s *Service) commitTransition(ctx context.Context, p *payment.Payment, result payment.TransitionResult, actor string, now time.Time) (*TransitionResponse, error) {
	if err := s.paymentRepo.SaveWithLock(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)

	resp := &TransitionResponse{Payment: ToPaymentResponse(p, now)}
	if result.ReleasesVendorPayouts() {
		payouts, err := s.payouts.Release(ctx, p, actor)
		if err != nil {
			s.logger.Error("vendor payout rule failed",
				zap.String("payment", p.PaymentCode),
				zap.Error(err))
			resp.PayoutError = err.Error()
		}
		resp.Payouts = payouts
	}
	return resp, nil
}

// ProcessRefund creates a refund payment and marks the original refunded in one
// store transaction. A version conflict on the original reloads it and retries a
// bounded number of times before surfacing CONCURRENT_MODIFICATION.
func (s *Service) ProcessRefund(ctx context.Context, actor string, id uuid.UUID, req RefundRequest) (*RefundResponse, error) {
	now := s.clock.Now()
	code, err := shared.NextCode(ctx, s.sequences, shared.SequencePayment, payment.CodePrefix, payment.CodeWidth, now)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.refundAttempts; attempt++ {
		original, err := s.paymentRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		refund, err := original.NewRefund(payment.RefundInput{
			PaymentCode: code,
			Amount:      req.Amount,
			Reason:      req.Reason,
			Actor:       actor,
			At:          now,
		})
		if err != nil {
			return nil, err
		}
		if _, err := original.MarkRefunded(refund, req.Reason, actor, now); err != nil {
			return nil, err
		}

		err = s.paymentRepo.SaveRefund(ctx, original, refund)
		if err == nil {
			s.publish(ctx, original, refund)
			return &RefundResponse{
				Original: ToPaymentResponse(original, now),
				Refund:   ToPaymentResponse(refund, now),
			}, nil
		}
		if !shared.IsConcurrencyConflict(err) {
			return nil, err
		}
		lastErr = err
		s.logger.Info("refund hit a version conflict, retrying",
			zap.String("payment", original.PaymentCode),
			zap.Int("attempt", attempt))
	}
	return nil, lastErr
}

// BulkTransition applies TransitionStatus to each payment independently
func (s *Service) BulkTransition(ctx context.Context, actor string, req BulkTransitionRequest) *BulkResult {
	result := &BulkResult{Results: make([]BulkItemResult, 0, len(req.PaymentIDs))}
	for _, id := range req.PaymentIDs {
		resp, err := s.TransitionStatus(ctx, actor, id, TransitionRequest{Status: req.Status, Note: req.Note})
		if err != nil {
			result.Failed++
			result.Results = append(result.Results, BulkItemResult{ID: id, Error: err.Error()})
			continue
		}
		result.Succeeded++
		result.Results = append(result.Results, BulkItemResult{
			ID:      id,
			Success: true,
			Status:  resp.Payment.Status,
			Payouts: resp.Payouts,
		})
	}
	return result
}

// publish delivers pending events after a successful save; failures are logged
func (s *Service) publish(ctx context.Context, payments ...*payment.Payment) {
	for _, p := range payments {
		if err := shared.PublishAndClear(ctx, s.eventPublisher, p); err != nil {
			s.logger.Warn("failed to publish payment events",
				zap.String("payment", p.PaymentCode),
				zap.Error(err))
		}
	}
}
