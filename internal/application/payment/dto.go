package payment

import (
	"time"

	"github.com/exportexpress/backoffice/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateFlowRequest represents a request to split an order into its payments
type GenerateFlowRequest struct {
	OrderID       uuid.UUID `json:"order_id" binding:"required"`
	PaymentMethod string    `json:"payment_method" binding:"required"`
	EscrowEnabled bool      `json:"escrow_enabled"`
}

// TransitionRequest moves a payment to another status
type TransitionRequest struct {
	Status           string `json:"status" binding:"required,oneof=pending processing completed failed cancelled refunded disputed"`
	Note             string `json:"note" binding:"max=1000"`
	TransactionID    string `json:"transaction_id" binding:"max=200"`
	GatewayReference string `json:"gateway_reference" binding:"max=200"`
}

// ReleaseEscrowRequest releases an escrowed payment
type ReleaseEscrowRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// RefundRequest refunds part or all of a completed payment
type RefundRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"positive_amount"`
	Reason string          `json:"reason" binding:"required,min=1,max=1000"`
}

// BulkTransitionRequest applies one status change to many payments
type BulkTransitionRequest struct {
	PaymentIDs []uuid.UUID `json:"payment_ids" binding:"required,min=1,max=100"`
	Status     string      `json:"status" binding:"required,oneof=pending processing completed failed cancelled refunded disputed"`
	Note       string      `json:"note" binding:"max=1000"`
}

// ListFilter represents filter options for the payment list
type ListFilter struct {
	Search        string     `form:"search"`
	OrderID       *uuid.UUID `form:"-"`
	Type          string     `form:"type"`
	Status        string     `form:"status"`
	Method        string     `form:"method"`
	Escrow        *bool      `form:"escrow"`
	ParticipantID string     `form:"participant_id"`
	StartDate     *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate       *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// EscrowResponse is the escrow block of a payment
type EscrowResponse struct {
	Provider          string     `json:"provider"`
	ReleaseConditions []string   `json:"release_conditions"`
	ReleasedAt        *time.Time `json:"released_at,omitempty"`
	ReleasedBy        string     `json:"released_by,omitempty"`
	ReleaseNotes      string     `json:"release_notes,omitempty"`
}

// RefundInfoResponse is the refund block of a refunded payment
type RefundInfoResponse struct {
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	RefundedAt      *time.Time      `json:"refunded_at,omitempty"`
	RefundedBy      string          `json:"refunded_by,omitempty"`
	RefundPaymentID *uuid.UUID      `json:"refund_payment_id,omitempty"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                uuid.UUID              `json:"id"`
	PaymentCode       string                 `json:"payment_code"`
	OrderID           uuid.UUID              `json:"order_id"`
	OrderNumber       string                 `json:"order_number"`
	Type              string                 `json:"type"`
	Method            string                 `json:"method"`
	Status            string                 `json:"status"`
	Currency          string                 `json:"currency"`
	Amount            decimal.Decimal        `json:"amount"`
	Payer             payment.Participant    `json:"payer"`
	Payee             payment.Participant    `json:"payee"`
	Breakdown         payment.Breakdown      `json:"breakdown"`
	Escrow            *EscrowResponse        `json:"escrow,omitempty"`
	Description       string                 `json:"description,omitempty"`
	Notes             string                 `json:"notes,omitempty"`
	TransactionID     string                 `json:"transaction_id,omitempty"`
	GatewayReference  string                 `json:"gateway_reference,omitempty"`
	InitiatedAt       time.Time              `json:"initiated_at"`
	ProcessedAt       *time.Time             `json:"processed_at,omitempty"`
	CompletedAt       *time.Time             `json:"completed_at,omitempty"`
	DueDate           *time.Time             `json:"due_date,omitempty"`
	Overdue           bool                   `json:"overdue"`
	Refund            *RefundInfoResponse    `json:"refund,omitempty"`
	OriginalPaymentID *uuid.UUID             `json:"original_payment_id,omitempty"`
	DisputeReason     string                 `json:"dispute_reason,omitempty"`
	DisputedAt        *time.Time             `json:"disputed_at,omitempty"`
	StatusHistory     []payment.StatusChange `json:"status_history"`
	CreatedBy         string                 `json:"created_by,omitempty"`
	UpdatedBy         string                 `json:"updated_by,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	Version           int                    `json:"version"`
}

// ToPaymentResponse converts the domain payment to a response DTO as of now
func ToPaymentResponse(p *payment.Payment, now time.Time) PaymentResponse {
	resp := PaymentResponse{
		ID:                p.ID,
		PaymentCode:       p.PaymentCode,
		OrderID:           p.OrderID,
		OrderNumber:       p.OrderNumber,
		Type:              string(p.Type),
		Method:            string(p.Method),
		Status:            string(p.Status),
		Currency:          p.Currency.String(),
		Amount:            p.Amount(),
		Payer:             p.Payer,
		Payee:             p.Payee,
		Breakdown:         p.Breakdown,
		Description:       p.Description,
		Notes:             p.Notes,
		TransactionID:     p.TransactionID,
		GatewayReference:  p.GatewayReference,
		InitiatedAt:       p.InitiatedAt,
		ProcessedAt:       p.ProcessedAt,
		CompletedAt:       p.CompletedAt,
		DueDate:           p.DueDate,
		Overdue:           p.IsOverdue(now),
		OriginalPaymentID: p.OriginalPaymentID,
		DisputeReason:     p.DisputeReason,
		DisputedAt:        p.DisputedAt,
		StatusHistory:     p.StatusHistory,
		CreatedBy:         p.CreatedBy,
		UpdatedBy:         p.UpdatedBy,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}
	if p.Escrow.IsEscrow {
		resp.Escrow = &EscrowResponse{
			Provider:          p.Escrow.Provider,
			ReleaseConditions: p.Escrow.ReleaseConditions,
			ReleasedAt:        p.Escrow.ReleasedAt,
			ReleasedBy:        p.Escrow.ReleasedBy,
			ReleaseNotes:      p.Escrow.ReleaseNotes,
		}
	}
	if p.Refund.RefundedAt != nil {
		resp.Refund = &RefundInfoResponse{
			Amount:          p.Refund.Amount,
			Reason:          p.Refund.Reason,
			RefundedAt:      p.Refund.RefundedAt,
			RefundedBy:      p.Refund.RefundedBy,
			RefundPaymentID: p.Refund.RefundPaymentID,
		}
	}
	return resp
}

// ToPaymentResponses converts a slice of payments
func ToPaymentResponses(payments []payment.Payment, now time.Time) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i], now)
	}
	return out
}

// FlowResponse is the result of generating an order's payment flow
type FlowResponse struct {
	CustomerPayment PaymentResponse   `json:"customer_payment"`
	VendorPayments  []PaymentResponse `json:"vendor_payments"`
	ShippingPayment *PaymentResponse  `json:"shipping_payment,omitempty"`
}

// PayoutFailure records a vendor payout the trigger rule could not advance
type PayoutFailure struct {
	PaymentID uuid.UUID `json:"payment_id"`
	Error     string    `json:"error"`
}

// PayoutResult reports the outcome of the vendor payout trigger rule.
// Partial success is normal: each vendor payment is handled independently.
type PayoutResult struct {
	Transitioned []uuid.UUID     `json:"transitioned"`
	Skipped      int             `json:"skipped"`
	Failed       []PayoutFailure `json:"failed,omitempty"`
}

// TransitionResponse is a payment after a status change plus any payouts it released
type TransitionResponse struct {
	Payment     PaymentResponse `json:"payment"`
	Payouts     *PayoutResult   `json:"payouts,omitempty"`
	PayoutError string          `json:"payout_error,omitempty"`
}

// RefundResponse carries both sides of a refund
type RefundResponse struct {
	Original PaymentResponse `json:"original"`
	Refund   PaymentResponse `json:"refund"`
}

// BulkItemResult is the per-payment outcome of a bulk transition
type BulkItemResult struct {
	ID      uuid.UUID     `json:"id"`
	Success bool          `json:"success"`
	Status  string        `json:"status,omitempty"`
	Payouts *PayoutResult `json:"payouts,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// BulkResult summarises a bulk transition
type BulkResult struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []BulkItemResult `json:"results"`
}
