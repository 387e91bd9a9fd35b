package payment

import (
	"time"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Escrow defaults applied to customer payments when escrow is requested
const EscrowProvider = "ExportExpress Escrow"

// DefaultEscrowConditions returns the release conditions attached to escrowed payments
func DefaultEscrowConditions() []string {
	return []string{
		"Order delivered successfully",
		"Customer confirmation received",
		"No disputes raised within 7 days",
	}
}

// FlowPolicy holds the split rates and due-date offsets of a payment flow
type FlowPolicy struct {
	PlatformFeeRate   decimal.Decimal
	VendorShare       decimal.Decimal
	ProcessingFeeRate decimal.Decimal
	VendorDueIn       time.Duration
	ShippingDueIn     time.Duration
}

// DefaultFlowPolicy returns the standard 5% platform fee, 85% vendor share and
// 2.9% processing fee, with vendors paid within 7 days and shipping within 3.
func DefaultFlowPolicy() FlowPolicy {
	return FlowPolicy{
		PlatformFeeRate:   decimal.RequireFromString("0.05"),
		VendorShare:       decimal.RequireFromString("0.85"),
		ProcessingFeeRate: decimal.RequireFromString("0.029"),
		VendorDueIn:       7 * 24 * time.Hour,
		ShippingDueIn:     3 * 24 * time.Hour,
	}
}

// FlowInput is the generate-flow command
type FlowInput struct {
	Method        Method
	EscrowEnabled bool
	Actor         string
	At            time.Time
	// NextCode reserves the next payment code. It is called once per created payment.
	NextCode func() (string, error)
}

// Flow is the set of payments generated for one order
type Flow struct {
	CustomerPayment *Payment
	VendorPayments  []*Payment
	ShippingPayment *Payment
}

// All returns every payment of the flow, customer payment first
func (f *Flow) All() []*Payment {
	all := make([]*Payment, 0, len(f.VendorPayments)+2)
	all = append(all, f.CustomerPayment)
	all = append(all, f.VendorPayments...)
	if f.ShippingPayment != nil {
		all = append(all, f.ShippingPayment)
	}
	return all
}

// GenerateFlow splits an order into a customer payment, one payout per distinct
// vendor and, when the order charges shipping, one shipping payment.
// Amounts trust the order's own totals.
func (policy FlowPolicy) GenerateFlow(o *order.Order, in FlowInput) (*Flow, error) {
	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	customerPayment, err := policy.customerPayment(o, in, at)
	if err != nil {
		return nil, err
	}
	flow := &Flow{CustomerPayment: customerPayment}

	for _, group := range o.VendorGroups() {
		vp, err := policy.vendorPayment(o, group, in, at)
		if err != nil {
			return nil, err
		}
		flow.VendorPayments = append(flow.VendorPayments, vp)
	}

	if o.ShippingAmount.IsPositive() {
		sp, err := policy.shippingPayment(o, in, at)
		if err != nil {
			return nil, err
		}
		flow.ShippingPayment = sp
	}

	customerPayment.AddDomainEvent(NewPaymentFlowGeneratedEvent(flow, o, in.Actor, at))
	return flow, nil
}

func (policy FlowPolicy) customerPayment(o *order.Order, in FlowInput, at time.Time) (*Payment, error) {
	code, err := in.NextCode()
	if err != nil {
		return nil, err
	}
	subtotal := o.TotalAmount
	p, err := NewPayment(NewPaymentInput{
		PaymentCode: code,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Type:        TypeCustomerToPlatform,
		Method:      in.Method,
		Currency:    o.Currency,
		Payer: Participant{
			Type:  ParticipantCustomer,
			ID:    o.Customer.ID.String(),
			Name:  o.Customer.Name,
			Email: o.Customer.Email,
		},
		Payee: PlatformParticipant,
		Breakdown: Breakdown{
			Subtotal:         subtotal,
			Tax:              o.TaxAmount,
			Shipping:         o.ShippingAmount,
			PlatformFee:      valueobject.ApplyRate(subtotal, policy.PlatformFeeRate),
			VendorCommission: valueobject.ApplyRate(subtotal, policy.VendorShare),
			ProcessingFee:    valueobject.ApplyRate(o.FinalAmount, policy.ProcessingFeeRate),
			Discount:         o.DiscountAmount,
			Total:            o.FinalAmount,
		},
		Description: "Payment for order " + o.OrderNumber,
		Actor:       in.Actor,
		At:          at,
	})
	if err != nil {
		return nil, err
	}
	if in.EscrowEnabled {
		if err := p.EnableEscrow(EscrowProvider, DefaultEscrowConditions()); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (policy FlowPolicy) vendorPayment(o *order.Order, group order.VendorGroup, in FlowInput, at time.Time) (*Payment, error) {
	code, err := in.NextCode()
	if err != nil {
		return nil, err
	}
	payout := valueobject.ApplyRate(group.Subtotal, policy.VendorShare)
	due := at.Add(policy.VendorDueIn)
	return NewPayment(NewPaymentInput{
		PaymentCode: code,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Type:        TypePlatformToVendor,
		Method:      MethodBankTransfer,
		Currency:    o.Currency,
		Payer:       PlatformParticipant,
		Payee: Participant{
			Type:  ParticipantVendor,
			ID:    group.VendorID.String(),
			Name:  group.VendorName,
			Email: group.VendorEmail,
		},
		Breakdown: Breakdown{
			Subtotal:         group.Subtotal,
			PlatformFee:      valueobject.ApplyRate(group.Subtotal, policy.PlatformFeeRate),
			VendorCommission: payout,
			Total:            payout,
		},
		Description: "Vendor payment for order " + o.OrderNumber,
		DueDate:     &due,
		Actor:       in.Actor,
		At:          at,
	})
}

func (policy FlowPolicy) shippingPayment(o *order.Order, in FlowInput, at time.Time) (*Payment, error) {
	code, err := in.NextCode()
	if err != nil {
		return nil, err
	}
	due := at.Add(policy.ShippingDueIn)
	return NewPayment(NewPaymentInput{
		PaymentCode: code,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Type:        TypePlatformToShipping,
		Method:      MethodBankTransfer,
		Currency:    o.Currency,
		Payer:       PlatformParticipant,
		Payee:       ShippingPartnerParticipant,
		Breakdown: Breakdown{
			Subtotal:           o.ShippingAmount,
			Shipping:           o.ShippingAmount,
			ShippingCompanyFee: o.ShippingAmount,
			Total:              o.ShippingAmount,
		},
		Description: "Shipping payment for order " + o.OrderNumber,
		DueDate:     &due,
		Actor:       in.Actor,
		At:          at,
	})
}
