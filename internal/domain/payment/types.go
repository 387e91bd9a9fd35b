package payment

import "time"

// Type identifies which leg of the money flow a payment represents
type Type string

const (
	TypeCustomerToPlatform Type = "customer_to_platform"
	TypePlatformToVendor   Type = "platform_to_vendor"
	TypePlatformToShipping Type = "platform_to_shipping"
	TypeVendorCommission   Type = "vendor_commission"
	TypeShippingPayment    Type = "shipping_payment"
	TypeRefund             Type = "refund"
	TypeDispute            Type = "dispute"
)

// IsValid checks if the payment type is valid
func (t Type) IsValid() bool {
	switch t {
	case TypeCustomerToPlatform, TypePlatformToVendor, TypePlatformToShipping,
		TypeVendorCommission, TypeShippingPayment, TypeRefund, TypeDispute:
		return true
	}
	return false
}

// String returns the string representation of Type
func (t Type) String() string {
	return string(t)
}

// IsVendorPayout reports whether funds flow to a vendor
func (t Type) IsVendorPayout() bool {
	return t == TypePlatformToVendor || t == TypeVendorCommission
}

// Method is how money moves for a payment
type Method string

const (
	MethodCreditCard     Method = "credit_card"
	MethodDebitCard      Method = "debit_card"
	MethodBankTransfer   Method = "bank_transfer"
	MethodPayPal         Method = "paypal"
	MethodStripe         Method = "stripe"
	MethodRazorpay       Method = "razorpay"
	MethodUPI            Method = "upi"
	MethodNetBanking     Method = "net_banking"
	MethodWallet         Method = "wallet"
	MethodCashOnDelivery Method = "cash_on_delivery"
	MethodEscrow         Method = "escrow"
)

// IsValid checks if the payment method is valid
func (m Method) IsValid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodBankTransfer, MethodPayPal, MethodStripe,
		MethodRazorpay, MethodUPI, MethodNetBanking, MethodWallet, MethodCashOnDelivery, MethodEscrow:
		return true
	}
	return false
}

// String returns the string representation of Method
func (m Method) String() string {
	return string(m)
}

// Status is the lifecycle state of a payment
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusDisputed   Status = "disputed"
)

var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusRefunded, StatusDisputed},
}

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed,
		StatusCancelled, StatusRefunded, StatusDisputed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks the allowed-transition table
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range allowedTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// AllowedTargets returns the statuses reachable from s
func (s Status) AllowedTargets() []Status {
	return append([]Status(nil), allowedTransitions[s]...)
}

// ParticipantType is the role a party plays in a payment
type ParticipantType string

const (
	ParticipantCustomer        ParticipantType = "customer"
	ParticipantPlatform        ParticipantType = "platform"
	ParticipantVendor          ParticipantType = "vendor"
	ParticipantShippingCompany ParticipantType = "shipping_company"
)

// Participant is a payer or payee
type Participant struct {
	Type  ParticipantType `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
}

// Well-known counterparties
var (
	PlatformParticipant = Participant{
		Type:  ParticipantPlatform,
		ID:    "platform",
		Name:  "ExportExpress Platform",
		Email: "payments@exportexpress.com",
	}
	ShippingPartnerParticipant = Participant{
		Type:  ParticipantShippingCompany,
		ID:    "shipping_partner",
		Name:  "Shipping Partner",
		Email: "billing@shippingpartner.com",
	}
)

// StatusChange is one entry of the append-only status history
type StatusChange struct {
	From   Status    `json:"from,omitempty"`
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
	Note   string    `json:"note,omitempty"`
}
