package payment

import (
	"fmt"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Breakdown itemises a payment amount. All components are rounded to cents.
type Breakdown struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	Tax                decimal.Decimal `json:"tax"`
	Shipping           decimal.Decimal `json:"shipping"`
	PlatformFee        decimal.Decimal `json:"platform_fee"`
	VendorCommission   decimal.Decimal `json:"vendor_commission"`
	ShippingCompanyFee decimal.Decimal `json:"shipping_company_fee"`
	ProcessingFee      decimal.Decimal `json:"processing_fee"`
	Discount           decimal.Decimal `json:"discount"`
	Total              decimal.Decimal `json:"total"`
}

// ExpectedTotal returns the total the breakdown rule for paymentType requires.
//
//	customer_to_platform:                 subtotal + tax + shipping - discount
//	platform_to_vendor, vendor_commission: vendor commission
//	platform_to_shipping, shipping_payment: shipping company fee
//
// Fees on a customer payment are allocations of the subtotal, not surcharges.
// Refund and dispute totals are free amounts and return ok=false.
func (b Breakdown) ExpectedTotal(paymentType Type) (total decimal.Decimal, ok bool) {
	switch paymentType {
	case TypeCustomerToPlatform:
		return b.Subtotal.Add(b.Tax).Add(b.Shipping).Sub(b.Discount), true
	case TypePlatformToVendor, TypeVendorCommission:
		return b.VendorCommission, true
	case TypePlatformToShipping, TypeShippingPayment:
		return b.ShippingCompanyFee, true
	}
	return decimal.Zero, false
}

// Verify checks the breakdown rule for paymentType
func (b Breakdown) Verify(paymentType Type) error {
	if b.Total.IsNegative() {
		return shared.NewValidationError("payment total cannot be negative")
	}
	want, ok := b.ExpectedTotal(paymentType)
	if ok && !want.Equal(b.Total) {
		return shared.NewValidationError(
			fmt.Sprintf("breakdown total %s does not match %s for %s payment", b.Total, want, paymentType))
	}
	return nil
}
