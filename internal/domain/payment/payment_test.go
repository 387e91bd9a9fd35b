package payment

import (
	"fmt"
	"testing"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func codeSeq() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return shared.FormatCode(CodePrefix, baseTime, int64(n), CodeWidth), nil
	}
}

func testOrder(t *testing.T, shipping string, items ...order.ItemInput) *order.Order {
	t.Helper()
	o, err := order.NewOrder(order.NewOrderInput{
		OrderNumber:    "ORD-20260302-0001",
		Customer:       order.Customer{ID: uuid.New(), Name: "Acme GmbH", Email: "buyer@acme.de"},
		Items:          items,
		TaxAmount:      dec("50"),
		ShippingAmount: dec(shipping),
	})
	require.NoError(t, err)
	return o
}

func line(vendorID uuid.UUID, qty int, price string) order.ItemInput {
	return order.ItemInput{
		ProductID:   uuid.New(),
		ProductName: "Brass lamp",
		VendorID:    vendorID,
		VendorName:  "Vendor",
		VendorEmail: "vendor@example.com",
		Quantity:    qty,
		UnitPrice:   dec(price),
	}
}

func generate(t *testing.T, o *order.Order, escrow bool) *Flow {
	t.Helper()
	flow, err := DefaultFlowPolicy().GenerateFlow(o, FlowInput{
		Method:        MethodCreditCard,
		EscrowEnabled: escrow,
		Actor:         "ops",
		At:            baseTime,
		NextCode:      codeSeq(),
	})
	require.NoError(t, err)
	return flow
}

func TestGenerateFlow_TwoVendorsScenario(t *testing.T) {
	o := testOrder(t, "20", line(uuid.New(), 2, "250"), line(uuid.New(), 1, "500"))
	require.True(t, o.FinalAmount.Equal(dec("1070")))

	flow := generate(t, o, false)

	cp := flow.CustomerPayment
	assert.Equal(t, TypeCustomerToPlatform, cp.Type)
	assert.Equal(t, StatusPending, cp.Status)
	assert.True(t, cp.Amount().Equal(dec("1070")))
	assert.True(t, cp.Breakdown.PlatformFee.Equal(dec("50")))
	assert.True(t, cp.Breakdown.VendorCommission.Equal(dec("850")))
	assert.True(t, cp.Breakdown.ProcessingFee.Equal(dec("31.03")))
	assert.Equal(t, PlatformParticipant, cp.Payee)
	assert.Equal(t, ParticipantCustomer, cp.Payer.Type)
	assert.False(t, cp.Escrow.IsEscrow)
	assert.Equal(t, "PAY-20260302-000001", cp.PaymentCode)
	assert.NoError(t, cp.Breakdown.Verify(cp.Type))

	require.Len(t, flow.VendorPayments, 2)
	for _, vp := range flow.VendorPayments {
		assert.Equal(t, TypePlatformToVendor, vp.Type)
		assert.Equal(t, MethodBankTransfer, vp.Method)
		assert.True(t, vp.Amount().Equal(dec("425")), "got %s", vp.Amount())
		require.NotNil(t, vp.DueDate)
		assert.Equal(t, baseTime.Add(7*24*time.Hour), *vp.DueDate)
	}

	require.NotNil(t, flow.ShippingPayment)
	assert.True(t, flow.ShippingPayment.Amount().Equal(dec("20")))
	assert.Equal(t, baseTime.Add(72*time.Hour), *flow.ShippingPayment.DueDate)
	assert.Len(t, flow.All(), 4)

	events := cp.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypePaymentFlowGenerated, events[0].EventType())
}

func TestGenerateFlow_OnePaymentPerDistinctVendor(t *testing.T) {
	for n := 1; n <= 4; n++ {
		t.Run(fmt.Sprintf("%d vendors", n), func(t *testing.T) {
			vendors := make([]uuid.UUID, n)
			var items []order.ItemInput
			for i := range vendors {
				vendors[i] = uuid.New()
				// two lines per vendor so grouping is exercised
				items = append(items, line(vendors[i], 1, "100"), line(vendors[i], 2, "30.10"))
			}
			o := testOrder(t, "0", items...)
			flow := generate(t, o, false)

			require.Len(t, flow.VendorPayments, n)
			assert.Nil(t, flow.ShippingPayment)
			for i, vp := range flow.VendorPayments {
				assert.Equal(t, vendors[i].String(), vp.Payee.ID)
				assert.True(t, vp.Amount().Equal(dec("136.17")), "got %s", vp.Amount())
			}
		})
	}
}

func TestGenerateFlow_Escrow(t *testing.T) {
	o := testOrder(t, "0", line(uuid.New(), 1, "100"))
	flow := generate(t, o, true)

	esc := flow.CustomerPayment.Escrow
	assert.True(t, esc.IsEscrow)
	assert.Equal(t, EscrowProvider, esc.Provider)
	assert.Len(t, esc.ReleaseConditions, 3)
	assert.Nil(t, esc.ReleasedAt)
	for _, vp := range flow.VendorPayments {
		assert.False(t, vp.Escrow.IsEscrow)
	}
}

func TestGenerateFlow_CodeFailure(t *testing.T) {
	o := testOrder(t, "0", line(uuid.New(), 1, "100"))
	_, err := DefaultFlowPolicy().GenerateFlow(o, FlowInput{
		Method:   MethodUPI,
		NextCode: func() (string, error) { return "", assert.AnError },
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func newPending(t *testing.T) *Payment {
	t.Helper()
	o := testOrder(t, "0", line(uuid.New(), 1, "100"))
	return generate(t, o, false).CustomerPayment
}

func TestTransitionStatus_Table(t *testing.T) {
	all := []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded, StatusDisputed}
	allowed := map[Status]map[Status]bool{
		StatusPending:    {StatusProcessing: true, StatusCancelled: true, StatusFailed: true},
		StatusProcessing: {StatusCompleted: true, StatusFailed: true},
		StatusCompleted:  {StatusRefunded: true, StatusDisputed: true},
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[from][to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestTransitionStatus_FailedToCompletedRejected(t *testing.T) {
	p := newPending(t)
	_, err := p.TransitionStatus(StatusFailed, "gateway", TransitionOptions{At: baseTime.Add(time.Minute)})
	require.NoError(t, err)
	historyLen := len(p.StatusHistory)

	_, err = p.TransitionStatus(StatusCompleted, "gateway", TransitionOptions{})
	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	assert.Equal(t, StatusFailed, p.Status)
	assert.Len(t, p.StatusHistory, historyLen)
	assert.Nil(t, p.CompletedAt)
}

func TestTransitionStatus_TimestampsAndHistory(t *testing.T) {
	p := newPending(t)
	p.ClearDomainEvents()
	require.Len(t, p.StatusHistory, 1)

	t1 := baseTime.Add(time.Hour)
	res, err := p.TransitionStatus(StatusProcessing, "gateway", TransitionOptions{At: t1, TransactionID: "tx-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.From)
	assert.False(t, res.ReleasesVendorPayouts())
	require.NotNil(t, p.ProcessedAt)
	assert.Equal(t, t1, *p.ProcessedAt)
	assert.Equal(t, "tx-1", p.TransactionID)

	t2 := baseTime.Add(2 * time.Hour)
	res, err = p.TransitionStatus(StatusCompleted, "gateway", TransitionOptions{At: t2, Note: "captured"})
	require.NoError(t, err)
	assert.True(t, res.ReleasesVendorPayouts())
	assert.Equal(t, t2, *p.CompletedAt)
	assert.Equal(t, t1, *p.ProcessedAt, "processedAt must not move on completion")

	require.Len(t, p.StatusHistory, 3)
	last := p.StatusHistory[2]
	assert.Equal(t, StatusProcessing, last.From)
	assert.Equal(t, StatusCompleted, last.Status)
	assert.Equal(t, "gateway", last.Actor)
	assert.Equal(t, "captured", last.Note)
	assert.Len(t, p.GetDomainEvents(), 2)
}

func TestTransitionStatus_TimestampsSetOnce(t *testing.T) {
	p := newPending(t)
	earlier := baseTime.Add(30 * time.Minute)
	p.ProcessedAt = &earlier

	_, err := p.TransitionStatus(StatusProcessing, "gateway", TransitionOptions{At: baseTime.Add(5 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, earlier, *p.ProcessedAt)

	done := baseTime.Add(6 * time.Hour)
	p.CompletedAt = &done
	_, err = p.TransitionStatus(StatusCompleted, "gateway", TransitionOptions{At: baseTime.Add(9 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, done, *p.CompletedAt)
}

func TestTransitionStatus_TimestampsMonotonic(t *testing.T) {
	p := newPending(t)
	_, err := p.TransitionStatus(StatusProcessing, "gateway", TransitionOptions{At: baseTime.Add(-time.Hour)})
	require.NoError(t, err)
	assert.False(t, p.ProcessedAt.Before(p.InitiatedAt))
}

func TestTransitionStatus_VendorCompletionDoesNotRelease(t *testing.T) {
	o := testOrder(t, "0", line(uuid.New(), 1, "100"))
	vp := generate(t, o, false).VendorPayments[0]
	_, err := vp.TransitionStatus(StatusProcessing, "ops", TransitionOptions{})
	require.NoError(t, err)
	res, err := vp.TransitionStatus(StatusCompleted, "ops", TransitionOptions{})
	require.NoError(t, err)
	assert.False(t, res.ReleasesVendorPayouts())
}

func TestTransitionStatus_Dispute(t *testing.T) {
	p := newPending(t)
	_, _ = p.TransitionStatus(StatusProcessing, "gateway", TransitionOptions{})
	_, _ = p.TransitionStatus(StatusCompleted, "gateway", TransitionOptions{})
	_, err := p.TransitionStatus(StatusDisputed, "support", TransitionOptions{Note: "item damaged", At: baseTime.Add(48 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "item damaged", p.DisputeReason)
	require.NotNil(t, p.DisputedAt)
}

func TestReleaseEscrow(t *testing.T) {
	o := testOrder(t, "0", line(uuid.New(), 1, "100"))
	p := generate(t, o, true).CustomerPayment
	p.ClearDomainEvents()

	at := baseTime.Add(24 * time.Hour)
	res, err := p.ReleaseEscrow("finance", "delivered", at)
	require.NoError(t, err)
	assert.True(t, res.ReleasesVendorPayouts())
	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, at, *p.Escrow.ReleasedAt)
	assert.Equal(t, "finance", p.Escrow.ReleasedBy)
	assert.Equal(t, at, *p.CompletedAt)
	assert.NotNil(t, p.ProcessedAt)
	assert.Len(t, p.StatusHistory, 2)
	assert.Len(t, p.GetDomainEvents(), 2)
}

func TestReleaseEscrow_AlreadyReleasedLeavesPaymentUnmodified(t *testing.T) {
	o := testOrder(t, "0", line(uuid.New(), 1, "100"))
	p := generate(t, o, true).CustomerPayment
	_, err := p.ReleaseEscrow("finance", "", baseTime.Add(time.Hour))
	require.NoError(t, err)

	before := *p
	beforeHistory := append([]StatusChange(nil), p.StatusHistory...)
	_, err = p.ReleaseEscrow("someone-else", "", baseTime.Add(2*time.Hour))

	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	assert.ErrorIs(t, err, ErrAlreadyReleased)
	assert.Equal(t, "finance", p.Escrow.ReleasedBy)
	assert.Equal(t, before.Escrow.ReleasedAt, p.Escrow.ReleasedAt)
	assert.Equal(t, before.Status, p.Status)
	assert.Equal(t, beforeHistory, p.StatusHistory)
}

func TestReleaseEscrow_NotEscrow(t *testing.T) {
	p := newPending(t)
	_, err := p.ReleaseEscrow("finance", "", baseTime)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	assert.ErrorIs(t, err, ErrNotEscrow)
}

func TestReleaseEscrow_CompletedKeepsStatus(t *testing.T) {
	o := testOrder(t, "0", line(uuid.New(), 1, "100"))
	p := generate(t, o, true).CustomerPayment
	_, _ = p.TransitionStatus(StatusProcessing, "gateway", TransitionOptions{})
	_, _ = p.TransitionStatus(StatusCompleted, "gateway", TransitionOptions{})
	historyLen := len(p.StatusHistory)

	res, err := p.ReleaseEscrow("finance", "", time.Time{})
	require.NoError(t, err)
	assert.True(t, res.ReleasesVendorPayouts())
	assert.Len(t, p.StatusHistory, historyLen)
}

func TestReleaseEscrow_FailedRejected(t *testing.T) {
	o := testOrder(t, "0", line(uuid.New(), 1, "100"))
	p := generate(t, o, true).CustomerPayment
	_, _ = p.TransitionStatus(StatusFailed, "gateway", TransitionOptions{})

	_, err := p.ReleaseEscrow("finance", "", baseTime)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	assert.Nil(t, p.Escrow.ReleasedAt)
}

func completed(t *testing.T) *Payment {
	t.Helper()
	p := newPending(t)
	_, err := p.TransitionStatus(StatusProcessing, "gateway", TransitionOptions{})
	require.NoError(t, err)
	_, err = p.TransitionStatus(StatusCompleted, "gateway", TransitionOptions{})
	require.NoError(t, err)
	return p
}

func TestRefund(t *testing.T) {
	p := completed(t)

	refund, err := p.NewRefund(RefundInput{
		PaymentCode: "PAY-20260302-000099",
		Amount:      dec("40"),
		Reason:      "damaged in transit",
		Actor:       "support",
		At:          baseTime.Add(72 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, p.Status, "building a refund must not touch the original")
	assert.Equal(t, TypeRefund, refund.Type)
	assert.Equal(t, StatusPending, refund.Status)
	assert.Equal(t, p.Payee, refund.Payer)
	assert.Equal(t, p.Payer, refund.Payee)
	assert.True(t, refund.Amount().Equal(dec("40")))
	assert.True(t, refund.Breakdown.Subtotal.Equal(p.Breakdown.Subtotal))
	assert.Equal(t, "Refund for payment "+p.PaymentCode, refund.Description)
	assert.Equal(t, p.ID, *refund.OriginalPaymentID)

	_, err = p.MarkRefunded(refund, "damaged in transit", "support", baseTime.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, p.Status)
	assert.True(t, p.Refund.Amount.Equal(dec("40")))
	assert.Equal(t, "damaged in transit", p.Refund.Reason)
	assert.Equal(t, refund.ID, *p.Refund.RefundPaymentID)
}

func TestRefund_Preconditions(t *testing.T) {
	t.Run("not completed", func(t *testing.T) {
		_, err := newPending(t).NewRefund(RefundInput{PaymentCode: "X", Amount: dec("1"), Reason: "r"})
		assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	})
	t.Run("amount exceeds total", func(t *testing.T) {
		_, err := completed(t).NewRefund(RefundInput{PaymentCode: "X", Amount: dec("100000"), Reason: "r"})
		assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
	})
	t.Run("zero amount", func(t *testing.T) {
		_, err := completed(t).NewRefund(RefundInput{PaymentCode: "X", Amount: decimal.Zero, Reason: "r"})
		assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
	})
	t.Run("missing reason", func(t *testing.T) {
		_, err := completed(t).NewRefund(RefundInput{PaymentCode: "X", Amount: dec("1")})
		assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
	})
}

func TestEffectsFor(t *testing.T) {
	assert.Equal(t, []Effect{EffectStampProcessed}, EffectsFor(TypePlatformToVendor, StatusProcessing))
	assert.Contains(t, EffectsFor(TypeCustomerToPlatform, StatusCompleted), EffectReleaseVendorPayouts)
	assert.NotContains(t, EffectsFor(TypePlatformToShipping, StatusCompleted), EffectReleaseVendorPayouts)
	assert.Empty(t, EffectsFor(TypeRefund, StatusCancelled))
	assert.False(t, EffectReleaseVendorPayouts.IsLocal())
}

func TestBreakdownVerify(t *testing.T) {
	b := Breakdown{Subtotal: dec("100"), Tax: dec("5"), Shipping: dec("10"), Discount: dec("15"), Total: dec("100")}
	assert.NoError(t, b.Verify(TypeCustomerToPlatform))
	b.Total = dec("101")
	assert.Error(t, b.Verify(TypeCustomerToPlatform))
	assert.NoError(t, b.Verify(TypeRefund))
	b.Total = dec("-1")
	assert.Error(t, b.Verify(TypeRefund))
}

func TestIsOverdue(t *testing.T) {
	o := testOrder(t, "0", line(uuid.New(), 1, "100"))
	vp := generate(t, o, false).VendorPayments[0]
	assert.False(t, vp.IsOverdue(baseTime.Add(24*time.Hour)))
	assert.True(t, vp.IsOverdue(baseTime.Add(8*24*time.Hour)))
	_, _ = vp.TransitionStatus(StatusCancelled, "ops", TransitionOptions{})
	assert.False(t, vp.IsOverdue(baseTime.Add(8*24*time.Hour)))
}
