package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/payment"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paymentT0 = time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC)

// newTestFlow generates an escrowed customer payment, one vendor payout and a shipping payment
func newTestFlow(t *testing.T) *payment.Flow {
	t.Helper()
	o := newTestOrder(t, "ORD-20260610-0007")
	seq := 0
	flow, err := payment.DefaultFlowPolicy().GenerateFlow(o, payment.FlowInput{
		Method:        payment.MethodCreditCard,
		EscrowEnabled: true,
		Actor:         "ops",
		At:            paymentT0,
		NextCode: func() (string, error) {
			seq++
			return fmt.Sprintf("PAY-20260610-%06d", seq), nil
		},
	})
	require.NoError(t, err)
	for _, p := range flow.All() {
		p.ClearDomainEvents()
	}
	return flow
}

func TestGormPaymentRepository_SaveAllAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPaymentRepository(newSQLiteDB(t))
	flow := newTestFlow(t)

	require.NoError(t, repo.SaveAll(ctx, flow.All()))

	customer := flow.CustomerPayment
	found, err := repo.FindByID(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.PaymentCode, found.PaymentCode)
	assert.Equal(t, customer.Payer, found.Payer)
	assert.Equal(t, payment.PlatformParticipant, found.Payee)
	assert.True(t, found.Escrow.IsEscrow)
	assert.Equal(t, payment.DefaultEscrowConditions(), found.Escrow.ReleaseConditions)
	assert.True(t, decimal.NewFromInt(420).Equal(found.Amount()), "amount %s", found.Amount())
	assert.True(t, customer.Breakdown.PlatformFee.Equal(found.Breakdown.PlatformFee))
	require.Len(t, found.StatusHistory, 1)
	assert.True(t, paymentT0.Equal(found.InitiatedAt))

	byCode, err := repo.FindByCode(ctx, "PAY-20260610-000002")
	require.NoError(t, err)
	assert.Equal(t, payment.TypePlatformToVendor, byCode.Type)
	require.NotNil(t, byCode.DueDate)
	assert.True(t, paymentT0.Add(7*24*time.Hour).Equal(*byCode.DueDate))

	all, err := repo.FindByOrder(ctx, customer.OrderID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "PAY-20260610-000001", all[0].PaymentCode)

	vendors, err := repo.FindByOrderAndType(ctx, customer.OrderID, payment.TypePlatformToVendor)
	require.NoError(t, err)
	assert.Len(t, vendors, 1)

	count, err := repo.CountByOrder(ctx, customer.OrderID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = repo.FindByCode(ctx, "PAY-missing")
	assert.True(t, shared.IsNotFound(err))
}

func TestGormPaymentRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPaymentRepository(newSQLiteDB(t))
	flow := newTestFlow(t)
	require.NoError(t, repo.SaveAll(ctx, flow.All()))

	p := flow.CustomerPayment
	_, err := p.TransitionStatus(payment.StatusProcessing, "gateway", payment.TransitionOptions{
		TransactionID: "txn_123",
		At:            paymentT0.Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, p))
	assert.Equal(t, 2, p.Version)

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusProcessing, found.Status)
	assert.Equal(t, "txn_123", found.TransactionID)
	require.NotNil(t, found.ProcessedAt)
	assert.Len(t, found.StatusHistory, 2)

	found.Version = 1
	assert.True(t, shared.IsConcurrencyConflict(repo.SaveWithLock(ctx, found)))
}

func TestGormPaymentRepository_SaveRefund(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPaymentRepository(newSQLiteDB(t))
	flow := newTestFlow(t)
	require.NoError(t, repo.SaveAll(ctx, flow.All()))

	original := flow.ShippingPayment
	_, err := original.TransitionStatus(payment.StatusProcessing, "ops", payment.TransitionOptions{At: paymentT0.Add(time.Hour)})
	require.NoError(t, err)
	_, err = original.TransitionStatus(payment.StatusCompleted, "ops", payment.TransitionOptions{At: paymentT0.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, original))

	refund, err := original.NewRefund(payment.RefundInput{
		PaymentCode: "PAY-20260610-000010",
		Amount:      decimal.NewFromInt(20),
		Reason:      "Partial damage",
		Actor:       "ops",
		At:          paymentT0.Add(3 * time.Hour),
	})
	require.NoError(t, err)
	_, err = original.MarkRefunded(refund, "Partial damage", "ops", paymentT0.Add(3*time.Hour))
	require.NoError(t, err)

	t.Run("stale original rolls back the refund insert", func(t *testing.T) {
		stale := *original
		stale.Version = 1
		err := repo.SaveRefund(ctx, &stale, refund)
		assert.True(t, shared.IsConcurrencyConflict(err))

		_, err = repo.FindByID(ctx, refund.ID)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("writes both records", func(t *testing.T) {
		require.NoError(t, repo.SaveRefund(ctx, original, refund))
		assert.Equal(t, 3, original.Version)

		storedRefund, err := repo.FindByID(ctx, refund.ID)
		require.NoError(t, err)
		require.NotNil(t, storedRefund.OriginalPaymentID)
		assert.Equal(t, original.ID, *storedRefund.OriginalPaymentID)
		assert.Equal(t, payment.TypeRefund, storedRefund.Type)

		storedOriginal, err := repo.FindByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusRefunded, storedOriginal.Status)
		assert.True(t, decimal.NewFromInt(20).Equal(storedOriginal.Refund.Amount))
		require.NotNil(t, storedOriginal.Refund.RefundPaymentID)
		assert.Equal(t, refund.ID, *storedOriginal.Refund.RefundPaymentID)
	})
}

func TestGormPaymentRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPaymentRepository(newSQLiteDB(t))
	flow := newTestFlow(t)
	require.NoError(t, repo.SaveAll(ctx, flow.All()))

	vendorID := flow.VendorPayments[0].Payee.ID
	tests := []struct {
		name   string
		filter func(f *shared.Filter)
		want   int
	}{
		{"no filter", func(*shared.Filter) {}, 3},
		{"escrow only", func(f *shared.Filter) { f.Filters["escrow"] = true }, 1},
		{"by method", func(f *shared.Filter) { f.Filters["method"] = string(payment.MethodBankTransfer) }, 2},
		{"by participant", func(f *shared.Filter) { f.Filters["participant_id"] = vendorID }, 1},
		{"platform participates in all", func(f *shared.Filter) { f.Filters["participant_id"] = payment.PlatformParticipant.ID }, 3},
		{"search description", func(f *shared.Filter) { f.Search = "shipping payment" }, 1},
		{"before initiation", func(f *shared.Filter) {
			to := paymentT0.Add(-time.Minute)
			f.To = &to
		}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := shared.DefaultFilter()
			tt.filter(&filter)

			payments, err := repo.FindAll(ctx, filter)
			require.NoError(t, err)
			assert.Len(t, payments, tt.want)

			count, err := repo.Count(ctx, filter)
			require.NoError(t, err)
			assert.Equal(t, int64(tt.want), count)
		})
	}
}

func TestGormPaymentRepository_Analytics(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPaymentRepository(newSQLiteDB(t))
	flow := newTestFlow(t)

	customer := flow.CustomerPayment
	_, err := customer.TransitionStatus(payment.StatusProcessing, "gateway", payment.TransitionOptions{At: paymentT0.Add(time.Hour)})
	require.NoError(t, err)
	_, err = customer.ReleaseEscrow("ops", "delivered", paymentT0.Add(6*time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.SaveAll(ctx, flow.All()))

	a, err := repo.Analytics(ctx, shared.DefaultFilter())
	require.NoError(t, err)

	assert.Equal(t, int64(3), a.TotalPayments)
	assert.True(t, decimal.RequireFromString("767.50").Equal(a.TotalVolume), "volume %s", a.TotalVolume)
	assert.Equal(t, int64(1), a.ByStatus[payment.StatusCompleted].Count)
	assert.Equal(t, int64(2), a.ByStatus[payment.StatusPending].Count)
	assert.True(t, decimal.NewFromInt(420).Equal(a.ByType[payment.TypeCustomerToPlatform].Volume))
	assert.Equal(t, int64(2), a.ByMethod[payment.MethodBankTransfer].Count)
	assert.InDelta(t, 6.0, a.AverageProcessingHours, 0.001)
	assert.Equal(t, int64(1), a.Escrow.Total)
	assert.Equal(t, int64(1), a.Escrow.Released)
	assert.Zero(t, a.Escrow.Held)
	assert.True(t, a.Escrow.HeldVolume.IsZero())

	t.Run("filter narrows every aggregate", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["type"] = string(payment.TypePlatformToShipping)

		a, err := repo.Analytics(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), a.TotalPayments)
		assert.True(t, decimal.NewFromInt(50).Equal(a.TotalVolume))
		assert.Zero(t, a.AverageProcessingHours)
		assert.Zero(t, a.Escrow.Total)
	})
}

func TestGormPaymentRepository_SaveAllEmpty(t *testing.T) {
	repo := NewGormPaymentRepository(newSQLiteDB(t))
	assert.NoError(t, repo.SaveAll(context.Background(), nil))
}
