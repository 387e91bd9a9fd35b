package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	paymentapp "github.com/exportexpress/backoffice/internal/application/payment"
	"github.com/exportexpress/backoffice/internal/domain/payment"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPaymentRepository_SecondCustomerPaymentRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPaymentRepository(newSQLiteDB(t))
	flow := newTestFlow(t)
	require.NoError(t, repo.SaveAll(ctx, flow.All()))

	again := newTestFlow(t)
	for _, p := range again.All() {
		p.OrderID = flow.CustomerPayment.OrderID
		p.PaymentCode = "RETRY-" + p.PaymentCode
	}

	err := repo.SaveAll(ctx, again.All())
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// the whole batch rolls back, payouts included
	count, err := repo.CountByOrder(ctx, flow.CustomerPayment.OrderID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

// gatedPaymentRepository holds every caller at the existence check until all
// of them have passed it
type gatedPaymentRepository struct {
	payment.Repository
	arrived sync.WaitGroup
}

func (r *gatedPaymentRepository) FindByOrderAndType(ctx context.Context, orderID uuid.UUID, paymentType payment.Type) ([]payment.Payment, error) {
	found, err := r.Repository.FindByOrderAndType(ctx, orderID, paymentType)
	r.arrived.Done()
	r.arrived.Wait()
	return found, err
}

func TestGenerateFlow_ConcurrentRequestsCreateOneFlow(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	orders := NewGormOrderRepository(db)
	payments := NewGormPaymentRepository(db)

	o := newTestOrder(t, "ORD-20260610-0042", "Moradabad Metals", "Jaipur Textiles")
	require.NoError(t, orders.Save(ctx, o))

	const callers = 2
	gated := &gatedPaymentRepository{Repository: payments}
	gated.arrived.Add(callers)
	svc := paymentapp.NewService(gated, orders, NewGormSequenceRepository(db), nil, nil)

	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.GenerateFlow(ctx, "ops", paymentapp.GenerateFlowRequest{
				OrderID:       o.ID,
				PaymentMethod: string(payment.MethodCreditCard),
			})
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	}
	assert.Equal(t, 1, succeeded)

	customers, err := payments.FindByOrderAndType(ctx, o.ID, payment.TypeCustomerToPlatform)
	require.NoError(t, err)
	assert.Len(t, customers, 1)

	payouts, err := payments.FindByOrderAndType(ctx, o.ID, payment.TypePlatformToVendor)
	require.NoError(t, err)
	assert.Len(t, payouts, 2)
}

func TestGormPaymentRepository_Analytics_FailureCancelsSiblingQueries(t *testing.T) {
	db, mock, _ := newMockDB(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`^SELECT COUNT\(\*\) AS count`).WillReturnError(errors.New("connection reset"))
	for _, q := range []string{
		`^SELECT status AS group_key`,
		`^SELECT type AS group_key`,
		`^SELECT method AS group_key`,
		`^SELECT initiated_at`,
		`^SELECT COUNT\(\*\) AS total`,
	} {
		mock.ExpectQuery(q).
			WillDelayFor(10 * time.Second).
			WillReturnRows(sqlmock.NewRows([]string{"count"}))
	}

	start := time.Now()
	_, err := NewGormPaymentRepository(db).Analytics(context.Background(), shared.DefaultFilter())
	assert.ErrorContains(t, err, "connection reset")
	assert.Less(t, time.Since(start), 5*time.Second)
}
