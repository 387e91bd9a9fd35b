package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	orderapp "github.com/exportexpress/backoffice/internal/application/order"
	paymentapp "github.com/exportexpress/backoffice/internal/application/payment"
	shipmentapp "github.com/exportexpress/backoffice/internal/application/shipment"
	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/payment"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/domain/shipment"
	"github.com/exportexpress/backoffice/internal/interfaces/http/dto"
	"github.com/exportexpress/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Stats(ctx context.Context, filter shared.Filter) (*order.Stats, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Stats), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) payment(args mock.Arguments) (*payment.Payment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) payments(args mock.Arguments) ([]payment.Payment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return m.payment(m.Called(ctx, id))
}

func (m *MockPaymentRepository) FindByCode(ctx context.Context, code string) (*payment.Payment, error) {
	return m.payment(m.Called(ctx, code))
}

func (m *MockPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]payment.Payment, error) {
	return m.payments(m.Called(ctx, orderID))
}

func (m *MockPaymentRepository) FindByOrderAndType(ctx context.Context, orderID uuid.UUID, paymentType payment.Type) ([]payment.Payment, error) {
	return m.payments(m.Called(ctx, orderID, paymentType))
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]payment.Payment, error) {
	return m.payments(m.Called(ctx, filter))
}

func (m *MockPaymentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) SaveAll(ctx context.Context, payments []*payment.Payment) error {
	return m.Called(ctx, payments).Error(0)
}

func (m *MockPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepository) SaveRefund(ctx context.Context, original, refund *payment.Payment) error {
	return m.Called(ctx, original, refund).Error(0)
}

func (m *MockPaymentRepository) Analytics(ctx context.Context, filter shared.Filter) (*payment.Analytics, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Analytics), args.Error(1)
}

type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) shipment(args mock.Arguments) (*shipment.Shipment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipment.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipment.Shipment, error) {
	return m.shipment(m.Called(ctx, id))
}

func (m *MockShipmentRepository) FindByCode(ctx context.Context, code string) (*shipment.Shipment, error) {
	return m.shipment(m.Called(ctx, code))
}

func (m *MockShipmentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*shipment.Shipment, error) {
	return m.shipment(m.Called(ctx, orderID))
}

func (m *MockShipmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]shipment.Shipment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipment.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) FindForAnalytics(ctx context.Context, filter shared.Filter) ([]shipment.Shipment, error) {
	return m.FindAll(ctx, filter)
}

func (m *MockShipmentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShipmentRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockShipmentRepository) Save(ctx context.Context, s *shipment.Shipment) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockShipmentRepository) SaveWithLock(ctx context.Context, s *shipment.Shipment) error {
	return m.Called(ctx, s).Error(0)
}

type MockSequenceReserver struct {
	mock.Mock
}

func (m *MockSequenceReserver) Next(ctx context.Context, name string, day time.Time) (int64, error) {
	args := m.Called(ctx, name, day)
	return args.Get(0).(int64), args.Error(1)
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	orders    *MockOrderRepository
	payments  *MockPaymentRepository
	shipments *MockShipmentRepository
	sequences *MockSequenceReserver
	engine    *gin.Engine
}

func newFixture() *fixture {
	f := &fixture{
		orders:    new(MockOrderRepository),
		payments:  new(MockPaymentRepository),
		shipments: new(MockShipmentRepository),
		sequences: new(MockSequenceReserver),
	}
	clock := fixedClock(testNow)
	orderHandler := NewOrderHandler(orderapp.NewService(f.orders, f.payments, f.shipments, f.sequences, clock, nil))
	paymentHandler := NewPaymentHandler(paymentapp.NewService(f.payments, f.orders, f.sequences, clock, nil))
	shipmentHandler := NewShipmentHandler(shipmentapp.NewService(f.shipments, f.orders, f.sequences, clock, nil))

	f.engine = gin.New()
	f.engine.Use(middleware.RequestID())
	f.engine.POST("/orders", orderHandler.Create)
	f.engine.GET("/orders", orderHandler.List)
	f.engine.GET("/orders/stats", orderHandler.Stats)
	f.engine.GET("/orders/:id", orderHandler.GetByID)
	f.engine.DELETE("/orders/:id", orderHandler.Delete)
	f.engine.POST("/orders/:id/status", orderHandler.TransitionStatus)
	f.engine.GET("/payments/code/:code", paymentHandler.GetByCode)
	f.engine.POST("/shipments", shipmentHandler.Create)
	f.engine.GET("/track/:code", shipmentHandler.LiveTracking)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func newOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(order.NewOrderInput{
		OrderNumber: "ORD-20260504-0001",
		Customer:    order.Customer{ID: uuid.New(), Name: "Lyon Deco", Email: "achat@lyondeco.fr"},
		Items: []order.ItemInput{{
			ProductID:   uuid.New(),
			ProductName: "Brass lamp",
			VendorID:    uuid.New(),
			VendorName:  "Moradabad Metals",
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("40.00"),
		}},
		Actor: "tester",
	})
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func createBody() map[string]any {
	return map[string]any{
		"customer": map[string]any{
			"id":    uuid.NewString(),
			"name":  "Lyon Deco",
			"email": "achat@lyondeco.fr",
		},
		"items": []map[string]any{{
			"product_id":   uuid.NewString(),
			"product_name": "Brass lamp",
			"vendor_id":    uuid.NewString(),
			"vendor_name":  "Moradabad Metals",
			"quantity":     2,
			"unit_price":   "40.00",
		}},
	}
}

func TestOrderHandler_Create(t *testing.T) {
	f := newFixture()
	f.sequences.On("Next", mock.Anything, shared.SequenceOrder, testNow).Return(int64(7), nil)
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)

	w, resp := f.do(t, http.MethodPost, "/orders", createBody())

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "ORD-20260504-0007", data["order_number"])
	assert.Equal(t, "80", data["final_amount"])
	f.orders.AssertExpectations(t)
}

func TestOrderHandler_Create_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{name: "malformed json", body: `{"customer":`, wantCode: dto.ErrCodeInvalidJSON},
		{
			name: "missing items",
			body: func() map[string]any {
				b := createBody()
				delete(b, "items")
				return b
			}(),
			wantCode: dto.ErrCodeValidation,
		},
		{
			name: "bad email",
			body: func() map[string]any {
				b := createBody()
				b["customer"].(map[string]any)["email"] = "nope"
				return b
			}(),
			wantCode: dto.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			w, resp := f.do(t, http.MethodPost, "/orders", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
			f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderHandler_Create_SequenceFailure(t *testing.T) {
	f := newFixture()
	f.sequences.On("Next", mock.Anything, shared.SequenceOrder, testNow).Return(int64(0), errors.New("redis down"))

	w, resp := f.do(t, http.MethodPost, "/orders", createBody())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "redis")
}

func TestOrderHandler_GetByID(t *testing.T) {
	f := newFixture()
	o := newOrder(t)
	missing := uuid.New()
	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.orders.On("FindByID", mock.Anything, missing).Return(nil, shared.NewNotFoundError("order", missing))

	w, resp := f.do(t, http.MethodGet, "/orders/"+o.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, o.OrderNumber, resp.Data.(map[string]any)["order_number"])

	w, resp = f.do(t, http.MethodGet, "/orders/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)

	w, resp = f.do(t, http.MethodGet, "/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
}

func TestOrderHandler_List(t *testing.T) {
	f := newFixture()
	o := newOrder(t)
	f.orders.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).Return([]order.Order{*o}, nil)
	f.orders.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).Return(int64(41), nil)

	w, resp := f.do(t, http.MethodGet, "/orders?page=2&page_size=20", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	w, _ = f.do(t, http.MethodGet, "/orders?customer_id=zzz", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Stats(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "date range", query: "?start_date=2026-05-01&end_date=2026-05-31", wantStatus: http.StatusOK},
		{name: "bad date", query: "?start_date=May", wantStatus: http.StatusBadRequest},
		{name: "bad customer", query: "?customer_id=zzz", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			f.orders.On("Stats", mock.Anything, mock.MatchedBy(func(filter shared.Filter) bool {
				return filter.From != nil && filter.From.Equal(from) && filter.To != nil
			})).Return(&order.Stats{
				TotalOrders: 2,
				ByStatus:    map[order.Status]int64{order.StatusPending: 2},
				Revenue:     map[string]order.Revenue{"USD": order.NewRevenue(2, decimal.NewFromInt(160))},
			}, nil)

			w, resp := f.do(t, http.MethodGet, "/orders/stats"+tt.query, nil)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				f.orders.AssertNotCalled(t, "Stats", mock.Anything, mock.Anything)
				return
			}
			data := resp.Data.(map[string]any)
			assert.EqualValues(t, 2, data["total_orders"])
			usd := data["revenue"].(map[string]any)["USD"].(map[string]any)
			assert.Equal(t, "80", usd["average_order_value"])
		})
	}
}

func TestOrderHandler_TransitionStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantStatus int
		wantCode   string
	}{
		{name: "pending to processing", status: "processing", wantStatus: http.StatusOK},
		{name: "pending to delivered", status: "delivered", wantStatus: http.StatusUnprocessableEntity, wantCode: dto.ErrCodeInvalidTransition},
		{name: "unknown status", status: "lost", wantStatus: http.StatusBadRequest, wantCode: dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			o := newOrder(t)
			f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
			f.orders.On("SaveWithLock", mock.Anything, o).Return(nil)

			w, resp := f.do(t, http.MethodPost, "/orders/"+o.ID.String()+"/status", map[string]any{"status": tt.status})

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				assert.Equal(t, tt.status, resp.Data.(map[string]any)["status"])
				f.orders.AssertCalled(t, "SaveWithLock", mock.Anything, o)
				return
			}
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderHandler_TransitionStatus_Conflict(t *testing.T) {
	f := newFixture()
	o := newOrder(t)
	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.orders.On("SaveWithLock", mock.Anything, o).Return(shared.ErrConcurrencyConflict)

	w, resp := f.do(t, http.MethodPost, "/orders/"+o.ID.String()+"/status", map[string]any{"status": "processing"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeConcurrencyConflict, resp.Error.Code)
}

func TestOrderHandler_Delete(t *testing.T) {
	t.Run("unreferenced", func(t *testing.T) {
		f := newFixture()
		o := newOrder(t)
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		f.payments.On("CountByOrder", mock.Anything, o.ID).Return(int64(0), nil)
		f.shipments.On("ExistsForOrder", mock.Anything, o.ID).Return(false, nil)
		f.orders.On("Delete", mock.Anything, o.ID).Return(nil)

		w, _ := f.do(t, http.MethodDelete, "/orders/"+o.ID.String(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		f.orders.AssertExpectations(t)
	})

	t.Run("referenced by payments", func(t *testing.T) {
		f := newFixture()
		o := newOrder(t)
		f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		f.payments.On("CountByOrder", mock.Anything, o.ID).Return(int64(3), nil)

		w, resp := f.do(t, http.MethodDelete, "/orders/"+o.ID.String(), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
		f.orders.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestShipmentHandler_Create_LostRaceIsConflict(t *testing.T) {
	f := newFixture()
	o := newOrder(t)
	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.shipments.On("ExistsForOrder", mock.Anything, o.ID).Return(false, nil)
	f.sequences.On("Next", mock.Anything, shared.SequenceShipment, mock.Anything).Return(int64(3), nil)
	// a concurrent request inserted its shipment after the existence check
	f.shipments.On("Save", mock.Anything, mock.Anything).
		Return(shared.WrapDomainError(shared.CodeAlreadyExists, "shipment for order ORD-20260504-0001 already exists", nil))

	w, resp := f.do(t, http.MethodPost, "/shipments", map[string]any{
		"order_id":       o.ID.String(),
		"origin":         map[string]any{"city": "Jaipur", "country": "India"},
		"destination":    map[string]any{"city": "Lyon", "country": "France"},
		"transport_mode": "SEA_FREIGHT",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)
}

func TestPaymentHandler_GetByCode_NotFound(t *testing.T) {
	f := newFixture()
	f.payments.On("FindByCode", mock.Anything, "PAY-20260504-0001").
		Return(nil, shared.NewNotFoundError("payment", "PAY-20260504-0001"))

	w, resp := f.do(t, http.MethodGet, "/payments/code/PAY-20260504-0001", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestShipmentHandler_LiveTracking_NotFound(t *testing.T) {
	f := newFixture()
	f.shipments.On("FindByCode", mock.Anything, "TRK123").Return(nil, shared.NewNotFoundError("shipment", "TRK123"))

	w, resp := f.do(t, http.MethodGet, "/track/TRK123", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestSystemHandler_Ready(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		checks map[string]Pinger
		want   int
	}{
		{name: "no checks", want: http.StatusOK},
		{name: "all healthy", checks: map[string]Pinger{"database": ok, "redis": ok}, want: http.StatusOK},
		{name: "redis down", checks: map[string]Pinger{"database": ok, "redis": down}, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			engine.GET("/ready", NewSystemHandler("test", tt.checks).Ready)

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
