package order

import (
	"testing"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testCustomer() Customer {
	return Customer{ID: uuid.New(), Name: "Acme GmbH", Email: "buyer@acme.de"}
}

func itemInput(vendorID uuid.UUID, qty int, price string) ItemInput {
	return ItemInput{
		ProductID:   uuid.New(),
		ProductName: "Handwoven rug",
		VendorID:    vendorID,
		VendorName:  "Vendor " + vendorID.String()[:4],
		VendorEmail: "v@example.com",
		Quantity:    qty,
		UnitPrice:   dec(price),
	}
}

func newTestOrder(t *testing.T, items ...ItemInput) *Order {
	t.Helper()
	o, err := NewOrder(NewOrderInput{
		OrderNumber:    "ORD-20260101-0001",
		Customer:       testCustomer(),
		Items:          items,
		TaxAmount:      dec("50"),
		ShippingAmount: dec("20"),
		Actor:          "admin",
	})
	require.NoError(t, err)
	return o
}

func assertFinalInvariant(t *testing.T, o *Order) {
	t.Helper()
	want := o.TotalAmount.Add(o.TaxAmount).Add(o.ShippingAmount).Sub(o.DiscountAmount)
	assert.True(t, o.FinalAmount.Equal(want), "final %s != %s", o.FinalAmount, want)
}

func TestNewOrder_TwoVendors(t *testing.T) {
	v1, v2 := uuid.New(), uuid.New()
	o := newTestOrder(t, itemInput(v1, 2, "250"), itemInput(v2, 1, "500"))

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentStatusPending, o.PaymentStatus)
	assert.Equal(t, "USD", o.Currency.String())
	assert.Equal(t, PriorityMedium, o.Priority)
	assert.Equal(t, SourceWebsite, o.Source)
	assert.True(t, o.TotalAmount.Equal(dec("1000")))
	assert.True(t, o.FinalAmount.Equal(dec("1070")))
	assert.Equal(t, "admin", o.CreatedBy)
	assertFinalInvariant(t, o)

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeOrderCreated, events[0].EventType())
}

func TestNewOrder_Validation(t *testing.T) {
	vendor := uuid.New()
	tests := []struct {
		name  string
		input NewOrderInput
	}{
		{"missing number", NewOrderInput{Customer: testCustomer(), Items: []ItemInput{itemInput(vendor, 1, "10")}}},
		{"missing customer name", NewOrderInput{OrderNumber: "X", Customer: Customer{ID: uuid.New(), Email: "a@b.c"}, Items: []ItemInput{itemInput(vendor, 1, "10")}}},
		{"bad email", NewOrderInput{OrderNumber: "X", Customer: Customer{ID: uuid.New(), Name: "A", Email: "nope"}, Items: []ItemInput{itemInput(vendor, 1, "10")}}},
		{"no items", NewOrderInput{OrderNumber: "X", Customer: testCustomer()}},
		{"zero quantity", NewOrderInput{OrderNumber: "X", Customer: testCustomer(), Items: []ItemInput{itemInput(vendor, 0, "10")}}},
		{"bad currency", NewOrderInput{OrderNumber: "X", Customer: testCustomer(), Currency: "DOLLARS", Items: []ItemInput{itemInput(vendor, 1, "10")}}},
		{"discount too large", NewOrderInput{OrderNumber: "X", Customer: testCustomer(), DiscountAmount: dec("11"), Items: []ItemInput{itemInput(vendor, 1, "10")}}},
		{"bad priority", NewOrderInput{OrderNumber: "X", Customer: testCustomer(), Priority: "asap", Items: []ItemInput{itemInput(vendor, 1, "10")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder(tt.input)
			require.Error(t, err)
			assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
		})
	}
}

func TestOrder_ItemMutationsKeepFinalInvariant(t *testing.T) {
	v1, v2 := uuid.New(), uuid.New()
	o := newTestOrder(t, itemInput(v1, 2, "250"))

	added, err := o.AddItem(itemInput(v2, 3, "100"), "clerk")
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(dec("800")))
	assertFinalInvariant(t, o)

	require.NoError(t, o.UpdateItemQuantity(added.ID, 1, "clerk"))
	assert.True(t, o.TotalAmount.Equal(dec("600")))
	assertFinalInvariant(t, o)

	require.NoError(t, o.SetCharges(dec("10"), dec("5"), dec("15"), "clerk"))
	assert.True(t, o.FinalAmount.Equal(dec("600")))
	assertFinalInvariant(t, o)

	require.NoError(t, o.RemoveItem(added.ID, "clerk"))
	assert.True(t, o.TotalAmount.Equal(dec("500")))
	assertFinalInvariant(t, o)
	assert.Equal(t, "clerk", o.UpdatedBy)

	err = o.RemoveItem(o.Items[0].ID, "clerk")
	assert.Equal(t, shared.CodeValidationFailed, shared.ErrorCode(err))
	err = o.RemoveItem(uuid.New(), "clerk")
	assert.True(t, shared.IsNotFound(err))
}

func TestOrder_RejectedMutationLeavesTotalsIntact(t *testing.T) {
	o := newTestOrder(t, itemInput(uuid.New(), 1, "100"), itemInput(uuid.New(), 1, "100"))
	require.NoError(t, o.SetCharges(dec("0"), dec("0"), dec("150"), "clerk"))

	err := o.RemoveItem(o.Items[1].ID, "clerk")
	require.Error(t, err)
	assert.Len(t, o.Items, 2)
	assert.True(t, o.FinalAmount.Equal(dec("50")))
	assertFinalInvariant(t, o)
}

func TestOrder_ItemsLockedAfterPending(t *testing.T) {
	o := newTestOrder(t, itemInput(uuid.New(), 1, "100"))
	require.NoError(t, o.TransitionStatus(StatusProcessing, "ops", ""))

	_, err := o.AddItem(itemInput(uuid.New(), 1, "1"), "ops")
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
}

func TestOrder_TransitionStatus(t *testing.T) {
	tests := []struct {
		name    string
		path    []Status
		wantErr bool
	}{
		{"happy path", []Status{StatusProcessing, StatusShipped, StatusDelivered}, false},
		{"cancel from pending", []Status{StatusCancelled}, false},
		{"skip processing", []Status{StatusShipped}, true},
		{"cancel after ship", []Status{StatusProcessing, StatusShipped, StatusCancelled}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrder(t, itemInput(uuid.New(), 1, "100"))
			var err error
			for _, s := range tt.path {
				if err = o.TransitionStatus(s, "ops", "customer request"); err != nil {
					break
				}
			}
			if tt.wantErr {
				assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.path[len(tt.path)-1], o.Status)
		})
	}
}

func TestOrder_CancelCancelsOpenItems(t *testing.T) {
	o := newTestOrder(t, itemInput(uuid.New(), 1, "100"))
	require.NoError(t, o.TransitionStatus(StatusCancelled, "ops", "out of stock"))
	assert.Equal(t, ItemStatusCancelled, o.Items[0].Status)
	assert.Equal(t, "out of stock", o.CancelReason)
	assert.NotNil(t, o.CancelledAt)
}

func TestOrder_UpdateItemAndPaymentStatus(t *testing.T) {
	o := newTestOrder(t, itemInput(uuid.New(), 1, "100"))
	itemID := o.Items[0].ID

	require.NoError(t, o.UpdateItemStatus(itemID, ItemStatusProcessing, "", "ops"))
	require.NoError(t, o.UpdateItemStatus(itemID, ItemStatusShipped, "TRK-1", "ops"))
	assert.Equal(t, "TRK-1", o.Items[0].TrackingNumber)
	err := o.UpdateItemStatus(itemID, ItemStatusPending, "", "ops")
	assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))

	require.NoError(t, o.UpdatePaymentStatus(PaymentStatusPaid, "ops"))
	err = o.UpdatePaymentStatus(PaymentStatusFailed, "ops")
	assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	require.NoError(t, o.UpdatePaymentStatus(PaymentStatusRefunded, "ops"))
}

func TestOrder_VendorGroups(t *testing.T) {
	v1, v2 := uuid.New(), uuid.New()
	o := newTestOrder(t,
		itemInput(v1, 1, "100"),
		itemInput(v2, 2, "50"),
		itemInput(v1, 3, "10"),
	)

	groups := o.VendorGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, v1, groups[0].VendorID)
	assert.True(t, groups[0].Subtotal.Equal(dec("130")))
	assert.Equal(t, 2, groups[0].ItemCount)
	assert.Equal(t, v2, groups[1].VendorID)
	assert.True(t, groups[1].Subtotal.Equal(dec("100")))
}

func TestNewRevenue(t *testing.T) {
	tests := []struct {
		name    string
		orders  int64
		total   string
		average string
	}{
		{"no orders", 0, "0", "0"},
		{"even split", 4, "1000", "250"},
		{"rounds to cents", 3, "100", "33.33"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRevenue(tt.orders, decimal.RequireFromString(tt.total))
			assert.Equal(t, tt.orders, r.Orders)
			assert.True(t, r.AverageOrderValue.Equal(decimal.RequireFromString(tt.average)), "average %s", r.AverageOrderValue)
		})
	}
}
