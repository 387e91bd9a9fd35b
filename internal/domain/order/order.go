package order

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CodePrefix and CodeWidth define order numbers like ORD-20260101-0001
const (
	CodePrefix = "ORD"
	CodeWidth  = 4
)

// Customer holds the buyer details captured on the order
type Customer struct {
	ID      uuid.UUID
	Name    string
	Email   string
	Phone   string
	Address valueobject.Location
}

// Item is one order line
type Item struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	ProductName    string
	VendorID       uuid.UUID
	VendorName     string
	VendorEmail    string
	Quantity       int
	UnitPrice      decimal.Decimal
	TotalPrice     decimal.Decimal // Quantity * UnitPrice
	Status         ItemStatus
	TrackingNumber string
}

// ItemInput carries the fields needed to add a line
type ItemInput struct {
	ProductID   uuid.UUID
	ProductName string
	VendorID    uuid.UUID
	VendorName  string
	VendorEmail string
	Quantity    int
	UnitPrice   decimal.Decimal
}

func (in ItemInput) validate() error {
	if in.ProductID == uuid.Nil {
		return shared.NewValidationError("item product id is required")
	}
	if strings.TrimSpace(in.ProductName) == "" {
		return shared.NewValidationError("item product name is required")
	}
	if in.VendorID == uuid.Nil {
		return shared.NewValidationError("item vendor id is required")
	}
	if in.Quantity < 1 {
		return shared.NewValidationError("item quantity must be at least 1")
	}
	if in.UnitPrice.IsNegative() {
		return shared.NewValidationError("item unit price cannot be negative")
	}
	return nil
}

func newItem(in ItemInput) Item {
	unitPrice := valueobject.Round(in.UnitPrice)
	return Item{
		ID:          uuid.New(),
		ProductID:   in.ProductID,
		ProductName: strings.TrimSpace(in.ProductName),
		VendorID:    in.VendorID,
		VendorName:  strings.TrimSpace(in.VendorName),
		VendorEmail: strings.TrimSpace(in.VendorEmail),
		Quantity:    in.Quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  unitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
		Status:      ItemStatusPending,
	}
}

// NewOrderInput is the explicit create command for an order
type NewOrderInput struct {
	OrderNumber    string
	Customer       Customer
	Items          []ItemInput
	TaxAmount      decimal.Decimal
	ShippingAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	Currency       string
	PaymentMethod  string
	Priority       Priority
	Source         Source
	Notes          string
	Actor          string
}

// Order is the aggregate root holding line items and monetary totals.
// FinalAmount always equals TotalAmount + TaxAmount + ShippingAmount - DiscountAmount.
type Order struct {
	shared.BaseAggregateRoot
	shared.AuditInfo
	OrderNumber    string
	Customer       Customer
	Items          []Item
	TotalAmount    decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	Currency       valueobject.Currency
	PaymentMethod  string
	Status         Status
	PaymentStatus  PaymentStatus
	Priority       Priority
	Source         Source
	Notes          string
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
	CancelReason   string
}

// NewOrder creates a pending order from in
func NewOrder(in NewOrderInput) (*Order, error) {
	if strings.TrimSpace(in.OrderNumber) == "" {
		return nil, shared.NewValidationError("order number is required")
	}
	if err := validateCustomer(in.Customer); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, shared.NewValidationError("order must contain at least one item")
	}
	currency, err := valueobject.ParseCurrency(in.Currency)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeValidationFailed, "invalid currency", err)
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("invalid priority %q", priority))
	}
	source := in.Source
	if source == "" {
		source = SourceWebsite
	}
	if !source.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("invalid source %q", source))
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(time.Now()),
		OrderNumber:       strings.TrimSpace(in.OrderNumber),
		Customer:          in.Customer,
		Items:             make([]Item, 0, len(in.Items)),
		Currency:          currency,
		PaymentMethod:     in.PaymentMethod,
		Status:            StatusPending,
		PaymentStatus:     PaymentStatusPending,
		Priority:          priority,
		Source:            source,
		Notes:             in.Notes,
	}
	for _, itemIn := range in.Items {
		if err := itemIn.validate(); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, newItem(itemIn))
	}
	if err := o.applyCharges(in.TaxAmount, in.ShippingAmount, in.DiscountAmount); err != nil {
		return nil, err
	}
	o.Stamp(in.Actor)

	o.AddDomainEvent(NewOrderCreatedEvent(o, in.Actor))
	return o, nil
}

func validateCustomer(c Customer) error {
	if c.ID == uuid.Nil {
		return shared.NewValidationError("customer id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return shared.NewValidationError("customer name is required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return shared.NewValidationError("customer email is invalid")
	}
	return nil
}

// AddItem appends a line and recomputes totals. Only pending orders accept item changes.
func (o *Order) AddItem(in ItemInput, actor string) (*Item, error) {
	if err := o.requireEditable(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	o.Items = append(o.Items, newItem(in))
	o.recalculate()
	o.touch(actor)
	return &o.Items[len(o.Items)-1], nil
}

// UpdateItemQuantity changes a line quantity and recomputes totals
func (o *Order) UpdateItemQuantity(itemID uuid.UUID, quantity int, actor string) error {
	if err := o.requireEditable(); err != nil {
		return err
	}
	if quantity < 1 {
		return shared.NewValidationError("item quantity must be at least 1")
	}
	item := o.GetItem(itemID)
	if item == nil {
		return shared.NewNotFoundError("order item", itemID)
	}
	prevQty, prevTotal := item.Quantity, item.TotalPrice
	item.Quantity = quantity
	item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	if err := o.recalculateChecked(); err != nil {
		item.Quantity, item.TotalPrice = prevQty, prevTotal
		o.recalculate()
		return err
	}
	o.touch(actor)
	return nil
}

// RemoveItem drops a line and recomputes totals. The last line cannot be removed.
func (o *Order) RemoveItem(itemID uuid.UUID, actor string) error {
	if err := o.requireEditable(); err != nil {
		return err
	}
	idx := -1
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.NewNotFoundError("order item", itemID)
	}
	if len(o.Items) == 1 {
		return shared.NewValidationError("order must contain at least one item")
	}
	prev := o.Items
	o.Items = append(append(make([]Item, 0, len(prev)-1), prev[:idx]...), prev[idx+1:]...)
	if err := o.recalculateChecked(); err != nil {
		o.Items = prev
		o.recalculate()
		return err
	}
	o.touch(actor)
	return nil
}

// SetCharges replaces tax, shipping and discount and recomputes the final amount
func (o *Order) SetCharges(tax, shipping, discount decimal.Decimal, actor string) error {
	if err := o.requireEditable(); err != nil {
		return err
	}
	if err := o.applyCharges(tax, shipping, discount); err != nil {
		return err
	}
	o.touch(actor)
	return nil
}

func (o *Order) applyCharges(tax, shipping, discount decimal.Decimal) error {
	for name, amount := range map[string]decimal.Decimal{"tax": tax, "shipping": shipping, "discount": discount} {
		if amount.IsNegative() {
			return shared.NewValidationError(name + " amount cannot be negative")
		}
	}
	prevTax, prevShipping, prevDiscount := o.TaxAmount, o.ShippingAmount, o.DiscountAmount
	o.TaxAmount = valueobject.Round(tax)
	o.ShippingAmount = valueobject.Round(shipping)
	o.DiscountAmount = valueobject.Round(discount)
	if err := o.recalculateChecked(); err != nil {
		o.TaxAmount, o.ShippingAmount, o.DiscountAmount = prevTax, prevShipping, prevDiscount
		o.recalculate()
		return err
	}
	return nil
}

func (o *Order) recalculate() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice)
	}
	o.TotalAmount = total
	o.FinalAmount = total.Add(o.TaxAmount).Add(o.ShippingAmount).Sub(o.DiscountAmount)
}

func (o *Order) recalculateChecked() error {
	o.recalculate()
	if o.FinalAmount.IsNegative() {
		return shared.NewValidationError("discount cannot exceed subtotal plus tax and shipping")
	}
	return nil
}

// TransitionStatus moves the order through its fulfilment lifecycle
func (o *Order) TransitionStatus(target Status, actor, reason string) error {
	if !target.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("invalid order status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError("order", o.Status, target)
	}
	from := o.Status
	now := time.Now()
	o.Status = target
	switch target {
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
	case StatusCancelled:
		o.CancelledAt = &now
		o.CancelReason = reason
		for i := range o.Items {
			if o.Items[i].Status.CanTransitionTo(ItemStatusCancelled) {
				o.Items[i].Status = ItemStatusCancelled
			}
		}
	}
	o.touch(actor)

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, actor))
	return nil
}

// UpdateItemStatus moves one line through its fulfilment lifecycle
func (o *Order) UpdateItemStatus(itemID uuid.UUID, target ItemStatus, trackingNumber, actor string) error {
	if !target.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("invalid item status %q", target))
	}
	item := o.GetItem(itemID)
	if item == nil {
		return shared.NewNotFoundError("order item", itemID)
	}
	if !item.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError("order item", item.Status, target)
	}
	item.Status = target
	if trackingNumber != "" {
		item.TrackingNumber = trackingNumber
	}
	o.touch(actor)
	return nil
}

// UpdatePaymentStatus records the customer's payment state on the order
func (o *Order) UpdatePaymentStatus(target PaymentStatus, actor string) error {
	if !target.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("invalid payment status %q", target))
	}
	if !o.PaymentStatus.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError("order payment status", o.PaymentStatus, target)
	}
	o.PaymentStatus = target
	o.touch(actor)
	return nil
}

func (o *Order) requireEditable() error {
	if o.Status != StatusPending {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot modify items of an order in %s status", o.Status))
	}
	return nil
}

func (o *Order) touch(actor string) {
	o.Touch(time.Now())
	o.Stamp(actor)
}

// GetItem returns the line with itemID, or nil
func (o *Order) GetItem(itemID uuid.UUID) *Item {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// VendorGroup aggregates the lines supplied by one vendor
type VendorGroup struct {
	VendorID    uuid.UUID
	VendorName  string
	VendorEmail string
	Subtotal    decimal.Decimal
	ItemCount   int
}

// VendorGroups groups lines by vendor identity, in order of first appearance.
// Each distinct vendor yields exactly one group.
func (o *Order) VendorGroups() []VendorGroup {
	groups := make([]VendorGroup, 0)
	index := make(map[uuid.UUID]int)
	for _, item := range o.Items {
		i, ok := index[item.VendorID]
		if !ok {
			index[item.VendorID] = len(groups)
			groups = append(groups, VendorGroup{
				VendorID:    item.VendorID,
				VendorName:  item.VendorName,
				VendorEmail: item.VendorEmail,
				Subtotal:    decimal.Zero,
			})
			i = len(groups) - 1
		}
		groups[i].Subtotal = groups[i].Subtotal.Add(item.TotalPrice)
		groups[i].ItemCount++
	}
	return groups
}

// IsCancelled reports whether the order was cancelled
func (o *Order) IsCancelled() bool {
	return o.Status == StatusCancelled
}

// ItemCount returns the number of lines
func (o *Order) ItemCount() int {
	return len(o.Items)
}
