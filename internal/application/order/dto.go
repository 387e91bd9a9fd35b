package order

import (
	"time"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerInput is the buyer block of a create request
type CustomerInput struct {
	ID      uuid.UUID            `json:"id" binding:"required"`
	Name    string               `json:"name" binding:"required,min=1,max=200"`
	Email   string               `json:"email" binding:"required,email"`
	Phone   string               `json:"phone" binding:"max=50"`
	Address valueobject.Location `json:"address"`
}

// ItemRequest represents one order line in create and add-item requests
type ItemRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required,min=1,max=200"`
	VendorID    uuid.UUID       `json:"vendor_id" binding:"required"`
	VendorName  string          `json:"vendor_name" binding:"required,min=1,max=200"`
	VendorEmail string          `json:"vendor_email" binding:"omitempty,email"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

func (r ItemRequest) toInput() order.ItemInput {
	return order.ItemInput{
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		VendorID:    r.VendorID,
		VendorName:  r.VendorName,
		VendorEmail: r.VendorEmail,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	Customer       CustomerInput   `json:"customer" binding:"required"`
	Items          []ItemRequest   `json:"items" binding:"required,min=1,dive"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Currency       string          `json:"currency" binding:"omitempty,currency"`
	PaymentMethod  string          `json:"payment_method" binding:"max=50"`
	Priority       string          `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Source         string          `json:"source" binding:"omitempty,oneof=website phone email walk_in other"`
	Notes          string          `json:"notes" binding:"max=2000"`
}

// UpdateItemQuantityRequest changes the quantity of one line
type UpdateItemQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// SetChargesRequest replaces tax, shipping and discount
type SetChargesRequest struct {
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// TransitionStatusRequest moves an order to another status
type TransitionStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
	Reason string `json:"reason" binding:"max=500"`
}

// UpdateItemStatusRequest moves one line to another status
type UpdateItemStatusRequest struct {
	Status         string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
	TrackingNumber string `json:"tracking_number" binding:"max=100"`
}

// UpdatePaymentStatusRequest records the customer's payment state
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required,oneof=pending paid failed refunded"`
}

// BulkStatusRequest applies one status change to many orders
type BulkStatusRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1,max=100"`
	Status   string      `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
	Reason   string      `json:"reason" binding:"max=500"`
}

// BulkItemResult is the per-order outcome of a bulk operation
type BulkItemResult struct {
	ID      uuid.UUID `json:"id"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}

// BulkResult summarises a bulk operation. One failure never aborts the others.
type BulkResult struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []BulkItemResult `json:"results"`
}

func (r *BulkResult) add(id uuid.UUID, err error) {
	item := BulkItemResult{ID: id, Success: err == nil}
	if err != nil {
		item.Error = err.Error()
		r.Failed++
	} else {
		r.Succeeded++
	}
	r.Results = append(r.Results, item)
}

// ListFilter represents filter options for the order list
type ListFilter struct {
	Search        string     `form:"search"`
	Status        string     `form:"status" binding:"omitempty,oneof=pending processing shipped delivered cancelled"`
	PaymentStatus string     `form:"payment_status" binding:"omitempty,oneof=pending paid failed refunded"`
	CustomerID    *uuid.UUID `form:"-"`
	Priority      string     `form:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Source        string     `form:"source"`
	StartDate     *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate       *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f ListFilter) toDomain() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
		From:     f.StartDate,
		To:       f.EndDate,
		Filters:  make(map[string]any),
	}.Normalize()

	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		filter.Filters["payment_status"] = f.PaymentStatus
	}
	if f.CustomerID != nil {
		filter.Filters["customer_id"] = *f.CustomerID
	}
	if f.Priority != "" {
		filter.Filters["priority"] = f.Priority
	}
	if f.Source != "" {
		filter.Filters["source"] = f.Source
	}
	return filter
}

// CustomerResponse is the buyer block in API responses
type CustomerResponse struct {
	ID      uuid.UUID            `json:"id"`
	Name    string               `json:"name"`
	Email   string               `json:"email"`
	Phone   string               `json:"phone,omitempty"`
	Address valueobject.Location `json:"address"`
}

// ItemResponse represents an order line in API responses
type ItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	VendorName     string          `json:"vendor_name"`
	VendorEmail    string          `json:"vendor_email,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Status         string          `json:"status"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID             uuid.UUID        `json:"id"`
	OrderNumber    string           `json:"order_number"`
	Customer       CustomerResponse `json:"customer"`
	Items          []ItemResponse   `json:"items"`
	ItemCount      int              `json:"item_count"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	TaxAmount      decimal.Decimal  `json:"tax_amount"`
	ShippingAmount decimal.Decimal  `json:"shipping_amount"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	FinalAmount    decimal.Decimal  `json:"final_amount"`
	Currency       string           `json:"currency"`
	PaymentMethod  string           `json:"payment_method,omitempty"`
	Status         string           `json:"status"`
	PaymentStatus  string           `json:"payment_status"`
	Priority       string           `json:"priority"`
	Source         string           `json:"source"`
	Notes          string           `json:"notes,omitempty"`
	ShippedAt      *time.Time       `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time       `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time       `json:"cancelled_at,omitempty"`
	CancelReason   string           `json:"cancel_reason,omitempty"`
	CreatedBy      string           `json:"created_by,omitempty"`
	UpdatedBy      string           `json:"updated_by,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Version        int              `json:"version"`
}

// ToOrderResponse converts the domain order to a response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]ItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = ItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			VendorID:       item.VendorID,
			VendorName:     item.VendorName,
			VendorEmail:    item.VendorEmail,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			TotalPrice:     item.TotalPrice,
			Status:         string(item.Status),
			TrackingNumber: item.TrackingNumber,
		}
	}
	return OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Customer: CustomerResponse{
			ID:      o.Customer.ID,
			Name:    o.Customer.Name,
			Email:   o.Customer.Email,
			Phone:   o.Customer.Phone,
			Address: o.Customer.Address,
		},
		Items:          items,
		ItemCount:      o.ItemCount(),
		TotalAmount:    o.TotalAmount,
		TaxAmount:      o.TaxAmount,
		ShippingAmount: o.ShippingAmount,
		DiscountAmount: o.DiscountAmount,
		FinalAmount:    o.FinalAmount,
		Currency:       o.Currency.String(),
		PaymentMethod:  o.PaymentMethod,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		Priority:       string(o.Priority),
		Source:         string(o.Source),
		Notes:          o.Notes,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
		CancelledAt:    o.CancelledAt,
		CancelReason:   o.CancelReason,
		CreatedBy:      o.CreatedBy,
		UpdatedBy:      o.UpdatedBy,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		Version:        o.Version,
	}
}

// ToOrderResponses converts a slice of orders
func ToOrderResponses(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}
