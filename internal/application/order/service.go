package order

import (
	"context"
	"fmt"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentCounter reports how many payments reference an order
type PaymentCounter interface {
	CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// ShipmentChecker reports whether an order already has a shipment
type ShipmentChecker interface {
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// Service handles order business operations
type Service struct {
	orderRepo      order.Repository
	payments       PaymentCounter
	shipments      ShipmentChecker
	sequences      shared.SequenceReserver
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new order Service
func NewService(
	orderRepo order.Repository,
	payments PaymentCounter,
	shipments ShipmentChecker,
	sequences shared.SequenceReserver,
	clock shared.Clock,
	logger *zap.Logger,
) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orderRepo: orderRepo,
		payments:  payments,
		shipments: shipments,
		sequences: sequences,
		clock:     clock,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new pending order with a freshly reserved order number
func (s *Service) Create(ctx context.Context, actor string, req CreateOrderRequest) (*OrderResponse, error) {
	orderNumber, err := shared.NextCode(ctx, s.sequences, shared.SequenceOrder, order.CodePrefix, order.CodeWidth, s.clock.Now())
	if err != nil {
		return nil, err
	}

	items := make([]order.ItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = item.toInput()
	}
	o, err := order.NewOrder(order.NewOrderInput{
		OrderNumber: orderNumber,
		Customer: order.Customer{
			ID:      req.Customer.ID,
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		},
		Items:          items,
		TaxAmount:      req.TaxAmount,
		ShippingAmount: req.ShippingAmount,
		DiscountAmount: req.DiscountAmount,
		Currency:       req.Currency,
		PaymentMethod:  req.PaymentMethod,
		Priority:       order.Priority(req.Priority),
		Source:         order.Source(req.Source),
		Notes:          req.Notes,
		Actor:          actor,
	})
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	s.publish(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// GetByID retrieves an order by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// GetByOrderNumber retrieves an order by its order number
func (s *Service) GetByOrderNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *Service) List(ctx context.Context, filter ListFilter) (*shared.Paginated[OrderResponse], error) {
	domainFilter := filter.toDomain()
	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToOrderResponses(orders), total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// Stats summarises orders matching filter: counts per status plus revenue
// and average order value per currency. Paging fields are ignored.
func (s *Service) Stats(ctx context.Context, filter ListFilter) (*order.Stats, error) {
	return s.orderRepo.Stats(ctx, filter.toDomain())
}

// AddItem adds a line to a pending order
func (s *Service) AddItem(ctx context.Context, actor string, orderID uuid.UUID, req ItemRequest) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) error {
		_, err := o.AddItem(req.toInput(), actor)
		return err
	})
}

// UpdateItemQuantity changes the quantity of a line on a pending order
func (s *Service) UpdateItemQuantity(ctx context.Context, actor string, orderID, itemID uuid.UUID, req UpdateItemQuantityRequest) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) error {
		return o.UpdateItemQuantity(itemID, req.Quantity, actor)
	})
}

// RemoveItem removes a line from a pending order
func (s *Service) RemoveItem(ctx context.Context, actor string, orderID, itemID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) error {
		return o.RemoveItem(itemID, actor)
	})
}

// SetCharges replaces the tax, shipping and discount amounts of a pending order
func (s *Service) SetCharges(ctx context.Context, actor string, orderID uuid.UUID, req SetChargesRequest) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) error {
		return o.SetCharges(req.TaxAmount, req.ShippingAmount, req.DiscountAmount, actor)
	})
}

// TransitionStatus moves an order through its fulfilment lifecycle
func (s *Service) TransitionStatus(ctx context.Context, actor string, orderID uuid.UUID, req TransitionStatusRequest) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) error {
		return o.TransitionStatus(order.Status(req.Status), actor, req.Reason)
	})
}

// UpdateItemStatus moves one line through its fulfilment lifecycle
func (s *Service) UpdateItemStatus(ctx context.Context, actor string, orderID, itemID uuid.UUID, req UpdateItemStatusRequest) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) error {
		return o.UpdateItemStatus(itemID, order.ItemStatus(req.Status), req.TrackingNumber, actor)
	})
}

// UpdatePaymentStatus records the customer's payment state on the order
func (s *Service) UpdatePaymentStatus(ctx context.Context, actor string, orderID uuid.UUID, req UpdatePaymentStatusRequest) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) error {
		return o.UpdatePaymentStatus(order.PaymentStatus(req.PaymentStatus), actor)
	})
}

// BulkUpdateStatus applies TransitionStatus to each order independently
func (s *Service) BulkUpdateStatus(ctx context.Context, actor string, req BulkStatusRequest) *BulkResult {
	result := &BulkResult{Results: make([]BulkItemResult, 0, len(req.OrderIDs))}
	for _, id := range req.OrderIDs {
		_, err := s.TransitionStatus(ctx, actor, id, TransitionStatusRequest{Status: req.Status, Reason: req.Reason})
		result.add(id, err)
	}
	return result
}

// Delete removes an order that no payment or shipment references
func (s *Service) Delete(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	if s.payments != nil {
		count, err := s.payments.CountByOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.NewDomainError(shared.CodeInvalidState,
				fmt.Sprintf("order %s is referenced by %d payments", o.OrderNumber, count))
		}
	}
	if s.shipments != nil {
		exists, err := s.shipments.ExistsForOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeInvalidState,
				fmt.Sprintf("order %s already has a shipment", o.OrderNumber))
		}
	}

	return s.orderRepo.Delete(ctx, o.ID)
}

// mutate loads an order, applies fn, saves with optimistic locking and publishes pending events
func (s *Service) mutate(ctx context.Context, orderID uuid.UUID, fn func(*order.Order) error) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := fn(o); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	s.publish(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// publish delivers pending events after a successful save. The write already
// happened, so delivery failures are logged rather than returned.
func (s *Service) publish(ctx context.Context, o *order.Order) {
	if err := shared.PublishAndClear(ctx, s.eventPublisher, o); err != nil {
		s.logger.Warn("failed to publish order events",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
	}
}
