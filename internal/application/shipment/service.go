package shipment

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/order"
	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/domain/shipment"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultUploadURLExpiry is the validity of presigned document upload URLs
	DefaultUploadURLExpiry = 15 * time.Minute
	// DefaultDownloadURLExpiry is the validity of presigned document download URLs
	DefaultDownloadURLExpiry = time.Hour
)

// DocumentStorage presigns access to shipment document files held in object storage
type DocumentStorage interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// Service handles shipment tracking operations
type Service struct {
	shipmentRepo   shipment.Repository
	orderRepo      order.Repository
	sequences      shared.SequenceReserver
	clock          shared.Clock
	storage        DocumentStorage
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new shipment Service
func NewService(
	shipmentRepo shipment.Repository,
	orderRepo order.Repository,
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
		shipmentRepo: shipmentRepo,
		orderRepo:    orderRepo,
		sequences:    sequences,
		clock:        clock,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetDocumentStorage enables presigned document URLs and upload checks
func (s *Service) SetDocumentStorage(storage DocumentStorage) {
	s.storage = storage
}

// Create creates the shipment of an order. Each order has at most one shipment.
func (s *Service) Create(ctx context.Context, actor string, req CreateShipmentRequest) (*ShipmentResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	exists, err := s.shipmentRepo.ExistsForOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists,
			fmt.Sprintf("order %s already has a shipment", o.OrderNumber))
	}

	now := s.clock.Now()
	code, err := shared.NextCode(ctx, s.sequences, shared.SequenceShipment, shipment.CodePrefix, shipment.CodeWidth, now)
	if err != nil {
		return nil, err
	}

	sh, err := shipment.NewShipment(o, shipment.CreateInput{
		ShipmentCode:   code,
		TrackingNumber: req.TrackingNumber,
		Origin:         req.Origin,
		Destination:    req.Destination,
		TransitPorts:   req.TransitPorts,
		TransportMode:  shipment.TransportMode(req.TransportMode),
		CarrierName:    req.CarrierName,
		Cargo: shipment.Cargo{
			WeightKg:       req.Cargo.WeightKg,
			VolumeM3:       req.Cargo.VolumeM3,
			PackageCount:   req.Cargo.PackageCount,
			Description:    req.Cargo.Description,
			HSCode:         req.Cargo.HSCode,
			DangerousGoods: req.Cargo.DangerousGoods,
			InsuranceValue: req.Cargo.InsuranceValue,
		},
		ShippingCost:  req.ShippingCost,
		CustomsDuties: req.CustomsDuties,
		Notes:         req.Notes,
		Actor:         actor,
		At:            now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.shipmentRepo.Save(ctx, sh); err != nil {
		return nil, err
	}
	s.publish(ctx, sh)

	s.logger.Info("shipment created",
		zap.String("shipment_code", sh.ShipmentCode),
		zap.String("order_number", o.OrderNumber),
		zap.String("transport_mode", string(sh.TransportMode)),
		zap.Time("estimated_delivery", sh.EstimatedDeliveryDate))

	resp := ToShipmentResponse(sh, now)
	return &resp, nil
}

// GetByID retrieves a shipment by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*ShipmentResponse, error) {
	sh, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToShipmentResponse(sh, s.clock.Now())
	return &resp, nil
}

// GetByCode retrieves a shipment by shipment code or tracking number
func (s *Service) GetByCode(ctx context.Context, code string) (*ShipmentResponse, error) {
	sh, err := s.shipmentRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	resp := ToShipmentResponse(sh, s.clock.Now())
	return &resp, nil
}

// GetByOrder retrieves the shipment of an order
func (s *Service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*ShipmentResponse, error) {
	sh, err := s.shipmentRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToShipmentResponse(sh, s.clock.Now())
	return &resp, nil
}

// List retrieves shipments with filtering and pagination
func (s *Service) List(ctx context.Context, filter ListFilter) (*shared.Paginated[ShipmentResponse], error) {
	domainFilter := filter.toDomain()
	shipments, err := s.shipmentRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.shipmentRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToShipmentResponses(shipments, s.clock.Now()), total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// Analytics aggregates the shipments matching filter
func (s *Service) Analytics(ctx context.Context, filter ListFilter) (*shipment.Analytics, error) {
	shipments, err := s.shipmentRepo.FindForAnalytics(ctx, filter.toDomain())
	if err != nil {
		return nil, err
	}
	a := shipment.ComputeAnalytics(shipments, s.clock.Now())
	return &a, nil
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
	}.Normalize()

	if f.OrderID != nil {
		filter.Filters["order_id"] = *f.OrderID
	}
	if f.Phase != "" {
		filter.Filters["phase"] = f.Phase
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.TransportMode != "" {
		filter.Filters["transport_mode"] = f.TransportMode
	}
	if f.Country != "" {
		filter.Filters["country"] = f.Country
	}
	return filter
}

// AppendTrackingUpdate records a tracking update on a shipment
func (s *Service) AppendTrackingUpdate(ctx context.Context, actor string, id uuid.UUID, req TrackingUpdateRequest) (*ShipmentResponse, error) {
	now := s.clock.Now()
	sh, err := s.mutate(ctx, id, func(sh *shipment.Shipment) error {
		_, err := sh.AppendTrackingUpdate(shipment.TrackingInput{
			Phase:                 shipment.Phase(req.Phase),
			Status:                shipment.Status(req.Status),
			Location:              req.Location,
			Description:           req.Description,
			Actor:                 actor,
			EstimatedNextUpdate:   req.EstimatedNextUpdate,
			ExpectedDurationHours: req.ExpectedDurationHours,
			IsException:           req.IsException,
			ExceptionReason:       req.ExceptionReason,
			At:                    now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("shipment_code", sh.ShipmentCode),
		zap.String("phase", string(sh.CurrentPhase)),
		zap.String("status", string(sh.CurrentStatus)),
	}
	if req.IsException {
		s.logger.Warn("shipment exception recorded", append(fields, zap.String("reason", req.ExceptionReason))...)
	} else {
		s.logger.Info("shipment tracking updated", fields...)
	}

	resp := ToShipmentResponse(sh, now)
	return &resp, nil
}

// Timeline rebuilds the shipment state from its tracking log and reports whether
// it matches the stored state
func (s *Service) Timeline(ctx context.Context, id uuid.UUID) (*TimelineResponse, error) {
	sh, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tl, err := shipment.Replay(sh.TrackingUpdates)
	if err != nil {
		return nil, err
	}

	consistent := tl.CurrentPhase == sh.CurrentPhase && tl.CurrentStatus == sh.CurrentStatus
	for i := range tl.Phases {
		if !samePhaseTiming(tl.Phases[i], sh.Phases[i]) {
			consistent = false
		}
	}
	if !consistent {
		s.logger.Warn("shipment state diverges from its tracking log",
			zap.String("shipment_code", sh.ShipmentCode),
			zap.String("stored_status", string(sh.CurrentStatus)),
			zap.String("replayed_status", string(tl.CurrentStatus)))
	}

	return &TimelineResponse{
		ShipmentCode:  sh.ShipmentCode,
		CurrentPhase:  string(tl.CurrentPhase),
		CurrentStatus: string(tl.CurrentStatus),
		Phases:        tl.Phases[:],
		Consistent:    consistent,
	}, nil
}

func samePhaseTiming(a, b shipment.PhaseTiming) bool {
	return a.Phase == b.Phase && a.Status == b.Status &&
		sameTime(a.StartDate, b.StartDate) && sameTime(a.EndDate, b.EndDate)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// RequestDocumentUpload reserves a storage key for a document file and presigns its upload
func (s *Service) RequestDocumentUpload(ctx context.Context, id uuid.UUID, req DocumentUploadURLRequest) (*DocumentUploadURLResponse, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "document storage is not configured")
	}
	if !shipment.DocumentType(req.Type).IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("invalid document type %q", req.Type))
	}
	sh, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := documentKey(sh.ShipmentCode, req.Type, req.FileName)
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, req.ContentType, DefaultUploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign document upload: %w", err)
	}
	return &DocumentUploadURLResponse{FileRef: key, UploadURL: url, ExpiresAt: expiresAt}, nil
}

func documentKey(shipmentCode, docType, fileName string) string {
	name := strings.ReplaceAll(path.Base(fileName), " ", "_")
	return fmt.Sprintf("shipments/%s/%s/%s-%s", shipmentCode, strings.ToLower(docType), uuid.NewString(), name)
}

// UploadDocument records an uploaded document. When document storage is configured,
// the referenced object must exist.
func (s *Service) UploadDocument(ctx context.Context, actor string, id uuid.UUID, req UploadDocumentRequest) (*shipment.Document, error) {
	if s.storage != nil {
		ok, err := s.storage.ObjectExists(ctx, req.FileRef)
		if err != nil {
			return nil, fmt.Errorf("check document object: %w", err)
		}
		if !ok {
			return nil, shared.NewValidationError(fmt.Sprintf("document file %s has not been uploaded", req.FileRef))
		}
	}

	var doc shipment.Document
	_, err := s.mutate(ctx, id, func(sh *shipment.Shipment) error {
		d, err := sh.UploadDocument(shipment.DocumentInput{
			Type:           shipment.DocumentType(req.Type),
			Phase:          shipment.Phase(req.Phase),
			FileName:       req.FileName,
			FileRef:        req.FileRef,
			DocumentNumber: req.DocumentNumber,
			IssuedBy:       req.IssuedBy,
			ExpiryDate:     req.ExpiryDate,
			Actor:          actor,
			At:             s.clock.Now(),
		})
		if err != nil {
			return err
		}
		doc = *d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DocumentDownloadURL presigns a download link for a shipment document
func (s *Service) DocumentDownloadURL(ctx context.Context, id, documentID uuid.UUID) (*DocumentDownloadURLResponse, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "document storage is not configured")
	}
	sh, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	doc := sh.GetDocument(documentID)
	if doc == nil {
		return nil, shared.NewNotFoundError("document", documentID)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, doc.FileRef, DefaultDownloadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign document download: %w", err)
	}
	return &DocumentDownloadURLResponse{DocumentID: doc.ID, DownloadURL: url, ExpiresAt: expiresAt}, nil
}

// VerifyDocument records a verification decision on a shipment document
func (s *Service) VerifyDocument(ctx context.Context, actor string, id, documentID uuid.UUID, req VerifyDocumentRequest) (*shipment.Document, error) {
	var doc shipment.Document
	_, err := s.mutate(ctx, id, func(sh *shipment.Shipment) error {
		d, err := sh.VerifyDocument(documentID, req.Verified, actor, req.Notes, s.clock.Now())
		if err != nil {
			return err
		}
		doc = *d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Compliance lists missing documents and delays per phase plus expired documents
func (s *Service) Compliance(ctx context.Context, id uuid.UUID) (*ComplianceResponse, error) {
	sh, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	delayed := make(map[shipment.Phase]bool)
	for _, p := range sh.DelayedPhases(now) {
		delayed[p] = true
	}

	resp := &ComplianceResponse{
		ShipmentCode:     sh.ShipmentCode,
		Phases:           make([]PhaseCompliance, 0, shipment.PhaseCount),
		ExpiredDocuments: sh.ExpiredDocuments(now),
	}
	for _, pt := range sh.Phases {
		missing := sh.MissingDocuments(pt.Phase)
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = string(m)
		}
		resp.Phases = append(resp.Phases, PhaseCompliance{
			Phase:            string(pt.Phase),
			Status:           string(pt.Status),
			MissingDocuments: names,
			Delayed:          delayed[pt.Phase],
		})
	}
	return resp, nil
}

// AddStakeholder adds a party to a shipment
func (s *Service) AddStakeholder(ctx context.Context, actor string, id uuid.UUID, req StakeholderRequest) (*ShipmentResponse, error) {
	phases := make([]shipment.Phase, len(req.Phases))
	for i, p := range req.Phases {
		phases[i] = shipment.Phase(p)
	}
	sh, err := s.mutate(ctx, id, func(sh *shipment.Shipment) error {
		return sh.AddStakeholder(shipment.Stakeholder{
			Type:    shipment.StakeholderType(req.Type),
			Role:    req.Role,
			Name:    req.Name,
			Company: req.Company,
			Email:   req.Email,
			Phone:   req.Phone,
			Phases:  phases,
		}, actor)
	})
	if err != nil {
		return nil, err
	}
	resp := ToShipmentResponse(sh, s.clock.Now())
	return &resp, nil
}

// LiveTracking returns the customer-facing view of a shipment looked up by
// shipment code or tracking number
func (s *Service) LiveTracking(ctx context.Context, code string) (*shipment.PublicView, error) {
	sh, err := s.shipmentRepo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	view := sh.PublicView(s.clock.Now())
	return &view, nil
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*shipment.Shipment) error) (*shipment.Shipment, error) {
	sh, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sh); err != nil {
		return nil, err
	}
	if err := s.shipmentRepo.SaveWithLock(ctx, sh); err != nil {
		return nil, err
	}
	s.publish(ctx, sh)
	return sh, nil
}

func (s *Service) publish(ctx context.Context, sh *shipment.Shipment) {
	if err := shared.PublishAndClear(ctx, s.eventPublisher, sh); err != nil {
		s.logger.Warn("failed to publish shipment events",
			zap.String("shipment", sh.ShipmentCode),
			zap.Error(err))
	}
}
