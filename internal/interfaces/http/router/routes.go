package router

import (
	"github.com/exportexpress/backoffice/internal/infrastructure/logger"
	"github.com/exportexpress/backoffice/internal/interfaces/http/handler"
	"github.com/exportexpress/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP handlers mounted by New
type Handlers struct {
	Orders    *handler.OrderHandler
	Payments  *handler.PaymentHandler
	Shipments *handler.ShipmentHandler
	System    *handler.SystemHandler
}

// Config controls the middleware chain
type Config struct {
	Logger         *zap.Logger
	ServiceName    string
	TracingEnabled bool
	TracerProvider trace.TracerProvider
	// Meter feeds HTTP request metrics; nil disables them
	Meter          metric.Meter
	Actor          middleware.ActorConfig
	CORSOrigins    []string
	MaxBodySize    int64
	TrustedProxies []string
	// PublicLimiter throttles the unauthenticated tracking endpoint; nil disables it
	PublicLimiter *middleware.RateLimiter
}

// New builds the gin engine with every backoffice route
func New(cfg Config, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	httpMetrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSOrigins

	engine.Use(
		middleware.Tracing(middleware.TracingConfig{
			ServiceName:    cfg.ServiceName,
			Enabled:        cfg.TracingEnabled,
			TracerProvider: cfg.TracerProvider,
		}),
		middleware.RequestID(),
		logger.RequestLogger(log),
		logger.Recovery(log),
		httpMetrics,
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(cfg.MaxBodySize),
	)

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	public := engine.Group("/track")
	if cfg.PublicLimiter != nil {
		public.Use(middleware.RateLimit(cfg.PublicLimiter))
	}
	public.GET("/:code", h.Shipments.LiveTracking)

	r := NewRouter(engine)
	r.Register(
		SystemRoutes(h.System),
		OrderRoutes(h.Orders, h.Payments, h.Shipments),
		PaymentRoutes(h.Payments),
		ShipmentRoutes(h.Shipments),
	)
	r.Setup(middleware.Actor(cfg.Actor), middleware.SpanEnricher())
	log.Debug("API routes mounted", zap.Strings("routes", r.Routes()))

	return engine, nil
}

// SystemRoutes mounts /system
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/info", h.Info)
}

// OrderRoutes mounts /orders, including the order-scoped payment and shipment views
func OrderRoutes(orders *handler.OrderHandler, payments *handler.PaymentHandler, shipments *handler.ShipmentHandler) *DomainGroup {
	return NewDomainGroup("orders", "/orders").
		POST("", orders.Create).
		GET("", orders.List).
		GET("/stats", orders.Stats).
		POST("/bulk/status", orders.BulkUpdateStatus).
		GET("/number/:number", orders.GetByNumber).
		GET("/:id", orders.GetByID).
		DELETE("/:id", orders.Delete).
		POST("/:id/items", orders.AddItem).
		PUT("/:id/items/:item_id", orders.UpdateItemQuantity).
		DELETE("/:id/items/:item_id", orders.RemoveItem).
		PUT("/:id/items/:item_id/status", orders.UpdateItemStatus).
		PUT("/:id/charges", orders.SetCharges).
		POST("/:id/status", orders.TransitionStatus).
		PUT("/:id/payment-status", orders.UpdatePaymentStatus).
		GET("/:id/payments", payments.ListByOrder).
		GET("/:id/shipment", shipments.GetByOrder)
}

// PaymentRoutes mounts /payments
func PaymentRoutes(h *handler.PaymentHandler) *DomainGroup {
	return NewDomainGroup("payments", "/payments").
		POST("/flows", h.GenerateFlow).
		GET("", h.List).
		GET("/analytics", h.Analytics).
		POST("/bulk/status", h.BulkTransition).
		GET("/code/:code", h.GetByCode).
		GET("/:id", h.GetByID).
		POST("/:id/status", h.TransitionStatus).
		POST("/:id/escrow/release", h.ReleaseEscrow).
		POST("/:id/payouts", h.ReleaseVendorPayouts).
		POST("/:id/refund", h.ProcessRefund)
}

// ShipmentRoutes mounts /shipments
func ShipmentRoutes(h *handler.ShipmentHandler) *DomainGroup {
	return NewDomainGroup("shipments", "/shipments").
		POST("", h.Create).
		GET("", h.List).
		GET("/analytics", h.Analytics).
		GET("/code/:code", h.GetByCode).
		GET("/:id", h.GetByID).
		POST("/:id/tracking", h.AppendTrackingUpdate).
		GET("/:id/timeline", h.Timeline).
		GET("/:id/compliance", h.Compliance).
		POST("/:id/stakeholders", h.AddStakeholder).
		POST("/:id/documents/upload-url", h.RequestDocumentUpload).
		POST("/:id/documents", h.UploadDocument).
		GET("/:id/documents/:document_id/download-url", h.DocumentDownloadURL).
		POST("/:id/documents/:document_id/verify", h.VerifyDocument)
}
