package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	orderapp "github.com/exportexpress/backoffice/internal/application/order"
	paymentapp "github.com/exportexpress/backoffice/internal/application/payment"
	shipmentapp "github.com/exportexpress/backoffice/internal/application/shipment"
	"github.com/exportexpress/backoffice/internal/interfaces/http/handler"
	"github.com/exportexpress/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.groups)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	group := NewDomainGroup("ping", "/ping").
		Use(func(c *gin.Context) {
			c.Header("X-Group", "ping")
			c.Next()
		}).
		GET("", func(c *gin.Context) { c.String(http.StatusOK, "pong") }).
		DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Register(group).Setup(func(c *gin.Context) {
		c.Header("X-Api", "yes")
		c.Next()
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "ping", w.Header().Get("X-Group"))
	assert.Equal(t, "yes", w.Header().Get("X-Api"))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v2/ping/7", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, "ping", group.Name())
	assert.Equal(t, "/ping", group.Prefix())
	assert.Len(t, group.Routes(), 2)
	assert.Equal(t, []string{"GET /api/v2/ping", "DELETE /api/v2/ping/:id"}, r.Routes())
}

func newTestEngine(t *testing.T, cfg Config) *gin.Engine {
	t.Helper()
	// Services have no repositories: only routes rejected before reaching them are exercised.
	h := Handlers{
		Orders:    handler.NewOrderHandler(orderapp.NewService(nil, nil, nil, nil, nil, nil)),
		Payments:  handler.NewPaymentHandler(paymentapp.NewService(nil, nil, nil, nil, nil)),
		Shipments: handler.NewShipmentHandler(shipmentapp.NewService(nil, nil, nil, nil, nil)),
		System:    handler.NewSystemHandler("test", nil),
	}
	engine, err := New(cfg, h)
	require.NoError(t, err)
	return engine
}

func TestNew_SystemRoutes(t *testing.T) {
	engine := newTestEngine(t, Config{})

	for _, path := range []string{"/health", "/ready", "/api/v1/system/info"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader), path)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"), path)
	}
}

func TestNew_RoutesRegistered(t *testing.T) {
	engine := newTestEngine(t, Config{})

	routes := map[string]bool{}
	for _, ri := range engine.Routes() {
		routes[ri.Method+" "+ri.Path] = true
	}

	for _, want := range []string{
		"POST /api/v1/orders",
		"GET /api/v1/orders/stats",
		"POST /api/v1/orders/:id/status",
		"GET /api/v1/orders/:id/payments",
		"GET /api/v1/orders/:id/shipment",
		"POST /api/v1/payments/flows",
		"POST /api/v1/payments/:id/escrow/release",
		"POST /api/v1/payments/:id/refund",
		"POST /api/v1/shipments/:id/tracking",
		"POST /api/v1/shipments/:id/documents/:document_id/verify",
		"GET /track/:code",
	} {
		assert.True(t, routes[want], want)
	}
}

func TestNew_InvalidIDRejected(t *testing.T) {
	engine := newTestEngine(t, Config{})

	for _, path := range []string{"/api/v1/orders/not-a-uuid", "/api/v1/payments/x", "/api/v1/shipments/x/timeline"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestNew_ActorRequired(t *testing.T) {
	engine := newTestEngine(t, Config{Actor: middleware.ActorConfig{Required: true}})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// probes stay outside the authenticated group
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_PublicTrackingRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	engine := newTestEngine(t, Config{PublicLimiter: limiter})

	req := httptest.NewRequest(http.MethodGet, "/track/SHP-1", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	allowed, _ := limiter.Allow("203.0.113.9")
	require.True(t, allowed)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestNew_BodyLimit(t *testing.T) {
	engine := newTestEngine(t, Config{MaxBodySize: 8})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", http.NoBody)
	req.ContentLength = 64
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
