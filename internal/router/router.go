package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eventops/backoffice-api/internal/handler"
	authHandler "github.com/eventops/backoffice-api/internal/handler/auth"
	eventHandler "github.com/eventops/backoffice-api/internal/handler/event"
	eventServiceHandler "github.com/eventops/backoffice-api/internal/handler/eventservice"
	hookHandler "github.com/eventops/backoffice-api/internal/handler/hook"
	notificationHandler "github.com/eventops/backoffice-api/internal/handler/notification"
	paymentHandler "github.com/eventops/backoffice-api/internal/handler/payment"
	pendingHandler "github.com/eventops/backoffice-api/internal/handler/pending"
	quoteHandler "github.com/eventops/backoffice-api/internal/handler/quote"
	scanHandler "github.com/eventops/backoffice-api/internal/handler/scan"
	supplierHandler "github.com/eventops/backoffice-api/internal/handler/supplier"
	templateHandler "github.com/eventops/backoffice-api/internal/handler/template"
	userHandler "github.com/eventops/backoffice-api/internal/handler/user"
	"github.com/eventops/backoffice-api/internal/middleware"
	"github.com/eventops/backoffice-api/pkg/event"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth          *authHandler.Handler
	Events        *eventHandler.Handler
	Suppliers     *supplierHandler.Handler
	EventServices *eventServiceHandler.Handler
	Payments      *paymentHandler.Handler
	Quotes        *quoteHandler.Handler
	Users         *userHandler.Handler
	Templates     *templateHandler.Handler
	Notifications *notificationHandler.Handler
	Pending       *pendingHandler.Handler
	Scans         *scanHandler.Handler
	Hooks         *hookHandler.Handler
	Base          *handler.Handler
}

type Config struct {
	RateLimitRPS  int
	CORS          middleware.CORSConfig
	MetricsPrefix string
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	tracker  *event.TrackerMiddleware
	handlers Handlers
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	tracker *event.TrackerMiddleware,
	handlers Handlers,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		tracker:  tracker,
		handlers: handlers,
		metrics:  initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.DefaultTimeoutConfig()),
		middleware.RequestID(),
	)
	engine.Use(middleware.CORS(config.CORS))

	if config.RateLimitRPS > 0 {
		rateLimiter := middleware.NewRateLimiter(config.RateLimitRPS, time.Second)
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)

	// Public routes: login plus the entity-change hook posted by peer
	// systems.
	r.handlers.Auth.RegisterRoutes(api)
	r.handlers.Hooks.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.handlers.Base.LivenessCheck)
		health.GET("/ready", r.handlers.Base.ReadinessCheck)
		health.GET("/metrics", r.handlers.Base.MetricsHandler)
	}
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.handlers.Events.RegisterRoutes(rg, r.tracker)
	r.handlers.Suppliers.RegisterRoutes(rg, r.tracker)
	r.handlers.EventServices.RegisterRoutes(rg, r.tracker)
	r.handlers.Payments.RegisterRoutes(rg)
	r.handlers.Quotes.RegisterRoutes(rg)
	r.handlers.Users.RegisterRoutes(rg)
	r.handlers.Templates.RegisterRoutes(rg)
	r.handlers.Notifications.RegisterRoutes(rg)
	r.handlers.Pending.RegisterRoutes(rg)
	r.handlers.Scans.RegisterRoutes(rg)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	if prefix == "" {
		prefix = "backoffice_http"
	}
	return &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
