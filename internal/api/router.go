package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/busnap/tracking-bridge/internal/api/handler"
	"github.com/busnap/tracking-bridge/internal/api/middleware"
	"github.com/busnap/tracking-bridge/internal/core/ports"
)

// Dependencies are the collaborators the router wires into handlers.
// Mongo, Redis, Sessions and Ingester are optional.
type Dependencies struct {
	Gateway  ports.CommandGateway
	Tracking ports.TrackingService
	Relay    ports.EventRelay
	Sessions ports.SessionRepository
	Ingester handler.FixIngester

	Mongo *mongo.Database
	Redis *redis.Client

	// Registry receives the HTTP metrics and backs /metrics. Defaults to
	// the global Prometheus registry, which also holds the tracking metrics.
	Registry *prometheus.Registry

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsConfig(deps.Registry)))

	// --- Channels ---
	commands := handler.NewCommandHandler(deps.Gateway)
	events := handler.NewEventStreamHandler(deps.Relay, deps.Log.With().Str("component", "event_channel").Logger())

	e.POST("/v1/channels/location_service/:method", commands.Invoke)
	e.GET("/v1/channels/location_events", events.Stream)
	e.DELETE("/v1/channels/location_events/listener", events.Cancel)

	// --- Tracking views ---
	tracking := handler.NewTrackingHandler(deps.Tracking, deps.Relay, deps.Sessions)
	e.GET("/v1/tracking/status", tracking.Status)
	e.GET("/v1/tracking/sessions", tracking.Sessions)

	// --- Push provider ingest ---
	if deps.Ingester != nil {
		ingest := handler.NewIngestHandler(deps.Ingester)
		e.POST("/v1/provider/fixes", ingest.Receive)
	}

	// --- Health probes ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", metricsHandler(deps.Registry))

	return e
}

func metricsConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "tracking",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
