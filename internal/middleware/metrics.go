package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveWebSockets tracks the number of open websocket connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pronet_active_websockets",
		Help: "Number of currently open websocket connections",
	})

	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronet_redis_errors_total",
		Help: "Total Redis command errors",
	}, []string{"command"})

	// RealtimeEventsPublished counts realtime events published, by event type.
	RealtimeEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronet_realtime_events_published_total",
		Help: "Total realtime change events published",
	}, []string{"event"})

	// WebSocketDrops counts messages dropped on the client send path, by reason.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronet_websocket_drops_total",
		Help: "Total websocket messages dropped due to backpressure or closed clients",
	}, []string{"reason"})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
