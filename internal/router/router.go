package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/medrelay/telemed-api/internal/handler"
	chatHandler "github.com/medrelay/telemed-api/internal/handler/chat"
	sessionHandler "github.com/medrelay/telemed-api/internal/handler/session"
	signalingHandler "github.com/medrelay/telemed-api/internal/handler/signaling"
	"github.com/medrelay/telemed-api/internal/middleware"
	"github.com/medrelay/telemed-api/pkg/metrics"
)

type Config struct {
	RateLimit rate.Limit
	RateBurst int
	Timeout   time.Duration
	CORS      middleware.CORSConfig
}

func DefaultConfig() Config {
	return Config{
		RateLimit: 100,
		RateBurst: 200,
		Timeout:   30 * time.Second,
		CORS:      middleware.DefaultCORSConfig(),
	}
}

type Router struct {
	engine     *gin.Engine
	auth       *middleware.AuthMiddleware
	sessionH   *sessionHandler.Handler
	chatH      *chatHandler.Handler
	signalingH *signalingHandler.Handler
	healthH    *handler.HealthHandler
	metrics    *metrics.Metrics
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	sessionH *sessionHandler.Handler,
	chatH *chatHandler.Handler,
	signalingH *signalingHandler.Handler,
	healthH *handler.HealthHandler,
	m *metrics.Metrics,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:     engine,
		auth:       auth,
		sessionH:   sessionH,
		chatH:      chatH,
		signalingH: signalingH,
		healthH:    healthH,
		metrics:    m,
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.CORS(config.CORS),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/health", r.healthH.Health)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	// Signaling stays outside auth: link-join patients carry no token.
	r.signalingH.RegisterRoutes(api)

	authed := api.Group("")
	authed.Use(r.auth.Authenticate())
	r.sessionH.RegisterRoutes(authed)
	r.chatH.RegisterRoutes(authed)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		r.metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
