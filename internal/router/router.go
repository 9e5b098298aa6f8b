package router

import (
	"github.com/gin-gonic/gin"

	"github.com/medhaven/hospital-api/internal/handler"
	"github.com/medhaven/hospital-api/internal/middleware"
)

// Handler registers a group of routes under the API root.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitRPS float64
	RateBurst    int
	CORSConfig   middleware.CORSConfig
	SizeLimit    middleware.SizeLimitConfig
}

func DefaultConfig() Config {
	return Config{
		RateLimitRPS: 50,
		RateBurst:    100,
		CORSConfig:   middleware.DefaultCORSConfig(),
		SizeLimit:    middleware.DefaultSizeLimitConfig(),
	}
}

type Router struct {
	engine *gin.Engine
}

// NewRouter assembles the gin engine: middleware chain, operational
// endpoints and every handler's routes under /api/v1.
func NewRouter(cfg Config, h *handler.Handler, handlers ...Handler) (*Router, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := registerValidations(); err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.CORSConfig),
		middleware.SizeLimit(cfg.SizeLimit),
		middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateBurst).RateLimit(),
	)

	engine.GET("/health/live", h.LivenessCheck)
	engine.GET("/health/ready", h.ReadinessCheck)
	engine.GET("/metrics", h.MetricsHandler)

	api := engine.Group("/api/v1")
	for _, hh := range handlers {
		hh.RegisterRoutes(api)
	}

	return &Router{engine: engine}, nil
}

// Engine exposes the underlying gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
