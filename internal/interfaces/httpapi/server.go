package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"pricehub/internal/application/usecase/broadcast"
	"pricehub/internal/domain"
)

// Core is the part of the application the HTTP surface drives.
type Core interface {
	GetLatestSnapshot(ctx context.Context) *domain.Snapshot
	StartPeriodicUpdates(ctx context.Context, interval time.Duration) bool
}

type Deps struct {
	Core      Core
	Formatter *broadcast.Formatter
	// WS serves the websocket upgrade at WSPath.
	WS             http.Handler
	WSPath         string
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	Service        string
	// RunCtx bounds the periodic updates started over HTTP; it outlives any request.
	RunCtx         context.Context
	UpdateInterval time.Duration
	RefreshTimeout time.Duration
	Now            func() time.Time
}

type Server struct {
	router *gin.Engine
	deps   Deps
}

func NewServer(deps Deps) *Server {
	if deps.Formatter == nil {
		deps.Formatter = broadcast.NewFormatter(domain.DefaultPriority())
	}
	if deps.WSPath == "" {
		deps.WSPath = "/ws"
	}
	if deps.Service == "" {
		deps.Service = "pricehub"
	}
	if deps.RunCtx == nil {
		deps.RunCtx = context.Background()
	}
	if deps.UpdateInterval <= 0 {
		deps.UpdateInterval = 10 * time.Second
	}
	if deps.RefreshTimeout <= 0 {
		deps.RefreshTimeout = 30 * time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	s := &Server{router: router, deps: deps}
	s.registerRoutes()
	return s
}

// Router returns the internal Gin engine for testing purposes
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.health)

		crypto := api.Group("/crypto")
		{
			crypto.GET("/prices", s.prices)
			crypto.POST("/start-updates", s.startUpdates)
		}
	}

	if s.deps.Gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}
	if s.deps.WS != nil {
		s.router.GET(s.deps.WSPath, gin.WrapH(s.deps.WS))
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Str("remote", c.ClientIP()).
			Msg("http request")
	}
}
