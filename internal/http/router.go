package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sweetshop/api/internal/auth"
	"github.com/sweetshop/api/internal/config"
	"github.com/sweetshop/api/internal/domain/user"
	"github.com/sweetshop/api/internal/http/handlers"
	"github.com/sweetshop/api/internal/http/middlewares"
	"github.com/sweetshop/api/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps carries everything the router needs, wired up in main.
type Deps struct {
	Cfg config.Config
	Log *slog.Logger

	JWT       *auth.Manager
	Identity  handlers.Identity
	Inventory handlers.Inventory
	Guard     middlewares.RoleGuard

	Prom  *observability.Prom
	Redis *redis.Client

	DBPing    func() error
	RedisPing func() error
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("sweetshop-api"))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// health

	health := handlers.NewHealthHandler(d.DBPing, d.RedisPing)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	// credential endpoints get a tighter limit than the rest of the API;
	// shared redis window when available, per-process otherwise
	authLimit := rateLimiterFor(d)

	authHandler := handlers.NewAuthHandler(d.Identity, d.JWT)

	authGroup := r.Group("/auth")
	authGroup.Use(authLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	sweetsHandler := handlers.NewSweetsHandler(d.Inventory)
	authn := middlewares.NewAuthMiddleware(d.JWT)
	requireAdmin := authn.RequireRole(d.Guard, user.RoleAdmin)

	// reads are open, mutations are gated
	r.GET("/sweets", sweetsHandler.ListSweets)
	r.GET("/sweets/search", sweetsHandler.SearchSweets)
	r.GET("/sweets/:id", sweetsHandler.GetSweetByID)

	protected := r.Group("/sweets")
	protected.Use(authn.RequireAuth())
	{
		protected.POST("", requireAdmin, sweetsHandler.CreateSweet)
		protected.PUT("/:id", requireAdmin, sweetsHandler.UpdateSweet)
		protected.DELETE("/:id", requireAdmin, sweetsHandler.DeleteSweet)
		protected.POST("/:id/purchase", sweetsHandler.PurchaseSweet)
		protected.POST("/:id/restock", requireAdmin, sweetsHandler.RestockSweet)
	}

	return r
}

func rateLimiterFor(d Deps) gin.HandlerFunc {
	limit := d.Cfg.AuthRatePerMinute

	if limit <= 0 {
		limit = 20
	}

	if d.Redis != nil {
		return middlewares.NewRedisRateLimiter(d.Redis, limit, time.Minute).
			RateLimiterMiddleware(middlewares.KeyByIP)
	}

	return middlewares.NewRateLimiter(limit, time.Minute).
		RateLimiterMiddleware(middlewares.KeyByIP)
}
