package handlers

import (
	"net/http"
	"time"

	"one-os/configs"
	"one-os/docs"
	"one-os/internal/cache"
	"one-os/internal/database"
	"one-os/internal/logger"
	"one-os/internal/middleware"
	"one-os/internal/observability"
	"one-os/internal/realtime"
	"one-os/internal/scoring"
	"one-os/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterConfig struct {
	Config *configs.Config
	DB     *database.DBManager
	Cache  *cache.CacheManager
	Bus    realtime.Bus
	Auth   *services.AuthService
	// WS is nil when websockets are disabled.
	WS  *WebSocketHandler
	Log *logger.Logger
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(rc RouterConfig) *gin.Engine {
	cfg := rc.Config
	scorer := scoring.Scorer{ClampConversion: cfg.ClampConversion}

	authHandler := NewAuthHandler(rc.Auth, rc.DB.WriteDB, rc.Log)
	clientHandler := NewClientHandler(rc.DB, rc.Cache, rc.Bus, scorer, cfg.CacheTTL, rc.Log)
	growthHandler := NewGrowthHandler(rc.DB, rc.Bus, scorer, rc.Log)
	productionHandler := NewProductionHandler(rc.DB, rc.Bus, rc.Log)
	eosHandler := NewEOSHandler(rc.DB, rc.Cache, rc.Bus, cfg.CacheTTL, rc.Log)

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.OtelEnabled {
		router.Use(otelgin.Middleware(observability.ServiceName))
	}
	router.Use(middleware.RequestID(rc.Log))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.ValidationMiddleware())

	router.GET("/health", func(c *gin.Context) {
		status, state, dbState := http.StatusOK, "healthy", "connected"
		if err := rc.DB.Ping(); err != nil {
			status, state, dbState = http.StatusServiceUnavailable, "degraded", "unavailable"
		}
		redisState := "local_cache_only"
		if rc.Cache.IsAvailable() {
			redisState = "connected"
		}
		deps := gin.H{"database": dbState, "redis": redisState, "cache": "active"}
		if rc.WS != nil {
			deps["websocket_clients"] = rc.WS.Clients()
		}
		c.JSON(status, gin.H{
			"status":    state,
			"timestamp": time.Now().Unix(),
			"services":  deps,
		})
	})
	router.GET("/swagger/doc.json", func(c *gin.Context) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			respondError(c, http.StatusInternalServerError, "API description unavailable")
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	})

	// Public routes
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	// Protected routes
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(rc.Auth))
	protected.Use(middleware.RateLimitMiddleware(rc.Cache, cfg.RateLimitPerHour, rc.Log))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)

	protected.GET("/clients", clientHandler.ListClients)
	protected.POST("/clients", clientHandler.CreateClient)
	protected.GET("/clients/counts", clientHandler.ClientCounts)
	protected.GET("/clients/utilization", clientHandler.ClientUtilization)
	protected.GET("/clients/:id", clientHandler.GetClient)
	protected.PUT("/clients/:id", clientHandler.UpdateClient)
	protected.POST("/clients/:id/archive", clientHandler.ArchiveClient)
	protected.GET("/clients/:id/growth-metrics", growthHandler.ListGrowthMetrics)
	protected.POST("/clients/:id/growth-metrics", growthHandler.CreateGrowthMetrics)
	protected.POST("/scoring/health", growthHandler.ScoreHealth)

	protected.GET("/videos", productionHandler.ListVideos)
	protected.POST("/videos", productionHandler.CreateVideo)
	protected.PUT("/videos/:id/stage", productionHandler.UpdateVideoStage)
	protected.GET("/campaigns", productionHandler.ListCampaigns)
	protected.POST("/campaigns", productionHandler.CreateCampaign)
	protected.GET("/campaigns/:id", productionHandler.GetCampaign)

	protected.GET("/kpis", eosHandler.ListKPIs)
	protected.POST("/kpis", eosHandler.CreateKPI)
	protected.PUT("/kpis/:id/values", eosHandler.UpsertKPIValue)
	protected.GET("/scorecard", eosHandler.Scorecard)
	protected.GET("/rocks", eosHandler.ListRocks)
	protected.POST("/rocks", eosHandler.CreateRock)
	protected.PUT("/rocks/:id/status", eosHandler.UpdateRockStatus)
	protected.GET("/issues", eosHandler.ListIssues)
	protected.POST("/issues", eosHandler.CreateIssue)
	protected.POST("/issues/:id/solve", eosHandler.SolveIssue)

	// WebSocket route
	if rc.WS != nil {
		ws := router.Group("/ws")
		ws.Use(middleware.AuthMiddleware(rc.Auth))
		ws.GET("", rc.WS.HandleConnections)
	}

	return router
}
