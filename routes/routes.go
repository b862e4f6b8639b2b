package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"feedback-moderation-server/config"
	"feedback-moderation-server/middleware"
	"feedback-moderation-server/services"
	ws "feedback-moderation-server/websocket"
)

const maxBodyBytes = 64 << 10

// Dependencies are the services the HTTP layer dispatches to
type Dependencies struct {
	Config    *config.Config
	Feedback  *services.FeedbackService
	Review    *services.ReviewService
	Dashboard *services.DashboardService
	Hub       *ws.Hub
	Limiter   *middleware.RateLimiter
	Log       *zap.Logger
}

// SetupRouter builds the gin engine with every route registered
func SetupRouter(d Dependencies) *gin.Engine {
	if d.Limiter == nil {
		d.Limiter = middleware.NewRateLimiter()
	}
	log := d.Log.Named("http")

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(cors.New(corsConfig(d.Config.Server.AllowedOrigins)))
	router.Use(middleware.InputValidationMiddleware(maxBodyBytes))
	router.Use(middleware.AuditLogMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Feedback moderation server is running",
			"time":    time.Now().UTC(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handler{deps: d, log: log}

	api := router.Group("/api/v1")
	{
		feedback := api.Group("/feedback")
		feedback.POST("",
			middleware.RateLimitMiddleware(d.Limiter, d.Config.Pipeline.RateLimit, d.Config.Pipeline.RateBurst, log),
			h.submitFeedback)
		feedback.GET("", h.listApprovedFeedback)
		feedback.GET("/:id", h.getFeedback)

		api.GET("/dashboard", h.getDashboardStats)

		adminAuth := api.Group("/admin/auth")
		adminAuth.Use(middleware.AuthRateLimitMiddleware(d.Limiter, log))
		adminAuth.POST("/login", h.adminLogin)

		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware(d.Config.JWT.Secret, log))
		{
			admin.GET("/auth/me", h.currentAdmin)
			admin.GET("/feedback/pending", h.listPending)
			admin.GET("/feedback/pending/count", h.pendingCount)
			admin.GET("/feedback/rejected", h.listRejected)
			admin.GET("/feedback/:id", h.getPending)
			admin.POST("/feedback/:id/approve", h.approveFeedback)
			admin.POST("/feedback/:id/reject", h.rejectFeedback)
		}

		if d.Hub != nil {
			api.GET("/admin/ws", middleware.WebSocketAuthMiddleware(d.Config.JWT.Secret, log), d.Hub.ServeWS)
		}
	}

	return router
}

type handler struct {
	deps Dependencies
	log  *zap.Logger
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (h *handler) internalError(c *gin.Context, message string, err error) {
	h.log.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": message,
	})
}
