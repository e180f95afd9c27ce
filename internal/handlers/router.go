package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/terminal-bench/triagedesk/internal/config"
	"github.com/terminal-bench/triagedesk/internal/metrics"
	"github.com/terminal-bench/triagedesk/internal/middleware"
	"github.com/terminal-bench/triagedesk/internal/services/notification"
	"github.com/terminal-bench/triagedesk/internal/services/triage"
)

// Dependencies are the services the router exposes
type Dependencies struct {
	Config  *config.Config
	Triage  *triage.Service
	Hub     *notification.Hub
	Metrics *metrics.Metrics
	Limiter *middleware.RateLimiter
	Logger  *zap.Logger
}

// NewRouter assembles the HTTP surface
func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(deps.Config.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	patientHandler := NewPatientHandler(deps.Triage, logger)
	limited := middleware.RateLimit(deps.Limiter)

	patients := router.Group("/patients")
	{
		patients.GET("", patientHandler.List)
		patients.POST("", limited, patientHandler.Intake)
		patients.POST("/:id/treat", limited, patientHandler.Treat)
		patients.POST("/:id/discharge", limited, patientHandler.Discharge)
	}
	router.GET("/staffing", patientHandler.Staffing)

	observerHandler := NewObserverHandler(deps.Hub, deps.Config.AllowedOrigins, logger)
	router.GET("/ws", observerHandler.Connect)

	return router
}
