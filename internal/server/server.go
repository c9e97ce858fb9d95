package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/database"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/middleware"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/service"
)

type Server struct {
	checkout     service.CheckoutService
	reconcile    service.ReconcileService
	status       service.StatusService
	db           *sql.DB
	webhookToken string
	logger       *slog.Logger
}

func New(
	checkout service.CheckoutService,
	reconcile service.ReconcileService,
	status service.StatusService,
	db *sql.DB,
	webhookToken string,
	logger *slog.Logger,
) *Server {
	return &Server{
		checkout:     checkout,
		reconcile:    reconcile,
		status:       status,
		db:           db,
		webhookToken: webhookToken,
		logger:       logger,
	}
}

// Router assembles the gin engine. CORS is restricted to the storefront
// origin; the webhook endpoint is called server-to-server by the provider
// and sits outside the /api group.
func (s *Server) Router(storefrontOrigin string, limiter middleware.LimiterStore) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/webhooks/payment", s.handleWebhook)

	api := router.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowOrigins: []string{storefrontOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	api.POST("/checkout", middleware.RateLimit(limiter), s.handleCheckout)
	api.GET("/payment-status", s.handleStatus)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := database.Health(c.Request.Context(), s.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
