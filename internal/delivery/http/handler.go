package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "hub-order-sync/docs"
	"hub-order-sync/internal/auth"
	"hub-order-sync/internal/metrics"
	"hub-order-sync/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Config struct {
	// PublicURL is the externally visible base URL peers sign against.
	PublicURL string
	Peer      *auth.Authenticator
	// Admin guards /api. A nil Admin leaves /api unrouted.
	Admin   *auth.Authenticator
	Metrics *metrics.Metrics
}

type Handler struct {
	svc       service.Order
	peer      *auth.Authenticator
	admin     *auth.Authenticator
	publicURL string
	metrics   *metrics.Metrics
}

func NewHandler(s service.Order, cfg Config) *Handler {
	return &Handler{
		svc:       s,
		peer:      cfg.Peer,
		admin:     cfg.Admin,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		metrics:   cfg.Metrics,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), h.accessLog())

	orders := router.Group("/orders", h.signed(h.peer, "peer"))
	{
		orders.POST("", h.ReceiveOrder)
		orders.PUT("/:id", h.ReceiveUpdate)
		orders.POST("/:id/notes", h.ReceiveNote)
	}

	if h.admin != nil {
		api := router.Group("/api", h.signed(h.admin, "admin"))
		{
			api.GET("/orders", h.ListOrders)
			api.GET("/orders/:id", h.GetOrder)
			api.POST("/orders", h.CreateOrder)
			api.PUT("/orders/:id/status", h.SetStatus)
			api.POST("/orders/:id/notes", h.AddNote)
			api.POST("/orders/:id/sync", h.Resync)
			api.POST("/orders/:id/publish", h.Publish)
		}
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return router
}
