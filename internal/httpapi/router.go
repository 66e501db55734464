package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"railbite/internal/logger"
	"railbite/internal/service"
	"railbite/models"
)

// Config wires the router to the application layer.
type Config struct {
	Services  *service.Services
	JWTSecret string
	Logger    *zap.Logger
	// DB is pinged by /healthz when set.
	DB *sql.DB
}

type handler struct {
	svc *service.Services
	db  *sql.DB
}

// NewRouter builds the public HTTP API.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	useJSONFieldNames()

	r := gin.New()
	r.Use(logger.RequestID(), logger.GinMiddleware(cfg.Logger), logger.Recovery(cfg.Logger))
	r.NoRoute(func(c *gin.Context) { fail(c, http.StatusNotFound, "route not found") })

	h := &handler{svc: cfg.Services, db: cfg.DB}
	r.GET("/healthz", h.health)

	api := r.Group("/api")
	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)
	api.GET("/menu", h.listMenu)

	authed := api.Group("", authenticate(cfg.JWTSecret))
	authed.GET("/auth/me", h.me)

	admin := authed.Group("", requireRoles(models.RoleAdmin))
	customer := authed.Group("", requireRoles(models.RoleCustomer))
	courier := authed.Group("", requireRoles(models.RoleDelivery))

	admin.POST("/menu", h.createMenuItem)
	admin.PUT("/menu/:id", h.updateMenuItem)
	admin.DELETE("/menu/:id", h.deleteMenuItem)

	customer.POST("/orders", h.createOrder)
	authed.GET("/orders/my", h.myOrders)
	authed.GET("/orders/:id", h.getOrder)
	authed.GET("/orders/number/:number", h.getOrderByNumber)
	admin.GET("/orders", h.listOrders)
	admin.PATCH("/orders/:id/status", h.updateOrderStatus)
	admin.POST("/orders/:id/assign", h.assignStaff)
	authed.PATCH("/orders/:id/cancel", requireRoles(models.RoleCustomer, models.RoleAdmin), h.cancelOrder)

	courier.GET("/delivery-portal/profile", h.staffProfile)
	courier.PATCH("/delivery-portal/availability", h.setAvailability)
	courier.GET("/delivery-portal/orders", h.staffOrders)
	courier.PATCH("/delivery-portal/orders/:id/status", h.progressDelivery)

	customer.POST("/reviews", h.submitReview)
	admin.GET("/reviews", h.listReviews)
	authed.GET("/reviews/order/:orderId", h.reviewForOrder)
	admin.DELETE("/reviews/:id", h.deleteReview)

	admin.GET("/delivery-staff", h.listStaff)
	admin.GET("/delivery-staff/available", h.availableStaff)
	admin.POST("/delivery-staff", h.createStaff)
	admin.DELETE("/delivery-staff/:id", h.deleteStaff)

	authed.GET("/notifications", h.myNotifications)
	authed.GET("/notifications/unread-count", h.unreadCount)
	authed.PUT("/notifications/read-all", h.markAllRead)
	authed.PUT("/notifications/:id/read", h.markRead)
	admin.POST("/notifications", h.broadcast)
	authed.DELETE("/notifications/:id", h.deleteNotification)

	admin.GET("/reports/sales", h.salesReport)

	return r
}

func (h *handler) health(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			logger.FromGin(c).Warn("health check failed", zap.Error(err))
			fail(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	respond(c, http.StatusOK, gin.H{"status": "ok"})
}
