package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/guide-delivery/internal/handlers"
	"github.com/akylbek/payment-system/guide-delivery/internal/middleware"
	"github.com/akylbek/payment-system/guide-delivery/internal/telemetry"
)

type RouterConfig struct {
	Orders   handlers.OrderCreator
	Payments handlers.PaymentConfirmer
	Delivery handlers.Deliverer
	// Audit is optional; the events route is registered only when set.
	Audit handlers.AuditReader

	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
	// TrustedProxies may set X-Forwarded-For; nil trusts none.
	TrustedProxies []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		telemetry.Logger.Warn("Ignoring trusted proxies", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(telemetry.TracingMiddleware())
	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", handlers.Health)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	orderHandler := handlers.NewOrderHandler(cfg.Orders)
	paymentHandler := handlers.NewPaymentHandler(cfg.Payments)
	downloadHandler := handlers.NewDownloadHandler(cfg.Delivery)

	apiGroup := r.Group("/api")
	apiGroup.GET("/health", handlers.Health)
	apiGroup.POST("/create-order", limiter.Middleware(), orderHandler.CreateOrder)
	apiGroup.POST("/verify-payment", limiter.Middleware(), paymentHandler.VerifyPayment)
	apiGroup.GET("/check-status", limiter.Middleware(), paymentHandler.CheckStatus)
	apiGroup.GET("/download/:token", downloadHandler.Download)

	if cfg.Audit != nil {
		auditHandler := handlers.NewAuditHandler(cfg.Audit)
		apiGroup.GET("/payments/:id/events", auditHandler.GetPaymentEvents)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Disposition", "Retry-After", middleware.HeaderRequestID},
	}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
