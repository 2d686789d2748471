// Package server is the HTTP surface for the sales desk.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/craftline/salesdesk/internal/config"
	"github.com/craftline/salesdesk/internal/observability"
	obsmiddleware "github.com/craftline/salesdesk/internal/observability/logger"
	obsmetrics "github.com/craftline/salesdesk/internal/observability/metrics"
	obstracing "github.com/craftline/salesdesk/internal/observability/tracing"
	orderdomain "github.com/craftline/salesdesk/internal/order/domain"
	shippingdomain "github.com/craftline/salesdesk/internal/shipping/domain"
)

var Module = fx.Module("server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, log *zap.Logger, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type ServerParams struct {
	fx.In

	Engine   *gin.Engine
	Config   config.Config
	Orders   orderdomain.Service
	Shipping shippingdomain.Client
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	orders   orderdomain.Service
	shipping shippingdomain.Client
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:   p.Engine,
		cfg:      p.Config,
		orders:   p.Orders,
		shipping: p.Shipping,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")

	api.GET("/taxes", s.ListTaxes)

	api.POST("/orders/recalculate", s.RecalculateOrder)
	api.POST("/orders/validate", s.ValidateOrder)
	api.POST("/orders", s.SubmitOrder)
	api.GET("/orders", s.ListOrders)
	api.GET("/orders/:id", s.GetOrder)
	api.GET("/orders/:id/packing-slip", s.PackingSlip)
	api.GET("/orders/:id/invoice", s.InvoicePDF)
	api.POST("/orders/:id/shipments", s.CreateShipment)

	api.GET("/serviceability/:pincode", s.CheckServiceability)
	api.POST("/waybills/allocate", s.AllocateWaybills)
	api.GET("/waybills/:wbn/tracking", s.GetTracking)
	api.GET("/waybills/:wbn/label", s.FetchLabel)

	api.POST("/pickups", s.RequestPickup)
}
