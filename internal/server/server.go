package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/openrentals/rentbill/internal/config"
	contractdomain "github.com/openrentals/rentbill/internal/contract/domain"
	invoicedomain "github.com/openrentals/rentbill/internal/invoice/domain"
	templatedomain "github.com/openrentals/rentbill/internal/invoicetemplate/domain"
	"github.com/openrentals/rentbill/pkg/repository"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewHTTPMetrics),
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(requestLogger(log))
	r.Use(metricsMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
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

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	genID  *snowflake.Node

	invoiceSvc   invoicedomain.Service
	templateSvc  templatedomain.Service
	contractrepo repository.Repository[contractdomain.Contract]
	pricingCfg   *config.PricingConfigHolder
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	GenID       *snowflake.Node
	InvoiceSvc  invoicedomain.Service
	TemplateSvc templatedomain.Service
	PricingCfg  *config.PricingConfigHolder
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		log:    p.Log.Named("http.server"),
		genID:  p.GenID,

		invoiceSvc:   p.InvoiceSvc,
		templateSvc:  p.TemplateSvc,
		contractrepo: repository.ProvideStore[contractdomain.Contract](p.DB),
		pricingCfg:   p.PricingCfg,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api/v1")

	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoice)
	api.PUT("/invoices/:id", s.UpdateInvoiceBasics)
	api.PUT("/invoices/:id/items", s.UpdateInvoiceItems)
	api.POST("/invoices/:id/items", s.AddInvoiceItem)
	api.DELETE("/invoices/:id/items/:itemID", s.DeleteInvoiceItem)
	api.POST("/invoices/:id/issue", s.IssueInvoice)
	api.POST("/invoices/:id/save", s.SaveInvoice)
	api.POST("/invoices/:id/template", s.SaveInvoiceTemplate)

	api.GET("/templates", s.ListTemplates)
	api.GET("/templates/:code", s.GetTemplateByCode)

	api.GET("/contracts/:id", s.GetContractByID)
}
