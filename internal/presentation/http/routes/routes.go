package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/vendas-api/internal/config"
	domainRepo "github.com/sangkips/vendas-api/internal/domain/repository"
	"github.com/sangkips/vendas-api/internal/presentation/http/handler"
	"github.com/sangkips/vendas-api/internal/presentation/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Sale      *handler.SaleHandler
	Product   *handler.ProductHandler
	Packaging *handler.PackagingHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.ClientRateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(deps.Cfg.Telemetry.ServiceName))
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		}
		if deps.RateLimiter != nil {
			body["rateLimiter"] = deps.RateLimiter.Stats()
		}
		c.JSON(http.StatusOK, body)
	})

	api := router.Group("/api")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Middleware())
	}
	{
		registerSaleRoutes(api, h, deps)
		registerProductRoutes(api, h)
		registerPackagingRoutes(api, h)
	}

	return router
}

func registerSaleRoutes(api *gin.RouterGroup, h *Handlers, deps *Deps) {
	sales := api.Group("/sales")
	{
		if deps.IdempotencyRepo != nil {
			sales.POST("", middleware.Idempotency(middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo}), h.Sale.Create)
		} else {
			sales.POST("", h.Sale.Create)
		}
		sales.GET("", h.Sale.List)
		sales.GET("/:id", h.Sale.Get)
		sales.PUT("/:id", h.Sale.Update)
		sales.DELETE("/:id", h.Sale.Delete)
	}
}

func registerProductRoutes(api *gin.RouterGroup, h *Handlers) {
	products := api.Group("/products")
	{
		products.GET("", h.Product.List)
		products.POST("", h.Product.Create)
		products.GET("/:id", h.Product.Get)
		products.PUT("/:id", h.Product.Update)
		products.DELETE("/:id", h.Product.Delete)
	}
}

func registerPackagingRoutes(api *gin.RouterGroup, h *Handlers) {
	packaging := api.Group("/packaging")
	{
		packaging.GET("", h.Packaging.List)
		packaging.POST("", h.Packaging.Create)
		packaging.GET("/:id", h.Packaging.Get)
		packaging.PUT("/:id", h.Packaging.Update)
		packaging.DELETE("/:id", h.Packaging.Delete)
	}
}
