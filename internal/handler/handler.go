package handler

import (
	"net/http"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/service"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/tracking"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/verify"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the HTTP API
type Handler struct {
	Products *service.ProductService
	Verifier *verify.Engine
	Chain    *tracking.Chain
	Invoices *service.InvoiceService
	Funding  *service.FundingService
	Stats    *service.StatsService
	Auth     *service.AuthService
}

// Routes mounts every route on e. Write routes are wrapped with protect
// when it is not nil.
func (h *Handler) Routes(e *echo.Echo, protect echo.MiddlewareFunc) {
	var writeMW []echo.MiddlewareFunc
	if protect != nil {
		writeMW = append(writeMW, protect)
	}

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", Health)
	e.GET("/", Root)

	api := e.Group("/api")

	api.POST("/register", h.RegisterUser)
	api.POST("/login", h.Login)

	api.POST("/products", h.CreateProduct, writeMW...)
	api.GET("/products", h.ListProducts)
	api.POST("/verify", h.Verify)

	api.POST("/tracking_events", h.CreateTrackingEvent, writeMW...)
	api.GET("/tracking_events", h.ListRecentEvents)
	api.GET("/tracking_events/:product_id", h.ListProductEvents)
	api.GET("/tracking_events/:product_id/forks", h.ListForks)

	api.POST("/invoices_create", h.CreateInvoice, writeMW...)
	api.GET("/get_invoices", h.ListInvoices)
	api.POST("/invoices_funded", h.SaveFunding, writeMW...)
	api.GET("/invoices_funded", h.GetFunding)

	api.GET("/distributor_stats", h.DistributorStats)
	api.GET("/retailer_stats", h.RetailerStats)
}

// Health reports liveness
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Root is the service banner
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "VeriChain API running"})
}
