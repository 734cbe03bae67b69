// internal/router/router.go
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pricebot/pricebot/internal/handlers"
	"github.com/pricebot/pricebot/internal/middleware"
)

// Handlers bundles every handler group the router wires up. Constructed
// once in cmd/server/main.go after every dependency is built, per spec §9's
// no-hidden-globals design note.
type Handlers struct {
	Documents *handlers.DocumentHandler
	Offers    *handlers.OfferHandler
	Products  *handlers.ProductHandler
	Vendors   *handlers.VendorHandler
	PriceHist *handlers.PriceHistoryHandler
	ChatTools *handlers.ChatToolsHandler
	WhatsApp  *handlers.WhatsAppHandler
	Admin     *handlers.AdminHandler
	Metrics   *handlers.MetricsHandler
}

// New builds the full route table of spec §6. CORS, structured logging, and
// a general per-IP rate limit apply globally; the admin login and the
// WhatsApp ingest endpoint each carry their own tighter rate limit.
// adminAuthEnabled gates the document-management and WhatsApp
// chat-management surfaces behind the admin JWT issued by POST
// /admin/login, per config.Config.AdminAuthEnabled (disabled in the local
// environment).
func New(h *Handlers, log *logrus.Logger, adminAuthEnabled bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.GeneralRateLimit())

	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", h.Metrics.Get)

	documents := r.Group("/documents")
	if adminAuthEnabled {
		documents.Use(middleware.AdminRequired())
	}
	{
		documents.POST("/upload", middleware.UploadRateLimit(), h.Documents.Upload)
		documents.GET("", h.Documents.List)
		documents.GET("/templates/vendor-price", h.Documents.Template)
		documents.GET("/jobs/:id", h.Documents.JobStatus)
		documents.GET("/:id", h.Documents.Get)
	}

	r.GET("/offers", h.Offers.List)

	products := r.Group("/products")
	{
		products.GET("", h.Products.List)
		products.GET("/:id", h.Products.Get)
	}

	vendors := r.Group("/vendors")
	{
		vendors.GET("", h.Vendors.List)
		vendors.GET("/:id", h.Vendors.Get)
	}

	priceHistory := r.Group("/price-history")
	{
		priceHistory.GET("/product/:id", h.PriceHist.ByProduct)
		priceHistory.GET("/vendor/:id", h.PriceHist.ByVendor)
	}

	chatTools := r.Group("/chat/tools")
	{
		chatTools.POST("/products/resolve", h.ChatTools.ResolveProducts)
		chatTools.POST("/offers/search-best-price", h.ChatTools.SearchBestPrice)
	}

	integrations := r.Group("/integrations/whatsapp")
	{
		integrations.POST("/ingest", middleware.AuthRateLimit(), h.WhatsApp.Ingest)
	}
	chatManagement := integrations.Group("")
	if adminAuthEnabled {
		chatManagement.Use(middleware.AdminRequired())
	}
	{
		chatManagement.GET("/chats", h.WhatsApp.ListChats)
		chatManagement.PATCH("/chats/:id/vendor", h.WhatsApp.SetVendor)
		chatManagement.POST("/chats/:id/extract", h.WhatsApp.Extract)
		chatManagement.POST("/chats/:id/extract-latest", h.WhatsApp.ExtractLatest)
	}

	admin := r.Group("/admin")
	{
		admin.POST("/login", middleware.AuthRateLimit(), h.Admin.Login)
	}

	return r
}
