package handler

import (
	"net/http"

	"parking-booking/internal/handler/api"
	"parking-booking/internal/handler/middleware"
	"parking-booking/internal/pkg/config"
	"parking-booking/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type RouterParams struct {
	fx.In

	Engine         *gin.Engine
	Config         config.Config
	Logger         *middleware.Logger
	Metrics        *metrics.Metrics
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter

	Slots    *api.SlotHandler
	Bookings *api.BookingHandler
	Payments *api.PaymentHandler
}

func NewRouter(p RouterParams) {
	setupMiddleware(p)
	setupRoutes(p)
}

func setupMiddleware(p RouterParams) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	p.Engine.Use(middleware.CustomRecovery())
	p.Engine.Use(middleware.NewCORSMiddleware(p.Config.CORS))
	p.Engine.Use(p.Logger.LoggingMiddleware())
	if p.Config.Metrics.Enabled {
		p.Engine.Use(middleware.Metrics(p.Metrics))
	}
	p.Engine.Use(middleware.ErrorHandler())
}

func setupRoutes(p RouterParams) {
	engine := p.Engine
	engine.GET("/health", healthCheck)

	if p.Config.Metrics.Enabled {
		engine.GET(p.Config.Metrics.Path, gin.WrapH(p.Metrics.Handler()))
	}

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := p.AuthMiddleware
	adminOnly := []gin.HandlerFunc{auth.RequireAuth(), auth.RequireAdmin()}

	apiGroup := engine.Group("/api")
	{
		slots := apiGroup.Group("/slots")
		{
			addRoutes(slots, []route{
				{Method: http.MethodGet, Path: "", Handler: p.Slots.List},
				{Method: http.MethodGet, Path: "/:id", Handler: p.Slots.Get},
				{Method: http.MethodPost, Path: "", Handler: p.Slots.Create, Mw: adminOnly},
				{Method: http.MethodPut, Path: "/:id", Handler: p.Slots.Update, Mw: adminOnly},
				{Method: http.MethodDelete, Path: "/:id", Handler: p.Slots.Delete, Mw: adminOnly},
				{Method: http.MethodPatch, Path: "/:id/availability", Handler: p.Slots.SetAvailability, Mw: adminOnly},
			})
		}

		bookings := apiGroup.Group("/bookings")
		bookings.Use(auth.RequireAuth())
		{
			addRoutes(bookings, []route{
				{Method: http.MethodPost, Path: "", Handler: p.Bookings.Create},
				{Method: http.MethodGet, Path: "/my-bookings", Handler: p.Bookings.ListMine},
				{Method: http.MethodGet, Path: "/:id", Handler: p.Bookings.Get},
				{Method: http.MethodPut, Path: "/:id/cancel", Handler: p.Bookings.Cancel},
				{Method: http.MethodGet, Path: "", Handler: p.Bookings.ListAll, Mw: []gin.HandlerFunc{auth.RequireAdmin()}},
				{Method: http.MethodPut, Path: "/:id/status", Handler: p.Bookings.UpdateStatus, Mw: []gin.HandlerFunc{auth.RequireAdmin()}},
			})
		}

		payment := apiGroup.Group("/payment")
		payment.Use(auth.RequireAuth(), p.RateLimiter.Middleware())
		{
			addRoutes(payment, []route{
				{Method: http.MethodPost, Path: "/create-order", Handler: p.Payments.CreateOrder},
				{Method: http.MethodPost, Path: "/verify", Handler: p.Payments.Verify},
				{Method: http.MethodPost, Path: "/failure", Handler: p.Payments.Failure},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
