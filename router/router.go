package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-session/controllers"
	"github.com/yeremiapane/table-session/events"
	"github.com/yeremiapane/table-session/idempotency"
	"github.com/yeremiapane/table-session/kds"
	"github.com/yeremiapane/table-session/middlewares"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/services"
	"github.com/yeremiapane/table-session/store"
	"github.com/yeremiapane/table-session/utils"
	"gorm.io/gorm"
)

type Options struct {
	Issuer      *utils.TokenIssuer
	SessionTTL  time.Duration
	Idempotency idempotency.Store
	// Publishers receive events in addition to the websocket hub.
	Publishers     []events.Publisher
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigin     string
	Currency       string
}

// App is the wired service: the HTTP engine plus the components main starts
// and stops.
type App struct {
	Engine      *gin.Engine
	Hub         *kds.Hub
	Relay       *services.OutboxRelay
	RateLimiter *middlewares.RateLimiter

	Sessions *services.SessionManager
	Intake   *services.OrderIntake
	Router   *services.FulfillmentRouter
	Billing  *services.Billing
	Admin    *services.AdminService
	Catalog  *services.CatalogService
	Activity *services.ActivityFeed
}

func SetupRouter(db *gorm.DB, opts Options) *App {
	st := store.New(db)
	hub := kds.NewHub()
	relay := services.NewOutboxRelay(st, append([]events.Publisher{hub}, opts.Publishers...)...)

	billing := services.NewBilling(st)
	app := &App{
		Hub:      hub,
		Relay:    relay,
		Billing:  billing,
		Sessions: services.NewSessionManager(st, billing, opts.SessionTTL),
		Intake:   services.NewOrderIntake(st),
		Router:   services.NewFulfillmentRouter(st),
		Admin:    services.NewAdminService(st, opts.Issuer),
		Catalog:  services.NewCatalogService(st),
		Activity: services.NewActivityFeed(st),
	}
	app.Sessions.SetNotifier(relay.Wake)
	app.Intake.SetNotifier(relay.Wake)
	app.Router.SetNotifier(relay.Wake)

	rps, burst := opts.RateLimitRPS, opts.RateLimitBurst
	if rps <= 0 {
		rps, burst = 5, 20
	}
	app.RateLimiter = middlewares.NewRateLimiter(rps, burst)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.CORSMiddlewares(opts.CORSOrigin))
	r.Use(middlewares.SecurityHeaders())

	userController := controllers.NewUserController(app.Admin)
	tableController := controllers.NewTableController(app.Admin, app.Sessions)
	sessionController := controllers.NewSessionController(app.Sessions, app.Intake, app.Catalog, billing, opts.Currency)
	orderController := controllers.NewOrderController(app.Router)
	catalogController := controllers.NewCatalogController(app.Catalog)
	kdsController := controllers.NewKDSController(app.Router, hub, opts.CORSOrigin)
	activityController := controllers.NewActivityController(app.Activity)

	r.GET("/health", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "ok", nil)
	})

	// Public, rate limited per client IP
	public := r.Group("/")
	public.Use(app.RateLimiter.RateLimit())
	{
		public.POST("/tenants", userController.RegisterTenant)
		public.POST("/login", userController.Login)
		public.POST("/tables/:table_id/scan", tableController.ScanTable)

		// Guest routes, authorized by the session token
		public.GET("/session", sessionController.GetSession)
		public.GET("/session/menu", sessionController.GetMenu)
		public.POST("/session/orders",
			middlewares.Idempotency(opts.Idempotency, controllers.SessionScope),
			sessionController.SubmitOrder)
		public.POST("/session/bill", sessionController.RequestBill)
	}

	auth := middlewares.AuthMiddleware(opts.Issuer)

	// Station displays
	kdsGroup := r.Group("/kds")
	kdsGroup.Use(auth, middlewares.RequireRoles(models.RoleStaff, models.RoleChef, models.RoleBartender))
	{
		kdsGroup.GET("/:station/queue", kdsController.GetQueue)
		kdsGroup.POST("/:station/orders/:order_id/fulfill", kdsController.MarkFulfilled)
	}
	r.GET("/ws/:station", auth, middlewares.RequireRoles(models.RoleStaff, models.RoleChef, models.RoleBartender), kdsController.Stream)

	// Floor staff
	staff := r.Group("/admin")
	staff.Use(auth, middlewares.RequireRoles(models.RoleStaff))
	{
		staff.GET("/sessions", sessionController.ListOpenSessions)
		staff.GET("/sessions/:session_id", sessionController.GetSessionDetail)
		staff.GET("/sessions/:session_id/total", sessionController.GetSessionTotal)
		staff.POST("/sessions/:session_id/close", sessionController.CloseSession)

		staff.GET("/orders/:order_id", orderController.GetOrder)
		staff.POST("/orders/:order_id/cancel", orderController.CancelOrder)

		staff.GET("/tables", tableController.GetAllTables)
		staff.GET("/tables/:table_id", tableController.GetTable)
		staff.GET("/tables/:table_id/sessions", tableController.TableSessions)

		staff.GET("/categories", catalogController.GetCategories)
		staff.GET("/products", catalogController.GetProducts)

		staff.GET("/events", activityController.GetEvents)
	}

	// Admin only
	admin := r.Group("/admin")
	admin.Use(auth, middlewares.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/staff", userController.CreateStaff)
		admin.GET("/staff", userController.ListStaff)

		admin.POST("/tables", tableController.CreateTable)
		admin.PUT("/tables/:table_id", tableController.RenameTable)
		admin.DELETE("/tables/:table_id", tableController.DeactivateTable)

		admin.POST("/categories", catalogController.CreateCategory)
		admin.PATCH("/categories/:category_id", catalogController.UpdateCategory)
		admin.POST("/products", catalogController.CreateProduct)
		admin.PATCH("/products/:product_id", catalogController.UpdateProduct)
	}

	app.Engine = r
	return app
}
