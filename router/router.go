package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/config"
	"github.com/yeremiapane/restaurant-pos/controllers"
	"github.com/yeremiapane/restaurant-pos/kds"
	"github.com/yeremiapane/restaurant-pos/metrics"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
)

func SetupRouter(cfg *config.Config, svc *services.Services, hub *kds.Hub) *gin.Engine {
	r := gin.New()

	// Apply global middlewares
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(svc.Users)
	menuCtrl := controllers.NewMenuController(svc.Menu)
	tableCtrl := controllers.NewTableController(svc.Tables, svc.Sessions)
	kotCtrl := controllers.NewKOTController(svc.KOTs, svc.Menu)
	billCtrl := controllers.NewBillController(svc.Bills)
	adminCtrl := controllers.NewAdminController(svc.Tables, svc.Bills)
	kdsCtrl := controllers.NewKDSController(hub, cfg.CORSOrigin)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Rate limiter untuk login
	loginLimiter := middlewares.NewStrictRateLimiter()
	r.POST("/login", loginLimiter.RateLimit(), userCtrl.Login)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	pos := r.Group("/pos")
	pos.Use(middlewares.AuthMiddleware())

	pos.POST("/logout", userCtrl.Logout)
	pos.GET("/profile", userCtrl.GetProfile)

	// MENU
	pos.GET("/menu", menuCtrl.GetMenu)
	pos.GET("/menu/dishes/:dish_id", menuCtrl.GetDish)

	// TABLE
	pos.GET("/tables", tableCtrl.GetAllTables)
	pos.GET("/tables/:table_id", tableCtrl.GetTableByID)
	pos.POST("/tables/:table_id/session", tableCtrl.StartSession)

	// KOT
	pos.POST("/tables/:table_id/kots", kotCtrl.PunchKOT)
	pos.GET("/tables/:table_id/kots", kotCtrl.GetKOTsByTable)
	pos.GET("/kots/:kot_id", kotCtrl.GetKOT)
	pos.GET("/kots/:kot_id/print", kotCtrl.PrintKOT)
	pos.POST("/kot-items/:item_id/delete",
		middlewares.AuditLogger("kot_item_delete", "item_id"), kotCtrl.DeleteItem)

	// BILL
	pos.POST("/tables/:table_id/bill", billCtrl.OpenBill)
	pos.GET("/tables/:table_id/bill", billCtrl.GetBillByTable)
	pos.POST("/tables/:table_id/bill/regenerate", billCtrl.RegenerateBill)
	pos.POST("/bills/:bill_id/settle",
		middlewares.AuditLogger("bill_settle", "bill_id"), billCtrl.SettleBill)
	pos.GET("/bills/:bill_id/print", billCtrl.PrintBill)

	// Routes untuk Manager
	manager := pos.Group("")
	manager.Use(middlewares.RequireRoles(models.RoleManager))
	{
		manager.GET("/dashboard", adminCtrl.GetDashboardStats)
		manager.GET("/reports/sales", adminCtrl.GetSalesReport)
	}

	// WebSocket endpoint dengan middleware khusus
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/kds", kdsCtrl.KDSHandler)
	}

	return r
}
