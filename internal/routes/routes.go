package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BruksfildServices01/courier-manager/internal/backup"
	"github.com/BruksfildServices01/courier-manager/internal/config"
	"github.com/BruksfildServices01/courier-manager/internal/handlers"
	"github.com/BruksfildServices01/courier-manager/internal/middleware"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
	ucDelivery "github.com/BruksfildServices01/courier-manager/internal/usecase/delivery"
)

func RegisterRoutes(
	r *gin.Engine,
	store storage.Adapter,
	connections *backup.Store,
	runner *backup.Runner,
	cfg *config.Config,
) {

	// ======================================================
	// 🌍 MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins...))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": cfg.StorageBackend})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ======================================================
	// 🧠 USE CASES: SERVICES
	// ======================================================
	listServicesUC := ucDelivery.NewListServices(store)
	getServiceUC := ucDelivery.NewGetService(store)
	createServiceUC := ucDelivery.NewCreateService(store)
	updateServiceUC := ucDelivery.NewUpdateService(store)
	deleteServiceUC := ucDelivery.NewDeleteService(store)
	restoreServiceUC := ucDelivery.NewRestoreService(store)
	serviceHistoryUC := ucDelivery.NewServiceHistory(store)

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(store, cfg)
	meHandler := handlers.NewMeHandler(store)
	clientHandler := handlers.NewClientHandler(store)
	expenseHandler := handlers.NewExpenseHandler(store)
	reportHandler := handlers.NewReportHandler(store)
	adminHandler := handlers.NewAdminHandler(store, connections, runner)

	serviceHandler := handlers.NewServiceHandler(
		listServicesUC,
		getServiceUC,
		createServiceUC,
		updateServiceUC,
		deleteServiceUC,
		restoreServiceUC,
		serviceHistoryUC,
	)

	// ======================================================
	// 🌐 API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// 🔐 AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// 🔐 API PRIVADA
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)
			secured.PATCH("/me", meHandler.UpdateMe)

			// ------------------------------
			// CLIENTS
			// ------------------------------
			secured.GET("/clients", clientHandler.List)
			secured.GET("/clients/trash", clientHandler.Trash)
			secured.GET("/clients/categories", clientHandler.Categories)
			secured.POST("/clients", clientHandler.Create)
			secured.GET("/clients/:id", clientHandler.Get)
			secured.PUT("/clients/:id", clientHandler.Update)
			secured.DELETE("/clients/:id", clientHandler.Delete)
			secured.POST("/clients/:id/restore", clientHandler.Restore)

			// ------------------------------
			// SERVICES
			// ------------------------------
			secured.GET("/services", serviceHandler.List)
			secured.GET("/services/trash", serviceHandler.Trash)
			secured.POST("/services", serviceHandler.Create)
			secured.GET("/services/:id", serviceHandler.Get)
			secured.PUT("/services/:id", serviceHandler.Update)
			secured.DELETE("/services/:id", serviceHandler.Delete)
			secured.POST("/services/:id/restore", serviceHandler.Restore)
			secured.GET("/services/:id/logs", serviceHandler.Logs)

			// ------------------------------
			// EXPENSES
			// ------------------------------
			secured.GET("/expenses", expenseHandler.List)
			secured.POST("/expenses", expenseHandler.Create)
			secured.PUT("/expenses/:id", expenseHandler.Update)
			secured.DELETE("/expenses/:id", expenseHandler.Delete)

			// ------------------------------
			// REPORTS
			// ------------------------------
			secured.GET("/reports/summary", reportHandler.Summary)
			secured.GET("/reports/pdf", reportHandler.PDF)
			secured.GET("/reports/csv", reportHandler.CSV)
		}

		// ------------------------------
		// 🛡️ ADMIN
		// ------------------------------
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminOnly())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.PATCH("/users/:id/role", adminHandler.SetRole)
			admin.PATCH("/users/:id/status", adminHandler.SetStatus)

			admin.GET("/connections", adminHandler.ListConnections)
			admin.POST("/connections", adminHandler.CreateConnection)
			admin.PUT("/connections/:id", adminHandler.UpdateConnection)
			admin.DELETE("/connections/:id", adminHandler.DeleteConnection)

			admin.POST("/backups/run", adminHandler.RunBackups)
		}
	}
}
