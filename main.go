package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/briankorir/cargotracker-api/config"
	"github.com/briankorir/cargotracker-api/controllers"
	"github.com/briankorir/cargotracker-api/middleware"
	"github.com/briankorir/cargotracker-api/models"
	"github.com/briankorir/cargotracker-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting CargoTracker API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Branch{},
		&models.Cargo{},
		&models.Order{},
		&models.RevokedToken{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize the outbound mail service
	services.InitMailService(cfg)

	// Initialize Gin router
	router := SetupRouter()

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// SetupRouter builds the Gin engine with all routes and middleware attached
func SetupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
			auth.POST("/logout", controllers.Logout)
			auth.POST("/refresh", controllers.RefreshToken)
			auth.POST("/agent",
				middleware.EnsureValidToken(),
				middleware.RequireRole(models.RoleAdmin),
				controllers.CreateAgent,
			)
		}

		// Branch listings are open; creating branches is admin-only
		v1.GET("/branches", controllers.ListBranches)
		v1.POST("/branches",
			middleware.EnsureValidToken(),
			middleware.RequireRole(models.RoleAdmin),
			controllers.CreateBranch,
		)

		cargo := v1.Group("/cargo", middleware.EnsureValidToken())
		{
			cargo.GET("", controllers.ListCargo)
			cargo.POST("", controllers.CreateCargo)
			cargo.GET("/:id", controllers.GetCargo)
			cargo.PATCH("/:id",
				middleware.RequireRole(models.RoleAgent),
				controllers.UpdateCargo,
			)
		}

		orders := v1.Group("/orders", middleware.EnsureValidToken())
		{
			orders.GET("", controllers.ListOrders)
			orders.POST("",
				middleware.RequireRole(models.RoleAgent),
				controllers.CreateOrder,
			)
			orders.GET("/:tracking_id", controllers.GetOrder)
			orders.PATCH("/:tracking_id",
				middleware.RequireRole(models.RoleAgent),
				controllers.UpdateOrder,
			)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"message": "CargoTracker API is running"},
	})
}
