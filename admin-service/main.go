package main

import (
	"log"
	"net/http"
	"strings"

	"launchpulse-backend/admin-service/handlers"
	"launchpulse-backend/admin-service/middleware"
	"launchpulse-backend/shared/config"
	"launchpulse-backend/shared/database"
	"launchpulse-backend/shared/rbac"
	"launchpulse-backend/shared/store"
	"launchpulse-backend/shared/utils/mail"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {

	// Load configuration
	config.LoadConfig()
	cfg := config.GetConfig()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	if err := database.SeedDatabase(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	svc := rbac.NewService(store.NewGormStore(database.GetDB()), mail.NewMailer(cfg))
	h := handlers.NewHandler(svc)

	router := gin.Default()
	router.Use(cors.Default())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "admin",
		})
	})

	api := router.Group("/api")
	api.Use(middleware.RequireAuthentication())

	rateLimiter, err := middleware.NewRateLimiter(cfg)
	if err != nil {
		log.Printf("⚠️  Warning: Redis not available, rate limiting disabled: %v", err)
	} else {
		defer rateLimiter.Close()
		api.Use(rateLimiter.Middleware())
	}

	// Organization Management Routes
	api.GET("/organizations", h.GetOrganizations)
	api.POST("/organizations", h.CreateOrganization)
	api.GET("/organizations/:id", h.GetOrganization)
	api.DELETE("/organizations/:id", h.DeleteOrganization)
	api.GET("/organizations/:id/members", h.GetOrganizationMembers)
	api.GET("/me/organizations", h.GetMyOrganizations)

	// Membership Routes
	api.POST("/users/invite", h.InviteUser)
	api.PATCH("/users/:id/role", h.UpdateUserRole)
	api.PATCH("/users/:id/suspend", h.SuspendUser)
	api.PATCH("/users/:id/unsuspend", h.UnsuspendUser)
	api.POST("/invitations/accept", h.AcceptInvitation)

	// Role and Permission Routes
	api.GET("/roles", h.GetRoles)
	api.POST("/roles", h.CreateRole)
	api.DELETE("/roles/:id", h.DeleteRole)
	api.GET("/permissions", h.GetPermissions)
	api.PATCH("/permissions/bulk-update", h.BulkUpdatePermissions)

	// Audit Log Routes
	api.GET("/audit-logs", h.GetAuditLogs)
	api.GET("/audit-logs/export", h.ExportAuditLogs)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := strings.Split(cfg.AdminServiceURL, ":")[2]
	log.Printf("Admin Service starting on port %s...", port)
	router.Run(":" + port)
}
