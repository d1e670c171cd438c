package app

import (
	"fmt"

	"charityops_backend/database"
	"charityops_backend/internal/auth"
	"charityops_backend/internal/config"
	"charityops_backend/internal/handlers"
	"charityops_backend/internal/logger"
	"charityops_backend/internal/middleware"
	"charityops_backend/internal/models"
	"charityops_backend/internal/repositories"
	"charityops_backend/internal/routes"
	"charityops_backend/internal/services"
	"charityops_backend/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Run boots the whole application: config, logging, database, routes.
func Run() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	config.LoadConfig()
	cfg := config.GetConfig()

	logger.Init(cfg.Server.Env)
	logger.Info("Starting charityops backend", "env", cfg.Server.Env)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get database handle", "error", err)
	}
	if err := sqlDB.Ping(); err != nil {
		logger.Fatal("Database ping failed", "error", err)
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal("Database migration failed", "error", err)
	}

	if err := seedFirstAdmin(db, cfg); err != nil {
		logger.Fatal("Failed to seed first admin", "error", err)
	}

	router := SetupRouter(db, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("HTTP server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		logger.Fatal("HTTP server stopped", "error", err)
	}
}

// SetupRouter assembles middleware, dependencies and routes. Split out of
// Run so handler tests can build a router against their own database.
func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	v := validator.New()
	base := handlers.NewBaseHandler(v)

	userRepo := repositories.NewUserRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	resolver := services.NewRecipientResolver(userRepo)
	notificationService := services.NewNotificationService(
		notificationRepo,
		resolver,
		cfg.Notifications.FanOutConcurrency,
	)
	authService := services.NewAuthService(userRepo)

	routes.RegisterRoutes(r, &handlers.AppHandlers{
		Auth:         handlers.NewAuthHandler(base, authService),
		Notification: handlers.NewNotificationHandler(base, notificationService),
	})

	return r
}

// seedFirstAdmin creates the bootstrap admin account when no admin exists yet.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	userRepo := repositories.NewUserRepository(db)

	count, err := userRepo.CountByRole(models.UserRoleAdmin)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if cfg.FirstAdminEmail == "" || cfg.FirstAdminPassword == "" {
		logger.Warn("No admin exists and no first admin credentials configured, skipping seed")
		return nil
	}

	hash, err := auth.HashPassword(cfg.FirstAdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:        cfg.FirstAdminEmail,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := userRepo.Create(admin); err != nil {
		return err
	}

	logger.Info("Seeded first admin account", "email", cfg.FirstAdminEmail)
	return nil
}
