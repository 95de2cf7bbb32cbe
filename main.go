package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"warung/internal/handlers"
	"warung/internal/middleware"
	"warung/internal/models"
	"warung/internal/repositories"
	"warung/internal/services"
	"warung/pkg/events"
	"warung/pkg/rabbitmq"
)

// NewApp wires configuration, storage, services and routes into a runnable
// Fiber app. Exposed so tests can boot the same composition the binary runs.
func NewApp() (*fiber.App, *services.AuthService, error) {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_DSN", "warung.db")
	viper.SetDefault("JWT_SECRET", "change-me-in-production")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("AUTH_MAX_ATTEMPTS", 3)
	viper.SetDefault("AUTH_LOCKOUT_MINUTES", 15)
	viper.SetDefault("SESSION_TIMEOUT_MINUTES", 30)
	viper.AutomaticEnv() // Load environment variables

	// --- Database ---
	db, err := openDatabase(viper.GetString("DB_DRIVER"), viper.GetString("DB_DSN"))
	if err != nil {
		return nil, nil, err
	}
	err = db.AutoMigrate(&models.Product{}, &models.Sale{}, &models.User{}, &models.Session{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// --- Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	saleRepo := repositories.NewGORMSaleRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	sessionRepo := repositories.NewGORMSessionRepository(db)

	// --- Events ---
	hub := events.NewHub()
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			logrus.Warnf("RabbitMQ unavailable, events stay in-process only: %v", err)
		} else {
			go func() {
				for event := range hub.Subscribe() {
					if err := mqClient.PublishInventoryEvent(event); err != nil {
						logrus.Warnf("Failed to relay %s event to RabbitMQ: %v", event.Type, err)
					}
				}
				mqClient.Close()
			}()
		}
	}

	// --- Services ---
	inventoryService := services.NewInventoryService(productRepo, saleRepo, hub)
	if err := inventoryService.Load(); err != nil {
		return nil, nil, err
	}

	authConfig := services.DefaultAuthConfig(viper.GetString("JWT_SECRET"))
	authConfig.MaxLoginAttempts = viper.GetInt("AUTH_MAX_ATTEMPTS")
	authConfig.LockoutDuration = time.Duration(viper.GetInt("AUTH_LOCKOUT_MINUTES")) * time.Minute
	authConfig.SessionTimeout = time.Duration(viper.GetInt("SESSION_TIMEOUT_MINUTES")) * time.Minute
	authService := services.NewAuthService(userRepo, sessionRepo, authConfig)
	authService.CleanupExpiredSessions()

	backupService := services.NewBackupService(inventoryService, productRepo, saleRepo, hub)

	if err := seedUsers(userRepo); err != nil {
		return nil, nil, err
	}

	// --- Handlers ---
	productHandler := handlers.NewProductHandler(inventoryService)
	saleHandler := handlers.NewSaleHandler(inventoryService)
	authHandler := handlers.NewAuthHandler(authService)
	backupHandler := handlers.NewBackupHandler(backupService)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New()) // Request logger

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	authHandler.RegisterRoutes(apiV1)

	// Protected routes (require a valid token and a live session)
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(protectedRoutes)
	productHandler.RegisterRoutes(protectedRoutes)
	saleHandler.RegisterRoutes(protectedRoutes)
	backupHandler.RegisterRoutes(protectedRoutes)

	return app, authService, nil
}

func main() {
	app, _, err := NewApp()
	if err != nil {
		logrus.Fatalf("Failed to initialize application: %v", err)
	}

	appPort := viper.GetString("APP_PORT")
	logrus.Infof("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	logrus.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		logrus.Errorf("Error during Fiber shutdown: %v", err)
	}

	logrus.Info("Server gracefully stopped")
}

// openDatabase opens the configured database. sqlite keeps the whole shop in
// a single local file, matching the one-device deployment this serves.
func openDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// seedUsers creates the default staff accounts on first boot so the shop can
// sign in out of the box.
func seedUsers(repo repositories.UserRepository) error {
	count, err := repo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []struct {
		username string
		password string
		role     models.Role
	}{
		{"admin", "admin123", models.RoleAdmin},
		{"manager", "manager123", models.RoleManager},
		{"clerk", "clerk123", models.RoleClerk},
	}

	for _, d := range defaults {
		hashed, err := bcrypt.GenerateFromPassword([]byte(d.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", d.username, err)
		}
		user := models.User{
			Username: d.username,
			Password: string(hashed),
			Role:     d.role,
		}
		if err := repo.Create(&user); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", d.username, err)
		}
		logrus.Infof("Seeded user: %s (role: %s)", d.username, d.role)
	}
	logrus.Warn("Default users created with default passwords; change them before going live")
	return nil
}
