package main

import (
	"log"

	"shopbot-api/internal/api"
	"shopbot-api/internal/config"
	"shopbot-api/internal/database"
	"shopbot-api/internal/services"
	"shopbot-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatal("Failed to initialize config:", err)
	}

	// Initialize logging
	logging.InitLogging()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.CloseDatabase()

	cfg := config.AppConfig
	db := database.GetDB()

	// Wire services
	gateway := services.NewYooKassaClient(cfg.YKShopID, cfg.YKSecretKey, cfg.YKReturnURL)
	transport := services.NewTelegramTransport(cfg.BotToken)
	sessions := services.NewRedisSessionStore(database.GetRedis())
	inventory := services.NewInventoryService(db)
	cart := services.NewCartService(db)
	checkout := services.NewCheckoutService(db, gateway, sessions, inventory, cfg.EmailDomain)
	notifier := services.NewAdminNotifier(db, transport, cfg.AdminChatID)
	delivery := services.NewDeliveryDispatcher(db, transport)
	reconciler := services.NewReconcilerService(db, inventory, delivery, notifier)
	auth := services.NewAuthService(cfg.AdminUsername, cfg.AdminPassword, cfg.JWTSecret)

	// Set Gin mode
	gin.SetMode(cfg.Mode)

	// Create Gin engine
	r := gin.Default()

	// Setup routes
	server := api.NewServer(db, checkout, reconciler, cart, inventory, auth, cfg)
	server.SetupRoutes(r)

	// Start server
	port := cfg.Port
	logging.Infof("Starting server on port %s", port)

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
