package main

import (
	"log"

	"tracker/internal/config"
	"tracker/internal/database"
	"tracker/internal/handler"
	"tracker/internal/phone"
	"tracker/internal/repository"
	"tracker/internal/service"
	"tracker/internal/sms"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg := config.Load()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Seed the bootstrap admin when the users table is empty.
	if err := database.SeedAdmin(db, cfg.Admin); err != nil {
		log.Fatalf("Admin bootstrap failed: %v", err)
	}

	// Shared capabilities
	phones := phone.NewMetadata()
	sender := sms.NewVonageSender(cfg.Vonage)

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	txManager := repository.NewTransactionManager(db)

	authService := service.NewAuthService(userRepo, phones, sender)
	deviceService := service.NewDeviceService(deviceRepo, phones)
	ingestService := service.NewIngestService(deviceRepo, txManager)
	transferService := service.NewTransferService(deviceRepo, txManager)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(authService)
	deviceHandler := handler.NewDeviceHandler(deviceService, phones)
	ingestHandler := handler.NewIngestHandler(ingestService)
	transferHandler := handler.NewTransferHandler(transferService)
	agentHandler := handler.NewAgentHandler(sender, phones, cfg.Agent)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	deviceHandler.RegisterRoutes(router.Group(""))
	ingestHandler.RegisterRoutes(router.Group(""))
	transferHandler.RegisterRoutes(router.Group(""))
	agentHandler.RegisterRoutes(router.Group(""))

	log.Printf("Server listening on :%s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
