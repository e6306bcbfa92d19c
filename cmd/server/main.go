package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/JoeBambaIsTaken/HRG-Project/internal/audit"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/auth"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/config"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/database"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/discord"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/handlers"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/logger"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/relay"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/routes"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Load configuration. Missing settings abort startup: the relay never
	// serves partial functionality.
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to PostgreSQL (sync attempt log)
	db, err := database.Connect(&cfg.Database, logger.Logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger.Logger); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()

	// Run migrations
	if err := database.RunMigrations(&cfg.Database, logger.Logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Wire up the relay
	gate := auth.NewGate(cfg.Supabase.ProjectURL, cfg.Supabase.AnonKey, cfg.Supabase.ServiceRoleKey, logger.Logger)
	messenger := discord.NewClient(cfg.Discord.APIBaseURL, cfg.Discord.BotToken, cfg.Discord.ChannelID, logger.Logger)
	recorder := audit.NewRecorder(db, logger.Logger)
	rly := relay.NewRelay(gate, messenger, recorder, logger.Logger)

	syncHandler := handlers.NewSyncHandler(rly, logger.Logger)
	healthHandler := handlers.NewHealthHandler(db, logger.Logger)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Event Sync Gateway",
		ServerHeader: "Fiber",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "POST,OPTIONS",
		AllowHeaders: "Authorization,X-Client-Info,Apikey,Content-Type",
	}))

	// Setup routes
	routes.SetupRoutes(app, syncHandler, healthHandler)

	// Start server in a goroutine
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
