package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/Baize0412/hm-dianping/configs"
	"github.com/Baize0412/hm-dianping/internal/bootstrap"
	"github.com/Baize0412/hm-dianping/internal/infrastructure/httpserver"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := bootstrap.NewLogger(cfg.Log)
	logger.Info("Starting hm-dianping...")

	app, err := bootstrap.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies: ", err)
	}
	logger.Info("Connected to database and Redis successfully")

	// Run migrations
	if err := app.DB.Migrate(cfg.Database.MigrationsPath); err != nil {
		logger.Warn("Failed to run migrations: ", err)
	}

	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
	}

	deps := httpserver.ServerDeps{
		ShopService:     app.ShopService,
		ShopTypeService: app.ShopTypeService,
		VoucherService:  app.VoucherService,
		SeckillService:  app.SeckillService,
		HealthCheckers:  app.HealthCheckers,
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server: ", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: ", err)
	}
	if err := app.Close(ctx); err != nil {
		logger.Error("Failed to release resources: ", err)
	}

	logger.Info("Server exited")
}
