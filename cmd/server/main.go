package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantstarter/internal/app"
	"github.com/suteetoe/tenantstarter/internal/handler"
	"github.com/suteetoe/tenantstarter/internal/storage"
	"github.com/suteetoe/tenantstarter/pkg/config"
	"github.com/suteetoe/tenantstarter/pkg/logger"
	"github.com/suteetoe/tenantstarter/prometheus"
)

const serviceName = "tenantstarter"

func main() {
	// Load configuration
	appConfig, err := config.Load(serviceName)
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: serviceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting "+serviceName, appConfig.LogConfig()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, appConfig)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()
	log.Info("Database connection established")

	// The public partition must be migrated before any request is routed
	if _, err := a.Manager.Bootstrap(ctx, appConfig.Tenancy.PublicName, appConfig.Tenancy.PublicHosts); err != nil {
		log.Fatal("Failed to bootstrap public partition", zap.Error(err))
	}
	if tenants, err := a.Catalog.ListTenants(ctx); err == nil {
		active := 0
		for _, t := range tenants {
			if !t.IsPublic() && t.IsActive {
				active++
			}
		}
		prometheus.UpdateActiveTenants(active)
	}

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true

	h := handler.New(handler.Config{
		Catalog:  a.Catalog,
		Manager:  a.Manager,
		Resolver: a.Resolver,
		Data:     a.Repo,
		Media:    storage.NewTenantStorage(a.Storage, storage.LocationMedia),
		JWT:      a.JWT,
		Ping:     a.Ping,
	})
	h.Register(e)

	// Start server
	port := appConfig.Server.Port
	go func() {
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
}
