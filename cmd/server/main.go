package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/cleanteam/internal/attendance"
	"github.com/stwalsh4118/cleanteam/internal/config"
	"github.com/stwalsh4118/cleanteam/internal/database"
	"github.com/stwalsh4118/cleanteam/internal/handlers"
	"github.com/stwalsh4118/cleanteam/internal/logger"
	"github.com/stwalsh4118/cleanteam/internal/middleware"
	"github.com/stwalsh4118/cleanteam/internal/repository"
	"github.com/stwalsh4118/cleanteam/internal/scheduler"
	"github.com/stwalsh4118/cleanteam/internal/services"
	"github.com/stwalsh4118/cleanteam/internal/smoobu"
)

const (
	shutdownTimeout   = 30 * time.Second
	restoreTimeout    = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting cleanteam API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("cleanteam API stopped with an error", err, nil)
	}
	log.Info("Server exited", nil)
}

// run wires the application and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s:%s/%s: %w", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name, err)
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		log.Info("Schema applied", nil)
	}

	taskRepo := repository.NewTaskRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	workLogRepo := repository.NewWorkLogRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	syncRepo := repository.NewSyncRepository(db)

	feed := smoobu.NewClient(cfg.Smoobu, log)
	tracker := attendance.NewTracker(taskRepo, propertyRepo, cfg.Geofence.RadiusMeters, log)
	defer tracker.Close()

	syncService := services.NewSyncService(feed, taskRepo, propertyRepo, settingsRepo, syncRepo, cfg.Sync, log)
	taskService := services.NewTaskService(taskRepo, propertyRepo, workLogRepo, tracker, cfg.Geofence, log)
	propertyService := services.NewPropertyService(propertyRepo, taskRepo, log)
	billingService := services.NewBillingService(taskRepo, staffRepo, log)

	sched := scheduler.New(syncService, log)
	restoreCtx, cancelRestore := context.WithTimeout(ctx, restoreTimeout)
	restored, err := sched.Restore(restoreCtx, settingsRepo)
	cancelRestore()
	if err != nil {
		log.Error("Failed to restore auto-sync schedules", err, nil)
	}
	sched.Start()
	log.Info("Auto-sync scheduler started", map[string]interface{}{
		"teams": restored,
	})

	settingsService := services.NewSettingsService(settingsRepo, sched, log)

	router := newRouter(cfg, log)
	handlers.NewHealthHandler(db, tracker, sched, cfg.Server.Env).Register(router)

	team := router.Group("/api/v1/teams/:teamId")
	handlers.NewTaskHandler(taskService).Register(team)
	handlers.NewPropertyHandler(propertyService).Register(team)
	handlers.NewSyncHandler(syncService, settingsService).Register(team)
	handlers.NewBillingHandler(billingService).Register(team)

	serveErr := serve(ctx, router, cfg.Server.Port, log)

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		log.Error("Scheduler did not drain before shutdown", err, nil)
	}
	return serveErr
}

// newRouter builds the engine with the middleware chain:
// RequestID -> Logger -> Recovery -> CORS -> StaffIdentity.
func newRouter(cfg *config.Config, log *logger.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.CORS.Origins),
		middleware.StaffIdentity(),
	)
	return router
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func serve(ctx context.Context, handler http.Handler, port string, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown within %s: %w", shutdownTimeout, err)
	}
	return nil
}
