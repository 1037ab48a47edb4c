package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"drive-cache/core/loader"
	"drive-cache/core/logger"
	"drive-cache/core/middleware/auth"
	"drive-cache/core/middleware/rayid"

	"drive-cache/feature/assets"
	"drive-cache/feature/events"
	"drive-cache/feature/health"
	"drive-cache/feature/integrity"
	manifestFeature "drive-cache/feature/manifest"
	"drive-cache/feature/webhook"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title Drive Cache API
// @version 1.0
// @description Serves a Google Drive folder mirror with a versioned manifest and live updates.
// @host localhost:3100
// @BasePath /

const shutdownTimeout = 5 * time.Second

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the cache server",
	Long:  `Syncs the watched folder, starts the sync loop and serves the manifest, assets and event stream.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration and Logger
		cfg, logg, err := loadRuntime()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		keys, err := cfg.Server.Keys()
		if err != nil {
			logg.Fatal("Invalid API keys", zap.Error(err))
		}
		if len(keys) == 0 {
			logg.Warn("No API keys configured, every protected route will reject requests")
		}

		// 2. Wire state, storage, remote and the sync engine
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		inst, err := bootstrap(ctx, cfg, logg, true)
		if err != nil {
			logg.Fatal("Failed to initialize", zap.Error(err))
		}

		// 3. Initial sync. A failure leaves the stored cache in service.
		if err := inst.engine.Start(ctx); err != nil {
			logg.Error("Initial sync failed, serving the stored cache", zap.Error(err))
		}
		go inst.engine.Run(ctx)

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// RayID first so every log line can be traced
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 5. Public features
		public := loader.NewManager(logg)
		public.Register(health.NewFeature(inst.manifest, inst.broadcaster))
		public.Register(webhook.NewFeature(inst.engine, cfg.Server.WebhookURL != "", logg))
		if err := public.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Everything below requires a tenant key
		app.Use(auth.New(auth.Config{Keys: keys}))

		mgr := loader.NewManager(logg)
		mgr.Register(manifestFeature.NewFeature(inst.manifest, inst.engine, logg))
		mgr.Register(events.NewFeature(inst.broadcaster, inst.manifest, time.Duration(cfg.Server.KeepaliveSeconds)*time.Second, logg))
		mgr.Register(assets.NewFeature(inst.store, logg))
		mgr.Register(integrity.NewFeature(inst.store, inst.manifest, inst.resyncer(), inst.db, logg))
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")

		cancel()
		// Closing the broadcaster ends open event streams so the listener can drain.
		inst.broadcaster.Close()

		var result *multierror.Error
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			result = multierror.Append(result, err)
		}
		closeCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := inst.close(closeCtx); err != nil {
			result = multierror.Append(result, err)
		}
		if err := result.ErrorOrNil(); err != nil {
			logg.Error("Shutdown finished with errors", zap.Error(err))
			return
		}
		logg.Info("Shutdown complete")
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
