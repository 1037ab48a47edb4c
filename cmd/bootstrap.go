package cmd

import (
	"context"
	"fmt"

	"drive-cache/core/broadcast"
	"drive-cache/core/config"
	"drive-cache/core/database"
	"drive-cache/core/logger"
	"drive-cache/core/manifest"
	"drive-cache/core/reconcile"
	"drive-cache/core/remote"
	"drive-cache/core/state"
	"drive-cache/core/storage"
	"drive-cache/feature/integrity"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// instance holds the wired components shared by the commands.
type instance struct {
	cfg         *config.Config
	logger      *zap.Logger
	db          *gorm.DB
	state       *state.Store
	manifest    *manifest.Manifest
	store       storage.Store
	broadcaster *broadcast.Broadcaster
	engine      *reconcile.Engine
}

// loadRuntime reads the configuration and builds the logger.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logg, nil
}

// bootstrap connects the state database, restores the manifest and builds
// the sync engine. Push channels are only registered when withPush is set.
func bootstrap(ctx context.Context, cfg *config.Config, logg *zap.Logger, withPush bool) (*instance, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	inst := &instance{cfg: cfg, logger: logg, db: db}

	if inst.state, err = state.Open(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}

	inst.manifest = manifest.New(logg, inst.state)
	snap, ok, err := inst.state.LoadManifest(ctx)
	switch {
	case err != nil:
		logg.Warn("Failed to load stored manifest, starting empty", zap.Error(err))
	case ok:
		inst.manifest.Restore(snap)
		logg.Info("Restored manifest", zap.Int64("version", snap.Version), zap.Int("assets", len(snap.Assets)))
	}

	if inst.store, err = storage.NewStore(ctx, cfg.Storage); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	source, err := remote.NewDriveSource(ctx, cfg.Google, logg)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	if err := source.Verify(ctx, cfg.Google.FolderID); err != nil {
		_ = database.Close(db)
		return nil, err
	}

	inst.broadcaster = broadcast.New(logg, broadcast.DefaultBuffer)

	webhookURL := ""
	if withPush {
		webhookURL = cfg.Server.WebhookURL
	}
	inst.engine, err = reconcile.New(reconcile.Options{
		Source:     source,
		Store:      inst.store,
		Manifest:   inst.manifest,
		Notifier:   inst.broadcaster,
		Tokens:     inst.state,
		RootID:     cfg.Google.FolderID,
		WebhookURL: webhookURL,
		Config:     cfg.Sync,
		Logger:     logg,
	})
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	logg.Info("Initialized",
		zap.String("folder", cfg.Google.FolderID),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("push", webhookURL != ""))
	return inst, nil
}

// resyncer exposes the engine's forced re-download to the integrity feature.
func (i *instance) resyncer() integrity.Resyncer {
	return integrity.ResyncFunc(func(ctx context.Context, ids []string) error {
		_, err := i.engine.Resync(ctx, ids)
		return err
	})
}

// close stops the push channel, disconnects stream clients and closes the
// database.
func (i *instance) close(ctx context.Context) error {
	var result *multierror.Error
	if err := i.engine.Close(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("stop sync engine: %w", err))
	}
	i.broadcaster.Close()
	if err := database.Close(i.db); err != nil {
		result = multierror.Append(result, fmt.Errorf("close database: %w", err))
	}
	return result.ErrorOrNil()
}
