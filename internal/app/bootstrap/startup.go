// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/dalemusser/stratasite/internal/app/system/seeding"
	"github.com/dalemusser/stratasite/internal/app/system/tasks"
)

// Startup runs once after DB connections and schema/index setup are
// complete, but before the HTTP handler is built and requests are served.
//
// This app uses it to seed the configured admin account and to start the
// background task runner with the orphaned-upload sweep.
//
// Returning a non-nil error aborts startup. The context will be cancelled
// if the process is asked to shut down while Startup is running.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Seed admin account if configured
	if appCfg.SeedAdminEmail != "" {
		err := seeding.SeedAdmin(ctx, deps.MongoDatabase,
			appCfg.SeedAdminEmail, appCfg.SeedAdminPassword, appCfg.SeedAdminName, logger)
		if err != nil {
			logger.Error("failed to seed admin account", zap.Error(err))
			return err
		}
	}

	startTaskRunner(deps, logger)

	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	// Remove stored image files no project references anymore.
	taskRunner.Register(tasks.OrphanUploadSweepJob(deps.Docs, deps.FileStorage, logger))

	taskRunner.Start()
}
