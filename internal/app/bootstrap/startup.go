// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/cwcconnect/internal/app/resources"
	"github.com/dalemusser/cwcconnect/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: timeouts,
// templates, the service graph and the recurring jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Fetch:   appCfg.APITimeout,
		Augment: appCfg.AssistantTimeout,
	})
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}

	resources.LoadSharedTemplates()

	if err := deps.Runtime.Init(ctx, appCfg, deps.Mongo, prometheus.NewRegistry(), logger); err != nil {
		logger.Error("runtime init failed", zap.Error(err))
		return err
	}

	deps.Runtime.Runner.Start(ctx)
	logger.Info("cwc connect started",
		zap.Bool("api_configured", deps.Runtime.API.Configured()),
		zap.String("assistant", appCfg.AssistantProvider),
		zap.Duration("sync_interval", appCfg.SyncInterval))
	return nil
}
