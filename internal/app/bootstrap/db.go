// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/cwcconnect/internal/app/system/indexes"
	"github.com/dalemusser/cwcconnect/internal/app/system/mongoconn"
	"github.com/dalemusser/cwcconnect/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB opens the shared Mongo handle. An unreachable server does not
// abort startup: the handle starts unavailable and the store ping job
// reconnects it.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	cctx, cancel := context.WithTimeout(ctx, timeouts.Query())
	defer cancel()

	handle, err := mongoconn.Connect(cctx, appCfg.MongoURI, appCfg.MongoDatabase, logger)
	if err != nil {
		logger.Error("mongo client init failed", zap.Error(err))
		return DBDeps{}, err
	}
	return DBDeps{Mongo: handle, Runtime: &Runtime{}}, nil
}

// EnsureSchema reconciles the employees indexes. When the store is down the
// step is deferred to the ping job's first successful refresh.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if !deps.Mongo.IsAvailable() {
		logger.Warn("store unavailable, deferring index setup")
		return nil
	}

	ictx, cancel := context.WithTimeout(ctx, timeouts.Query())
	defer cancel()
	if err := indexes.EnsureAll(ictx, deps.Mongo.Database()); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
