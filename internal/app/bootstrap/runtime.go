// internal/app/bootstrap/runtime.go
package bootstrap

import (
	"context"
	"net/http"
	"path/filepath"

	employeestore "github.com/dalemusser/cwcconnect/internal/app/store/employees"
	"github.com/dalemusser/cwcconnect/internal/app/system/assistant"
	"github.com/dalemusser/cwcconnect/internal/app/system/directory"
	"github.com/dalemusser/cwcconnect/internal/app/system/dirsync"
	"github.com/dalemusser/cwcconnect/internal/app/system/indexes"
	"github.com/dalemusser/cwcconnect/internal/app/system/ingest"
	"github.com/dalemusser/cwcconnect/internal/app/system/matcher"
	"github.com/dalemusser/cwcconnect/internal/app/system/metrics"
	"github.com/dalemusser/cwcconnect/internal/app/system/mongoconn"
	"github.com/dalemusser/cwcconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/cwcconnect/internal/app/system/tasks"
	"github.com/dalemusser/cwcconnect/internal/app/system/timeouts"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Runtime is the assembled service graph shared by the HTTP handlers, the
// background jobs and the operator CLI.
type Runtime struct {
	Store     *mongoconn.Handle
	Employees *employeestore.Store
	Metrics   *metrics.Metrics
	API       ingest.FetchConfig
	Engine    *dirsync.Engine
	Matcher   *matcher.Matcher
	Directory *directory.Service
	Runner    *tasks.Runner
	Limiter   *ratelimit.Limiter
}

// Init wires every component over handle. reg may be nil.
func (rt *Runtime) Init(ctx context.Context, appCfg AppConfig, handle *mongoconn.Handle, reg *prometheus.Registry, logger *zap.Logger) error {
	rt.Store = handle
	rt.Employees = employeestore.New(handle.Database())
	rt.Metrics = metrics.New(reg)
	rt.Metrics.SetStoreAvailable(handle.IsAvailable())

	rt.API = ingest.FetchConfig{
		URL:        appCfg.UpdateAPI,
		Username:   appCfg.APIUsername,
		Password:   appCfg.APIPassword,
		Timeout:    timeouts.Fetch(),
		Retries:    appCfg.APIRetries,
		RetryDelay: appCfg.APIRetryDelay,
	}
	var api ingest.RosterAPI
	if rt.API.Configured() {
		api = ingest.NewFetcher(rt.API, &http.Client{}, logger)
	}
	selector := ingest.NewSelector(api, ingest.SpreadsheetFiles{
		Dir:       filepath.Clean(appCfg.DataDir),
		Roster:    appCfg.RosterFile,
		Directory: appCfg.DirectoryFile,
	}, logger)

	rt.Engine = dirsync.New(selector, rt.Employees, handle, rt.Metrics, logger)
	if appCfg.SyncConcurrency > 0 {
		rt.Engine.SetConcurrency(appCfg.SyncConcurrency)
	}

	aug, err := assistant.New(ctx, assistant.Config{
		Provider:     appCfg.AssistantProvider,
		OllamaURL:    appCfg.OllamaURL,
		OllamaModel:  appCfg.OllamaModel,
		GeminiAPIKey: appCfg.GeminiAPIKey,
		GeminiModel:  appCfg.GeminiModel,
	}, &http.Client{}, logger)
	if err != nil {
		return err
	}

	rt.Matcher = matcher.New(rt.Employees, handle, nil, logger)
	rt.Directory = directory.New(rt.Employees, rt.Matcher, handle, aug, rt.Metrics, logger)

	rt.Runner = tasks.NewRunner(logger,
		tasks.EmployeeSyncJob(rt.Engine, appCfg.SyncInterval, appCfg.SyncOnStart),
		tasks.StorePingJob(handle, func(ctx context.Context) error {
			return rt.restoreStore(ctx, logger)
		}, rt.Metrics, logger, appCfg.StorePingInterval, timeouts.Ping()),
	)

	if appCfg.ChatRateLimit > 0 {
		perSecond := float64(appCfg.ChatRateLimit) / 60
		rt.Limiter = ratelimit.New(perSecond, max(1, appCfg.ChatRateLimit/6))
	}
	return nil
}

// restoreStore runs when the store becomes reachable again: it reconciles
// indexes and then syncs, so a boot without Mongo does not leave the
// directory empty until the next scheduled cycle.
func (rt *Runtime) restoreStore(ctx context.Context, logger *zap.Logger) error {
	ictx, cancel := context.WithTimeout(ctx, timeouts.Query())
	err := indexes.EnsureAll(ictx, rt.Store.Database())
	cancel()
	if err != nil {
		return err
	}
	if _, err := rt.Engine.Run(ctx); err != nil {
		logger.Warn("sync after store restore failed", zap.Error(err))
	}
	return nil
}

// Close stops background work owned by the runtime.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	if rt.Runner != nil {
		rt.Runner.Stop()
	}
	if rt.Limiter != nil {
		rt.Limiter.Stop()
	}
}
