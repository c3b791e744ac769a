// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	chatbotfeature "github.com/dalemusser/cwcconnect/internal/app/features/chatbot"
	employeesfeature "github.com/dalemusser/cwcconnect/internal/app/features/employees"
	healthfeature "github.com/dalemusser/cwcconnect/internal/app/features/health"
	hierarchyfeature "github.com/dalemusser/cwcconnect/internal/app/features/hierarchy"
	homefeature "github.com/dalemusser/cwcconnect/internal/app/features/home"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed, so the Runtime in deps is fully wired.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	return newRouter(appCfg, deps.Runtime, logger)
}

// newRouter mounts every feature over rt. It does not touch the template
// engine, so tests can call it directly.
func newRouter(appCfg AppConfig, rt *Runtime, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: appCfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))
	r.Handle("/metrics", rt.Metrics.Handler())

	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	healthHandler := healthfeature.NewHandler(rt.Store, logger)
	r.Mount("/api/health", healthfeature.Routes(healthHandler))

	employeesHandler := employeesfeature.NewHandler(rt.Directory, rt.Engine, rt.Employees, rt.Runner, rt.API, logger)
	r.Mount("/api/employees", employeesfeature.Routes(employeesHandler))

	chatHandler := chatbotfeature.NewHandler(rt.Directory, logger)
	r.Mount("/api/chatbot", chatbotfeature.Routes(chatHandler, rt.Limiter))

	hierarchyHandler, err := hierarchyfeature.NewHandler(logger)
	if err != nil {
		logger.Error("hierarchy load failed", zap.Error(err))
		return nil, err
	}
	r.Mount("/api/hierarchy", hierarchyfeature.Routes(hierarchyHandler))

	return r, nil
}
