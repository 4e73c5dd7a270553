package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/specialistvlad/buildmodels/internal/buildsession"
	"github.com/specialistvlad/buildmodels/internal/config"
	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/specialistvlad/buildmodels/internal/settings"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW  io.Writer
	outMu sync.Mutex

	ctx        context.Context
	logger     *slog.Logger
	config     *Config
	loader     config.Loader
	sessions   buildsession.Factory
	plugins    *settings.Registry
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns an App with
// its own isolated logger and settings registry. Modules default to the
// compiled-in core modules.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...settings.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	plugins := settings.NewRegistry()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(plugins)
	}
	logger.Debug("All settings modules registered.", "count", len(modules))

	return &App{
		outW:     outW,
		ctx:      ctx,
		logger:   logger,
		config:   appConfig,
		loader:   loader,
		sessions: &buildsession.LocalFactory{},
		plugins:  plugins,
	}
}

// Plugins returns the application's settings registry. This is primarily for testing.
func (a *App) Plugins() *settings.Registry {
	return a.plugins
}

// writeOutput writes user-facing output, serialized with model markers.
func (a *App) writeOutput(fn func(w io.Writer) error) error {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return fn(a.outW)
}
