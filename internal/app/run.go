package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/specialistvlad/buildmodels/internal/buildsession"
	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/specialistvlad/buildmodels/internal/evaluator"
	"github.com/specialistvlad/buildmodels/internal/events"
	"github.com/specialistvlad/buildmodels/internal/settings"
)

// Run executes one build.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	model, converter, err := a.loader.Load(ctx, a.config.BuildPath)
	if err != nil {
		return fmt.Errorf("failed to load build description: %w", err)
	}
	a.logger.Debug("Build description loaded.", "models", len(model.Models), "projects", len(model.Projects))

	sessions := a.sessions
	if a.config.EventsURL != "" {
		sink, err := events.Dial(ctx, a.config.EventsURL, events.DialOptions{Namespace: a.config.EventsNamespace})
		if err != nil {
			return err
		}
		defer func() { _ = sink.Close() }()
		if sessions, err = a.eventSessions(sink); err != nil {
			return err
		}
	}

	session, err := sessions.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to create build session: %w", err)
	}
	ctx, logger := ctxlog.With(ctx, "build_id", session.ID())
	defer func() {
		if closeErr := session.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	a.healthCheckServer(session.Metrics().Registry())
	defer func() { _ = a.closeHealthCheckServer() }()

	description := settings.NewDescriptionPlugin(model, converter, a.outW, &a.outMu)
	logger.Info("⚙️ Applying settings plugins...", "plugins", a.plugins.Names(), "disabled", a.config.DisabledPlugins)
	if err := errors.Join(
		a.plugins.Apply(ctx, session.Router(), a.config.DisabledPlugins...),
		description.Apply(ctx, session.Router()),
	); err != nil {
		return fmt.Errorf("failed to apply settings: %w", err)
	}
	logger.Debug("Models posted.", "count", len(session.Router().Keys()))

	if len(model.Projects) == 0 {
		logger.Warn("No projects found in build description, evaluation not required.")
		return nil
	}

	logger.Info("🚀 Evaluating projects...", "count", len(model.Projects), "workers", a.config.WorkerCount)
	eval := evaluator.New(session.Router(), converter, evaluator.WithWorkers(a.config.WorkerCount))
	report, err := eval.Evaluate(ctx, model.Projects)
	if err != nil {
		return err
	}

	if err := a.writeOutput(func(w io.Writer) error { return report.Print(w) }); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}

	if report.Failed() {
		for _, p := range report.Projects {
			if p.Err != nil {
				logger.Error("Project failed.", "project", p.Path, "error", p.Err)
			}
		}
		return fmt.Errorf("build failed: %d of %d projects failed", report.FailedCount(), len(report.Projects))
	}

	logger.Info("🏁 Build finished.")
	return nil
}

// eventSessions returns the configured session factory with build events
// routed to sink.
func (a *App) eventSessions(sink events.Sink) (buildsession.Factory, error) {
	f, ok := a.sessions.(buildsession.EventsFactory)
	if !ok {
		return nil, fmt.Errorf("session factory %T does not support build events", a.sessions)
	}
	return f.WithEvents(sink), nil
}
