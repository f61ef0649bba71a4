package bootstrap

import (
	"ask-relay/internal/api"
	"ask-relay/internal/browser"
	"ask-relay/internal/config"
	"ask-relay/internal/diagnostics"
	"ask-relay/internal/ports"
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// runServer depends on the trace provider so that it is installed globally
// before any request and shut down only after the server has drained.
func runServer(lc fx.Lifecycle, server *api.Server, _ *sdktrace.TracerProvider, conf *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting ask-relay", zap.String("target", conf.RetrievalConfig.TargetURL))

			return server.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, conf.HTTPConfig.ShutdownTimeout)
			defer cancel()

			if err := server.Stop(ctx); err != nil {
				logger.Error("Failed to stop HTTP server", zap.Error(err))
			}

			return nil
		},
	})
}

// installBrowser fetches browser binaries before the first request needs them.
func installBrowser(lc fx.Lifecycle, engine ports.BrowserEngine, conf *config.Config, logger *zap.Logger) {
	installer, ok := engine.(browser.Installer)
	if !ok || !conf.BrowserConfig.Install {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Installing browser", zap.String("engine", engine.Name()))

			return installer.Install(ctx)
		},
	})
}

func prepareDiagnostics(lc fx.Lifecycle, archiver ports.DiagnosticsArchiver, logger *zap.Logger) {
	a, ok := archiver.(*diagnostics.Archiver)
	if !ok || a == nil {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := a.EnsureBucket(ctx); err != nil {
				logger.Warn("Diagnostics bucket unavailable", zap.Error(err))
			}

			return nil
		},
	})
}
