package bootstrap

import (
	"ask-relay/internal/api"
	"ask-relay/internal/browser"
	"ask-relay/internal/config"
	"ask-relay/internal/diagnostics"
	"ask-relay/internal/usecase"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func NewApp() *fx.App {
	return fx.New(
		fx.Provide(
			config.GetConfig,
			newLogger,
			newTraceProvider,

			browser.NewEngine,
			diagnostics.NewArchiver,

			usecase.NewUsecase,

			api.NewServer,
		),

		fx.Invoke(
			installBrowser,
			prepareDiagnostics,
			runServer,
		),

		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),

		fx.StartTimeout(5*time.Minute),
	)
}
