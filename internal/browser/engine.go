package browser

import (
	"ask-relay/internal/config"
	"ask-relay/internal/ports"
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

// NewEngine selects the automation backend named by BROWSER_ENGINE.
func NewEngine(params Params) (ports.BrowserEngine, error) {
	conf := params.Config.BrowserConfig

	switch conf.Engine {
	case config.EnginePlaywright, "":
		return NewPlaywrightEngine(conf, params.Logger), nil
	case config.EngineChromedp:
		return NewChromedpEngine(conf, params.Logger), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", conf.Engine)
	}
}

// Installer is implemented by engines that can fetch their own browser binaries.
type Installer interface {
	Install(ctx context.Context) error
}
