package usecase

import (
	"ask-relay/internal/config"
	"ask-relay/internal/ports"
	"ask-relay/internal/usecase/adapters"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	Retriever adapters.RetrieverService
}

type Params struct {
	fx.In

	Logger   *zap.Logger
	Config   *config.Config
	Engine   ports.BrowserEngine
	Archiver ports.DiagnosticsArchiver `optional:"true"`
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)

	return &Service{
		Retriever: factory.CreateRetrieverService(),
	}
}
