package usecase

import (
	"ask-relay/internal/usecase/adapters"
)

type serviceFactory struct {
	deps Params
}

func newServiceFactory(deps Params) *serviceFactory {
	return &serviceFactory{
		deps: deps,
	}
}

func (f *serviceFactory) CreateRetrieverService() adapters.RetrieverService {
	return NewRetrieverService(RetrieverServiceParams{
		Config:   f.deps.Config,
		Logger:   f.deps.Logger,
		Engine:   f.deps.Engine,
		Archiver: f.deps.Archiver,
	})
}
