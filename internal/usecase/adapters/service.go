package adapters

import (
	"ask-relay/internal/entity"
	"context"
)

type RetrieverService interface {
	Retrieve(ctx context.Context, question entity.Question) (entity.Answer, error)
	Run(ctx context.Context, question entity.Question) entity.Outcome
}
