package ports

import (
	"ask-relay/internal/entity"
	"context"
	"errors"
	"time"
)

// ErrTimeout marks an engine-level timeout. Adapters wrap it so errors.Is works across engines.
var ErrTimeout = errors.New("browser operation timed out")

type BrowserEngine interface {
	// Open launches an isolated browser and opens a single page in it.
	// Partially constructed resources are released before an error is returned.
	Open(ctx context.Context) (BrowserSession, error)
	Name() string
}

type BrowserSession interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Fill(ctx context.Context, selector, text string) error
	Press(ctx context.Context, selector, key string) error
	Wait(ctx context.Context, d time.Duration) error
	WaitForAttached(ctx context.Context, selector string, timeout time.Duration) (PageElement, error)
	Screenshot(ctx context.Context, path string) error
	Content(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

type PageElement interface {
	ScrollIntoView(ctx context.Context) error
	InnerText(ctx context.Context) (string, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, question entity.Question) (entity.Answer, error)
}

type DiagnosticsArchiver interface {
	Archive(ctx context.Context, diag entity.Diagnostics) error
}
